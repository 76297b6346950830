package auth

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/sunbase/customer-service/internal/domain"
)

const identityLocalsKey = "auth_identity"

type identityCtxKey struct{}

// WithIdentity returns a copy of ctx carrying identity.
func WithIdentity(ctx context.Context, identity *domain.Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey{}, identity)
}

// IdentityFromContext retrieves the identity bound to ctx, if any.
func IdentityFromContext(ctx context.Context) (*domain.Identity, bool) {
	if ctx == nil {
		return nil, false
	}
	identity, ok := ctx.Value(identityCtxKey{}).(*domain.Identity)
	return identity, ok && identity != nil
}

// IdentityFromFiber retrieves the identity bound to the current request.
func IdentityFromFiber(c *fiber.Ctx) (*domain.Identity, bool) {
	if identity, ok := c.Locals(identityLocalsKey).(*domain.Identity); ok && identity != nil {
		return identity, true
	}
	return IdentityFromContext(c.UserContext())
}

func bindIdentity(c *fiber.Ctx, identity *domain.Identity) {
	c.Locals(identityLocalsKey, identity)
	c.SetUserContext(WithIdentity(c.UserContext(), identity))
}
