package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/sunbase/customer-service/pkg/util"
)

// RequireAuthenticated rejects requests the filter left unauthenticated.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := IdentityFromFiber(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}

// RequireAuthority ensures the caller holds at least one of the allowed authorities.
func RequireAuthority(allowed ...string) fiber.Handler {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, authority := range allowed {
		allowedSet[authority] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		identity, ok := IdentityFromFiber(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		for _, authority := range identity.Authorities {
			if _, exists := allowedSet[authority]; exists {
				return c.Next()
			}
		}
		return apperrors.NewForbidden("insufficient authority")
	}
}
