package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sunbase/customer-service/internal/domain"
	apperrors "github.com/sunbase/customer-service/pkg/util"
)

// BearerPrefix must open the Authorization header exactly, including the space.
const BearerPrefix = "Bearer "

var (
	ErrUnknownSubject         = errors.New("unknown subject")
	ErrAuthenticationRejected = errors.New("token does not match identity")
)

// TokenVerifier validates bearer tokens.
type TokenVerifier interface {
	ExtractSubject(token string) (string, error)
	IsValid(token string, identity *domain.Identity) bool
}

// IdentityLoader resolves a token subject into an identity.
type IdentityLoader interface {
	LoadByUsername(ctx context.Context, subject string) (*domain.Identity, error)
}

// OutcomeRecorder observes filter decisions.
type OutcomeRecorder interface {
	RecordAuthOutcome(state, reason string)
}

// State is the terminal state of one filter pass.
type State string

const (
	StateSkipped              State = "skipped"
	StateUnauthenticated      State = "unauthenticated"
	StateAuthenticated        State = "authenticated"
	StateAlreadyAuthenticated State = "already_authenticated"
)

// Result is the outcome of authenticating one request.
// Reason is set when a presented token could not be turned into an identity.
type Result struct {
	State    State
	Identity *domain.Identity
	Reason   error
}

// Filter attaches an identity to requests carrying a valid bearer token.
// It never rejects a request; guards further down the chain do that.
type Filter struct {
	tokens     TokenVerifier
	identities IdentityLoader
	logger     *zap.Logger
	recorder   OutcomeRecorder
}

// NewFilter constructs the filter. recorder may be nil.
func NewFilter(tokens TokenVerifier, identities IdentityLoader, logger *zap.Logger, recorder OutcomeRecorder) *Filter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Filter{tokens: tokens, identities: identities, logger: logger, recorder: recorder}
}

// Authenticate decides the authentication outcome for an Authorization header value.
// current is the identity already bound to the request, if any.
func (f *Filter) Authenticate(ctx context.Context, header string, current *domain.Identity) Result {
	if !strings.HasPrefix(header, BearerPrefix) {
		return Result{State: StateSkipped, Identity: current}
	}
	token := header[len(BearerPrefix):]

	subject, err := f.tokens.ExtractSubject(token)
	if err != nil {
		return Result{State: StateUnauthenticated, Identity: current, Reason: err}
	}

	if current != nil {
		return Result{State: StateAlreadyAuthenticated, Identity: current}
	}

	identity, err := f.identities.LoadByUsername(ctx, subject)
	if err != nil {
		return Result{State: StateUnauthenticated, Reason: err}
	}

	if !f.tokens.IsValid(token, identity) {
		return Result{State: StateUnauthenticated, Reason: fmt.Errorf("%w: %s", ErrAuthenticationRejected, subject)}
	}
	return Result{State: StateAuthenticated, Identity: identity}
}

// Handle runs Authenticate for the request and always continues the chain.
func (f *Filter) Handle(c *fiber.Ctx) error {
	current, _ := IdentityFromFiber(c)
	result := f.Authenticate(c.UserContext(), c.Get(fiber.HeaderAuthorization), current)

	switch result.State {
	case StateAuthenticated:
		bindIdentity(c, result.Identity)
		f.logger.Debug("request authenticated",
			zap.String("subject", result.Identity.Subject),
			zap.String("path", c.Path()))
	case StateUnauthenticated:
		f.logger.Warn("bearer token rejected",
			zap.String("reason", ReasonCode(result.Reason)),
			zap.String("path", c.Path()),
			zap.Error(result.Reason))
	case StateSkipped:
		f.logger.Debug("no bearer token presented", zap.String("path", c.Path()))
	}

	if f.recorder != nil {
		f.recorder.RecordAuthOutcome(string(result.State), ReasonCode(result.Reason))
	}
	return c.Next()
}

// ReasonCode maps a filter failure onto its error code. It returns "" for nil.
func ReasonCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTokenExpired):
		return apperrors.CodeTokenExpired
	case errors.Is(err, ErrTokenInvalidSignature):
		return apperrors.CodeTokenInvalidSignature
	case errors.Is(err, ErrTokenMalformed):
		return apperrors.CodeTokenMalformed
	case errors.Is(err, ErrUnknownSubject):
		return apperrors.CodeUnknownSubject
	case errors.Is(err, ErrAuthenticationRejected):
		return apperrors.CodeAuthenticationRejected
	default:
		return apperrors.CodeInternal
	}
}
