package auth

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sunbase/customer-service/internal/domain"
	apperrors "github.com/sunbase/customer-service/pkg/util"
)

type mockIdentityLoader struct {
	mock.Mock
}

func (m *mockIdentityLoader) LoadByUsername(ctx context.Context, subject string) (*domain.Identity, error) {
	args := m.Called(ctx, subject)
	identity, _ := args.Get(0).(*domain.Identity)
	return identity, args.Error(1)
}

type recordedOutcome struct {
	state  string
	reason string
}

type fakeRecorder struct {
	outcomes []recordedOutcome
}

func (r *fakeRecorder) RecordAuthOutcome(state, reason string) {
	r.outcomes = append(r.outcomes, recordedOutcome{state: state, reason: reason})
}

// substitutingVerifier accepts every token but never matches an identity.
type substitutingVerifier struct{}

func (substitutingVerifier) ExtractSubject(string) (string, error) { return "jane@example.com", nil }

func (substitutingVerifier) IsValid(string, *domain.Identity) bool { return false }

var jane = &domain.Identity{Subject: "jane@example.com", Authorities: []string{"USER"}}

func newTestApp(filter *Filter, guards ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).JSON(fiber.Map{"error": fiber.Map{"code": de.Code}})
		},
	})
	app.Use(filter.Handle)
	handlers := append(guards, func(c *fiber.Ctx) error {
		identity, ok := IdentityFromFiber(c)
		if !ok {
			return c.SendString("anonymous")
		}
		ctxIdentity, _ := IdentityFromContext(c.UserContext())
		return c.SendString(identity.Subject + "|" + ctxIdentity.Subject)
	})
	app.Get("/probe", handlers...)
	return app
}

func doRequest(t *testing.T, app *fiber.App, header string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestFilterAuthenticatesValidToken(t *testing.T) {
	tm := newTestTokenManager()
	loader := new(mockIdentityLoader)
	loader.On("LoadByUsername", mock.Anything, "jane@example.com").Return(jane, nil).Once()
	recorder := &fakeRecorder{}

	token, _, err := tm.GenerateToken("jane@example.com")
	require.NoError(t, err)

	status, body := doRequest(t, newTestApp(NewFilter(tm, loader, zap.NewNop(), recorder)), "Bearer "+token)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "jane@example.com|jane@example.com", body)
	assert.Equal(t, []recordedOutcome{{state: "authenticated"}}, recorder.outcomes)
	loader.AssertExpectations(t)
}

func TestFilterSkipsWithoutBearerPrefix(t *testing.T) {
	tm := newTestTokenManager()
	token, _, err := tm.GenerateToken("jane@example.com")
	require.NoError(t, err)

	for name, header := range map[string]string{
		"absent":    "",
		"basic":     "Basic dXNlcjpwYXNz",
		"lowercase": "bearer " + token,
		"no space":  "Bearer" + token,
	} {
		t.Run(name, func(t *testing.T) {
			loader := new(mockIdentityLoader)
			app := newTestApp(NewFilter(tm, loader, zap.NewNop(), nil))

			status, body := doRequest(t, app, header)

			assert.Equal(t, http.StatusOK, status)
			assert.Equal(t, "anonymous", body)
			loader.AssertNotCalled(t, "LoadByUsername", mock.Anything, mock.Anything)
		})
	}
}

func TestFilterContinuesOnExpiredToken(t *testing.T) {
	tm := newTestTokenManager()
	loader := new(mockIdentityLoader)
	recorder := &fakeRecorder{}
	expired := signClaims(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.RegisteredClaims{
		Subject:   "jane@example.com",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	})

	status, body := doRequest(t, newTestApp(NewFilter(tm, loader, zap.NewNop(), recorder)), "Bearer "+expired)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "anonymous", body)
	assert.Equal(t, []recordedOutcome{{state: "unauthenticated", reason: apperrors.CodeTokenExpired}}, recorder.outcomes)
	loader.AssertNotCalled(t, "LoadByUsername", mock.Anything, mock.Anything)
}

func TestFilterUnknownSubjectDegradesToUnauthenticated(t *testing.T) {
	tm := newTestTokenManager()
	loader := new(mockIdentityLoader)
	loader.On("LoadByUsername", mock.Anything, "ghost@example.com").
		Return(nil, fmt.Errorf("%w: ghost@example.com", ErrUnknownSubject))
	recorder := &fakeRecorder{}

	token, _, err := tm.GenerateToken("ghost@example.com")
	require.NoError(t, err)

	status, body := doRequest(t, newTestApp(NewFilter(tm, loader, zap.NewNop(), recorder)), "Bearer "+token)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "anonymous", body)
	assert.Equal(t, apperrors.CodeUnknownSubject, recorder.outcomes[0].reason)
}

func TestAuthenticateRejectsSubstitutedIdentity(t *testing.T) {
	loader := new(mockIdentityLoader)
	loader.On("LoadByUsername", mock.Anything, "jane@example.com").Return(jane, nil)
	filter := NewFilter(substitutingVerifier{}, loader, nil, nil)

	result := filter.Authenticate(context.Background(), "Bearer whatever", nil)

	assert.Equal(t, StateUnauthenticated, result.State)
	assert.Nil(t, result.Identity)
	assert.ErrorIs(t, result.Reason, ErrAuthenticationRejected)
	assert.Equal(t, apperrors.CodeAuthenticationRejected, ReasonCode(result.Reason))
}

func TestAuthenticateKeepsExistingIdentity(t *testing.T) {
	tm := newTestTokenManager()
	loader := new(mockIdentityLoader)
	filter := NewFilter(tm, loader, nil, nil)
	token, _, err := tm.GenerateToken("jane@example.com")
	require.NoError(t, err)

	earlier := &domain.Identity{Subject: "service@example.com"}
	result := filter.Authenticate(context.Background(), "Bearer "+token, earlier)

	assert.Equal(t, StateAlreadyAuthenticated, result.State)
	assert.Same(t, earlier, result.Identity)
	loader.AssertNotCalled(t, "LoadByUsername", mock.Anything, mock.Anything)
}

func TestFilterDoesNotOverwriteBoundIdentity(t *testing.T) {
	tm := newTestTokenManager()
	loader := new(mockIdentityLoader)
	filter := NewFilter(tm, loader, nil, nil)
	token, _, err := tm.GenerateToken("jane@example.com")
	require.NoError(t, err)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		bindIdentity(c, &domain.Identity{Subject: "service@example.com"})
		return c.Next()
	})
	app.Use(filter.Handle)
	app.Get("/probe", func(c *fiber.Ctx) error {
		identity, _ := IdentityFromFiber(c)
		return c.SendString(identity.Subject)
	})

	_, body := doRequest(t, app, "Bearer "+token)
	assert.Equal(t, "service@example.com", body)
	loader.AssertNotCalled(t, "LoadByUsername", mock.Anything, mock.Anything)
}

func TestRequireAuthenticated(t *testing.T) {
	tm := newTestTokenManager()
	loader := new(mockIdentityLoader)
	loader.On("LoadByUsername", mock.Anything, "jane@example.com").Return(jane, nil)
	app := newTestApp(NewFilter(tm, loader, nil, nil), RequireAuthenticated())

	status, body := doRequest(t, app, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Contains(t, body, apperrors.CodeUnauthorized)

	token, _, err := tm.GenerateToken("jane@example.com")
	require.NoError(t, err)
	status, _ = doRequest(t, app, "Bearer "+token)
	assert.Equal(t, http.StatusOK, status)
}

func TestRequireAuthority(t *testing.T) {
	tm := newTestTokenManager()
	admin := &domain.Identity{Subject: "admin@example.com", Authorities: []string{domain.AuthorityAdmin}}
	loader := new(mockIdentityLoader)
	loader.On("LoadByUsername", mock.Anything, "jane@example.com").Return(jane, nil)
	loader.On("LoadByUsername", mock.Anything, "admin@example.com").Return(admin, nil)
	app := newTestApp(NewFilter(tm, loader, nil, nil), RequireAuthority(domain.AuthorityAdmin))

	status, _ := doRequest(t, app, "")
	assert.Equal(t, http.StatusUnauthorized, status)

	janeToken, _, err := tm.GenerateToken("jane@example.com")
	require.NoError(t, err)
	status, body := doRequest(t, app, "Bearer "+janeToken)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Contains(t, body, apperrors.CodeForbidden)

	adminToken, _, err := tm.GenerateToken("admin@example.com")
	require.NoError(t, err)
	status, _ = doRequest(t, app, "Bearer "+adminToken)
	assert.Equal(t, http.StatusOK, status)
}

func TestReasonCode(t *testing.T) {
	assert.Equal(t, "", ReasonCode(nil))
	assert.Equal(t, apperrors.CodeTokenMalformed, ReasonCode(ErrTokenMalformed))
	assert.Equal(t, apperrors.CodeTokenInvalidSignature, ReasonCode(fmt.Errorf("wrap: %w", ErrTokenInvalidSignature)))
	assert.Equal(t, apperrors.CodeInternal, ReasonCode(fmt.Errorf("database down")))
}
