package service

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sunbase/customer-service/internal/auth"
	"github.com/sunbase/customer-service/internal/config"
	"github.com/sunbase/customer-service/internal/domain"
	apperrors "github.com/sunbase/customer-service/pkg/util"
)

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*domain.User)
	return user, args.Error(1)
}

func (m *mockUserRepo) CreateIfAbsent(ctx context.Context, user *domain.User) (bool, error) {
	args := m.Called(ctx, user)
	return args.Bool(0), args.Error(1)
}

func newUser(t *testing.T, email, password string, authorities ...string) *domain.User {
	t.Helper()
	hash, err := auth.HashPassword(password, bcrypt.MinCost)
	require.NoError(t, err)
	return &domain.User{ID: 1, Email: email, PasswordHash: hash, Authorities: authorities}
}

func newAuthService(users *mockUserRepo) *AuthService {
	return NewAuthService(config.AuthConfig{JWTSecret: "login-test-secret", AccessTokenTTLMinutes: 30, BcryptCost: bcrypt.MinCost}, users)
}

func TestLoginIssuesTokenForSubject(t *testing.T) {
	users := new(mockUserRepo)
	users.On("GetByEmail", mock.Anything, "admin@example.com").
		Return(newUser(t, "admin@example.com", "s3cret", domain.AuthorityAdmin), nil)
	svc := newAuthService(users)

	result, err := svc.Login(context.Background(), domain.Credential{Email: " admin@example.com ", Password: "s3cret"})

	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", result.Identity.Subject)
	assert.True(t, result.Identity.HasAuthority(domain.AuthorityAdmin))
	subject, err := svc.TokenManager().ExtractSubject(result.Token)
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", subject)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	users := new(mockUserRepo)
	users.On("GetByEmail", mock.Anything, "admin@example.com").
		Return(newUser(t, "admin@example.com", "s3cret"), nil)
	users.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, pgx.ErrNoRows)
	svc := newAuthService(users)

	_, err := svc.Login(context.Background(), domain.Credential{Email: "admin@example.com", Password: "wrong"})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeUnauthorized))

	_, err = svc.Login(context.Background(), domain.Credential{Email: "ghost@example.com", Password: "s3cret"})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeUnauthorized))
}

func TestLoginRequiresBothFields(t *testing.T) {
	users := new(mockUserRepo)
	svc := newAuthService(users)

	_, err := svc.Login(context.Background(), domain.Credential{Email: "admin@example.com"})

	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
	users.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
}

func TestLoadByUsername(t *testing.T) {
	users := new(mockUserRepo)
	users.On("GetByEmail", mock.Anything, "jane@example.com").
		Return(newUser(t, "jane@example.com", "pw", "USER"), nil)
	users.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, pgx.ErrNoRows)
	users.On("GetByEmail", mock.Anything, "down@example.com").Return(nil, errors.New("pool closed"))
	svc := NewIdentityService(users)

	identity, err := svc.LoadByUsername(context.Background(), "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, &domain.Identity{Subject: "jane@example.com", Authorities: []string{"USER"}}, identity)

	_, err = svc.LoadByUsername(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, auth.ErrUnknownSubject)

	_, err = svc.LoadByUsername(context.Background(), "down@example.com")
	require.Error(t, err)
	assert.NotErrorIs(t, err, auth.ErrUnknownSubject)
}

func TestEnsureBootstrapAdmin(t *testing.T) {
	users := new(mockUserRepo)
	users.On("CreateIfAbsent", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		return u.Email == "root@example.com" &&
			u.Identity().HasAuthority(domain.AuthorityAdmin) &&
			auth.PasswordMatches(u.PasswordHash, "bootstrap-pw")
	})).Return(true, nil).Once()
	svc := NewAuthService(config.AuthConfig{
		JWTSecret:         "login-test-secret",
		BcryptCost:        bcrypt.MinCost,
		BootstrapEmail:    "root@example.com",
		BootstrapPassword: "bootstrap-pw",
	}, users)

	created, err := svc.EnsureBootstrapAdmin(context.Background())

	require.NoError(t, err)
	assert.True(t, created)
	users.AssertExpectations(t)
}

func TestEnsureBootstrapAdminWithoutCredentials(t *testing.T) {
	users := new(mockUserRepo)
	svc := newAuthService(users)

	created, err := svc.EnsureBootstrapAdmin(context.Background())

	require.NoError(t, err)
	assert.False(t, created)
	users.AssertNotCalled(t, "CreateIfAbsent", mock.Anything, mock.Anything)
}

func TestLoginUnknownEmailStillComparesPassword(t *testing.T) {
	users := new(mockUserRepo)
	users.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, pgx.ErrNoRows)
	svc := newAuthService(users)
	var compared []string
	svc.passwordMatches = func(hashed, plain string) bool {
		compared = append(compared, hashed)
		return auth.PasswordMatches(hashed, plain)
	}

	_, err := svc.Login(context.Background(), domain.Credential{Email: "ghost@example.com", Password: "guess"})

	assert.True(t, apperrors.IsCode(err, apperrors.CodeUnauthorized))
	require.Len(t, compared, 1)
	assert.Equal(t, svc.dummyHash, compared[0])
	cost, err := bcrypt.Cost([]byte(svc.dummyHash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)
}
