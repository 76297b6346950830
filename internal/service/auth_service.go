package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/sunbase/customer-service/internal/auth"
	"github.com/sunbase/customer-service/internal/config"
	"github.com/sunbase/customer-service/internal/domain"
	"github.com/sunbase/customer-service/internal/repository"
	apperrors "github.com/sunbase/customer-service/pkg/util"
)

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Identity  *domain.Identity
}

// AuthService exchanges credentials for bearer tokens.
type AuthService struct {
	cfg      config.AuthConfig
	users    repository.UserRepository
	tokenMgr *auth.TokenManager
	// dummyHash is compared on unknown emails so both rejection paths pay the bcrypt cost.
	dummyHash       string
	passwordMatches func(hashed, plain string) bool
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, users repository.UserRepository) *AuthService {
	dummyHash, _ := auth.HashPassword("customer-service-unknown-account", cfg.BcryptCost)
	return &AuthService{
		cfg:             cfg,
		users:           users,
		tokenMgr:        auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		dummyHash:       dummyHash,
		passwordMatches: auth.PasswordMatches,
	}
}

// Login authenticates the credential and issues a token for its email.
func (s *AuthService) Login(ctx context.Context, credential domain.Credential) (*LoginResult, error) {
	email := strings.TrimSpace(credential.Email)
	if email == "" || credential.Password == "" {
		return nil, apperrors.NewValidationError("email and password required", nil)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.passwordMatches(s.dummyHash, credential.Password)
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, err
	}
	if !s.passwordMatches(user.PasswordHash, credential.Password) {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}

	token, exp, err := s.tokenMgr.GenerateToken(user.Email)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, ExpiresAt: exp, Identity: user.Identity()}, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// EnsureBootstrapAdmin creates the configured administrator account when it does not exist yet.
// It reports whether an account was created; without bootstrap credentials it does nothing.
func (s *AuthService) EnsureBootstrapAdmin(ctx context.Context) (bool, error) {
	email := strings.TrimSpace(s.cfg.BootstrapEmail)
	if email == "" || s.cfg.BootstrapPassword == "" {
		return false, nil
	}
	hash, err := auth.HashPassword(s.cfg.BootstrapPassword, s.cfg.BcryptCost)
	if err != nil {
		return false, err
	}
	return s.users.CreateIfAbsent(ctx, &domain.User{
		Email:        email,
		PasswordHash: hash,
		Authorities:  []string{domain.AuthorityUser, domain.AuthorityAdmin},
	})
}
