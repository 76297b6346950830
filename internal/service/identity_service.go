package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/sunbase/customer-service/internal/auth"
	"github.com/sunbase/customer-service/internal/domain"
	"github.com/sunbase/customer-service/internal/repository"
)

// IdentityService resolves token subjects into identities.
type IdentityService struct {
	users repository.UserRepository
}

// NewIdentityService builds the service.
func NewIdentityService(users repository.UserRepository) *IdentityService {
	return &IdentityService{users: users}
}

// LoadByUsername returns the identity for subject or an error wrapping auth.ErrUnknownSubject.
func (s *IdentityService) LoadByUsername(ctx context.Context, subject string) (*domain.Identity, error) {
	user, err := s.users.GetByEmail(ctx, subject)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", auth.ErrUnknownSubject, subject)
		}
		return nil, fmt.Errorf("load identity %s: %w", subject, err)
	}
	return user.Identity(), nil
}
