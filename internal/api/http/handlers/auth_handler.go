package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/sunbase/customer-service/internal/api/dto"
	"github.com/sunbase/customer-service/internal/domain"
	"github.com/sunbase/customer-service/internal/service"
	apperrors "github.com/sunbase/customer-service/pkg/util"
)

// AuthHandler exposes the login endpoint.
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{service: authService}
}

// Login POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}
	result, err := h.service.Login(c.UserContext(), domain.Credential{Email: req.Email, Password: req.Password})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.AuthResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		Subject:   result.Identity.Subject,
	}})
}
