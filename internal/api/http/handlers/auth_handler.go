package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk-portal/internal/api/dto"
	"github.com/spec-kit/helpdesk-portal/internal/service"
)

// AuthHandler exposes the OAuth login flow.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Login GET /auth/login redirects to the identity provider.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	url, err := h.auth.LoginURL(uuid.NewString())
	if err != nil {
		return err
	}
	return c.Redirect(url, fiber.StatusFound)
}

// Callback GET /auth/callback?code=.
func (h *AuthHandler) Callback(c *fiber.Ctx) error {
	identity, token, exp, err := h.auth.Callback(c.UserContext(), c.Query("code"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.AuthTokenResponse{
		AccessToken: token,
		ExpiresAt:   exp,
		Email:       identity.Email,
		Name:        identity.Name,
	}})
}
