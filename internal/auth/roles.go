package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-portal/internal/config"
	apperrors "github.com/spec-kit/helpdesk-portal/pkg/util/errorutil"
)

// RequireMaster admits only the configured support account.
func RequireMaster(portal config.PortalConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := portal.Validate(); err != nil {
			return apperrors.NewConfigurationError(err)
		}
		identity, ok := IdentityFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !portal.IsMaster(identity.Email) {
			return apperrors.NewForbidden("support account required")
		}
		return c.Next()
	}
}
