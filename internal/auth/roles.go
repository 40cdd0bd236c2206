package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/civicdesk/complaint-service/internal/domain"
	apperrors "github.com/civicdesk/complaint-service/pkg/util"
)

// RequireUser allows only authenticated citizens or admins.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.User == nil {
			return apperrors.NewForbidden("user access required")
		}
		return c.Next()
	}
}

// RequireAdmin allows only users carrying the admin role.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.User == nil || principal.User.Role != domain.UserRoleAdmin {
			return apperrors.NewForbidden("admin access required")
		}
		return c.Next()
	}
}

// RequireProvider allows only authenticated providers.
func RequireProvider() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.Provider == nil {
			return apperrors.NewForbidden("provider access required")
		}
		return c.Next()
	}
}
