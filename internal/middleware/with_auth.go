package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-classroom-api/internal/utils"
)

// Auth role constants used by WithAuth helper.
const (
	AuthRoleAny        = "any"
	AuthRoleAdmin      = "admin"
	AuthRoleInstructor = "instructor"
	AuthRoleStudent    = "student"
)

// AuthOptions configures the WithAuth helper. Callers must be authenticated
// unless AllowAnonymous is set together with AuthRoleAny.
type AuthOptions struct {
	Role           string
	AllowAnonymous bool
}

// WithAuth wraps a handler with authentication and coarse role guards.
func WithAuth(handler fiber.Handler, opts AuthOptions) fiber.Handler {
	role := strings.ToLower(strings.TrimSpace(opts.Role))
	if role == "" {
		role = AuthRoleAny
	}
	anonymous := opts.AllowAnonymous && role == AuthRoleAny

	return func(c *fiber.Ctx) error {
		if c.Locals("user_id") == nil {
			if anonymous {
				return handler(c)
			}
			return utils.Fail(c, fiber.StatusUnauthorized, "authentication required", nil)
		}

		if !roleAllowed(role, normalizeRoleValue(c.Locals("user_role"))) {
			return utils.Fail(c, fiber.StatusForbidden, "insufficient permissions", nil)
		}

		return handler(c)
	}
}

func roleAllowed(required, current string) bool {
	switch required {
	case AuthRoleAny:
		return true
	case AuthRoleAdmin:
		return current == "admin"
	case AuthRoleInstructor:
		return current == "admin" || current == "teacher" || current == "instructor"
	default:
		return current == required
	}
}
