package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-classroom-api/internal/utils"
)

// RequireRole admits callers satisfying any of the listed auth roles. Roles
// follow WithAuth semantics, so AuthRoleInstructor also admits teachers and
// admins. Missing roles are rejected with 403 and a "required" detail.
func RequireRole(roles ...string) fiber.Handler {
	required := make([]string, 0, len(roles))
	for _, role := range roles {
		if normalized := normalizeRoleValue(role); normalized != "" {
			required = append(required, normalized)
		}
	}

	return func(c *fiber.Ctx) error {
		current := normalizeRoleValue(c.Locals("user_role"))
		if current != "" {
			for _, role := range required {
				if roleAllowed(role, current) {
					return c.Next()
				}
			}
		}
		return utils.Fail(c, fiber.StatusForbidden, "insufficient permissions", fiber.Map{"required": required})
	}
}

func normalizeRoleValue(value interface{}) string {
	var raw string
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		raw = v
	case fmt.Stringer:
		raw = v.String()
	default:
		raw = fmt.Sprint(v)
	}
	return strings.ToLower(strings.TrimSpace(raw))
}
