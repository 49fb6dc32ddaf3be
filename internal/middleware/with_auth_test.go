package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-classroom-api/internal/middleware"
)

func TestWithAuthRoleMatrix(t *testing.T) {
	cases := []struct {
		name     string
		caller   *string
		opts     middleware.AuthOptions
		expected int
	}{
		{"student passes student guard", role("Student"), middleware.AuthOptions{Role: middleware.AuthRoleStudent}, fiber.StatusNoContent},
		{"guest fails student guard", role("guest"), middleware.AuthOptions{Role: middleware.AuthRoleStudent}, fiber.StatusForbidden},
		{"teacher passes instructor guard", role("teacher"), middleware.AuthOptions{Role: middleware.AuthRoleInstructor}, fiber.StatusNoContent},
		{"instructor passes instructor guard", role("instructor"), middleware.AuthOptions{Role: middleware.AuthRoleInstructor}, fiber.StatusNoContent},
		{"admin passes instructor guard", role("admin"), middleware.AuthOptions{Role: middleware.AuthRoleInstructor}, fiber.StatusNoContent},
		{"student fails instructor guard", role("student"), middleware.AuthOptions{Role: middleware.AuthRoleInstructor}, fiber.StatusForbidden},
		{"teacher fails admin guard", role("teacher"), middleware.AuthOptions{Role: middleware.AuthRoleAdmin}, fiber.StatusForbidden},
		{"empty role defaults to any", role("student"), middleware.AuthOptions{}, fiber.StatusNoContent},
		{"anonymous rejected by default", nil, middleware.AuthOptions{Role: middleware.AuthRoleAny}, fiber.StatusUnauthorized},
		{"anonymous allowed when opted in", nil, middleware.AuthOptions{Role: middleware.AuthRoleAny, AllowAnonymous: true}, fiber.StatusNoContent},
		{"anonymous opt-in ignored for role guards", nil, middleware.AuthOptions{Role: middleware.AuthRoleStudent, AllowAnonymous: true}, fiber.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			if tc.caller != nil {
				app.Use(withCaller(20, *tc.caller))
			}
			app.Get("/", middleware.WithAuth(func(c *fiber.Ctx) error {
				return c.SendStatus(fiber.StatusNoContent)
			}, tc.opts))

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
			require.NoError(t, err)
			require.Equal(t, tc.expected, resp.StatusCode)
		})
	}
}

func role(value string) *string {
	return &value
}

func withCaller(userID uint, role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("user_id", userID)
		c.Locals("user_role", role)
		return c.Next()
	}
}
