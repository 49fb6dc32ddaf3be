package utils_test

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-classroom-api/internal/utils"
)

type envelope struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Data    json.RawMessage        `json:"data"`
	Meta    map[string]interface{} `json:"meta"`
	Details map[string]string      `json:"details"`
}

func TestResponseEnvelopes(t *testing.T) {
	cases := []struct {
		name    string
		handler fiber.Handler
		status  int
		check   func(t *testing.T, body envelope)
	}{
		{
			name: "ok with meta and default message",
			handler: func(c *fiber.Ctx) error {
				return utils.OK(c, fiber.Map{"course": "CS101"}, "", fiber.Map{"page": 1})
			},
			status: fiber.StatusOK,
			check: func(t *testing.T, body envelope) {
				require.True(t, body.Success)
				require.Equal(t, "success", body.Message)
				require.JSONEq(t, `{"course":"CS101"}`, string(body.Data))
				require.Equal(t, float64(1), body.Meta["page"])
			},
		},
		{
			name: "created grade",
			handler: func(c *fiber.Ctx) error {
				return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "grade created", fiber.Map{"letter_grade": "B-"})
			},
			status: fiber.StatusCreated,
			check: func(t *testing.T, body envelope) {
				require.True(t, body.Success)
				require.Equal(t, "grade created", body.Message)
				require.JSONEq(t, `{"letter_grade":"B-"}`, string(body.Data))
				require.Nil(t, body.Meta)
			},
		},
		{
			name: "validation failure with details",
			handler: func(c *fiber.Ctx) error {
				return utils.Fail(c, fiber.StatusBadRequest, "invalid payload", fiber.Map{"raw_score": "max"})
			},
			status: fiber.StatusBadRequest,
			check: func(t *testing.T, body envelope) {
				require.False(t, body.Success)
				require.Equal(t, "invalid payload", body.Message)
				require.Equal(t, "max", body.Details["raw_score"])
				require.Empty(t, body.Data)
			},
		},
		{
			name: "fail defaults to internal error",
			handler: func(c *fiber.Ctx) error {
				return utils.Fail(c, 0, "", nil)
			},
			status: fiber.StatusInternalServerError,
			check: func(t *testing.T, body envelope) {
				require.False(t, body.Success)
				require.Equal(t, "error", body.Message)
				require.Nil(t, body.Details)
			},
		},
		{
			name: "send error",
			handler: func(c *fiber.Ctx) error {
				return utils.SendError(c, fiber.StatusConflict, "grade already exists")
			},
			status: fiber.StatusConflict,
			check: func(t *testing.T, body envelope) {
				require.False(t, body.Success)
				require.Equal(t, "grade already exists", body.Message)
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", tc.handler)

			resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil), -1)
			require.NoError(t, err)
			defer resp.Body.Close()
			require.Equal(t, tc.status, resp.StatusCode)

			var body envelope
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			tc.check(t, body)
		})
	}
}
