package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"agro-kyc/pkg/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestApp(jwtManager *auth.JWTManager) *fiber.App {
	app := fiber.New()
	logger := zap.NewNop()
	app.Get("/me", AuthMiddleware(jwtManager, logger), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"user_id": c.Locals(LocalUserID),
			"role":    c.Locals(LocalRole),
		})
	})
	app.Get("/admin", AuthMiddleware(jwtManager, logger), RequireRole(logger, "admin"), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func TestAuthMiddleware(t *testing.T) {
	jwtManager := auth.NewJWTManager("secret", time.Hour, time.Hour)
	app := newTestApp(jwtManager)

	req := httptest.NewRequest("GET", "/me", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	token, err := jwtManager.GenerateToken("user-1", "u", "u@example.com", "buyer")
	require.NoError(t, err)
	req = httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRequireRole(t *testing.T) {
	jwtManager := auth.NewJWTManager("secret", time.Hour, time.Hour)
	app := newTestApp(jwtManager)

	cases := []struct {
		role string
		want int
	}{
		{"buyer", fiber.StatusForbidden},
		{"driver", fiber.StatusForbidden},
		{"admin", fiber.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.role, func(t *testing.T) {
			token, err := jwtManager.GenerateToken("user-1", "u", "u@example.com", tc.role)
			require.NoError(t, err)

			req := httptest.NewRequest("GET", "/admin", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.want, resp.StatusCode)
		})
	}
}
