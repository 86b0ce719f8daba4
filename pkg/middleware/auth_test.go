package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"ribscan/internal/models"
	"ribscan/pkg/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testApp(t *testing.T) (*fiber.App, *auth.JWTManager) {
	t.Helper()
	jwtManager := auth.NewJWTManager("test-secret", time.Hour, 24*time.Hour)

	app := fiber.New()
	app.Use(AuthMiddleware(jwtManager, zap.NewNop()))
	app.Get("/any", func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("role").(string))
	})
	app.Get("/admin", RequireRole(models.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	app.Post("/mutate", RequireRole(models.RoleOperator), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app, jwtManager
}

func request(t *testing.T, app *fiber.App, method, path, token string) int {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	return resp.StatusCode
}

func TestAuthMiddleware(t *testing.T) {
	app, jwtManager := testApp(t)

	t.Run("missing token", func(t *testing.T) {
		assert.Equal(t, fiber.StatusUnauthorized, request(t, app, "GET", "/any", ""))
	})

	t.Run("garbage token", func(t *testing.T) {
		assert.Equal(t, fiber.StatusUnauthorized, request(t, app, "GET", "/any", "garbage"))
	})

	t.Run("valid token passes claims through", func(t *testing.T) {
		token, err := jwtManager.GenerateToken("u1", "rachid", models.RoleOperator)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, request(t, app, "GET", "/any", token))
	})
}

func TestRequireRole(t *testing.T) {
	app, jwtManager := testApp(t)

	token := func(role string) string {
		tok, err := jwtManager.GenerateToken("u1", "rachid", role)
		require.NoError(t, err)
		return tok
	}

	assert.Equal(t, fiber.StatusForbidden, request(t, app, "GET", "/admin", token(models.RoleOperator)))
	assert.Equal(t, fiber.StatusOK, request(t, app, "GET", "/admin", token(models.RoleAdmin)))
	assert.Equal(t, fiber.StatusOK, request(t, app, "GET", "/admin", token(models.RoleSuperadmin)), "higher role inherits access")
}

func TestRequireOperatorOnMutations(t *testing.T) {
	app, jwtManager := testApp(t)

	token := func(role string) string {
		tok, err := jwtManager.GenerateToken("u1", "rachid", role)
		require.NoError(t, err)
		return tok
	}

	assert.Equal(t, fiber.StatusForbidden, request(t, app, "POST", "/mutate", token("viewer")), "unknown role has no mutation rights")
	assert.Equal(t, fiber.StatusForbidden, request(t, app, "POST", "/mutate", token("")))
	assert.Equal(t, fiber.StatusOK, request(t, app, "POST", "/mutate", token(models.RoleOperator)))
	assert.Equal(t, fiber.StatusOK, request(t, app, "POST", "/mutate", token(models.RoleAdmin)))
}
