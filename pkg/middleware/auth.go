package middleware

import (
	"strings"

	"ribscan/internal/models"
	"ribscan/pkg/auth"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// roleLevels orders the roles: every higher role can do what the lower
// ones can.
var roleLevels = map[string]int{
	models.RoleOperator:   1,
	models.RoleAdmin:      2,
	models.RoleSuperadmin: 3,
}

func AuthMiddleware(jwtManager *auth.JWTManager, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Get("Authorization")
		if token == "" {
			logger.Warn("Missing authorization token")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authorization token required",
			})
		}
		token = strings.TrimPrefix(token, "Bearer ")

		claims, err := jwtManager.ValidateToken(token)
		if err != nil {
			logger.Warn("Invalid token", zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		c.Locals("userID", claims.UserID)
		c.Locals("username", claims.Username)
		c.Locals("role", claims.Role)

		return c.Next()
	}
}

// RequireRole rejects requests whose authenticated role is below the
// given one. Must run after AuthMiddleware.
func RequireRole(role string) fiber.Handler {
	required := roleLevels[role]
	return func(c *fiber.Ctx) error {
		current, _ := c.Locals("role").(string)
		if roleLevels[current] < required {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Access denied",
			})
		}
		return c.Next()
	}
}
