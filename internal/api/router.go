package api

import (
	"ribscan/internal/api/handlers"
	"ribscan/internal/models"
	"ribscan/pkg/auth"
	"ribscan/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

func SetupRouter(
	authHandler *handlers.AuthHandler,
	periodHandler *handlers.PeriodHandler,
	slipHandler *handlers.SlipHandler,
	cardHandler *handlers.CardHandler,
	bankHandler *handlers.BankHandler,
	jwtManager *auth.JWTManager,
	uploadsDir string,
	appLogger *zap.Logger,
) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit: 50 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))
	app.Use(logger.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Stored source documents, for the review UI side panel
	app.Static("/uploads", uploadsDir)

	// Auth routes (public)
	authGroup := app.Group("/api/v1/auth")
	authGroup.Post("/login", authHandler.Login)
	authGroup.Post("/refresh", authHandler.Refresh)

	// Protected routes
	protected := app.Group("/api/v1", middleware.AuthMiddleware(jwtManager, appLogger))
	requireAdmin := middleware.RequireRole(models.RoleAdmin)
	requireOperator := middleware.RequireRole(models.RoleOperator)

	// Period routes
	periods := protected.Group("/periods")
	periods.Get("", periodHandler.List)
	periods.Post("", requireAdmin, periodHandler.Create)
	periods.Get("/:id", periodHandler.Get)
	periods.Delete("/:id", requireAdmin, periodHandler.Delete)
	periods.Post("/:id/lock", requireAdmin, periodHandler.ToggleLock)
	periods.Get("/:id/stats", periodHandler.Stats)
	periods.Get("/:id/export", periodHandler.Export)

	// Slip routes
	periods.Post("/:id/slips/upload", requireOperator, slipHandler.Upload)
	periods.Get("/:id/slips", slipHandler.List)
	periods.Delete("/:id/slips", requireAdmin, slipHandler.DeleteAll)
	periods.Post("/:id/slips/retry", requireOperator, slipHandler.RetryAll)
	protected.Put("/slips/:slipId", requireOperator, slipHandler.Update)
	protected.Delete("/slips/:slipId", requireOperator, slipHandler.Delete)
	protected.Post("/slips/:slipId/retry", requireOperator, slipHandler.Retry)

	// Identity card routes
	periods.Post("/:id/cards/upload", requireOperator, cardHandler.Upload)
	periods.Get("/:id/cards", cardHandler.List)
	periods.Delete("/:id/cards", requireAdmin, cardHandler.DeleteAll)
	periods.Post("/:id/cards/retry", requireOperator, cardHandler.RetryAll)
	protected.Put("/cards/:cardId", requireOperator, cardHandler.Update)
	protected.Delete("/cards/:cardId", requireOperator, cardHandler.Delete)
	protected.Post("/cards/:cardId/retry", requireOperator, cardHandler.Retry)

	// Bank directory routes
	banks := protected.Group("/banks")
	banks.Get("", bankHandler.List)
	banks.Post("", requireAdmin, bankHandler.Create)
	banks.Delete("/:code", requireAdmin, bankHandler.Delete)

	return app
}
