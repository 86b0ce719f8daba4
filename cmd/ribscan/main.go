package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"ribscan/internal/api"
	"ribscan/internal/api/handlers"
	"ribscan/internal/repository"
	"ribscan/internal/service"
	"ribscan/pkg/auth"
	"ribscan/pkg/config"
	"ribscan/pkg/logger"
	"ribscan/pkg/postgres"

	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	if err := logger.Init(cfg.Logger.Level); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting ribscan service")

	// Initialize database
	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Initialize repositories
	userRepo := repository.NewUserRepository(db, appLogger)
	periodRepo := repository.NewPeriodRepository(db, appLogger)
	slipRepo := repository.NewSlipRepository(db, appLogger)
	cardRepo := repository.NewCardRepository(db, appLogger)
	bankRepo := repository.NewBankRepository(db, appLogger)

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Expiration, cfg.JWT.RefreshExp)

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtManager, appLogger)

	llmService, err := service.NewLLMService(&cfg.GigaChat, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize LLM service", zap.Error(err))
	}
	defer llmService.Close()

	textractService := service.NewTextractService(cfg.OCR.Languages, appLogger)
	fileStore := service.NewFileStore(cfg.Upload.Dir, appLogger)

	slipService := service.NewSlipService(slipRepo, periodRepo, bankRepo, textractService, llmService, fileStore, cfg.Upload.Workers, appLogger)
	cardService := service.NewCardService(cardRepo, periodRepo, textractService, llmService, fileStore, cfg.Upload.Workers, appLogger)
	periodService := service.NewPeriodService(periodRepo, slipRepo, cardRepo, fileStore, appLogger)
	exportService := service.NewExportService(periodRepo, slipRepo, cardRepo, appLogger)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, appLogger)
	periodHandler := handlers.NewPeriodHandler(periodService, exportService, appLogger)
	slipHandler := handlers.NewSlipHandler(slipService, appLogger)
	cardHandler := handlers.NewCardHandler(cardService, appLogger)
	bankHandler := handlers.NewBankHandler(bankRepo, appLogger)

	// Setup router
	app := api.SetupRouter(authHandler, periodHandler, slipHandler, cardHandler, bankHandler, jwtManager, fileStore.Dir(), appLogger)

	// Start server
	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	if err := app.Shutdown(); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}
}
