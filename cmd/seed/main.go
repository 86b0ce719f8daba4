package main

import (
	"context"
	"errors"
	"log"
	"os"
	"time"

	"ribscan/internal/models"
	"ribscan/internal/repository"
	"ribscan/pkg/auth"
	"ribscan/pkg/config"
	"ribscan/pkg/logger"
	"ribscan/pkg/postgres"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// defaultBanks is the Moroccan interbank directory the pipeline validates
// against. Codes are the first three digits of the RIB.
var defaultBanks = []models.Bank{
	{Code: "007", Name: "Attijariwafa Bank"},
	{Code: "011", Name: "BMCE Bank of Africa"},
	{Code: "013", Name: "BMCI"},
	{Code: "021", Name: "Crédit du Maroc"},
	{Code: "022", Name: "Société Générale Maroc"},
	{Code: "157", Name: "BCP"},
	{Code: "225", Name: "Crédit Agricole du Maroc"},
	{Code: "230", Name: "CIH Bank"},
	{Code: "350", Name: "Al Barid Bank"},
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logger.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	appLogger := logger.Get()

	// Connect to database
	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	bankRepo := repository.NewBankRepository(db, appLogger)
	userRepo := repository.NewUserRepository(db, appLogger)

	appLogger.Info("Starting database seeding...")

	if err := seedBanks(ctx, bankRepo, appLogger); err != nil {
		appLogger.Fatal("Failed to seed bank directory", zap.Error(err))
	}
	if err := seedAdmin(ctx, userRepo, appLogger); err != nil {
		appLogger.Fatal("Failed to seed admin user", zap.Error(err))
	}

	appLogger.Info("Database seeding completed successfully!")
}

func seedBanks(ctx context.Context, repo *repository.BankRepository, logger *zap.Logger) error {
	for _, bank := range defaultBanks {
		err := repo.Create(ctx, &bank)
		if errors.Is(err, repository.ErrBankExists) {
			logger.Debug("Bank already registered", zap.String("code", bank.Code))
			continue
		}
		if err != nil {
			return err
		}
		logger.Info("Registered bank", zap.String("code", bank.Code), zap.String("name", bank.Name))
	}
	return nil
}

// seedAdmin creates the initial superadmin from SEED_ADMIN_USERNAME and
// SEED_ADMIN_PASSWORD. Further accounts are managed through the database.
func seedAdmin(ctx context.Context, repo *repository.UserRepository, logger *zap.Logger) error {
	username := os.Getenv("SEED_ADMIN_USERNAME")
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if username == "" || password == "" {
		logger.Info("SEED_ADMIN_USERNAME/SEED_ADMIN_PASSWORD not set, skipping admin user")
		return nil
	}

	if existing, _ := repo.GetByUsername(ctx, username); existing != nil {
		logger.Info("Admin user already exists", zap.String("username", username))
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	user := &models.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: hash,
		Role:         models.RoleSuperadmin,
		CreatedAt:    time.Now(),
	}
	if err := repo.Create(ctx, user); err != nil {
		return err
	}
	logger.Info("Created admin user", zap.String("username", username))
	return nil
}
