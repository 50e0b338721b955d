package main

import (
	"context"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/atfitk/websystem-api/internal/repository"
	"github.com/atfitk/websystem-api/internal/service"
	"github.com/atfitk/websystem-api/migrations"
	"github.com/atfitk/websystem-api/pkg/config"
	"github.com/atfitk/websystem-api/pkg/database"
	"github.com/atfitk/websystem-api/pkg/logger"
	"github.com/atfitk/websystem-api/pkg/migrate"
)

// Applies migrations and upserts the two staff accounts, then exits.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if err := migrate.Up(database.DSN(cfg.Database), migrations.FS, logr); err != nil {
		logr.Fatal("migrations failed", zap.Error(err))
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	seeder := service.NewSeedService(repository.NewUserRepository(db), logr, service.SeedCost)
	accounts := service.DefaultSeedAccounts(cfg.Seed.DirectorPassword, cfg.Seed.PsychologistPassword)
	if err := seeder.Seed(ctx, accounts); err != nil {
		logr.Fatal("seeding users failed", zap.Error(err))
	}
	logr.Info("seed complete", zap.Int("accounts", len(accounts)))
}
