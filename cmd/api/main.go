package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/atfitk/websystem-api/api/swagger"
	"github.com/atfitk/websystem-api/internal/handler"
	"github.com/atfitk/websystem-api/internal/repository"
	"github.com/atfitk/websystem-api/internal/router"
	"github.com/atfitk/websystem-api/internal/service"
	"github.com/atfitk/websystem-api/migrations"
	"github.com/atfitk/websystem-api/pkg/cache"
	"github.com/atfitk/websystem-api/pkg/config"
	"github.com/atfitk/websystem-api/pkg/database"
	"github.com/atfitk/websystem-api/pkg/export"
	"github.com/atfitk/websystem-api/pkg/logger"
	"github.com/atfitk/websystem-api/pkg/migrate"
	"github.com/atfitk/websystem-api/pkg/storage"
)

// @title ATFITK Student Registry API
// @version 1.0.0
// @description Preventive registry of college students
// @BasePath /api
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Database.AutoMigrate {
		if err := migrate.Up(database.DSN(cfg.Database), migrations.FS, logr); err != nil {
			logr.Fatal("migrations failed", zap.Error(err))
		}
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)

	if cfg.Seed.OnStart {
		seeder := service.NewSeedService(userRepo, logr, service.SeedCost)
		accounts := service.DefaultSeedAccounts(cfg.Seed.DirectorPassword, cfg.Seed.PsychologistPassword)
		if err := seeder.Seed(ctx, accounts); err != nil {
			logr.Fatal("seeding users failed", zap.Error(err))
		}
	}

	metrics := service.NewMetricsService()

	var cacheRepo *repository.CacheRepository
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, student cache disabled", zap.Error(err))
		} else {
			cacheRepo = repository.NewCacheRepository(client, logr)
			defer cacheRepo.Close() //nolint:errcheck
		}
	}
	var cacheBackend service.CacheRepository
	if cacheRepo != nil {
		cacheBackend = cacheRepo
	}
	cacheSvc := service.NewCacheService(cacheBackend, metrics, cfg.Cache.TTL, logr, cfg.Cache.Enabled)

	uploads, err := storage.NewLocalStorage(cfg.Uploads.Dir)
	if err != nil {
		logr.Fatal("uploads directory unavailable", zap.Error(err))
	}

	validate := validator.New()
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	studentSvc := service.NewStudentService(studentRepo, uploads, cacheSvc, validate, logr, service.StudentServiceConfig{
		BaseURL:  cfg.BaseURL,
		CacheTTL: cfg.Cache.TTL,
	})
	photoSvc := service.NewPhotoService(studentRepo, uploads, cacheSvc, metrics, logr, service.PhotoServiceConfig{
		BaseURL:      cfg.BaseURL,
		MaxBytes:     cfg.Uploads.MaxFileBytes,
		AllowedMIMEs: cfg.Uploads.AllowedMIMEs,
	})
	if err := export.CheckFont(cfg.Export.FontPath); err != nil {
		logr.Warn("pdf exports unavailable, set EXPORT_FONT_PATH to a UTF-8 TTF font", zap.Error(err))
	}
	exportSvc := service.NewExportService(studentSvc, uploads, metrics, logr,
		export.NewCSVExporter(), export.NewXLSXExporter(), export.NewPDFExporter(cfg.Export.FontPath))

	r := router.New(router.Deps{
		Config:     cfg,
		Logger:     logr,
		Auth:       authSvc,
		Metrics:    metrics,
		UploadsDir: uploads.Dir(),
	}, router.Handlers{
		Auth:     handler.NewAuthHandler(authSvc),
		Students: handler.NewStudentHandler(studentSvc),
		Photos:   handler.NewPhotoHandler(photoSvc),
		Exports:  handler.NewExportHandler(exportSvc),
		Metrics:  handler.NewMetricsHandler(metrics),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
