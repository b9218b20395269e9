package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"estatehub/internal/adapters/http/middleware"
	"estatehub/internal/adapters/http/routes"
	"estatehub/internal/adapters/persistence/models"
	"estatehub/internal/adapters/persistence/repositories"
	"estatehub/internal/config"
	"estatehub/internal/core/services"
	"estatehub/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	_ "estatehub/docs" // Swagger docs
)

// @title EstateHub API
// @version 1.0
// @description Real-estate marketplace backend: auth, profiles, listings, cart, favorites, images and payment estimates.

// @contact.name API Support
// @contact.email support@estatehub.app

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name apikey

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	zl, err := logger.New(cfg.AppMode, cfg.LogLevel)
	if err != nil {
		log.Fatalf("❌ Failed to build logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()
	zl.Info("✅ Configuration loaded", zap.String("mode", cfg.AppMode))

	db, err := config.ConnectDatabase(cfg, zl)
	if err != nil {
		zl.Fatal("❌ Failed to connect to database", zap.Error(err))
	}
	defer config.CloseDatabase(db)

	if err := models.AutoMigrate(db); err != nil {
		zl.Fatal("❌ Failed to auto migrate", zap.Error(err))
	}
	zl.Info("✅ Database migration completed")

	if cfg.IsDev() {
		if err := config.NewSeeder(db, zl).Run(); err != nil {
			zl.Warn("⚠️ Seeding failed", zap.Error(err))
		}
	}

	storageService := setupStorage(cfg, zl)

	// Refresh token sweep
	cleanup := services.NewCleanupService(repositories.NewRefreshTokenRepository(db), cfg.Cleanup.Spec, zl)
	if err := cleanup.Start(); err != nil {
		zl.Fatal("❌ Failed to schedule cleanup", zap.Error(err))
	}
	defer cleanup.Stop()

	app := fiber.New(fiber.Config{
		AppName:      "EstateHub API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
		BodyLimit:    services.MaxImageSize + 1<<20,
	})

	middleware.Setup(app, cfg)
	routes.Setup(app, db, cfg, zl, storageService)

	go gracefulShutdown(app, zl)

	zl.Info("🚀 Server starting", zap.String("port", cfg.Port), zap.String("mode", cfg.AppMode))
	if err := app.Listen(":" + cfg.Port); err != nil {
		zl.Fatal("❌ Failed to start server", zap.Error(err))
	}
}

// setupStorage connects the image bucket; uploads are disabled when it is
// not configured or unreachable
func setupStorage(cfg *config.Config, zl *zap.Logger) *services.StorageService {
	if !cfg.Storage.Enabled() {
		zl.Warn("⚠️ S3 storage not configured, image uploads disabled")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	storageCfg := services.StorageConfig(cfg.Storage)
	client, err := services.NewS3Client(ctx, storageCfg)
	if err != nil {
		zl.Warn("⚠️ S3 client setup failed, image uploads disabled", zap.Error(err))
		return nil
	}

	svc := services.NewStorageService(client, storageCfg, zl)
	if err := svc.EnsureBucket(ctx); err != nil {
		zl.Warn("⚠️ Bucket unavailable, image uploads disabled", zap.Error(err))
		return nil
	}
	return svc
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App, zl *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zl.Info("🛑 Shutting down server...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		zl.Error("❌ Error during shutdown", zap.Error(err))
	}
	zl.Info("✅ Server stopped gracefully")
}
