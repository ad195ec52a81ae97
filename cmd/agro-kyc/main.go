package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"agro-kyc/internal/api"
	"agro-kyc/internal/api/handlers"
	"agro-kyc/internal/app"
	"agro-kyc/pkg/config"
	"agro-kyc/pkg/logger"

	"go.uber.org/zap"
)

// @title Agro KYC API
// @version 1.0
// @description Document verification for marketplace buyers, producers and transporters
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@agro-kyc.dev

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	if err := logger.Init(cfg.Logger.Level, cfg.Logger.Format); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting agro KYC service")

	ctx := context.Background()
	components, err := app.New(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize service", zap.Error(err))
	}
	defer components.Close()

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(components.Auth, appLogger)
	docHandler := handlers.NewDocumentHandler(components.Verification, appLogger)
	verificationHandler := handlers.NewVerificationHandler(components.Verification, appLogger)

	// Setup router
	server := api.SetupRouter(
		authHandler,
		docHandler,
		verificationHandler,
		components.JWTManager,
		components.Registry,
		api.Options{
			MaxUploadBytes: cfg.Storage.MaxUploadBytes,
			ReadTimeout:    cfg.Server.ReadTimeout,
			WriteTimeout:   cfg.Server.WriteTimeout,
		},
		appLogger,
	)

	// Start server
	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		if err := server.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	if err := server.ShutdownWithTimeout(10 * time.Second); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}
}
