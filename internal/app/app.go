// Package app wires storage, OCR and the KYC pipeline from configuration.
// Both the API server and the batch importer start from here.
package app

import (
	"context"
	"fmt"

	"agro-kyc/internal/kyc"
	"agro-kyc/internal/metrics"
	"agro-kyc/internal/notify"
	"agro-kyc/internal/ocr"
	"agro-kyc/internal/repository"
	"agro-kyc/internal/service"
	"agro-kyc/pkg/auth"
	"agro-kyc/pkg/config"
	"agro-kyc/pkg/postgres"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type App struct {
	Config       *config.Config
	Registry     *prometheus.Registry
	JWTManager   *auth.JWTManager
	Auth         *service.AuthService
	Verification *service.VerificationService

	closers []func()
	logger  *zap.Logger
}

// New builds every component. Call Close when done.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{
		Config:   cfg,
		Registry: prometheus.NewRegistry(),
		logger:   logger,
	}
	a.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(a.Registry)

	docRepo, userRepo, err := a.openStorage(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	rules, err := kyc.LoadRules(cfg.KYC.RulesFile)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to load KYC rules: %w", err)
	}

	recognizer, err := newRecognizer(cfg, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	var rasterizer kyc.Rasterizer
	if cfg.OCR.PDFRasterize {
		rasterizer = ocr.NewFitzRasterizer(cfg.OCR.PDFDPI, cfg.OCR.PDFMaxPages, logger)
	} else {
		logger.Warn("PDF rasterization disabled, PDF uploads will be rejected")
	}

	extractor := kyc.NewExtractor(recognizer, rasterizer, cfg.OCR.Languages, cfg.OCR.Timeout)
	pipeline := kyc.NewPipeline(rules, kyc.NewPreprocessor(), extractor, cfg.Storage.MaxUploadBytes)

	notifier, err := a.newNotifier(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	dispatcher := notify.NewDispatcher(notifier, logger, m)

	a.JWTManager = auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Expiration, cfg.JWT.RefreshExp)
	a.Auth = service.NewAuthService(userRepo, a.JWTManager, logger)
	a.Verification = service.NewVerificationService(docRepo, userRepo, pipeline, dispatcher, m, cfg.Storage.UploadDir, logger)

	logger.Info("KYC pipeline ready",
		zap.String("storage", cfg.Storage.Driver),
		zap.String("ocr_provider", cfg.OCR.Provider),
		zap.Strings("languages", extractor.Languages()),
		zap.Bool("pdf", rasterizer != nil),
	)

	return a, nil
}

// Close releases connections in reverse order of opening.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *App) openStorage(ctx context.Context) (service.DocumentStore, service.UserStore, error) {
	switch a.Config.Storage.Driver {
	case "memory":
		a.logger.Warn("Using in-memory storage, data is lost on restart")
		return repository.NewMemoryDocumentRepository(), repository.NewMemoryUserRepository(), nil
	case "postgres", "":
		db, err := postgres.NewPool(ctx, &a.Config.Database, a.logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		if err := postgres.Migrate(ctx, db, a.logger); err != nil {
			return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		return repository.NewDocumentRepository(db, a.logger), repository.NewUserRepository(db, a.logger), nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", a.Config.Storage.Driver)
	}
}

func (a *App) newNotifier(ctx context.Context) (notify.Notifier, error) {
	if a.Config.Redis.Addr == "" {
		return notify.NewLogNotifier(a.logger), nil
	}

	client, err := notify.NewRedisClient(ctx, a.Config.Redis.Addr, a.Config.Redis.Password, a.Config.Redis.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	a.closers = append(a.closers, func() {
		if err := client.Close(); err != nil && err != redis.ErrClosed {
			a.logger.Warn("Failed to close redis client", zap.Error(err))
		}
	})

	a.logger.Info("Publishing notifications to redis",
		zap.String("addr", a.Config.Redis.Addr),
		zap.String("channel", a.Config.Redis.NotifyChannel),
	)
	return notify.NewRedisNotifier(client, a.Config.Redis.NotifyChannel), nil
}

func newRecognizer(cfg *config.Config, logger *zap.Logger) (kyc.Recognizer, error) {
	switch cfg.OCR.Provider {
	case "tesseract", "":
		return ocr.NewTesseractRecognizer(cfg.OCR.TessdataPrefix, cfg.OCR.MaxConcurrent, logger), nil
	case "gigachat":
		if cfg.GigaChat.APIKey == "" {
			return nil, fmt.Errorf("GIGACHAT_API_KEY is required for the gigachat OCR provider")
		}
		return ocr.NewGigaChatRecognizer(&cfg.GigaChat, logger), nil
	default:
		return nil, fmt.Errorf("unknown OCR provider %q", cfg.OCR.Provider)
	}
}
