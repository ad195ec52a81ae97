package api

import (
	"time"

	"agro-kyc/docs"
	"agro-kyc/internal/api/handlers"
	"agro-kyc/internal/models"
	"agro-kyc/pkg/auth"
	"agro-kyc/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// multipart framing on top of the largest accepted file
const bodyOverhead = 1 << 20

type Options struct {
	MaxUploadBytes int64
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

func SetupRouter(
	authHandler *handlers.AuthHandler,
	docHandler *handlers.DocumentHandler,
	verificationHandler *handlers.VerificationHandler,
	jwtManager *auth.JWTManager,
	gatherer prometheus.Gatherer,
	opts Options,
	appLogger *zap.Logger,
) *fiber.App {
	app := fiber.New(fiber.Config{
		// Larger bodies still reach the handler so oversize uploads get a
		// descriptive error from the intake check.
		BodyLimit:    int(2*opts.MaxUploadBytes) + bodyOverhead,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
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

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))
	app.Use(logger.New())

	_ = docs.SwaggerInfo // ensure docs package is imported and init() is called
	app.Get("/swagger/*", swagger.HandlerDefault)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	if gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	// Auth routes (public)
	authGroup := app.Group("/user/auth")
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)
	authGroup.Post("/refresh", authHandler.RefreshToken)

	// Protected routes
	protected := app.Group("/api/v1", middleware.AuthMiddleware(jwtManager, appLogger))

	documents := protected.Group("/documents")
	documents.Post("", docHandler.SubmitDocument)
	documents.Get("", docHandler.ListDocuments)
	documents.Get("/:id", docHandler.GetDocument)
	documents.Get("/:id/file", docHandler.GetDocumentFile)

	protected.Get("/verification", verificationHandler.GetVerification)

	admin := protected.Group("/admin", middleware.RequireRole(appLogger, string(models.RoleAdmin)))
	admin.Post("/documents/:id/review", verificationHandler.ReviewDocument)
	admin.Get("/users/:id/verification", verificationHandler.GetUserVerification)

	appLogger.Info("Routes registered", zap.Int("handlers", int(app.HandlersCount())))
	return app
}
