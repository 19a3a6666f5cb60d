package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/redis/go-redis/v9"

	"github.com/ahmetcoskunkizilkaya/resume-billing/internal/config"
	"github.com/ahmetcoskunkizilkaya/resume-billing/internal/database"
	"github.com/ahmetcoskunkizilkaya/resume-billing/internal/exchange"
	"github.com/ahmetcoskunkizilkaya/resume-billing/internal/gateway"
	"github.com/ahmetcoskunkizilkaya/resume-billing/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/resume-billing/internal/logging"
	"github.com/ahmetcoskunkizilkaya/resume-billing/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/resume-billing/internal/repository"
	"github.com/ahmetcoskunkizilkaya/resume-billing/internal/routes"
	"github.com/ahmetcoskunkizilkaya/resume-billing/internal/services"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	// Structured logging (JSON to stdout)
	logging.Setup()

	cfg := config.Load()

	if cfg.AuthJWTSecret == "" {
		slog.Error("AUTH_JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	if cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}
	if cfg.RazorpayKeyID == "" || cfg.RazorpayKeySecret == "" {
		slog.Warn("RAZORPAY_KEY_ID/RAZORPAY_KEY_SECRET not set: checkout calls will fail")
	}

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(database.DB)
	slog.SetDefault(slog.New(logging.NewMultiHandler(
		logging.NewStdoutHandler(os.Stdout),
		pgLogHandler,
	)))

	// Log cleanup
	cleanupDone := make(chan struct{})
	logging.StartCleanup(database.DB, cfg.LogRetentionDays, cleanupDone)

	// Exchange-rate cache: Redis when configured, otherwise in-process
	var rateCache exchange.Cache = exchange.NewMemoryCache(time.Now)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			slog.Error("invalid REDIS_URL, using in-memory rate cache", "error", err)
		} else {
			redisClient = redis.NewClient(opts)
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			if err := redisClient.Ping(ctx).Err(); err != nil {
				slog.Warn("redis unreachable, rate cache will fall through to the API", "error", err)
			}
			cancel()
			rateCache = exchange.NewRedisCache(redisClient, "resume-billing:fx:")
			slog.Info("redis rate cache enabled")
		}
	}
	rates := exchange.NewRateService(rateCache, cfg.ExchangeRateURL, cfg.ExchangeRateTTL, cfg.ExchangeFallbackRate)

	// Services
	repo := repository.New(database.DB)
	razorpay := gateway.NewRazorpay(cfg.RazorpayKeyID, cfg.RazorpayKeySecret, cfg.RazorpayAPIBase)
	subscriptionService := services.NewSubscriptionService(repo, razorpay, rates, cfg)
	webhookService := services.NewWebhookService(repo, cfg.RazorpayWebhookSecret)
	usageService := services.NewUsageService(repo)
	resumeService := services.NewResumeService(usageService,
		services.NewOpenAICompleter(cfg.OpenAIAPIKey, cfg.OpenAIAPIURL, cfg.OpenAIModel, cfg.AITimeout))

	// Handlers
	healthHandler := handlers.NewHealthHandler(database.Ping)
	billingHandler := handlers.NewBillingHandler(subscriptionService)
	usageHandler := handlers.NewUsageHandler(usageService, resumeService)
	webhookHandler := handlers.NewWebhookHandler(webhookService)

	// Sentry error tracking
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              dsn,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      os.Getenv("APP_ENV"),
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	// Sentry middleware
	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${locals:requestid}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	// Routes
	routes.Setup(app, cfg, healthHandler, billingHandler, usageHandler, webhookHandler)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	close(cleanupDone)
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			slog.Error("redis close error", "error", err)
		}
	}

	if err := database.Close(); err != nil {
		slog.Error("database close error", "error", err)
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
