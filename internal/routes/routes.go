package routes

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/resume-billing/internal/config"
	"github.com/ahmetcoskunkizilkaya/resume-billing/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/resume-billing/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	healthHandler *handlers.HealthHandler,
	billingHandler *handlers.BillingHandler,
	usageHandler *handlers.UsageHandler,
	webhookHandler *handlers.WebhookHandler,
) {
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Registered ahead of the /api limiter; authenticated by HMAC signature.
	app.Post("/api/webhooks/razorpay", webhookHandler.HandleRazorpay)

	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	// Public
	api.Get("/health", healthHandler.Check)
	api.Get("/pricing", billingHandler.Pricing)
	api.Post("/coupons/validate", billingHandler.ValidateCoupon)

	// Billing (JWT required)
	billing := api.Group("/billing", middleware.JWTProtected(cfg))
	billing.Post("/orders", billingHandler.CreateOrder)
	billing.Post("/subscriptions", billingHandler.CreateSubscription)
	billing.Post("/cancel", billingHandler.Cancel)
	billing.Get("/subscription", billingHandler.GetSubscription)

	// Usage and gated AI actions (JWT required)
	api.Get("/usage", middleware.JWTProtected(cfg), usageHandler.Summary)
	api.Get("/usage/:feature", middleware.JWTProtected(cfg), usageHandler.Check)

	// AI endpoints: stricter limit
	ai := api.Group("/ai", middleware.JWTProtected(cfg))
	ai.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	ai.Post("/customize", usageHandler.CustomizeResume)
}
