package handlers

import (
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/resume-billing/internal/dto"
	"github.com/ahmetcoskunkizilkaya/resume-billing/internal/gateway"
	"github.com/ahmetcoskunkizilkaya/resume-billing/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/resume-billing/internal/pricing"
	"github.com/ahmetcoskunkizilkaya/resume-billing/internal/services"
	"github.com/gofiber/fiber/v2"
)

type BillingHandler struct {
	subscriptionService *services.SubscriptionService
}

func NewBillingHandler(subscriptionService *services.SubscriptionService) *BillingHandler {
	return &BillingHandler{subscriptionService: subscriptionService}
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error: true, Message: "Unauthorized",
	})
}

// checkoutError maps checkout failures: client mistakes are 400, gateway
// failures are 500 with the gateway's own description.
func checkoutError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, services.ErrMissingFields),
		errors.Is(err, services.ErrInvalidPlan),
		errors.Is(err, services.ErrZeroAmount),
		errors.Is(err, services.ErrPlanNotConfigured),
		errors.Is(err, services.ErrCouponNotSupported),
		errors.Is(err, pricing.ErrInvalidCoupon),
		errors.Is(err, pricing.ErrCouponMinimumSpend):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}

	var apiErr *gateway.APIError
	if errors.As(err, &apiErr) {
		slog.Error("payment gateway error", "path", c.Path(), "status", apiErr.StatusCode, "code", apiErr.Code, "error", apiErr.Description)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: apiErr.Description,
		})
	}

	slog.Error(fallback, "path", c.Path(), "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Error: true, Message: fallback,
	})
}

func (h *BillingHandler) CreateOrder(c *fiber.Ctx) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.CreateOrderRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	resp, err := h.subscriptionService.CreateOrder(c.UserContext(), user, &req)
	if err != nil {
		return checkoutError(c, err, "Failed to create order")
	}
	return c.JSON(resp)
}

func (h *BillingHandler) CreateSubscription(c *fiber.Ctx) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.CreateOrderRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	resp, err := h.subscriptionService.CreateSubscription(c.UserContext(), user, &req)
	if err != nil {
		return checkoutError(c, err, "Failed to create subscription")
	}
	return c.JSON(resp)
}

func (h *BillingHandler) ValidateCoupon(c *fiber.Ctx) error {
	var req dto.ValidateCouponRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ValidateCouponResponse{Error: "Invalid request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ValidateCouponResponse{Error: validationMessage(err)})
	}

	resp, err := h.subscriptionService.ValidateCoupon(&req)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(resp)
	}
	return c.JSON(resp)
}

func (h *BillingHandler) Cancel(c *fiber.Ctx) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.CancelSubscriptionRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	resp, err := h.subscriptionService.Cancel(c.UserContext(), user.ID, req.SubscriptionID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNoSubscription):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		case errors.Is(err, services.ErrAlreadyCancelled), errors.Is(err, services.ErrNotRecurring):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return checkoutError(c, err, "Failed to cancel subscription")
	}
	return c.JSON(resp)
}

func (h *BillingHandler) GetSubscription(c *fiber.Ctx) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return unauthorized(c)
	}

	resp, err := h.subscriptionService.GetSubscription(c.UserContext(), user.ID)
	if err != nil {
		slog.Error("failed to load subscription", "user_id", user.ID.String(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}
	return c.JSON(resp)
}

// Pricing is public: GET /api/pricing?region=india|row.
func (h *BillingHandler) Pricing(c *fiber.Ctx) error {
	region, ok := pricing.ParseRegion(c.Query("region", string(pricing.RegionIndia)))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "region must be one of: india row",
		})
	}

	plans := pricing.PlansForRegion(region)
	resp := dto.PricingResponse{Region: string(region), Plans: make([]dto.PlanResponse, 0, len(plans))}
	for _, p := range plans {
		limits := make(map[string]int, len(p.Limits))
		for f, n := range p.Limits {
			limits[string(f)] = n
		}
		resp.Plans = append(resp.Plans, dto.PlanResponse{
			ID:           p.ID,
			Tier:         string(p.Tier),
			BillingCycle: string(p.Cycle),
			Price:        p.Price.InexactFloat64(),
			Currency:     p.Currency,
			TrialDays:    p.TrialDays,
			Limits:       limits,
		})
	}
	return c.JSON(resp)
}
