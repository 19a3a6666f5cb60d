package handlers

import (
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/resume-billing/internal/dto"
	"github.com/ahmetcoskunkizilkaya/resume-billing/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/resume-billing/internal/pricing"
	"github.com/ahmetcoskunkizilkaya/resume-billing/internal/services"
	"github.com/gofiber/fiber/v2"
)

type UsageHandler struct {
	usageService  *services.UsageService
	resumeService *services.ResumeService
}

func NewUsageHandler(usageService *services.UsageService, resumeService *services.ResumeService) *UsageHandler {
	return &UsageHandler{usageService: usageService, resumeService: resumeService}
}

func (h *UsageHandler) Summary(c *fiber.Ctx) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return unauthorized(c)
	}

	resp, err := h.usageService.Summary(c.UserContext(), user.ID)
	if err != nil {
		slog.Error("failed to load usage", "user_id", user.ID.String(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}
	return c.JSON(resp)
}

// Check answers GET /api/usage/:feature with whether one more use is allowed.
func (h *UsageHandler) Check(c *fiber.Ctx) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return unauthorized(c)
	}

	feature, ok := pricing.ParseFeature(c.Params("feature"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: services.ErrUnknownFeature.Error(),
		})
	}

	allowed, err := h.usageService.CheckUsageLimit(c.UserContext(), user.ID, feature)
	if err != nil {
		slog.Error("usage check failed", "user_id", user.ID.String(), "feature", feature, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}
	return c.JSON(fiber.Map{"feature": feature, "allowed": allowed})
}

func (h *UsageHandler) CustomizeResume(c *fiber.Ctx) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.CustomizeResumeRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	resp, err := h.resumeService.Customize(c.UserContext(), user.ID, &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUsageLimitReached):
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		case errors.Is(err, services.ErrAIUnavailable):
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
				Error: true, Message: "AI service is not available",
			})
		}
		slog.Error("resume customization failed", "user_id", user.ID.String(), "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{
			Error: true, Message: "AI service failed, please try again",
		})
	}
	return c.JSON(resp)
}
