package handlers

import (
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/resume-billing/internal/dto"
	"github.com/ahmetcoskunkizilkaya/resume-billing/internal/services"
	"github.com/gofiber/fiber/v2"
)

const (
	headerRazorpaySignature = "X-Razorpay-Signature"
	headerRazorpayEventID   = "X-Razorpay-Event-Id"
)

type WebhookHandler struct {
	webhookService *services.WebhookService
}

func NewWebhookHandler(webhookService *services.WebhookService) *WebhookHandler {
	return &WebhookHandler{webhookService: webhookService}
}

// HandleRazorpay answers 400 only for integrity failures. Once the event is
// verified and claimed it always answers 200 so the gateway stops retrying.
func (h *WebhookHandler) HandleRazorpay(c *fiber.Ctx) error {
	// fasthttp reuses the request buffer after the handler returns.
	body := append([]byte(nil), c.Body()...)

	res, err := h.webhookService.Process(c.UserContext(), body, c.Get(headerRazorpaySignature), c.Get(headerRazorpayEventID))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMissingSignature), errors.Is(err, services.ErrInvalidSignature):
			slog.Warn("webhook rejected", "ip", c.IP(), "error", err)
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: "Invalid signature",
			})
		case errors.Is(err, services.ErrInvalidPayload):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: "Invalid webhook payload",
			})
		default:
			slog.Error("webhook claim failed", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Error: true, Message: "Failed to record webhook event",
			})
		}
	}

	slog.Info("webhook processed", "event_id", res.EventID, "event_type", res.EventType, "outcome", res.Outcome)
	return c.JSON(fiber.Map{"received": true})
}
