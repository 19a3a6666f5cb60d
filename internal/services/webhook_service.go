package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/resume-billing/internal/dto"
	"github.com/ahmetcoskunkizilkaya/resume-billing/internal/gateway"
	"github.com/ahmetcoskunkizilkaya/resume-billing/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/resume-billing/internal/models"
	"github.com/ahmetcoskunkizilkaya/resume-billing/internal/repository"
	"github.com/ahmetcoskunkizilkaya/resume-billing/internal/webhook"
	"github.com/getsentry/sentry-go"
	"gorm.io/datatypes"
)

var (
	ErrMissingSignature = errors.New("missing webhook signature")
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrInvalidPayload   = errors.New("invalid webhook payload")
)

const (
	OutcomeApplied   = "applied"
	OutcomeSkipped   = "skipped"
	OutcomeIgnored   = "ignored"
	OutcomeDuplicate = "duplicate"
	OutcomeFailed    = "failed"
)

type WebhookResult struct {
	EventID   string
	EventType string
	Outcome   string
	// Err is the per-event processing failure. It is recorded on the event
	// row and does not change the HTTP response.
	Err error
}

type WebhookService struct {
	repo   repository.Repository
	secret string
	now    func() time.Time
}

func NewWebhookService(repo repository.Repository, secret string) *WebhookService {
	if secret == "" {
		slog.Warn("RAZORPAY_WEBHOOK_SECRET not set: webhook signatures will not be verified")
	}
	return &WebhookService{repo: repo, secret: secret, now: time.Now}
}

// Process verifies, claims and applies one delivery. A returned error means
// the delivery was rejected (bad signature or body) or could not be claimed;
// everything after a successful claim is reported through WebhookResult.
func (s *WebhookService) Process(ctx context.Context, body []byte, signature, eventID string) (*WebhookResult, error) {
	signatureValid := false
	if s.secret == "" {
		slog.Warn("processing webhook without signature verification")
	} else {
		if signature == "" {
			return nil, ErrMissingSignature
		}
		if !gateway.VerifyWebhookSignature(body, signature, s.secret) {
			return nil, ErrInvalidSignature
		}
		signatureValid = true
	}

	var envelope dto.RazorpayWebhook
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		sum := sha256.Sum256(body)
		eventID = "hash:" + hex.EncodeToString(sum[:])
	}
	res := &WebhookResult{EventID: eventID, EventType: envelope.Event}

	claimed, err := s.repo.ClaimWebhookEvent(ctx, &models.WebhookEvent{
		RazorpayEventID: eventID,
		EventType:       envelope.Event,
		Payload:         datatypes.JSON(body),
		SignatureValid:  signatureValid,
	})
	if err != nil {
		return nil, fmt.Errorf("claim webhook event: %w", err)
	}
	if !claimed {
		res.Outcome = OutcomeDuplicate
		metrics.RecordWebhook(envelope.Event, res.Outcome)
		slog.Info("duplicate webhook ignored", "event_id", eventID, "event_type", envelope.Event)
		return res, nil
	}

	res.Outcome, res.Err = s.apply(ctx, &envelope, eventID)

	processingError := ""
	if res.Err != nil {
		res.Outcome = OutcomeFailed
		processingError = res.Err.Error()
		slog.Error("webhook processing failed", "event_id", eventID, "event_type", envelope.Event, "error", res.Err)
		sentry.WithScope(func(scope *sentry.Scope) {
			scope.SetTag("event_type", envelope.Event)
			scope.SetTag("event_id", eventID)
			sentry.CaptureException(res.Err)
		})
	}

	// Marking happens even after a failure so a poison event is not retried forever.
	if err := s.repo.MarkWebhookProcessed(ctx, eventID, processingError); err != nil {
		slog.Error("failed to mark webhook processed", "event_id", eventID, "event_type", envelope.Event, "error", err)
	}

	metrics.RecordWebhook(envelope.Event, res.Outcome)
	return res, nil
}

func (s *WebhookService) apply(ctx context.Context, envelope *dto.RazorpayWebhook, eventID string) (string, error) {
	ev, err := webhook.Parse(envelope)
	if err != nil {
		return OutcomeFailed, err
	}
	if _, ok := ev.(webhook.Unhandled); ok {
		slog.Info("unhandled webhook event", "event_id", eventID, "event_type", ev.Name())
		return OutcomeIgnored, nil
	}

	outcome := OutcomeApplied
	err = s.repo.WithTx(ctx, func(tx repository.Repository) error {
		sub, err := tx.LockSubscriptionByUser(ctx, ev.User())
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w for user %s", ErrNoSubscription, ev.User())
		}
		if err != nil {
			return fmt.Errorf("load subscription: %w", err)
		}

		out := webhook.Apply(sub, ev, s.now().UTC())
		if out.Skipped != "" {
			outcome = OutcomeSkipped
			slog.Warn("webhook transition skipped",
				"event_id", eventID, "event_type", ev.Name(), "user_id", ev.User().String(),
				"status", out.From, "reason", out.Skipped)
		}
		if out.Mutated {
			if err := tx.SaveSubscription(ctx, sub); err != nil {
				return fmt.Errorf("save subscription: %w", err)
			}
			if out.From != out.To {
				slog.Info("subscription transition",
					"event_id", eventID, "event_type", ev.Name(), "user_id", ev.User().String(),
					"from", out.From, "to", out.To)
			}
		}
		if out.Transaction != nil {
			if err := tx.InsertPaymentTransaction(ctx, out.Transaction); err != nil {
				return fmt.Errorf("insert payment transaction: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return OutcomeFailed, err
	}
	return outcome, nil
}
