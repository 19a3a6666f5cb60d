package webhook

import (
	"errors"
	"fmt"
	"time"

	"github.com/ahmetcoskunkizilkaya/resume-billing/internal/dto"
	"github.com/google/uuid"
)

var (
	ErrMissingUserID = errors.New("event notes carry no valid user_id")
	ErrMissingEntity = errors.New("event payload is missing a required entity")
)

// Parse maps an envelope onto its Event variant. Unknown event types parse
// to Unhandled without requiring a user id.
func Parse(w *dto.RazorpayWebhook) (Event, error) {
	p := w.Payload

	switch w.Event {
	case TypeSubscriptionAuthenticated, TypeSubscriptionActivated, TypeSubscriptionCharged,
		TypeSubscriptionHalted, TypeSubscriptionPaused, TypeSubscriptionCancelled,
		TypeSubscriptionCompleted, TypeSubscriptionExpired,
		TypeInvoicePaid, TypeInvoicePaymentFailed, TypePaymentFailed, TypeOrderPaid:
	default:
		return Unhandled{meta{name: w.Event}}, nil
	}

	userID, err := userFromNotes(p)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", w.Event, err)
	}
	m := meta{name: w.Event, userID: userID, subscriptionID: subscriptionRef(p)}

	switch w.Event {
	case TypeSubscriptionAuthenticated:
		ev := SubscriptionAuthenticated{meta: m}
		if p.Subscription != nil {
			ev.CustomerID = p.Subscription.Entity.CustomerID
		}
		return ev, nil

	case TypeSubscriptionActivated:
		return SubscriptionActivated{meta: m, Period: subscriptionPeriod(p)}, nil

	case TypeInvoicePaid:
		ev := InvoicePaid{meta: m, Period: subscriptionPeriod(p)}
		if p.Invoice != nil && ev.Period.Start == nil {
			ev.Period = Period{
				Start: unixPtr(p.Invoice.Entity.BillingStart),
				End:   unixPtr(p.Invoice.Entity.BillingEnd),
			}
		}
		if p.Subscription != nil {
			ev.NextBillingAt = unixPtr(p.Subscription.Entity.ChargeAt)
		}
		if ev.NextBillingAt == nil {
			ev.NextBillingAt = ev.Period.End
		}
		return ev, nil

	case TypeInvoicePaymentFailed:
		return InvoicePaymentFailed{m}, nil

	case TypeSubscriptionHalted:
		return SubscriptionHalted{m}, nil

	case TypeSubscriptionPaused:
		return SubscriptionPaused{m}, nil

	case TypeSubscriptionCancelled:
		return SubscriptionCancelled{m}, nil

	case TypeSubscriptionCompleted, TypeSubscriptionExpired:
		return SubscriptionEnded{m}, nil

	case TypeSubscriptionCharged:
		if p.Payment == nil {
			return nil, fmt.Errorf("%s: payment: %w", w.Event, ErrMissingEntity)
		}
		return SubscriptionCharged{meta: m, Payment: paymentOf(p.Payment.Entity), Period: subscriptionPeriod(p)}, nil

	case TypePaymentFailed:
		if p.Payment == nil {
			return nil, fmt.Errorf("%s: payment: %w", w.Event, ErrMissingEntity)
		}
		pay := p.Payment.Entity
		return PaymentFailed{
			meta:             m,
			Payment:          paymentOf(pay),
			ErrorCode:        pay.ErrorCode,
			ErrorDescription: pay.ErrorDescription,
		}, nil

	default: // TypeOrderPaid
		if p.Order == nil {
			return nil, fmt.Errorf("%s: order: %w", w.Event, ErrMissingEntity)
		}
		ev := OrderPaid{meta: m, OrderID: p.Order.Entity.ID}
		if p.Payment != nil {
			ev.Payment = paymentOf(p.Payment.Entity)
		} else {
			ev.Payment = Payment{
				OrderID:  p.Order.Entity.ID,
				Amount:   p.Order.Entity.AmountPaid,
				Currency: p.Order.Entity.Currency,
			}
		}
		return ev, nil
	}
}

// userFromNotes looks for user_id on every entity the envelope carries,
// subscription first.
func userFromNotes(p dto.RazorpayPayload) (uuid.UUID, error) {
	var candidates []dto.Notes
	if p.Subscription != nil {
		candidates = append(candidates, p.Subscription.Entity.Notes)
	}
	if p.Payment != nil {
		candidates = append(candidates, p.Payment.Entity.Notes)
	}
	if p.Invoice != nil {
		candidates = append(candidates, p.Invoice.Entity.Notes)
	}
	if p.Order != nil {
		candidates = append(candidates, p.Order.Entity.Notes)
	}

	for _, notes := range candidates {
		raw, ok := notes["user_id"]
		if !ok || raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return uuid.Nil, fmt.Errorf("%w: %q", ErrMissingUserID, raw)
		}
		return id, nil
	}
	return uuid.Nil, ErrMissingUserID
}

func subscriptionRef(p dto.RazorpayPayload) string {
	if p.Subscription != nil && p.Subscription.Entity.ID != "" {
		return p.Subscription.Entity.ID
	}
	if p.Invoice != nil {
		return p.Invoice.Entity.SubscriptionID
	}
	return ""
}

func subscriptionPeriod(p dto.RazorpayPayload) Period {
	if p.Subscription == nil {
		return Period{}
	}
	return Period{
		Start: unixPtr(p.Subscription.Entity.CurrentStart),
		End:   unixPtr(p.Subscription.Entity.CurrentEnd),
	}
}

func paymentOf(pay dto.RazorpayPayment) Payment {
	return Payment{
		ID:       pay.ID,
		OrderID:  pay.OrderID,
		Amount:   pay.Amount,
		Currency: pay.Currency,
		Method:   pay.Method,
	}
}

func unixPtr(ts *int64) *time.Time {
	if ts == nil || *ts <= 0 {
		return nil
	}
	t := time.Unix(*ts, 0).UTC()
	return &t
}
