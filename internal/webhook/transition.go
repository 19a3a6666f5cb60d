package webhook

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/resume-billing/internal/models"
	"github.com/ahmetcoskunkizilkaya/resume-billing/internal/pricing"
)

// Outcome describes what Apply did to a subscription.
type Outcome struct {
	From string
	To   string
	// Mutated is true when sub must be persisted.
	Mutated bool
	// Transaction, when set, is an audit row to insert alongside.
	Transaction *models.PaymentTransaction
	// Skipped explains why a status-changing event left the row alone.
	Skipped string
}

const (
	skipTerminal     = "subscription is in a terminal state"
	skipPrecondition = "current status does not allow this transition"
	skipStale        = "event is for a different gateway subscription"
	skipStaleOrder   = "event is for a different gateway order"
)

// Apply runs ev against sub in place. It never fails: every event maps to a
// mutation, an audit row, or an explicit no-op.
func Apply(sub *models.Subscription, ev Event, now time.Time) Outcome {
	out := Outcome{From: sub.Status, To: sub.Status}

	switch e := ev.(type) {
	case SubscriptionAuthenticated:
		if !out.guard(sub, e, models.StatusAuthenticated, models.StatusPending) {
			return out
		}
		if id := e.GatewaySubscriptionID(); id != "" {
			sub.RazorpaySubscriptionID = &id
		}
		if e.CustomerID != "" {
			customer := e.CustomerID
			sub.RazorpayCustomerID = &customer
		}
		sub.TrialActive = sub.TrialDays > 0
		out.set(sub, models.StatusAuthenticated)

	case SubscriptionActivated:
		if !out.guard(sub, e, models.StatusActive) {
			return out
		}
		applyPeriod(sub, e.Period)
		out.set(sub, models.StatusActive)

	case InvoicePaid:
		if !out.guard(sub, e, models.StatusActive) {
			return out
		}
		applyPeriod(sub, e.Period)
		sub.TrialActive = false
		if e.NextBillingAt != nil {
			next := *e.NextBillingAt
			sub.NextBillingAt = &next
		}
		out.set(sub, models.StatusActive)

	case InvoicePaymentFailed:
		// The gateway owns the retry cadence; only a live subscription drops back.
		if !out.guard(sub, e, models.StatusPending, models.StatusActive) {
			return out
		}
		out.set(sub, models.StatusPending)

	case SubscriptionHalted:
		if !out.guard(sub, e, models.StatusHalted) {
			return out
		}
		out.set(sub, models.StatusHalted)

	case SubscriptionPaused:
		if !out.guard(sub, e, models.StatusPaused) {
			return out
		}
		out.set(sub, models.StatusPaused)

	case SubscriptionCancelled:
		if !out.guard(sub, e, models.StatusCancelled) {
			return out
		}
		if sub.Status != models.StatusCancelled || sub.CancelledAt == nil {
			at := now
			sub.CancelledAt = &at
		}
		out.set(sub, models.StatusCancelled)

	case SubscriptionEnded:
		if !out.guard(sub, e, models.StatusExpired) {
			return out
		}
		out.set(sub, models.StatusExpired)

	case SubscriptionCharged:
		out.Transaction = transaction(sub, e.Payment, models.PaymentCaptured, map[string]interface{}{
			"event": e.Name(),
		})
		if e.Period.Start != nil && !sub.IsTerminal() && !stale(sub, e) {
			applyPeriod(sub, e.Period)
			out.Mutated = true
		}

	case PaymentFailed:
		out.Transaction = transaction(sub, e.Payment, models.PaymentFailed, map[string]interface{}{
			"event":             e.Name(),
			"error_code":        e.ErrorCode,
			"error_description": e.ErrorDescription,
		})

	case OrderPaid:
		out.Transaction = transaction(sub, e.Payment, models.PaymentCaptured, map[string]interface{}{
			"event": e.Name(),
		})
		// The payment is recorded either way; only the order the row was
		// last checked out with may activate it.
		if staleOrder(sub, e) {
			out.Skipped = skipStaleOrder
			return out
		}
		if sub.Status == models.StatusActive {
			return out
		}
		if !out.guard(sub, e, models.StatusActive,
			models.StatusPending, models.StatusAuthenticated, models.StatusHalted, models.StatusPaused) {
			return out
		}
		// One-time orders get no renewal events, so the paid cycle starts now.
		sub.CurrentPeriodStart = now
		sub.CurrentPeriodEnd = pricing.PeriodEnd(now, pricing.BillingCycle(sub.BillingCycle))
		sub.TrialActive = false
		out.set(sub, models.StatusActive)

	default:
		// Unhandled and any future variant: acknowledged, nothing to do.
	}

	return out
}

// guard reports whether sub may move to `to`. When from is non-empty the
// current status must be one of them.
func (o *Outcome) guard(sub *models.Subscription, ev Event, to string, from ...string) bool {
	if sub.IsTerminal() && to != sub.Status &&
		!(sub.Status == models.StatusCancelled && to == models.StatusExpired) {
		o.Skipped = skipTerminal
		return false
	}
	if stale(sub, ev) {
		o.Skipped = skipStale
		return false
	}
	if len(from) == 0 {
		return true
	}
	for _, s := range from {
		if sub.Status == s {
			return true
		}
	}
	o.Skipped = skipPrecondition
	return false
}

// stale reports whether ev names a gateway subscription other than the one
// the row is bound to, as happens after the user replaced a checkout.
func stale(sub *models.Subscription, ev Event) bool {
	ref := ev.GatewaySubscriptionID()
	if ref == "" || sub.RazorpaySubscriptionID == nil || *sub.RazorpaySubscriptionID == "" {
		return false
	}
	return *sub.RazorpaySubscriptionID != ref
}

// staleOrder reports whether an order.paid event pays for something other
// than the row's current checkout: a replaced order, or any order when the
// row is bound to a recurring subscription.
func staleOrder(sub *models.Subscription, e OrderPaid) bool {
	ref := e.OrderID
	if ref == "" {
		ref = e.Payment.OrderID
	}
	if ref == "" {
		return false
	}
	if sub.RazorpayOrderID == nil || *sub.RazorpayOrderID == "" {
		return sub.RazorpaySubscriptionID != nil && *sub.RazorpaySubscriptionID != ""
	}
	return *sub.RazorpayOrderID != ref
}

func (o *Outcome) set(sub *models.Subscription, status string) {
	sub.Status = status
	o.To = status
	o.Mutated = true
}

func applyPeriod(sub *models.Subscription, p Period) {
	if p.Start != nil {
		sub.CurrentPeriodStart = *p.Start
	}
	if p.End != nil {
		sub.CurrentPeriodEnd = *p.End
	}
}

func transaction(sub *models.Subscription, pay Payment, status string, meta map[string]interface{}) *models.PaymentTransaction {
	currency := pay.Currency
	if currency == "" {
		currency = sub.Currency
	}
	return &models.PaymentTransaction{
		UserID:            sub.UserID,
		SubscriptionID:    sub.ID,
		RazorpayPaymentID: pay.ID,
		RazorpayOrderID:   pay.OrderID,
		Amount:            pricing.FromSubunits(pay.Amount),
		Currency:          currency,
		Status:            status,
		PaymentMethod:     pay.Method,
		Metadata:          models.JSONMap(meta),
	}
}
