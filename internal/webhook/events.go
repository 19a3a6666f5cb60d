// Package webhook turns Razorpay webhook envelopes into typed events and
// applies them to a subscription row.
package webhook

import (
	"time"

	"github.com/google/uuid"
)

const (
	TypeSubscriptionAuthenticated = "subscription.authenticated"
	TypeSubscriptionActivated     = "subscription.activated"
	TypeSubscriptionCharged       = "subscription.charged"
	TypeSubscriptionHalted        = "subscription.halted"
	TypeSubscriptionPaused        = "subscription.paused"
	TypeSubscriptionCancelled     = "subscription.cancelled"
	TypeSubscriptionCompleted     = "subscription.completed"
	TypeSubscriptionExpired       = "subscription.expired"
	TypeInvoicePaid               = "invoice.paid"
	TypeInvoicePaymentFailed      = "invoice.payment_failed"
	TypePaymentFailed             = "payment.failed"
	TypeOrderPaid                 = "order.paid"
)

// Event is one parsed webhook delivery. Each concrete type carries only the
// fields its transition needs.
type Event interface {
	Name() string
	User() uuid.UUID
	// GatewaySubscriptionID is the remote subscription the event concerns,
	// or "" when the payload does not name one.
	GatewaySubscriptionID() string
}

type meta struct {
	name           string
	userID         uuid.UUID
	subscriptionID string
}

func (m meta) Name() string                  { return m.name }
func (m meta) User() uuid.UUID               { return m.userID }
func (m meta) GatewaySubscriptionID() string { return m.subscriptionID }

// Payment is the subset of a Razorpay payment entity kept on transaction rows.
type Payment struct {
	ID       string
	OrderID  string
	Amount   int64 // subunits
	Currency string
	Method   string
}

// Period is a billing window reported by the gateway. Either bound may be nil.
type Period struct {
	Start *time.Time
	End   *time.Time
}

type SubscriptionAuthenticated struct {
	meta
	CustomerID string
}

type SubscriptionActivated struct {
	meta
	Period Period
}

type InvoicePaid struct {
	meta
	Period        Period
	NextBillingAt *time.Time
}

type InvoicePaymentFailed struct{ meta }

type SubscriptionHalted struct{ meta }

type SubscriptionPaused struct{ meta }

type SubscriptionCancelled struct{ meta }

// SubscriptionEnded covers both subscription.completed and subscription.expired.
type SubscriptionEnded struct{ meta }

type SubscriptionCharged struct {
	meta
	Payment Payment
	Period  Period
}

type PaymentFailed struct {
	meta
	Payment          Payment
	ErrorCode        string
	ErrorDescription string
}

type OrderPaid struct {
	meta
	OrderID string
	Payment Payment
}

// Unhandled is any event type this service does not act on.
type Unhandled struct{ meta }
