package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// RazorpayWebhook is the event envelope posted by Razorpay.
type RazorpayWebhook struct {
	Entity    string          `json:"entity"`
	AccountID string          `json:"account_id"`
	Event     string          `json:"event"`
	Contains  []string        `json:"contains"`
	Payload   RazorpayPayload `json:"payload"`
	CreatedAt int64           `json:"created_at"`
}

type RazorpayPayload struct {
	Subscription *SubscriptionWrapper `json:"subscription,omitempty"`
	Payment      *PaymentWrapper      `json:"payment,omitempty"`
	Invoice      *InvoiceWrapper      `json:"invoice,omitempty"`
	Order        *OrderWrapper        `json:"order,omitempty"`
}

type SubscriptionWrapper struct {
	Entity RazorpaySubscription `json:"entity"`
}

type PaymentWrapper struct {
	Entity RazorpayPayment `json:"entity"`
}

type InvoiceWrapper struct {
	Entity RazorpayInvoice `json:"entity"`
}

type OrderWrapper struct {
	Entity RazorpayOrder `json:"entity"`
}

type RazorpaySubscription struct {
	ID           string `json:"id"`
	PlanID       string `json:"plan_id"`
	CustomerID   string `json:"customer_id"`
	Status       string `json:"status"`
	CurrentStart *int64 `json:"current_start"`
	CurrentEnd   *int64 `json:"current_end"`
	ChargeAt     *int64 `json:"charge_at"`
	StartAt      *int64 `json:"start_at"`
	EndAt        *int64 `json:"end_at"`
	TotalCount   int    `json:"total_count"`
	PaidCount    int    `json:"paid_count"`
	Notes        Notes  `json:"notes"`
}

type RazorpayPayment struct {
	ID               string `json:"id"`
	Amount           int64  `json:"amount"`
	Currency         string `json:"currency"`
	Status           string `json:"status"`
	OrderID          string `json:"order_id"`
	InvoiceID        string `json:"invoice_id"`
	Method           string `json:"method"`
	ErrorCode        string `json:"error_code"`
	ErrorDescription string `json:"error_description"`
	Notes            Notes  `json:"notes"`
}

type RazorpayInvoice struct {
	ID             string `json:"id"`
	SubscriptionID string `json:"subscription_id"`
	OrderID        string `json:"order_id"`
	PaymentID      string `json:"payment_id"`
	Status         string `json:"status"`
	AmountPaid     int64  `json:"amount_paid"`
	PaidAt         *int64 `json:"paid_at"`
	BillingStart   *int64 `json:"billing_start"`
	BillingEnd     *int64 `json:"billing_end"`
	Notes          Notes  `json:"notes"`
}

type RazorpayOrder struct {
	ID         string `json:"id"`
	Amount     int64  `json:"amount"`
	AmountPaid int64  `json:"amount_paid"`
	Currency   string `json:"currency"`
	Receipt    string `json:"receipt"`
	Status     string `json:"status"`
	Notes      Notes  `json:"notes"`
}

// Notes is Razorpay's free-form key/value bag. Razorpay sends an empty
// array instead of an object when no notes are set.
type Notes map[string]string

func (n *Notes) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*n = nil
		return nil
	}
	if trimmed[0] == '[' {
		var arr []json.RawMessage
		if err := json.Unmarshal(trimmed, &arr); err != nil {
			return err
		}
		*n = Notes{}
		return nil
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return err
	}
	out := make(Notes, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case string:
			out[k] = val
		case nil:
		default:
			out[k] = fmt.Sprint(val)
		}
	}
	*n = out
	return nil
}
