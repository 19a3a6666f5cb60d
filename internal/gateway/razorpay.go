package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client is the subset of the Razorpay API the billing flow depends on.
type Client interface {
	KeyID() string
	CreateOrder(ctx context.Context, req OrderRequest) (*Order, error)
	CreateSubscription(ctx context.Context, req SubscriptionRequest) (*Subscription, error)
	CancelSubscription(ctx context.Context, subscriptionID string, atCycleEnd bool) (*Subscription, error)
}

// OrderRequest amounts are in subunits (paise).
type OrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type Order struct {
	ID       string `json:"id"`
	Entity   string `json:"entity"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type SubscriptionRequest struct {
	PlanID         string            `json:"plan_id"`
	TotalCount     int               `json:"total_count"`
	CustomerNotify int               `json:"customer_notify"`
	StartAt        int64             `json:"start_at,omitempty"`
	Notes          map[string]string `json:"notes,omitempty"`
}

type Subscription struct {
	ID           string `json:"id"`
	Entity       string `json:"entity"`
	PlanID       string `json:"plan_id"`
	CustomerID   string `json:"customer_id"`
	Status       string `json:"status"`
	CurrentStart int64  `json:"current_start"`
	CurrentEnd   int64  `json:"current_end"`
	ChargeAt     int64  `json:"charge_at"`
	ShortURL     string `json:"short_url"`
}

// APIError carries the gateway's error description so it can be surfaced
// to the caller unchanged.
type APIError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *APIError) Error() string {
	if e.Description != "" {
		return e.Description
	}
	return fmt.Sprintf("razorpay API error (status %d)", e.StatusCode)
}

type Razorpay struct {
	keyID      string
	keySecret  string
	apiBase    string
	httpClient *http.Client
}

func NewRazorpay(keyID, keySecret, apiBase string) *Razorpay {
	return &Razorpay{
		keyID:      keyID,
		keySecret:  keySecret,
		apiBase:    apiBase,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (g *Razorpay) KeyID() string { return g.keyID }

func (g *Razorpay) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	var order Order
	if err := g.do(ctx, http.MethodPost, "/orders", req, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (g *Razorpay) CreateSubscription(ctx context.Context, req SubscriptionRequest) (*Subscription, error) {
	var sub Subscription
	if err := g.do(ctx, http.MethodPost, "/subscriptions", req, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (g *Razorpay) CancelSubscription(ctx context.Context, subscriptionID string, atCycleEnd bool) (*Subscription, error) {
	body := map[string]int{"cancel_at_cycle_end": 0}
	if atCycleEnd {
		body["cancel_at_cycle_end"] = 1
	}

	var sub Subscription
	if err := g.do(ctx, http.MethodPost, "/subscriptions/"+subscriptionID+"/cancel", body, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

type errorEnvelope struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

func (g *Razorpay) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode razorpay request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.apiBase+path, body)
	if err != nil {
		return err
	}
	req.SetBasicAuth(g.keyID, g.keySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("razorpay request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read razorpay response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var env errorEnvelope
		if json.Unmarshal(raw, &env) == nil {
			apiErr.Code = env.Error.Code
			apiErr.Description = env.Error.Description
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode razorpay response: %w", err)
	}
	return nil
}
