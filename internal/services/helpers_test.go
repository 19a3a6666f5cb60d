package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/resume-billing/internal/dto"
	"github.com/ahmetcoskunkizilkaya/resume-billing/internal/gateway"
	"github.com/google/uuid"
)

var fixedNow = time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

type stubGateway struct {
	mu            sync.Mutex
	orders        []gateway.OrderRequest
	subscriptions []gateway.SubscriptionRequest
	cancels       []string
	cancelAtEnd   []bool
	err           error
}

func (g *stubGateway) KeyID() string { return "rzp_test_key" }

func (g *stubGateway) CreateOrder(_ context.Context, req gateway.OrderRequest) (*gateway.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	g.orders = append(g.orders, req)
	return &gateway.Order{
		ID:       fmt.Sprintf("order_%d", len(g.orders)),
		Amount:   req.Amount,
		Currency: req.Currency,
		Status:   "created",
	}, nil
}

func (g *stubGateway) CreateSubscription(_ context.Context, req gateway.SubscriptionRequest) (*gateway.Subscription, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	g.subscriptions = append(g.subscriptions, req)
	return &gateway.Subscription{
		ID:       fmt.Sprintf("sub_%d", len(g.subscriptions)),
		PlanID:   req.PlanID,
		Status:   "created",
		ShortURL: "https://rzp.io/i/test",
	}, nil
}

func (g *stubGateway) CancelSubscription(_ context.Context, id string, atCycleEnd bool) (*gateway.Subscription, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	g.cancels = append(g.cancels, id)
	g.cancelAtEnd = append(g.cancelAtEnd, atCycleEnd)
	return &gateway.Subscription{ID: id, Status: "active"}, nil
}

type fixedRate float64

func (r fixedRate) USDToINR(context.Context) float64 { return float64(r) }

type stubCompleter struct {
	calls int
	out   string
	err   error
}

func (c *stubCompleter) Complete(context.Context, string, string) (string, error) {
	c.calls++
	return c.out, c.err
}

func testUser() dto.Identity {
	return dto.Identity{ID: uuid.New(), Email: "asha@example.com", Name: "Asha Rao"}
}
