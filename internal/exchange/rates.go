package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ahmetcoskunkizilkaya/resume-billing/internal/metrics"
)

const usdINRKey = "usd_inr"

// RateService resolves the USD->INR rate used for rest-of-world checkouts.
// It never fails: lookups that error fall back to a static rate.
type RateService struct {
	cache    Cache
	client   *http.Client
	url      string
	ttl      time.Duration
	fallback float64
}

func NewRateService(cache Cache, url string, ttl time.Duration, fallback float64) *RateService {
	return &RateService{
		cache:    cache,
		client:   &http.Client{Timeout: 5 * time.Second},
		url:      url,
		ttl:      ttl,
		fallback: fallback,
	}
}

type openERResponse struct {
	Result string             `json:"result"`
	Rates  map[string]float64 `json:"rates"`
}

// USDToINR returns a cached rate, refreshing it when expired.
func (s *RateService) USDToINR(ctx context.Context) float64 {
	if rate, ok := s.cache.Get(ctx, usdINRKey); ok {
		return rate
	}

	rate, err := s.fetch(ctx)
	if err != nil {
		slog.Warn("exchange rate lookup failed, using fallback", "fallback", s.fallback, "error", err)
		metrics.RecordRateFallback()
		return s.fallback
	}

	s.cache.Set(ctx, usdINRKey, rate, s.ttl)
	return rate
}

func (s *RateService) fetch(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("rate api returned %d", resp.StatusCode)
	}

	var body openERResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("decode rate response: %w", err)
	}

	rate, ok := body.Rates["INR"]
	if !ok || rate <= 0 {
		return 0, fmt.Errorf("rate response has no INR rate")
	}
	return rate, nil
}
