package logging

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/resume-billing/internal/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const batchSize = 50

// PGHandler is an slog.Handler that batches ERROR+ logs to PostgreSQL.
// Billing identifiers are lifted into their own columns so a failed webhook
// can be found by event or subscription id.
type PGHandler struct {
	write  func([]models.SystemLog) error
	attrs  []slog.Attr
	shared *pgBuffer
}

type pgBuffer struct {
	mu       sync.Mutex
	buffer   []models.SystemLog
	ticker   *time.Ticker
	done     chan struct{}
	stopOnce sync.Once
}

func NewPGHandler(db *gorm.DB) *PGHandler {
	return newPGHandler(func(batch []models.SystemLog) error {
		return db.CreateInBatches(batch, batchSize).Error
	}, 5*time.Second)
}

func newPGHandler(write func([]models.SystemLog) error, interval time.Duration) *PGHandler {
	h := &PGHandler{
		write: write,
		shared: &pgBuffer{
			buffer: make([]models.SystemLog, 0, batchSize),
			ticker: time.NewTicker(interval),
			done:   make(chan struct{}),
		},
	}
	go h.flushLoop()
	return h
}

func (h *PGHandler) flushLoop() {
	for {
		select {
		case <-h.shared.ticker.C:
			h.flush()
		case <-h.shared.done:
			h.flush()
			return
		}
	}
}

func (h *PGHandler) flush() {
	b := h.shared
	b.mu.Lock()
	if len(b.buffer) == 0 {
		b.mu.Unlock()
		return
	}
	batch := b.buffer
	b.buffer = make([]models.SystemLog, 0, batchSize)
	b.mu.Unlock()

	if err := h.write(batch); err != nil {
		// Below ERROR so it never re-enters this handler.
		slog.Warn("failed to flush system logs to DB", "error", err, "count", len(batch))
	}
}

// Stop flushes what is buffered and ends the background loop.
func (h *PGHandler) Stop() {
	h.shared.stopOnce.Do(func() {
		h.shared.ticker.Stop()
		close(h.shared.done)
	})
}

// Enabled only handles ERROR and above.
func (h *PGHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelError
}

func (h *PGHandler) Handle(_ context.Context, record slog.Record) error {
	entry := models.SystemLog{
		ID:        uuid.New(),
		Timestamp: record.Time,
		Level:     record.Level.String(),
		Message:   record.Message,
	}

	extra := make(map[string]interface{})
	apply := func(a slog.Attr) bool {
		switch a.Key {
		case "request_id":
			entry.RequestID = a.Value.String()
		case "user_id":
			s := a.Value.String()
			entry.UserID = &s
		case "event_id":
			entry.EventID = a.Value.String()
		case "event_type":
			entry.EventType = a.Value.String()
		case "subscription_id":
			entry.SubscriptionID = a.Value.String()
		case "error":
			entry.Error = a.Value.String()
		default:
			extra[a.Key] = a.Value.Any()
		}
		return true
	}
	for _, a := range h.attrs {
		apply(a)
	}
	record.Attrs(apply)

	if len(extra) > 0 {
		if b, err := json.Marshal(extra); err == nil {
			entry.Extra = datatypes.JSON(b)
		}
	}

	b := h.shared
	b.mu.Lock()
	b.buffer = append(b.buffer, entry)
	needFlush := len(b.buffer) >= batchSize
	b.mu.Unlock()

	if needFlush {
		go h.flush()
	}
	return nil
}

func (h *PGHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &PGHandler{write: h.write, attrs: merged, shared: h.shared}
}

func (h *PGHandler) WithGroup(name string) slog.Handler {
	return h
}
