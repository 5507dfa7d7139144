package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"spectra/internal/platform/metrics"
)

// Publisher delivers a single payload to the broker. Implemented by the kafka
// platform client; tests substitute fakes.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, payload []byte) error
}

// Relay polls the outbox for pending entries and publishes them in order.
// Entries that fail to publish stay pending and are retried on the next tick,
// which gives outcome events at-least-once delivery once recorded.
type Relay struct {
	store     Store
	publisher Publisher
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

func NewRelay(store Store, publisher Publisher, interval time.Duration, batchSize int, logger *slog.Logger, m *metrics.Metrics) *Relay {
	if interval <= 0 {
		interval = time.Second
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Relay{
		store:     store,
		publisher: publisher,
		interval:  interval,
		batchSize: batchSize,
		logger:    logger,
		metrics:   m,
	}
}

// Run drains the outbox until the context is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.Drain(ctx)
		}
	}
}

// Drain publishes one batch of pending entries. Publishing stops at the first
// failure to keep the stream ordered; everything published so far is marked
// sent.
func (r *Relay) Drain(ctx context.Context) {
	entries, err := r.store.Pending(ctx, r.batchSize)
	if err != nil {
		r.logger.ErrorContext(ctx, "fetch pending outbox entries", "error", err)
		return
	}

	var sent []uuid.UUID
	for _, entry := range entries {
		if err := r.publisher.Publish(ctx, entry.Topic, entry.Key, entry.Payload); err != nil {
			r.logger.ErrorContext(ctx, "publish outbox entry",
				"error", err,
				"outbox_id", entry.ID,
				"topic", entry.Topic,
			)
			r.metrics.OutboxPublishFailures.Inc()
			break
		}
		sent = append(sent, entry.ID)
		r.metrics.OutboxPublished.Inc()
	}

	if len(sent) == 0 {
		return
	}
	if err := r.store.MarkSent(ctx, sent); err != nil {
		// Re-delivery on the next tick; consumers must tolerate duplicates.
		r.logger.ErrorContext(ctx, "mark outbox entries sent", "error", err, "count", len(sent))
	}
}
