package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"spectra/internal/mark"
	"spectra/internal/platform/metrics"
)

// Emitter records mark outcomes in the outbox. It is fire-and-forget from the
// repository's point of view: every failure here is logged and swallowed, the
// upsert result is decided solely by the graph transaction.
type Emitter struct {
	store   Store
	topic   string
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewEmitter(store Store, topic string, logger *slog.Logger, m *metrics.Metrics) *Emitter {
	return &Emitter{store: store, topic: topic, logger: logger, metrics: m}
}

// EmitOutcome enqueues one outcome event for the finished upsert attempt.
// Keyed by the from-participant so per-author ordering survives partitioning.
func (e *Emitter) EmitOutcome(ctx context.Context, onchain bool, req mark.Request, res *mark.UpsertResult, procErr error) {
	event, err := NewOutcomeEvent(onchain, req, res, procErr)
	if err != nil {
		e.logger.ErrorContext(ctx, "build outcome event", "error", err)
		return
	}
	payload, err := event.Marshal()
	if err != nil {
		e.logger.ErrorContext(ctx, "encode outcome event", "error", err)
		return
	}

	entry := Entry{
		ID:        uuid.New(),
		Topic:     e.topic,
		Key:       req.FromParticipantID,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}
	if err := e.store.Enqueue(ctx, entry); err != nil {
		e.logger.ErrorContext(ctx, "enqueue outcome event",
			"error", err,
			"event_id", event.Metadata.EventID,
		)
		return
	}
	e.metrics.OutboxEnqueued.Inc()
}
