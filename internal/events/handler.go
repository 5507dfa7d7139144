// Package events consumes inbound mark-request messages, deduplicates them by
// event id, validates their shape, and applies them through the namespace
// services. Messages failing validation are dropped without being applied or
// re-emitted.
package events

import (
	"context"
	"encoding/json"
	"log/slog"

	"spectra/internal/events/cache"
	"spectra/internal/events/outbox"
	"spectra/internal/mark"
	"spectra/internal/platform/metrics"
	"spectra/pkg/marktypes"
	"spectra/pkg/requestcontext"
)

// MarkRequest is the inbound "mark request" message. Value is a pointer so a
// missing field is distinguishable from false.
type MarkRequest struct {
	FromParticipantID string           `json:"fromParticipantId"`
	ToParticipantID   string           `json:"toParticipantId"`
	Value             *bool            `json:"value"`
	IsOnchain         bool             `json:"isOnchain"`
	OnchainMarkType   int32            `json:"onchainMarkType,omitempty"`
	OffchainMarkType  int32            `json:"offchainMarkType,omitempty"`
	Metadata          *outbox.Metadata `json:"metadata,omitempty"`
}

// Processor applies a validated mark request. Implemented by the mark service.
type Processor interface {
	Process(ctx context.Context, req mark.Request) bool
}

// Handler is the consumer-side entry point for mark request events.
type Handler struct {
	dedup    cache.DedupCache
	onchain  Processor
	offchain Processor
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func NewHandler(dedup cache.DedupCache, onchain, offchain Processor, logger *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{
		dedup:    dedup,
		onchain:  onchain,
		offchain: offchain,
		logger:   logger,
		metrics:  m,
	}
}

// HandleMarkRequest processes one raw message. It never returns an error:
// the transport has at-least-once semantics and redeliveries are absorbed by
// the deduplicator, so failing a message back to the broker buys nothing.
func (h *Handler) HandleMarkRequest(ctx context.Context, payload []byte) {
	var req MarkRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		h.logger.WarnContext(ctx, "undecodable mark request dropped", "error", err)
		h.metrics.EventsDropped.WithLabelValues("undecodable").Inc()
		return
	}

	// Without an event id the message cannot be deduplicated; skipping is
	// safer than risking double-application under redelivery.
	if req.Metadata == nil || req.Metadata.EventID == "" {
		h.logger.WarnContext(ctx, "mark request without event id skipped")
		h.metrics.EventsDropped.WithLabelValues("missing_event_id").Inc()
		return
	}
	ctx = requestcontext.WithEventID(ctx, req.Metadata.EventID)

	seen, err := h.dedup.CheckAndMark(ctx, req.Metadata.EventID)
	if err != nil {
		// Proceed on cache trouble: duplicates are preferable to losing marks.
		h.logger.ErrorContext(ctx, "dedup check failed, processing anyway", "error", err)
	}
	if seen {
		h.logger.InfoContext(ctx, "duplicate mark request skipped", "event_id", req.Metadata.EventID)
		h.metrics.EventsDeduplicated.Inc()
		return
	}

	if req.FromParticipantID == "" || req.ToParticipantID == "" {
		h.logger.WarnContext(ctx, "mark request with missing participant id dropped")
		h.metrics.EventsDropped.WithLabelValues("missing_participant").Inc()
		return
	}
	if req.Value == nil {
		h.logger.WarnContext(ctx, "mark request without value dropped")
		h.metrics.EventsDropped.WithLabelValues("missing_value").Inc()
		return
	}

	code := req.OffchainMarkType
	if req.IsOnchain {
		code = req.OnchainMarkType
	}
	markType, err := marktypes.FromCode(code, req.IsOnchain)
	if err != nil {
		h.logger.WarnContext(ctx, "mark request with unknown mark type dropped",
			"error", err,
			"is_onchain", req.IsOnchain,
		)
		h.metrics.EventsDropped.WithLabelValues("unknown_mark_type").Inc()
		return
	}

	processor := h.offchain
	if req.IsOnchain {
		processor = h.onchain
	}
	if ok := processor.Process(ctx, mark.Request{
		FromParticipantID: req.FromParticipantID,
		ToParticipantID:   req.ToParticipantID,
		Type:              markType,
		Value:             *req.Value,
	}); !ok {
		h.logger.WarnContext(ctx, "mark request processing failed", "event_id", req.Metadata.EventID)
	}
}
