// Package service orchestrates the mark upsert pipeline: one generic engine
// parameterized by namespace, with two thin instances (onchain/offchain)
// wired at startup instead of a subclass per namespace.
package service

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"spectra/internal/mark"
	"spectra/internal/platform/metrics"
	"spectra/pkg/requestcontext"
)

// OutcomeEmitter hands a finished upsert attempt to the notification channel.
// Implementations never fail the caller.
type OutcomeEmitter interface {
	EmitOutcome(ctx context.Context, onchain bool, req mark.Request, res *mark.UpsertResult, procErr error)
}

// ChainRecorder mirrors committed onchain marks to the external ledger.
type ChainRecorder interface {
	Record(ctx context.Context, req mark.Request)
}

// Service runs the upsert protocol for one namespace.
type Service struct {
	onchain bool
	store   mark.Store
	emitter OutcomeEmitter
	chain   ChainRecorder // nil outside the onchain namespace
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

// Option configures optional collaborators.
type Option func(*Service)

// WithChainRecorder enables the post-commit ledger write-through. Only
// meaningful for the onchain instance.
func WithChainRecorder(recorder ChainRecorder) Option {
	return func(s *Service) { s.chain = recorder }
}

func New(onchain bool, store mark.Store, emitter OutcomeEmitter, logger *slog.Logger, m *metrics.Metrics, opts ...Option) *Service {
	s := &Service{
		onchain: onchain,
		store:   store,
		emitter: emitter,
		logger:  logger,
		metrics: m,
		tracer:  otel.Tracer("spectra/mark"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Onchain reports which namespace this instance serves.
func (s *Service) Onchain() bool {
	return s.onchain
}

// Process runs the upsert transaction and reports the outcome as a boolean.
// It returns true only when the transaction committed; every internal error
// is caught, logged, and reported through the outcome event rather than
// surfaced to the caller.
func (s *Service) Process(ctx context.Context, req mark.Request) bool {
	_, err := s.Upsert(ctx, req)
	return err == nil
}

// Upsert runs the transactional protocol and returns the created flag and
// persisted mark. The outcome event is emitted on both paths; a ledger
// write-through follows a successful onchain commit and never affects the
// result.
func (s *Service) Upsert(ctx context.Context, req mark.Request) (mark.UpsertResult, error) {
	ctx, span := s.tracer.Start(ctx, "mark.upsert")
	defer span.End()

	start := time.Now()
	res, err := s.store.Upsert(ctx, s.onchain, req)
	s.metrics.UpsertDuration.Observe(time.Since(start).Seconds())

	namespace := metrics.NamespaceLabel(s.onchain)
	if err != nil {
		span.RecordError(err)
		s.logger.ErrorContext(ctx, "mark upsert failed",
			"error", err,
			"namespace", namespace,
			"event_id", requestcontext.EventID(ctx),
			"from", req.FromParticipantID,
			"to", req.ToParticipantID,
			"mark_type", req.Type.String(),
		)
		s.metrics.MarksProcessed.WithLabelValues(namespace, "failure").Inc()
		s.emitter.EmitOutcome(ctx, s.onchain, req, nil, err)
		return mark.UpsertResult{}, err
	}

	s.logger.InfoContext(ctx, "mark upserted",
		"namespace", namespace,
		"created", res.Created,
		"mark_id", res.Mark.ID,
		"from", req.FromParticipantID,
		"to", req.ToParticipantID,
		"mark_type", req.Type.String(),
	)
	s.metrics.MarksProcessed.WithLabelValues(namespace, "success").Inc()
	s.emitter.EmitOutcome(ctx, s.onchain, req, &res, nil)

	if s.onchain && s.chain != nil {
		// Ledger failures are the collaborator's problem to retry; the graph
		// commit stands either way.
		s.chain.Record(ctx, req)
	}
	return res, nil
}
