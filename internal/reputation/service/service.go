// Package service implements the reputation query engine: read-only graph
// traversals that derive trust signals between two participants. The read
// path favors availability, so any underlying failure degrades to a
// documented zero value instead of propagating.
package service

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"spectra/internal/mark"
	"spectra/internal/platform/metrics"
	"spectra/pkg/marktypes"
)

// Service answers reputation queries for one namespace.
type Service struct {
	onchain bool
	store   mark.Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

func New(onchain bool, store mark.Store, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		onchain: onchain,
		store:   store,
		logger:  logger,
		metrics: m,
		tracer:  otel.Tracer("spectra/reputation"),
	}
}

// Onchain reports which namespace this instance serves.
func (s *Service) Onchain() bool {
	return s.onchain
}

// MutualMarks returns the two directed ratings between from and to. Missing
// ratings stay nil; a query failure degrades to the all-nil value.
func (s *Service) MutualMarks(ctx context.Context, from, to string, t marktypes.Type) mark.MutualMarks {
	ctx, span := s.tracer.Start(ctx, "reputation.mutual_marks")
	defer span.End()
	defer s.observe("mutual_marks", time.Now())

	out, err := s.store.MutualMarks(ctx, s.onchain, from, to, t)
	if err != nil {
		span.RecordError(err)
		s.logger.ErrorContext(ctx, "mutual marks query failed", "error", err, "from", from, "to", to)
		return mark.MutualMarks{}
	}
	return out
}

// CommonParticipants returns the intermediaries evidentially connected to
// both endpoints. A query failure degrades to the empty list.
func (s *Service) CommonParticipants(ctx context.Context, from, to string, t marktypes.Type) []mark.CommonParticipant {
	ctx, span := s.tracer.Start(ctx, "reputation.common_participants")
	defer span.End()
	defer s.observe("common_participants", time.Now())

	out, err := s.store.CommonParticipants(ctx, s.onchain, from, to, t)
	if err != nil {
		span.RecordError(err)
		s.logger.ErrorContext(ctx, "common participants query failed", "error", err, "from", from, "to", to)
		return nil
	}
	return out
}

// Context composes the mutual-marks and common-participants queries.
func (s *Service) Context(ctx context.Context, from, to string, t marktypes.Type) mark.ReputationContext {
	ctx, span := s.tracer.Start(ctx, "reputation.context")
	defer span.End()

	return mark.ReputationContext{
		MutualMarks:        s.MutualMarks(ctx, from, to, t),
		CommonParticipants: s.CommonParticipants(ctx, from, to, t),
	}
}

// Count partitions the common participants by their rating of the "to"
// endpoint; intermediaries with no rating of "to" count toward neither
// bucket. CommonCount is the total number of common participants.
func (s *Service) Count(ctx context.Context, from, to string, t marktypes.Type) mark.ReputationCount {
	ctx, span := s.tracer.Start(ctx, "reputation.count")
	defer span.End()
	defer s.observe("count", time.Now())

	participants, err := s.store.CommonParticipants(ctx, s.onchain, from, to, t)
	if err != nil {
		span.RecordError(err)
		s.logger.ErrorContext(ctx, "reputation count query failed", "error", err, "from", from, "to", to)
		return mark.ReputationCount{}
	}

	var count mark.ReputationCount
	count.CommonCount = len(participants)
	for _, p := range participants {
		if p.IntermediateToTo == nil {
			continue
		}
		if *p.IntermediateToTo {
			count.Positive++
		} else {
			count.Negative++
		}
	}
	return count
}

// Changelog returns how from's rating of to evolved, ascending by creation
// time. Only entries authored by from are returned. A query failure degrades
// to the empty list.
func (s *Service) Changelog(ctx context.Context, from, to string, t marktypes.Type) []mark.ChangelogEntry {
	ctx, span := s.tracer.Start(ctx, "reputation.changelog")
	defer span.End()
	defer s.observe("changelog", time.Now())

	out, err := s.store.Changelog(ctx, s.onchain, from, to, t)
	if err != nil {
		span.RecordError(err)
		s.logger.ErrorContext(ctx, "changelog query failed", "error", err, "from", from, "to", to)
		return nil
	}
	return out
}

func (s *Service) observe(query string, start time.Time) {
	s.metrics.QueryDuration.WithLabelValues(query).Observe(time.Since(start).Seconds())
}
