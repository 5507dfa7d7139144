//go:build integration

package outbox_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"spectra/internal/events/outbox"
	"spectra/pkg/testutil/containers"
)

type PostgresOutboxSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *outbox.PostgresStore
}

func TestPostgresOutboxSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresOutboxSuite))
}

func (s *PostgresOutboxSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = outbox.NewPostgres(s.postgres.Pool)
	s.Require().NoError(s.store.EnsureSchema(context.Background()))
}

func (s *PostgresOutboxSuite) SetupTest() {
	s.Require().NoError(s.postgres.Truncate(context.Background(), "outbox_events"))
}

func (s *PostgresOutboxSuite) entry(key string, createdAt time.Time) outbox.Entry {
	return outbox.Entry{
		ID:        uuid.New(),
		Topic:     "spectra.mark.created",
		Key:       key,
		Payload:   []byte(`{"fromParticipantId":"` + key + `"}`),
		CreatedAt: createdAt,
	}
}

// TestEnqueueAndPending verifies rows surface in creation order.
func (s *PostgresOutboxSuite) TestEnqueueAndPending() {
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Microsecond)

	first := s.entry("u1", base)
	second := s.entry("u2", base.Add(time.Second))
	s.Require().NoError(s.store.Enqueue(ctx, second))
	s.Require().NoError(s.store.Enqueue(ctx, first))

	pending, err := s.store.Pending(ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(pending, 2)
	s.Equal(first.ID, pending[0].ID)
	s.Equal(second.ID, pending[1].ID)
	s.Equal("u1", pending[0].Key)
	s.JSONEq(string(first.Payload), string(pending[0].Payload))
}

// TestPendingLimit verifies the batch limit.
func (s *PostgresOutboxSuite) TestPendingLimit() {
	ctx := context.Background()
	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		s.Require().NoError(s.store.Enqueue(ctx, s.entry("u1", base.Add(time.Duration(i)*time.Second))))
	}

	pending, err := s.store.Pending(ctx, 3)
	s.Require().NoError(err)
	s.Len(pending, 3)
}

// TestMarkSent verifies sent rows drop out of the pending set but stay stored.
func (s *PostgresOutboxSuite) TestMarkSent() {
	ctx := context.Background()
	base := time.Now().UTC()

	first := s.entry("u1", base)
	second := s.entry("u2", base.Add(time.Second))
	s.Require().NoError(s.store.Enqueue(ctx, first))
	s.Require().NoError(s.store.Enqueue(ctx, second))

	s.Require().NoError(s.store.MarkSent(ctx, []uuid.UUID{first.ID}))

	pending, err := s.store.Pending(ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(pending, 1)
	s.Equal(second.ID, pending[0].ID)

	var total int
	s.Require().NoError(s.postgres.Pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM outbox_events").Scan(&total))
	s.Equal(2, total)
}

// TestMarkSentIdempotent verifies re-marking already sent ids is harmless.
func (s *PostgresOutboxSuite) TestMarkSentIdempotent() {
	ctx := context.Background()
	entry := s.entry("u1", time.Now().UTC())
	s.Require().NoError(s.store.Enqueue(ctx, entry))

	s.Require().NoError(s.store.MarkSent(ctx, []uuid.UUID{entry.ID}))
	s.Require().NoError(s.store.MarkSent(ctx, []uuid.UUID{entry.ID, uuid.New()}))

	pending, err := s.store.Pending(ctx, 10)
	s.Require().NoError(err)
	s.Empty(pending)
}
