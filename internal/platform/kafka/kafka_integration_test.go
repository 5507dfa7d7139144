//go:build integration

package kafka_test

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"spectra/internal/platform/kafka"
	"spectra/pkg/testutil/containers"
)

type KafkaSuite struct {
	suite.Suite
	redpanda *containers.RedpandaContainer
}

func TestKafkaSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(KafkaSuite))
}

func (s *KafkaSuite) SetupSuite() {
	s.redpanda = containers.NewRedpandaContainer(s.T())
}

func (s *KafkaSuite) config(request, created string) kafka.Config {
	return kafka.Config{
		Brokers:      s.redpanda.Brokers,
		GroupID:      "spectra-test",
		RequestTopic: request,
		CreatedTopic: created,
	}
}

// TestEnsureTopics verifies topic creation is idempotent.
func (s *KafkaSuite) TestEnsureTopics() {
	ctx := context.Background()
	cfg := s.config("ensure.request", "ensure.created")

	s.Require().NoError(kafka.EnsureTopics(ctx, cfg))
	s.Require().NoError(kafka.EnsureTopics(ctx, cfg))
}

// TestProduceConsume verifies a record published by the producer reaches a
// consumer group member with its key and payload intact.
func (s *KafkaSuite) TestProduceConsume() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cfg := s.config("roundtrip.request", "roundtrip.created")
	s.Require().NoError(kafka.EnsureTopics(ctx, cfg))

	producer, err := kafka.NewProducer(cfg)
	s.Require().NoError(err)
	defer producer.Close()

	consumer, err := kafka.NewConsumer(cfg, slog.New(slog.DiscardHandler))
	s.Require().NoError(err)
	defer consumer.Close()

	var mu sync.Mutex
	var received [][]byte
	consumeCtx, stopConsume := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = consumer.Run(consumeCtx, func(_ context.Context, payload []byte) {
			mu.Lock()
			received = append(received, payload)
			mu.Unlock()
			stopConsume()
		})
	}()

	err = producer.Publish(ctx, cfg.RequestTopic, "u1", []byte(`{"fromParticipantId":"u1"}`))
	s.Require().NoError(err)

	select {
	case <-done:
	case <-ctx.Done():
		s.FailNow("timed out waiting for the consumer")
	}

	mu.Lock()
	defer mu.Unlock()
	s.Require().Len(received, 1)
	s.JSONEq(`{"fromParticipantId":"u1"}`, string(received[0]))
}
