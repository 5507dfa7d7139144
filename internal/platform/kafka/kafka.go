// Package kafka builds the franz-go clients used by the service: a producer
// for the outbox relay and a consumer group for inbound mark requests.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Config holds broker and topic settings.
type Config struct {
	Brokers      []string
	GroupID      string
	RequestTopic string
	CreatedTopic string
	Disabled     bool
}

// Producer publishes single records synchronously. The outbox relay is the
// only writer, and it wants a definite answer per record before marking an
// entry sent.
type Producer struct {
	client *kgo.Client
}

func NewProducer(cfg Config) (*Producer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return &Producer{client: client}, nil
}

func (p *Producer) Publish(ctx context.Context, topic, key string, payload []byte) error {
	record := &kgo.Record{
		Topic: topic,
		Key:   []byte(key),
		Value: payload,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce to %s: %w", topic, err)
	}
	return nil
}

func (p *Producer) Close() {
	p.client.Close()
}

// Consumer polls the request topic as part of a consumer group and feeds raw
// record values to a handler. Offsets auto-commit; redeliveries after a crash
// are absorbed by the event deduplicator.
type Consumer struct {
	client *kgo.Client
	logger *slog.Logger
}

func NewConsumer(cfg Config, logger *slog.Logger) (*Consumer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ConsumerGroup(cfg.GroupID),
		kgo.ConsumeTopics(cfg.RequestTopic),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka consumer: %w", err)
	}
	return &Consumer{client: client, logger: logger}, nil
}

// Run polls until the context is cancelled, invoking handle for every record.
func (c *Consumer) Run(ctx context.Context, handle func(ctx context.Context, payload []byte)) error {
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			if !errors.Is(err, context.Canceled) {
				c.logger.ErrorContext(ctx, "kafka fetch error",
					"error", err,
					"topic", topic,
					"partition", partition,
				)
			}
		})
		fetches.EachRecord(func(record *kgo.Record) {
			handle(ctx, record.Value)
		})
	}
}

func (c *Consumer) Close() {
	c.client.Close()
}

// EnsureTopics creates the request and created topics when missing so a fresh
// environment comes up without manual broker setup.
func EnsureTopics(ctx context.Context, cfg Config) error {
	client, err := kgo.NewClient(kgo.SeedBrokers(cfg.Brokers...))
	if err != nil {
		return fmt.Errorf("create kafka admin client: %w", err)
	}
	defer client.Close()

	admin := kadm.NewClient(client)
	responses, err := admin.CreateTopics(ctx, -1, -1, nil, cfg.RequestTopic, cfg.CreatedTopic)
	if err != nil {
		return fmt.Errorf("create topics: %w", err)
	}
	for _, res := range responses.Sorted() {
		if res.Err != nil && !errors.Is(res.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", res.Topic, res.Err)
		}
	}
	return nil
}
