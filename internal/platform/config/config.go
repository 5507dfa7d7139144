// Package config assembles service configuration from the environment so
// main stays lean. The onchain flag is a static property of the deployed
// instance, never read from request data.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"spectra/internal/events/cache"
	"spectra/internal/platform/graph"
	"spectra/internal/platform/kafka"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	Onchain       bool
	JWTSigningKey string
}

// Redis captures dedup cache configuration.
type Redis struct {
	URL      string
	DedupTTL time.Duration
}

// Outbox captures the outcome-event outbox configuration.
type Outbox struct {
	DatabaseURL   string
	RelayInterval time.Duration
	BatchSize     int
}

// Chain captures the onchain write-through settings. The concrete ledger
// client is external; only the retry envelope lives here.
type Chain struct {
	Enabled   bool
	BridgeURL string
	Attempts  int
	Backoff   time.Duration
}

// Config is the root of all runtime configuration.
type Config struct {
	Server Server
	Graph  graph.Config
	Redis  Redis
	Kafka  kafka.Config
	Outbox Outbox
	Chain  Chain
}

// FromEnv builds the full configuration from environment variables with
// development defaults.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:          envOr("SPECTRA_ADDR", ":8080"),
			Onchain:       envBool("SPECTRA_ONCHAIN", false),
			JWTSigningKey: os.Getenv("JWT_SIGNING_KEY"),
		},
		Graph: graph.Config{
			URI:      envOr("NEO4J_URI", "bolt://localhost:7687"),
			Username: envOr("NEO4J_USERNAME", "neo4j"),
			Password: envOr("NEO4J_PASSWORD", "password"),
			Database: os.Getenv("NEO4J_DATABASE"),
		},
		Redis: Redis{
			URL:      os.Getenv("REDIS_URL"),
			DedupTTL: envDuration("EVENT_DEDUP_TTL", cache.DefaultTTL),
		},
		Kafka: kafka.Config{
			Brokers:      splitList(envOr("KAFKA_BROKERS", "localhost:9092")),
			GroupID:      envOr("KAFKA_GROUP_ID", "spectra"),
			RequestTopic: envOr("KAFKA_MARK_REQUEST_TOPIC", "spectra.mark.request"),
			CreatedTopic: envOr("KAFKA_MARK_CREATED_TOPIC", "spectra.mark.created"),
			Disabled:     envBool("KAFKA_DISABLED", false),
		},
		Outbox: Outbox{
			DatabaseURL:   os.Getenv("OUTBOX_DATABASE_URL"),
			RelayInterval: envDuration("OUTBOX_RELAY_INTERVAL", time.Second),
			BatchSize:     envInt("OUTBOX_BATCH_SIZE", 100),
		},
		Chain: Chain{
			Enabled:   envBool("CHAIN_WRITE_THROUGH", false),
			BridgeURL: os.Getenv("CHAIN_BRIDGE_URL"),
			Attempts:  envInt("CHAIN_WRITE_ATTEMPTS", 3),
			Backoff:   envDuration("CHAIN_WRITE_BACKOFF", 500*time.Millisecond),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v == "true" || v == "1"
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
