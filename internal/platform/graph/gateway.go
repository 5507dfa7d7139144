// Package graph wraps the neo4j driver behind a small session gateway. It
// opens read/write sessions, checks connectivity, and otherwise stays out of
// the way: driver errors surface to callers uninterpreted.
package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Config holds connection settings for the graph store.
type Config struct {
	URI      string
	Username string
	Password string
	Database string
}

// Gateway owns the driver and hands out transactional sessions.
type Gateway struct {
	driver   neo4j.DriverWithContext
	database string
}

// New connects to the graph store and verifies connectivity before returning.
func New(ctx context.Context, cfg Config) (*Gateway, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("neo4j connectivity check failed: %w", err)
	}
	return &Gateway{driver: driver, database: cfg.Database}, nil
}

// WriteSession opens a session for explicit write transactions. The caller
// owns the session and must close it.
func (g *Gateway) WriteSession(ctx context.Context) neo4j.SessionWithContext {
	return g.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: g.database,
	})
}

// ReadSession opens a session for read transactions.
func (g *Gateway) ReadSession(ctx context.Context) neo4j.SessionWithContext {
	return g.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: g.database,
	})
}

// Health reports whether the store is reachable.
func (g *Gateway) Health(ctx context.Context) error {
	return g.driver.VerifyConnectivity(ctx)
}

// Close releases the driver and its connection pool.
func (g *Gateway) Close(ctx context.Context) error {
	return g.driver.Close(ctx)
}
