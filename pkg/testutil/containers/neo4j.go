//go:build integration

package containers

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const neo4jPassword = "spectra-test"

// Neo4jContainer wraps a Neo4j instance with a connected driver.
type Neo4jContainer struct {
	Container testcontainers.Container
	URI       string
	Username  string
	Password  string
	Driver    neo4j.DriverWithContext
}

// NewNeo4jContainer starts a Neo4j container and verifies connectivity.
func NewNeo4jContainer(t *testing.T) *Neo4jContainer {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "neo4j:5-community",
		ExposedPorts: []string{"7687/tcp"},
		Env: map[string]string{
			"NEO4J_AUTH": "neo4j/" + neo4jPassword,
		},
		WaitingFor: wait.ForLog("Started.").WithStartupTimeout(2 * time.Minute),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("failed to start neo4j container: %v", err)
	}
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get neo4j host: %v", err)
	}
	port, err := container.MappedPort(ctx, "7687/tcp")
	if err != nil {
		t.Fatalf("failed to get neo4j bolt port: %v", err)
	}
	uri := fmt.Sprintf("bolt://%s:%s", host, port.Port())

	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth("neo4j", neo4jPassword, ""))
	if err != nil {
		t.Fatalf("failed to create neo4j driver: %v", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		t.Fatalf("failed to verify neo4j connectivity: %v", err)
	}
	t.Cleanup(func() {
		_ = driver.Close(context.Background())
	})

	return &Neo4jContainer{
		Container: container,
		URI:       uri,
		Username:  "neo4j",
		Password:  neo4jPassword,
		Driver:    driver,
	}
}

// Wipe deletes every node and relationship. Use between tests for isolation.
func (n *Neo4jContainer) Wipe(ctx context.Context) error {
	session := n.Driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.Run(ctx, "MATCH (n) DETACH DELETE n", nil)
	return err
}
