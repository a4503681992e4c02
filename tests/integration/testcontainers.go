// Package integration runs service-level tests against a real PostgreSQL
// instance started through testcontainers. Docker must be available; set
// PORTFEL_INTEGRATION_TESTS=1 to enable the package.
//
//	PORTFEL_INTEGRATION_TESTS=1 go test ./tests/integration/
package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/portfel-app/portfel/internal/db"
)

// TestContainer holds the PostgreSQL container and the migrated connection.
type TestContainer struct {
	Container testcontainers.Container
	DB        *db.DB
}

// SetupTestContainer starts a PostgreSQL container, connects and migrates.
// Skips the test unless integration tests are enabled.
func SetupTestContainer(t *testing.T) *TestContainer {
	t.Helper()
	if os.Getenv("PORTFEL_INTEGRATION_TESTS") == "" {
		t.Skip("set PORTFEL_INTEGRATION_TESTS=1 to run integration tests")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 180*time.Second)
	defer cancel()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("portfel_test"),
		postgres.WithUsername("portfel_user"),
		postgres.WithPassword("portfel_password"),
		testcontainers.WithWaitStrategy(
			wait.ForListeningPort("5432/tcp").WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start PostgreSQL container: %v", err)
	}

	host, err := pgContainer.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get container host: %v", err)
	}
	port, err := pgContainer.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("failed to get container port: %v", err)
	}

	config := &db.Config{
		Host:     host,
		Port:     port.Port(),
		User:     "portfel_user",
		Password: "portfel_password",
		Name:     "portfel_test",
		SSLMode:  "disable",
	}
	database, err := db.Connect(config)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}
	if err := db.Migrate(database); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return &TestContainer{Container: pgContainer, DB: database}
}

// Cleanup closes the connection and terminates the container.
func (tc *TestContainer) Cleanup(t *testing.T) {
	t.Helper()
	if tc.DB != nil {
		_ = tc.DB.Close()
	}
	if tc.Container != nil {
		if err := tc.Container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}
}
