// Package testdb starts a throwaway PostgreSQL container for repository tests.
package testdb

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/eventhub/backend/pkg/database"
)

var (
	sharedOnce    sync.Once
	sharedInitErr error
	sharedPool    *pgxpool.Pool
	sharedDBURL   string
)

// New returns a pool connected to a migrated, empty database.
// The container is started once per test binary and reused; tables are truncated on every call.
// Tests are skipped under -short or when EVENTHUB_SKIP_CONTAINERS is set.
func New(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() || os.Getenv("EVENTHUB_SKIP_CONTAINERS") != "" {
		t.Skip("skipping container-backed test")
	}

	sharedOnce.Do(start)
	require.NoError(t, sharedInitErr)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_, err := sharedPool.Exec(ctx, `TRUNCATE comments, rsvps, events, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
	return sharedPool
}

// URL returns the connection string of the shared container. New must have been called first.
func URL() string { return sharedDBURL }

func start() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := postgres.Run(ctx,
		"docker.io/postgres:16-alpine",
		postgres.WithDatabase("events_test"),
		postgres.WithUsername("events"),
		postgres.WithPassword("events"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		sharedInitErr = err
		return
	}

	dbURL, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		sharedInitErr = err
		return
	}
	if err := database.MigrateUp(dbURL); err != nil {
		sharedInitErr = err
		return
	}
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		sharedInitErr = err
		return
	}
	sharedDBURL = dbURL
	sharedPool = pool
}

// InsertUser adds a user row directly and returns its ID.
func InsertUser(t *testing.T, pool *pgxpool.Pool, name, email, role string) int64 {
	t.Helper()
	var id int64
	err := pool.QueryRow(context.Background(),
		`INSERT INTO users (name, email, password_hash, role) VALUES ($1, $2, 'x', $3) RETURNING id`,
		name, email, role).Scan(&id)
	require.NoError(t, err)
	return id
}
