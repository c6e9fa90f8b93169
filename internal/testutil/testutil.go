//-------------------------------------------------------------------------
//
// pgEdge Lottery Warehouse
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package testutil provides test doubles and database helpers for tests.
package testutil

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

const (
	// TestConnEnv names the variable holding a server connection string.
	// When unset, a throwaway PostgreSQL container is started instead.
	TestConnEnv = "LOTTERYWH_TEST_CONN"

	// TestDBPrefix is the prefix for test databases.
	TestDBPrefix = "lotterywh_test_"

	postgresImage = "postgres:16-alpine"
)

// TestDatabase is an empty database dedicated to one test.
type TestDatabase struct {
	ConnString string
	Pool       *pgxpool.Pool
}

// SetupTestDatabase returns a fresh database for t and registers its
// cleanup. It uses the server named by LOTTERYWH_TEST_CONN when set,
// otherwise a PostgreSQL container.
func SetupTestDatabase(t *testing.T) *TestDatabase {
	t.Helper()

	base := os.Getenv(TestConnEnv)
	if base == "" {
		base = startContainer(t)
	}

	connStr := createTestDB(t, base)
	pool := connectTestDB(t, connStr)

	t.Cleanup(func() {
		pool.Close()
		if t.Failed() {
			t.Logf("Test failed - keeping database %s for diagnostics", databaseName(connStr))
			return
		}
		dropTestDB(t, base, databaseName(connStr))
	})

	return &TestDatabase{ConnString: connStr, Pool: pool}
}

func startContainer(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		postgresImage,
		postgres.WithDatabase("postgres"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		postgres.BasicWaitStrategies(),
		testcontainers.WithLabels(map[string]string{
			"test":      "lottery-warehouse",
			"test-name": t.Name(),
		}),
	)
	if err != nil {
		t.Skipf("PostgreSQL container not available, skipping integration test: %v", err)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Warning: Failed to terminate test container: %v", err)
		}
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return connStr
}

// createTestDB creates a uniquely named database and returns its
// connection string.
func createTestDB(t *testing.T, baseConnStr string) string {
	t.Helper()

	randomBytes := make([]byte, 8)
	_, err := rand.Read(randomBytes)
	require.NoError(t, err)
	dbName := TestDBPrefix + hex.EncodeToString(randomBytes)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, baseConnStr)
	require.NoError(t, err, "failed to connect to postgres")
	defer pool.Close()

	_, err = pool.Exec(ctx, fmt.Sprintf("CREATE DATABASE %s", dbName))
	require.NoError(t, err, "failed to create test database")

	config, err := pgxpool.ParseConfig(baseConnStr)
	require.NoError(t, err)

	// ConnString() does not reflect changes made to ConnConfig.Database.
	cc := config.ConnConfig
	if cc.Password != "" {
		return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
			cc.User, cc.Password, cc.Host, cc.Port, dbName)
	}
	return fmt.Sprintf("postgres://%s@%s:%d/%s?sslmode=disable",
		cc.User, cc.Host, cc.Port, dbName)
}

func dropTestDB(t *testing.T, baseConnStr, dbName string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, baseConnStr)
	if err != nil {
		t.Logf("Warning: Failed to connect to drop test database: %v", err)
		return
	}
	defer pool.Close()

	_, _ = pool.Exec(ctx, `
        SELECT pg_terminate_backend(pid)
        FROM pg_stat_activity
        WHERE datname = $1 AND pid <> pg_backend_pid()
    `, dbName)

	if _, err := pool.Exec(ctx, fmt.Sprintf("DROP DATABASE IF EXISTS %s", dbName)); err != nil {
		t.Logf("Warning: Failed to drop test database: %v", err)
	}
}

func connectTestDB(t *testing.T, connStr string) *pgxpool.Pool {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err, "failed to connect to test database")
	require.NoError(t, pool.Ping(ctx))
	return pool
}

func databaseName(connStr string) string {
	config, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return ""
	}
	return config.ConnConfig.Database
}
