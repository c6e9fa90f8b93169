//-------------------------------------------------------------------------
//
// pgEdge Lottery Warehouse
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pgEdge/pgedge-lottery-warehouse/internal/logging"
	"github.com/pgEdge/pgedge-lottery-warehouse/pkg/version"
)

const metadataTable = "warehouse_metadata"

const createMetadataTableSQL = `
CREATE TABLE IF NOT EXISTS warehouse_metadata (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
)`

// Metadata keys.
const (
	MetaVersion       = "version"
	MetaInitializedAt = "initialized_at"
	MetaLastLoadAt    = "last_load_at"
	MetaLastRunID     = "last_run_id"
)

// SaveMetadata upserts the given keys along with the tool version.
func SaveMetadata(ctx context.Context, pool *pgxpool.Pool, values map[string]string) error {
	if _, err := pool.Exec(ctx, createMetadataTableSQL); err != nil {
		return fmt.Errorf("failed to create metadata table: %w", err)
	}

	metadata := map[string]string{MetaVersion: version.Short()}
	for k, v := range values {
		metadata[k] = v
	}

	for key, value := range metadata {
		_, err := pool.Exec(ctx, `
            INSERT INTO warehouse_metadata (key, value) VALUES ($1, $2)
            ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
        `, key, value)
		if err != nil {
			return fmt.Errorf("failed to save metadata %s: %w", key, err)
		}
	}

	logging.Debug().Int("keys", len(metadata)).Msg("Saved metadata")
	return nil
}

// MarkInitialized records when the warehouse schema was created.
func MarkInitialized(ctx context.Context, pool *pgxpool.Pool) error {
	return SaveMetadata(ctx, pool, map[string]string{
		MetaInitializedAt: time.Now().UTC().Format(time.RFC3339),
	})
}

// GetAllMetadata retrieves all metadata as a map. A warehouse that was
// never initialized yields an empty map.
func GetAllMetadata(ctx context.Context, pool *pgxpool.Pool) (map[string]string, error) {
	exists, err := MetadataExists(ctx, pool)
	if err != nil {
		return nil, err
	}
	metadata := make(map[string]string)
	if !exists {
		return metadata, nil
	}

	rows, err := pool.Query(ctx, `SELECT key, value FROM warehouse_metadata`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		metadata[key] = value
	}

	return metadata, rows.Err()
}

// DropMetadata drops the metadata table.
func DropMetadata(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", metadataTable))
	return err
}

// MetadataExists checks if the metadata table exists.
func MetadataExists(ctx context.Context, pool *pgxpool.Pool) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT FROM information_schema.tables
            WHERE table_name = $1
        )
    `, metadataTable).Scan(&exists)
	return exists, err
}
