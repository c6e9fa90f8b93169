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
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pgEdge/pgedge-lottery-warehouse/internal/logging"
)

// ErrLocked is returned when another session already holds the lock.
var ErrLocked = errors.New("advisory lock is held by another session")

// AdvisoryLock is a session-level PostgreSQL advisory lock pinned to one
// pooled connection.
type AdvisoryLock struct {
	conn *pgxpool.Conn
	key  int64
}

// TryAdvisoryLock takes the session advisory lock identified by key without
// waiting. It returns ErrLocked if another session holds it.
func TryAdvisoryLock(ctx context.Context, pool *pgxpool.Pool, key int64) (*AdvisoryLock, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}

	var ok bool
	if err := conn.QueryRow(ctx, `SELECT pg_try_advisory_lock($1)`, key).Scan(&ok); err != nil {
		conn.Release()
		return nil, fmt.Errorf("failed to take advisory lock: %w", err)
	}
	if !ok {
		conn.Release()
		return nil, ErrLocked
	}

	logging.Debug().Int64("key", key).Msg("Took advisory lock")
	return &AdvisoryLock{conn: conn, key: key}, nil
}

// Release unlocks and returns the connection to the pool. It is safe to
// call more than once.
func (l *AdvisoryLock) Release(ctx context.Context) error {
	if l == nil || l.conn == nil {
		return nil
	}
	defer func() {
		l.conn.Release()
		l.conn = nil
	}()

	if _, err := l.conn.Exec(ctx, `SELECT pg_advisory_unlock($1)`, l.key); err != nil {
		return fmt.Errorf("failed to release advisory lock: %w", err)
	}
	logging.Debug().Int64("key", l.key).Msg("Released advisory lock")
	return nil
}
