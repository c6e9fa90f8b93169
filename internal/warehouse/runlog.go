//-------------------------------------------------------------------------
//
// pgEdge Lottery Warehouse
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package warehouse

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Run statuses stored in etl_run_log.
const (
	RunRunning   = "running"
	RunSucceeded = "succeeded"
	RunFailed    = "failed"
)

// Run is one etl_run_log row.
type Run struct {
	ID            uuid.UUID
	StartedAt     time.Time
	FinishedAt    *time.Time
	Status        string
	LotterySource string
	SalesSource   string
	RowsInserted  int64
	Error         string
}

// Duration is how long a finished run took, or zero while it is running.
func (r Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// RunLog records ETL runs in etl_run_log.
type RunLog struct {
	pool *pgxpool.Pool
}

// NewRunLog creates a run log on pool.
func NewRunLog(pool *pgxpool.Pool) *RunLog {
	return &RunLog{pool: pool}
}

// Start records a run as running.
func (l *RunLog) Start(ctx context.Context, id uuid.UUID, lotterySource, salesSource string) error {
	_, err := l.pool.Exec(ctx, `
        INSERT INTO etl_run_log (run_id, started_at, status, lottery_source, sales_source)
        VALUES ($1, $2, $3, $4, $5)
    `, id.String(), time.Now().UTC(), RunRunning, lotterySource, salesSource)
	if err != nil {
		return fmt.Errorf("failed to record run start: %w", err)
	}
	return nil
}

// Finish marks a run succeeded and stores its summary as JSON.
func (l *RunLog) Finish(ctx context.Context, id uuid.UUID, rowsInserted int64, summary any) error {
	body, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to encode run summary: %w", err)
	}

	_, err = l.pool.Exec(ctx, `
        UPDATE etl_run_log
        SET finished_at = $2, status = $3, rows_inserted = $4, summary = $5::jsonb
        WHERE run_id = $1
    `, id.String(), time.Now().UTC(), RunSucceeded, rowsInserted, string(body))
	if err != nil {
		return fmt.Errorf("failed to record run finish: %w", err)
	}
	return nil
}

// Fail marks a run failed with the error text.
func (l *RunLog) Fail(ctx context.Context, id uuid.UUID, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}

	_, err := l.pool.Exec(ctx, `
        UPDATE etl_run_log
        SET finished_at = $2, status = $3, error = $4
        WHERE run_id = $1
    `, id.String(), time.Now().UTC(), RunFailed, msg)
	if err != nil {
		return fmt.Errorf("failed to record run failure: %w", err)
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (l *RunLog) Recent(ctx context.Context, limit int) ([]Run, error) {
	rows, err := l.pool.Query(ctx, `
        SELECT run_id::text, started_at, finished_at, status,
               lottery_source, sales_source, rows_inserted, COALESCE(error, '')
        FROM etl_run_log
        ORDER BY started_at DESC
        LIMIT $1
    `, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r  Run
			id string
		)
		if err := rows.Scan(&id, &r.StartedAt, &r.FinishedAt, &r.Status,
			&r.LotterySource, &r.SalesSource, &r.RowsInserted, &r.Error); err != nil {
			return nil, err
		}
		if r.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("invalid run id %q: %w", id, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Summary returns the stored JSON summary of a run, or nil if it has none.
func (l *RunLog) Summary(ctx context.Context, id uuid.UUID) (json.RawMessage, error) {
	var body []byte
	err := l.pool.QueryRow(ctx, `
        SELECT summary::text FROM etl_run_log WHERE run_id = $1
    `, id.String()).Scan(&body)
	if err != nil {
		return nil, err
	}
	return body, nil
}
