//-------------------------------------------------------------------------
//
// pgEdge Lottery Warehouse
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package pipeline runs one ETL pass: read and validate both sources,
// transform them into candidates, and load the candidates into the
// warehouse, in that order.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pgEdge/pgedge-lottery-warehouse/internal/loader"
	"github.com/pgEdge/pgedge-lottery-warehouse/internal/logging"
	"github.com/pgEdge/pgedge-lottery-warehouse/internal/source"
	"github.com/pgEdge/pgedge-lottery-warehouse/internal/transform"
)

// ErrValidationFailed is returned when the sources fail validation. Nothing
// is written to the warehouse in that case.
var ErrValidationFailed = errors.New("source validation failed")

// Sources names the two input locations.
type Sources struct {
	Lottery string `json:"lottery"`
	Sales   string `json:"sales"`
}

// Locker serializes writers. Lock returns the function that releases the
// lock.
type Locker interface {
	Lock(ctx context.Context) (func(context.Context) error, error)
}

// Recorder persists run history.
type Recorder interface {
	Start(ctx context.Context, id uuid.UUID, lotterySource, salesSource string) error
	Finish(ctx context.Context, id uuid.UUID, rowsInserted int64, summary any) error
	Fail(ctx context.Context, id uuid.UUID, cause error) error
}

// Pipeline sequences the ETL stages against one warehouse store.
type Pipeline struct {
	loader   *loader.Loader
	locker   Locker
	recorder Recorder
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLocker makes each run hold the writer lock while it loads.
func WithLocker(l Locker) Option {
	return func(p *Pipeline) { p.locker = l }
}

// WithRecorder records each run's outcome.
func WithRecorder(r Recorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

// New creates a pipeline that loads into store.
func New(store loader.Store, opts ...Option) *Pipeline {
	p := &Pipeline{loader: loader.New(store)}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes one full pass. The returned summary is non-nil whenever the
// run got far enough to start, including validation failures, so callers
// can report what went wrong.
func (p *Pipeline) Run(ctx context.Context, src Sources) (summary *Summary, err error) {
	summary = &Summary{
		RunID:     uuid.New(),
		Sources:   src,
		StartedAt: time.Now().UTC(),
	}
	log := logging.Logger.With().Str("run_id", summary.RunID.String()).Logger()
	log.Info().Str("lottery", src.Lottery).Str("sales", src.Sales).Msg("Starting ETL run")

	if p.locker != nil {
		unlock, err := p.locker.Lock(ctx)
		if err != nil {
			return summary, fmt.Errorf("failed to take writer lock: %w", err)
		}
		defer func() {
			if uerr := unlock(context.WithoutCancel(ctx)); uerr != nil {
				log.Warn().Err(uerr).Msg("Failed to release writer lock")
			}
		}()
	}

	if p.recorder != nil {
		if err := p.recorder.Start(ctx, summary.RunID, src.Lottery, src.Sales); err != nil {
			return summary, err
		}
		defer func() {
			p.record(context.WithoutCancel(ctx), summary, err)
		}()
	}

	defer func() {
		summary.FinishedAt = time.Now().UTC()
		summary.Timings.Total = summary.FinishedAt.Sub(summary.StartedAt)
	}()

	// Extract
	stage := time.Now()
	sources, err := source.Read(src.Lottery, src.Sales)
	if err != nil {
		return summary, fmt.Errorf("extract: %w", err)
	}
	summary.Validation = sources.Validate()
	summary.Extract = ExtractCounts{
		LotteryRecords: summary.Validation.LotteryRecords,
		SalesRecords:   summary.Validation.SalesRecords,
	}
	summary.Extract.LotteryDates, summary.Extract.SalesDates = sources.DateRanges()
	summary.Timings.Extract = time.Since(stage)

	if !summary.Validation.Valid {
		for _, msg := range summary.Validation.Errors {
			log.Error().Str("stage", "extract").Msg(msg)
		}
		return summary, fmt.Errorf("%w: %d problems", ErrValidationFailed, len(summary.Validation.Errors))
	}
	log.Info().
		Str("stage", "extract").
		Int("lottery_records", summary.Extract.LotteryRecords).
		Int("sales_records", summary.Extract.SalesRecords).
		Time("lottery_from", summary.Extract.LotteryDates.Min).
		Time("lottery_to", summary.Extract.LotteryDates.Max).
		Int("sales_days", summary.Extract.SalesDates.Days).
		Msg("Sources validated")

	// Transform
	stage = time.Now()
	res := transform.Transform(sources.Lottery, sources.Sales)
	summary.Transform = res.Summary()
	summary.Timings.Transform = time.Since(stage)
	log.Info().
		Str("stage", "transform").
		Int("dates", summary.Transform.CalendarRows).
		Int("agencies", summary.Transform.DistributorRows).
		Int("draw_results", summary.Transform.DrawResultRows).
		Int("revenue", summary.Transform.RevenueRows).
		Msg("Built candidates")

	// Load
	stage = time.Now()
	summary.Load, err = p.loader.Load(ctx, res)
	summary.Timings.Load = time.Since(stage)
	if err != nil {
		return summary, fmt.Errorf("load: %w", err)
	}
	summary.TotalLoaded = summary.Load.Total()

	log.Info().
		Int64("total_loaded", summary.TotalLoaded).
		Int("dropped", summary.Load.DroppedDrawResults.Total()+summary.Load.DroppedRevenue.Total()).
		Dur("elapsed", time.Since(summary.StartedAt)).
		Msg("ETL run complete")

	return summary, nil
}

func (p *Pipeline) record(ctx context.Context, summary *Summary, runErr error) {
	var err error
	if runErr != nil {
		err = p.recorder.Fail(ctx, summary.RunID, runErr)
	} else {
		err = p.recorder.Finish(ctx, summary.RunID, summary.TotalLoaded, summary)
	}
	if err != nil {
		logging.Warn().Err(err).Str("run_id", summary.RunID.String()).Msg("Failed to record run")
	}
}
