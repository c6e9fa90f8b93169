//-------------------------------------------------------------------------
//
// pgEdge Lottery Warehouse
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package loader writes transformed candidates into the warehouse without
// duplicating dimension rows and without ever writing a fact whose
// references do not resolve.
package loader

import (
	"context"
	"fmt"

	"github.com/pgEdge/pgedge-lottery-warehouse/internal/logging"
	"github.com/pgEdge/pgedge-lottery-warehouse/internal/model"
	"github.com/pgEdge/pgedge-lottery-warehouse/internal/transform"
)

// Store is the warehouse surface the loader needs. Every Insert call must be
// atomic: either the whole batch is written or none of it.
type Store interface {
	CalendarKeys(ctx context.Context) (map[int]struct{}, error)
	DistributorNames(ctx context.Context) (map[string]struct{}, error)

	StationIDs(ctx context.Context) (map[string]int64, error)
	CategoryIDs(ctx context.Context) (map[string]int64, error)
	DistributorIDs(ctx context.Context) (map[string]int64, error)

	InsertCalendar(ctx context.Context, rows []model.Calendar) (int64, error)
	InsertDistributors(ctx context.Context, rows []model.Distributor) (int64, error)
	InsertDrawResults(ctx context.Context, rows []model.DrawResultFact) (int64, error)
	InsertRevenue(ctx context.Context, rows []model.RevenueFact) (int64, error)
}

// Result reports what one load wrote and what it had to leave out.
type Result struct {
	Calendar     int64 `json:"dim_date"`
	Distributors int64 `json:"dim_agency"`
	DrawResults  int64 `json:"fact_lottery_result"`
	Revenue      int64 `json:"fact_revenue"`

	DroppedDrawResults Drops `json:"dropped_lottery_results"`
	DroppedRevenue     Drops `json:"dropped_revenue"`
}

// Total is the number of rows inserted across all tables.
func (r Result) Total() int64 {
	return r.Calendar + r.Distributors + r.DrawResults + r.Revenue
}

// Drops counts fact candidates left out, by the reference that failed to
// resolve. A candidate is counted once, under the first missing reference.
type Drops struct {
	MissingDate        int `json:"missing_date"`
	MissingStation     int `json:"missing_station"`
	MissingCategory    int `json:"missing_category"`
	MissingDistributor int `json:"missing_distributor"`
}

// Total is the number of candidates dropped.
func (d Drops) Total() int {
	return d.MissingDate + d.MissingStation + d.MissingCategory + d.MissingDistributor
}

// Loader performs incremental loads against a Store.
type Loader struct {
	store Store
}

// New creates a loader backed by store.
func New(store Store) *Loader {
	return &Loader{store: store}
}

// Load writes the candidate sets in dependency order: calendar, then
// distributors, then draw results, then revenue. An error from the store
// stops the load; batches already written stay written.
func (l *Loader) Load(ctx context.Context, res *transform.Result) (Result, error) {
	var out Result
	log := logging.Stage("load")

	n, err := l.loadCalendar(ctx, res.Calendar)
	if err != nil {
		return out, err
	}
	out.Calendar = n
	log.Info().Int("candidates", len(res.Calendar)).Int64("inserted", n).Msg("Loaded dim_date")

	n, err = l.loadDistributors(ctx, res.Distributors)
	if err != nil {
		return out, err
	}
	out.Distributors = n
	log.Info().Int("candidates", len(res.Distributors)).Int64("inserted", n).Msg("Loaded dim_agency")

	n, drops, err := l.loadDrawResults(ctx, res.DrawResults)
	if err != nil {
		return out, err
	}
	out.DrawResults, out.DroppedDrawResults = n, drops
	log.Info().Int("candidates", len(res.DrawResults)).Int64("inserted", n).Msg("Loaded fact_lottery_result")
	warnDrops("fact_lottery_result", drops)

	n, drops, err = l.loadRevenue(ctx, res.Revenue)
	if err != nil {
		return out, err
	}
	out.Revenue, out.DroppedRevenue = n, drops
	log.Info().Int("candidates", len(res.Revenue)).Int64("inserted", n).Msg("Loaded fact_revenue")
	warnDrops("fact_revenue", drops)

	return out, nil
}

func (l *Loader) loadCalendar(ctx context.Context, candidates []model.Calendar) (int64, error) {
	existing, err := l.store.CalendarKeys(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read existing dates: %w", err)
	}

	var rows []model.Calendar
	for _, c := range candidates {
		if _, ok := existing[c.DateKey]; ok {
			continue
		}
		existing[c.DateKey] = struct{}{}
		rows = append(rows, c)
	}
	if len(rows) == 0 {
		return 0, nil
	}

	n, err := l.store.InsertCalendar(ctx, rows)
	if err != nil {
		return 0, fmt.Errorf("failed to insert dates: %w", err)
	}
	return n, nil
}

func (l *Loader) loadDistributors(ctx context.Context, candidates []model.Distributor) (int64, error) {
	existing, err := l.store.DistributorNames(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read existing agencies: %w", err)
	}

	// Names are unique in the warehouse; when one name arrives with two
	// types only the first candidate is kept.
	var rows []model.Distributor
	for _, d := range candidates {
		if _, ok := existing[d.Name]; ok {
			continue
		}
		existing[d.Name] = struct{}{}
		rows = append(rows, d)
	}
	if len(rows) == 0 {
		return 0, nil
	}

	n, err := l.store.InsertDistributors(ctx, rows)
	if err != nil {
		return 0, fmt.Errorf("failed to insert agencies: %w", err)
	}
	return n, nil
}

func (l *Loader) loadDrawResults(ctx context.Context, candidates []model.DrawResultCandidate) (int64, Drops, error) {
	var drops Drops
	if len(candidates) == 0 {
		return 0, drops, nil
	}

	dates, err := l.store.CalendarKeys(ctx)
	if err != nil {
		return 0, drops, fmt.Errorf("failed to read dates: %w", err)
	}
	stations, err := l.store.StationIDs(ctx)
	if err != nil {
		return 0, drops, fmt.Errorf("failed to read stations: %w", err)
	}
	categories, err := l.store.CategoryIDs(ctx)
	if err != nil {
		return 0, drops, fmt.Errorf("failed to read prize categories: %w", err)
	}

	rows := make([]model.DrawResultFact, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := dates[c.DateKey]; !ok {
			drops.MissingDate++
			continue
		}
		stationID, ok := stations[c.StationName]
		if !ok {
			drops.MissingStation++
			logging.Debug().Str("station", c.StationName).Int("date_key", c.DateKey).
				Msg("Dropping draw result for unknown station")
			continue
		}
		prizeID, ok := categories[c.PrizeName]
		if !ok {
			drops.MissingCategory++
			logging.Debug().Str("prize", c.PrizeName).Int("date_key", c.DateKey).
				Msg("Dropping draw result for unknown prize category")
			continue
		}
		rows = append(rows, model.DrawResultFact{
			DateKey:       c.DateKey,
			StationID:     stationID,
			PrizeID:       prizeID,
			PrizeSequence: c.PrizeSequence,
			ResultNumber:  c.ResultNumber,
		})
	}
	if len(rows) == 0 {
		return 0, drops, nil
	}

	n, err := l.store.InsertDrawResults(ctx, rows)
	if err != nil {
		return 0, drops, fmt.Errorf("failed to insert draw results: %w", err)
	}
	return n, drops, nil
}

func (l *Loader) loadRevenue(ctx context.Context, candidates []model.RevenueCandidate) (int64, Drops, error) {
	var drops Drops
	if len(candidates) == 0 {
		return 0, drops, nil
	}

	dates, err := l.store.CalendarKeys(ctx)
	if err != nil {
		return 0, drops, fmt.Errorf("failed to read dates: %w", err)
	}
	stations, err := l.store.StationIDs(ctx)
	if err != nil {
		return 0, drops, fmt.Errorf("failed to read stations: %w", err)
	}
	agencies, err := l.store.DistributorIDs(ctx)
	if err != nil {
		return 0, drops, fmt.Errorf("failed to read agencies: %w", err)
	}

	rows := make([]model.RevenueFact, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := dates[c.DateKey]; !ok {
			drops.MissingDate++
			continue
		}
		stationID, ok := stations[c.StationName]
		if !ok {
			drops.MissingStation++
			logging.Debug().Str("station", c.StationName).Int("date_key", c.DateKey).
				Msg("Dropping revenue row for unknown station")
			continue
		}
		agencyID, ok := agencies[c.AgencyName]
		if !ok {
			drops.MissingDistributor++
			logging.Debug().Str("agency", c.AgencyName).Int("date_key", c.DateKey).
				Msg("Dropping revenue row for unknown agency")
			continue
		}
		rows = append(rows, model.RevenueFact{
			DateKey:      c.DateKey,
			StationID:    stationID,
			AgencyID:     agencyID,
			TicketsSold:  c.TicketsSold,
			TicketPrice:  c.TicketPrice,
			TotalRevenue: c.TotalRevenue,
			TotalPayout:  c.TotalPayout,
			NetProfit:    c.NetProfit,
			Commission:   c.Commission,
		})
	}
	if len(rows) == 0 {
		return 0, drops, nil
	}

	n, err := l.store.InsertRevenue(ctx, rows)
	if err != nil {
		return 0, drops, fmt.Errorf("failed to insert revenue: %w", err)
	}
	return n, drops, nil
}

func warnDrops(table string, d Drops) {
	if d.Total() == 0 {
		return
	}
	logging.Warn().
		Str("table", table).
		Int("dropped", d.Total()).
		Int("missing_date", d.MissingDate).
		Int("missing_station", d.MissingStation).
		Int("missing_category", d.MissingCategory).
		Int("missing_agency", d.MissingDistributor).
		Msg("Dropped fact rows with unresolved references")
}
