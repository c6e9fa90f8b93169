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
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/pgEdge/pgedge-lottery-warehouse/internal/db"
	"github.com/pgEdge/pgedge-lottery-warehouse/internal/logging"
	"github.com/pgEdge/pgedge-lottery-warehouse/internal/model"
)

// ReferencePrizes is the prize table version seeded into dim_prize. Prize
// names not listed here have no category and their results are never
// loaded.
var ReferencePrizes = []model.PrizeCategory{
	{Name: "Đặc biệt", Order: 1, Quantity: 1, Digits: 6, Value: decimal.NewFromInt(2000000000)},
	{Name: "Nhất", Order: 2, Quantity: 1, Digits: 5, Value: decimal.NewFromInt(30000000)},
	{Name: "Nhì", Order: 3, Quantity: 2, Digits: 5, Value: decimal.NewFromInt(15000000)},
	{Name: "Ba", Order: 4, Quantity: 6, Digits: 5, Value: decimal.NewFromInt(10000000)},
	{Name: "Tư", Order: 5, Quantity: 4, Digits: 4, Value: decimal.NewFromInt(3000000)},
	{Name: "Năm", Order: 6, Quantity: 6, Digits: 4, Value: decimal.NewFromInt(1000000)},
	{Name: "Sáu", Order: 7, Quantity: 3, Digits: 3, Value: decimal.NewFromInt(400000)},
	{Name: "Bảy", Order: 8, Quantity: 4, Digits: 2, Value: decimal.NewFromInt(200000)},
}

// ReferenceStations is the station list seeded into dim_station.
var ReferenceStations = []model.Station{
	{Name: "Hà Nội", Region: "North"},
	{Name: "TP Hồ Chí Minh", Region: "South"},
	{Name: "Đà Nẵng", Region: "Central"},
	{Name: "Cần Thơ", Region: "South"},
	{Name: "An Giang", Region: "South"},
	{Name: "Bình Dương", Region: "South"},
	{Name: "Đồng Nai", Region: "South"},
	{Name: "Kiên Giang", Region: "South"},
	{Name: "Tây Ninh", Region: "South"},
	{Name: "Vũng Tàu", Region: "South"},
}

// SeedResult reports the reference rows written by SeedReference.
type SeedResult struct {
	Stations int64
	Prizes   int64
}

// SeedReference populates dim_station and dim_prize. Each table is only
// seeded while it is empty, so calling this on an initialized warehouse
// writes nothing.
func (s *Store) SeedReference(ctx context.Context) (SeedResult, error) {
	var res SeedResult

	n, err := s.seedIfEmpty(ctx, "dim_prize",
		[]string{"prize_name", "prize_order", "quantity", "digits", "prize_value"},
		pgx.CopyFromSlice(len(ReferencePrizes), func(i int) ([]any, error) {
			p := ReferencePrizes[i]
			return []any{p.Name, int32(p.Order), int32(p.Quantity), int32(p.Digits), numeric(p.Value)}, nil
		}))
	if err != nil {
		return res, err
	}
	res.Prizes = n

	n, err = s.seedIfEmpty(ctx, "dim_station",
		[]string{"station_name", "region"},
		pgx.CopyFromSlice(len(ReferenceStations), func(i int) ([]any, error) {
			st := ReferenceStations[i]
			return []any{st.Name, st.Region}, nil
		}))
	if err != nil {
		return res, err
	}
	res.Stations = n

	logging.Info().
		Int64("prizes", res.Prizes).
		Int64("stations", res.Stations).
		Msg("Seeded reference dimensions")

	return res, nil
}

func (s *Store) seedIfEmpty(ctx context.Context, table string, columns []string, src pgx.CopyFromSource) (int64, error) {
	var n int64
	err := db.WithTransaction(ctx, s.pool, func(tx pgx.Tx) error {
		var count int64
		if err := tx.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&count); err != nil {
			return fmt.Errorf("failed to count %s: %w", table, err)
		}
		if count > 0 {
			logging.Debug().Str("table", table).Int64("rows", count).Msg("Reference table already seeded")
			return nil
		}

		copied, err := tx.CopyFrom(ctx, pgx.Identifier{table}, columns, src)
		if err != nil {
			return fmt.Errorf("failed to seed %s: %w", table, err)
		}
		n = copied
		return nil
	})
	return n, err
}
