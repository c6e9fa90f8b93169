//-------------------------------------------------------------------------
//
// pgEdge Lottery Warehouse
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package warehouse is the PostgreSQL star schema: dim_date, dim_station,
// dim_prize and dim_agency around fact_lottery_result and fact_revenue.
package warehouse

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/pgEdge/pgedge-lottery-warehouse/internal/db"
	"github.com/pgEdge/pgedge-lottery-warehouse/internal/logging"
	"github.com/pgEdge/pgedge-lottery-warehouse/internal/model"
)

// ErrLocked is returned by Lock when another ETL run holds the writer lock.
var ErrLocked = db.ErrLocked

// writerLockKey identifies the ETL writer advisory lock.
const writerLockKey int64 = 0x6c6f7474657279 // "lottery"

// Tables in load order.
var Tables = []string{
	"dim_date",
	"dim_station",
	"dim_prize",
	"dim_agency",
	"fact_lottery_result",
	"fact_revenue",
}

var (
	calendarColumns = []string{
		"date_id", "full_date", "day", "month", "year", "quarter",
		"day_of_week", "is_weekend", "is_month_start", "is_month_end",
	}
	agencyColumns     = []string{"agency_name", "agency_type"}
	drawResultColumns = []string{"date_id", "station_id", "prize_id", "prize_sequence", "result_number"}
	revenueColumns    = []string{
		"date_id", "station_id", "agency_id", "tickets_sold", "ticket_price",
		"total_revenue", "total_payout", "net_profit", "commission",
	}
)

// Store reads and writes the warehouse through a connection pool. Each
// insert runs as a single COPY inside its own transaction.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a store on pool. The caller owns the pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Lock takes the single-writer lock for the duration of a run. It fails
// fast with ErrLocked instead of waiting for another run to finish.
func (s *Store) Lock(ctx context.Context) (func(context.Context) error, error) {
	lock, err := db.TryAdvisoryLock(ctx, s.pool, writerLockKey)
	if err != nil {
		return nil, err
	}
	return lock.Release, nil
}

// CalendarKeys returns the date_id of every dim_date row.
func (s *Store) CalendarKeys(ctx context.Context) (map[int]struct{}, error) {
	rows, err := s.pool.Query(ctx, `SELECT date_id FROM dim_date`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make(map[int]struct{})
	for rows.Next() {
		var key int32
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys[int(key)] = struct{}{}
	}
	return keys, rows.Err()
}

// DistributorNames returns the agency_name of every dim_agency row.
func (s *Store) DistributorNames(ctx context.Context) (map[string]struct{}, error) {
	ids, err := s.DistributorIDs(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]struct{}, len(ids))
	for name := range ids {
		names[name] = struct{}{}
	}
	return names, nil
}

// StationIDs maps station_name to station_id.
func (s *Store) StationIDs(ctx context.Context) (map[string]int64, error) {
	return s.naturalKeys(ctx, `SELECT station_name, station_id FROM dim_station`)
}

// CategoryIDs maps prize_name to prize_id.
func (s *Store) CategoryIDs(ctx context.Context) (map[string]int64, error) {
	return s.naturalKeys(ctx, `SELECT prize_name, prize_id FROM dim_prize`)
}

// DistributorIDs maps agency_name to agency_id.
func (s *Store) DistributorIDs(ctx context.Context) (map[string]int64, error) {
	return s.naturalKeys(ctx, `SELECT agency_name, agency_id FROM dim_agency`)
}

func (s *Store) naturalKeys(ctx context.Context, query string) (map[string]int64, error) {
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make(map[string]int64)
	for rows.Next() {
		var (
			name string
			id   int64
		)
		if err := rows.Scan(&name, &id); err != nil {
			return nil, err
		}
		ids[name] = id
	}
	return ids, rows.Err()
}

// InsertCalendar writes dim_date rows.
func (s *Store) InsertCalendar(ctx context.Context, rows []model.Calendar) (int64, error) {
	return s.copy(ctx, "dim_date", calendarColumns, pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
		c := rows[i]
		return []any{
			int32(c.DateKey), c.FullDate, int32(c.Day), int32(c.Month), int32(c.Year), int32(c.Quarter),
			c.DayOfWeek, c.IsWeekend, c.IsMonthStart, c.IsMonthEnd,
		}, nil
	}))
}

// InsertDistributors writes dim_agency rows.
func (s *Store) InsertDistributors(ctx context.Context, rows []model.Distributor) (int64, error) {
	return s.copy(ctx, "dim_agency", agencyColumns, pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
		return []any{rows[i].Name, rows[i].Type}, nil
	}))
}

// InsertDrawResults writes fact_lottery_result rows.
func (s *Store) InsertDrawResults(ctx context.Context, rows []model.DrawResultFact) (int64, error) {
	return s.copy(ctx, "fact_lottery_result", drawResultColumns, pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
		r := rows[i]
		return []any{int32(r.DateKey), r.StationID, r.PrizeID, int32(r.PrizeSequence), r.ResultNumber}, nil
	}))
}

// InsertRevenue writes fact_revenue rows.
func (s *Store) InsertRevenue(ctx context.Context, rows []model.RevenueFact) (int64, error) {
	return s.copy(ctx, "fact_revenue", revenueColumns, pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
		r := rows[i]
		return []any{
			int32(r.DateKey), r.StationID, r.AgencyID, r.TicketsSold,
			numeric(r.TicketPrice), numeric(r.TotalRevenue), numeric(r.TotalPayout),
			numeric(r.NetProfit), numeric(r.Commission),
		}, nil
	}))
}

func (s *Store) copy(ctx context.Context, table string, columns []string, src pgx.CopyFromSource) (int64, error) {
	var n int64
	err := db.WithTransaction(ctx, s.pool, func(tx pgx.Tx) error {
		copied, err := tx.CopyFrom(ctx, pgx.Identifier{table}, columns, src)
		if err != nil {
			return fmt.Errorf("failed to copy into %s: %w", table, err)
		}
		n = copied
		return nil
	})
	if err != nil {
		return 0, err
	}

	logging.Debug().Str("table", table).Int64("rows", n).Msg("Copied rows")
	return n, nil
}

// TableCount is the row count of one warehouse table.
type TableCount struct {
	Table string `json:"table"`
	Rows  int64  `json:"rows"`
}

// TableCounts returns the row count of every warehouse table in load order.
func (s *Store) TableCounts(ctx context.Context) ([]TableCount, error) {
	counts := make([]TableCount, 0, len(Tables))
	for _, table := range Tables {
		var n int64
		if err := s.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		counts = append(counts, TableCount{Table: table, Rows: n})
	}
	return counts, nil
}

// Orphans counts fact rows whose references do not resolve to a dimension
// row. A sound warehouse reports zero for both.
type Orphans struct {
	DrawResults int64 `json:"fact_lottery_result"`
	Revenue     int64 `json:"fact_revenue"`
}

// Orphans checks referential soundness of both fact tables.
func (s *Store) Orphans(ctx context.Context) (Orphans, error) {
	var o Orphans

	err := s.pool.QueryRow(ctx, `
        SELECT COUNT(*)
        FROM fact_lottery_result f
        LEFT JOIN dim_date d ON d.date_id = f.date_id
        LEFT JOIN dim_station s ON s.station_id = f.station_id
        LEFT JOIN dim_prize p ON p.prize_id = f.prize_id
        WHERE d.date_id IS NULL OR s.station_id IS NULL OR p.prize_id IS NULL
    `).Scan(&o.DrawResults)
	if err != nil {
		return o, fmt.Errorf("failed to check fact_lottery_result: %w", err)
	}

	err = s.pool.QueryRow(ctx, `
        SELECT COUNT(*)
        FROM fact_revenue f
        LEFT JOIN dim_date d ON d.date_id = f.date_id
        LEFT JOIN dim_station s ON s.station_id = f.station_id
        LEFT JOIN dim_agency a ON a.agency_id = f.agency_id
        WHERE d.date_id IS NULL OR s.station_id IS NULL OR a.agency_id IS NULL
    `).Scan(&o.Revenue)
	if err != nil {
		return o, fmt.Errorf("failed to check fact_revenue: %w", err)
	}

	return o, nil
}

// DateSpan returns the first and last full_date in dim_date. Both are
// invalid when the calendar is empty.
func (s *Store) DateSpan(ctx context.Context) (first, last pgtype.Date, err error) {
	err = s.pool.QueryRow(ctx, `SELECT MIN(full_date), MAX(full_date) FROM dim_date`).Scan(&first, &last)
	return first, last, err
}

func numeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}
