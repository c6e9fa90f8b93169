//-------------------------------------------------------------------------
//
// pgEdge Lottery Warehouse
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package pipeline

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"

	"github.com/pgEdge/pgedge-lottery-warehouse/internal/loader"
	"github.com/pgEdge/pgedge-lottery-warehouse/internal/source"
	"github.com/pgEdge/pgedge-lottery-warehouse/internal/transform"
)

// Summary is the structured report of one run.
type Summary struct {
	RunID      uuid.UUID `json:"run_id"`
	Sources    Sources   `json:"sources"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Timings    Timings   `json:"timings"`

	Extract    ExtractCounts           `json:"extract"`
	Validation source.ValidationResult `json:"validation"`
	Transform  transform.Summary       `json:"transform"`
	Load       loader.Result           `json:"load"`

	TotalLoaded int64 `json:"total_loaded"`
}

// Timings records how long each stage took.
type Timings struct {
	Extract   time.Duration `json:"extract"`
	Transform time.Duration `json:"transform"`
	Load      time.Duration `json:"load"`
	Total     time.Duration `json:"total"`
}

// ExtractCounts describes what was read from the sources.
type ExtractCounts struct {
	LotteryRecords int              `json:"lottery_records"`
	SalesRecords   int              `json:"sales_records"`
	LotteryDates   source.DateRange `json:"lottery_dates"`
	SalesDates     source.DateRange `json:"sales_dates"`
}

// Print writes a human-readable report to w.
func (s *Summary) Print(w io.Writer) {
	fmt.Fprintf(w, "Run %s\n", s.RunID)
	fmt.Fprintf(w, "  lottery source: %s\n", s.Sources.Lottery)
	fmt.Fprintf(w, "  sales source:   %s\n", s.Sources.Sales)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Extract")
	fmt.Fprintf(w, "  lottery records: %d (%s)\n", s.Extract.LotteryRecords, span(s.Extract.LotteryDates))
	fmt.Fprintf(w, "  sales records:   %d (%s)\n", s.Extract.SalesRecords, span(s.Extract.SalesDates))
	if !s.Validation.Valid {
		fmt.Fprintln(w, "  validation FAILED:")
		for _, e := range s.Validation.Errors {
			fmt.Fprintf(w, "    - %s\n", e)
		}
		return
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Transform")
	fmt.Fprintf(w, "  dates: %d  agencies: %d  draw results: %d  revenue: %d\n",
		s.Transform.CalendarRows, s.Transform.DistributorRows,
		s.Transform.DrawResultRows, s.Transform.RevenueRows)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Load")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  TABLE\tINSERTED\tDROPPED")
	fmt.Fprintf(tw, "  dim_date\t%d\t-\n", s.Load.Calendar)
	fmt.Fprintf(tw, "  dim_agency\t%d\t-\n", s.Load.Distributors)
	fmt.Fprintf(tw, "  fact_lottery_result\t%d\t%d\n", s.Load.DrawResults, s.Load.DroppedDrawResults.Total())
	fmt.Fprintf(tw, "  fact_revenue\t%d\t%d\n", s.Load.Revenue, s.Load.DroppedRevenue.Total())
	tw.Flush()
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Total loaded: %d rows in %s\n", s.TotalLoaded, s.Timings.Total.Round(time.Millisecond))
}

func span(r source.DateRange) string {
	if r.Days == 0 {
		return "no dates"
	}
	return fmt.Sprintf("%s to %s, %d days",
		r.Min.Format("2006-01-02"), r.Max.Format("2006-01-02"), r.Days)
}
