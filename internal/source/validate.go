//-------------------------------------------------------------------------
//
// pgEdge Lottery Warehouse
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package source

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// maxReportedProblems caps row-level messages per source.
const maxReportedProblems = 10

// ValidationResult is the structured outcome of validating both sources.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`

	// MissingColumns lists absent required columns as "source.column".
	MissingColumns []string `json:"missing_columns,omitempty"`

	LotteryRecords int `json:"lottery_records"`
	SalesRecords   int `json:"sales_records"`
}

// HasMissingColumn reports whether column is listed missing for source.
func (v ValidationResult) HasMissingColumn(source, column string) bool {
	want := source + "." + column
	for _, c := range v.MissingColumns {
		if c == want {
			return true
		}
	}
	return false
}

// Validate reports missing columns, null values and unparsable rows for both
// sources. It never fails; callers must check Valid before using records.
func (s *Sources) Validate() ValidationResult {
	res := ValidationResult{
		LotteryRecords: len(s.lottery.rows),
		SalesRecords:   len(s.sales.rows),
	}

	for _, t := range []*table{s.lottery, s.sales} {
		if missing := t.missing(); len(missing) > 0 {
			res.Errors = append(res.Errors,
				fmt.Sprintf("%s: missing columns: %s", t.name, strings.Join(missing, ", ")))
			for _, col := range missing {
				res.MissingColumns = append(res.MissingColumns, t.name+"."+col)
			}
		}

		nulls := t.nulls()
		cols := make([]string, 0, len(nulls))
		for col := range nulls {
			cols = append(cols, col)
		}
		sort.Strings(cols)
		for _, col := range cols {
			res.Errors = append(res.Errors,
				fmt.Sprintf("%s: column %s has %d null values", t.name, col, nulls[col]))
		}

		for i, p := range t.problems {
			if i == maxReportedProblems {
				res.Errors = append(res.Errors,
					fmt.Sprintf("%s: ... and %d more invalid rows", t.name, len(t.problems)-i))
				break
			}
			res.Errors = append(res.Errors, p)
		}
	}

	res.Valid = len(res.Errors) == 0
	return res
}

// DateRange describes the dates present in one source.
type DateRange struct {
	Min  time.Time `json:"min"`
	Max  time.Time `json:"max"`
	Days int       `json:"days"`
}

// DateRanges returns the date span of the parsed lottery and sales records.
func (s *Sources) DateRanges() (lottery, sales DateRange) {
	lotteryDates := make([]time.Time, 0, len(s.Lottery))
	for _, r := range s.Lottery {
		lotteryDates = append(lotteryDates, r.DrawDate)
	}
	salesDates := make([]time.Time, 0, len(s.Sales))
	for _, r := range s.Sales {
		salesDates = append(salesDates, r.SaleDate)
	}
	return rangeOf(lotteryDates), rangeOf(salesDates)
}

func rangeOf(dates []time.Time) DateRange {
	var r DateRange
	seen := make(map[time.Time]struct{}, len(dates))
	for _, d := range dates {
		if r.Min.IsZero() || d.Before(r.Min) {
			r.Min = d
		}
		if d.After(r.Max) {
			r.Max = d
		}
		seen[d] = struct{}{}
	}
	r.Days = len(seen)
	return r
}
