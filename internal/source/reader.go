//-------------------------------------------------------------------------
//
// pgEdge Lottery Warehouse
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package source reads and validates the two flat source files: lottery
// draw results and ticket-sales revenue.
package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/pgEdge/pgedge-lottery-warehouse/internal/logging"
	"github.com/pgEdge/pgedge-lottery-warehouse/internal/model"
)

var (
	// ErrSourceNotFound is returned when a source location does not exist.
	ErrSourceNotFound = errors.New("source not found")

	// ErrSourceMalformed is returned when a source cannot be parsed as a
	// delimited file at all.
	ErrSourceMalformed = errors.New("source malformed")
)

// Source names used in validation messages.
const (
	Lottery = "lottery"
	Sales   = "sales"
)

// LotteryColumns are the required fields of the draw-results source.
var LotteryColumns = []string{
	"draw_date", "station_name", "prize_name", "prize_sequence", "result_number",
}

// SalesColumns are the required fields of the ticket-sales source.
var SalesColumns = []string{
	"sale_date", "station_name", "agency_name", "agency_type", "tickets_sold",
	"ticket_price", "total_revenue", "total_payout", "commission", "net_profit",
}

// Sources holds both record sets after a read. Rows that are incomplete or
// unparsable are not turned into records; they are described by Validate.
type Sources struct {
	Lottery []model.LotteryRecord
	Sales   []model.SalesRecord

	lottery *table
	sales   *table
}

// Read loads both sources. Both locations are checked before either is
// parsed, so a missing file fails the read before any work is done.
func Read(lotteryPath, salesPath string) (*Sources, error) {
	for _, p := range []struct{ name, path string }{
		{Lottery, lotteryPath},
		{Sales, salesPath},
	} {
		if err := checkExists(p.name, p.path); err != nil {
			return nil, err
		}
	}

	lottery, err := readTable(Lottery, lotteryPath, LotteryColumns)
	if err != nil {
		return nil, err
	}
	sales, err := readTable(Sales, salesPath, SalesColumns)
	if err != nil {
		return nil, err
	}

	s := &Sources{lottery: lottery, sales: sales}
	s.Lottery = parseLottery(lottery)
	s.Sales = parseSales(sales)

	logging.Debug().
		Int("lottery_rows", len(lottery.rows)).
		Int("lottery_records", len(s.Lottery)).
		Int("sales_rows", len(sales.rows)).
		Int("sales_records", len(s.Sales)).
		Msg("Read sources")

	return s, nil
}

func checkExists(name, path string) error {
	if path == "" {
		return fmt.Errorf("%w: %s source location is empty", ErrSourceNotFound, name)
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s source %s: %w", ErrSourceNotFound, name, path, err)
		}
		return fmt.Errorf("failed to stat %s source %s: %w", name, path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s source %s is a directory", ErrSourceNotFound, name, path)
	}
	return nil
}

// table is a raw delimited file: its header positions and data rows.
type table struct {
	name     string
	required []string
	header   map[string]int
	rows     [][]string
	lines    []int

	// problems collects row-level parse failures found while building
	// records; nulls and missing columns are derived on demand.
	problems []string
}

func readTable(name, path string, required []string) (*table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s source: %w", name, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	headerRow, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %s source %s is empty", ErrSourceMalformed, name, path)
		}
		return nil, fmt.Errorf("%w: %s source %s: %w", ErrSourceMalformed, name, path, err)
	}

	t := &table{
		name:     name,
		required: required,
		header:   make(map[string]int, len(headerRow)),
	}
	for i, col := range headerRow {
		col = strings.TrimSpace(strings.TrimPrefix(col, "\ufeff"))
		if _, dup := t.header[col]; !dup {
			t.header[col] = i
		}
	}

	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s source %s: %w", ErrSourceMalformed, name, path, err)
		}
		if len(row) == 1 && strings.TrimSpace(row[0]) == "" {
			continue
		}
		line, _ := r.FieldPos(0)
		t.rows = append(t.rows, row)
		t.lines = append(t.lines, line)
	}

	return t, nil
}

// missing returns required columns absent from the header, in required order.
func (t *table) missing() []string {
	var cols []string
	for _, col := range t.required {
		if _, ok := t.header[col]; !ok {
			cols = append(cols, col)
		}
	}
	return cols
}

// value returns the trimmed cell for col, or "" when the row is short.
func (t *table) value(row []string, col string) string {
	i, ok := t.header[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// nulls counts empty cells per present required column.
func (t *table) nulls() map[string]int {
	counts := make(map[string]int)
	for _, row := range t.rows {
		for _, col := range t.required {
			if _, ok := t.header[col]; !ok {
				continue
			}
			if t.value(row, col) == "" {
				counts[col]++
			}
		}
	}
	return counts
}

// complete reports whether every required column has a value in row.
func (t *table) complete(row []string) bool {
	for _, col := range t.required {
		if t.value(row, col) == "" {
			return false
		}
	}
	return true
}

func (t *table) reject(i int, format string, args ...any) {
	t.problems = append(t.problems,
		fmt.Sprintf("%s line %d: %s", t.name, t.lines[i], fmt.Sprintf(format, args...)))
}
