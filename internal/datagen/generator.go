//-------------------------------------------------------------------------
//
// pgEdge Lottery Warehouse
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package datagen

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pgEdge/pgedge-lottery-warehouse/internal/logging"
	"github.com/pgEdge/pgedge-lottery-warehouse/internal/model"
	"github.com/pgEdge/pgedge-lottery-warehouse/internal/source"
)

// StationSchedule is a station and the weekdays it draws on.
type StationSchedule struct {
	Name     string
	DrawDays []time.Weekday
}

// DrawsOn reports whether the station draws on day.
func (s StationSchedule) DrawsOn(day time.Weekday) bool {
	for _, d := range s.DrawDays {
		if d == day {
			return true
		}
	}
	return false
}

// Prize is one prize tier of a draw.
type Prize struct {
	Name     string
	Quantity int
	Digits   int
}

// Agency is a ticket distributor.
type Agency struct {
	Name string
	Type string
}

// Schedule is the weekly draw calendar of every station.
var Schedule = []StationSchedule{
	{Name: "Hà Nội", DrawDays: []time.Weekday{time.Monday, time.Thursday}},
	{Name: "TP Hồ Chí Minh", DrawDays: []time.Weekday{time.Monday, time.Saturday}},
	{Name: "Đà Nẵng", DrawDays: []time.Weekday{time.Wednesday, time.Saturday}},
	{Name: "Cần Thơ", DrawDays: []time.Weekday{time.Wednesday}},
	{Name: "An Giang", DrawDays: []time.Weekday{time.Thursday}},
	{Name: "Bình Dương", DrawDays: []time.Weekday{time.Friday}},
	{Name: "Đồng Nai", DrawDays: []time.Weekday{time.Wednesday}},
	{Name: "Kiên Giang", DrawDays: []time.Weekday{time.Sunday}},
	{Name: "Tây Ninh", DrawDays: []time.Weekday{time.Thursday}},
	{Name: "Vũng Tàu", DrawDays: []time.Weekday{time.Tuesday}},
}

// SouthernPrizes is the southern draw structure. It includes the eighth
// prize, which has no warehouse category.
var SouthernPrizes = []Prize{
	{Name: "Đặc biệt", Quantity: 1, Digits: 6},
	{Name: "Nhất", Quantity: 1, Digits: 5},
	{Name: "Nhì", Quantity: 1, Digits: 5},
	{Name: "Ba", Quantity: 2, Digits: 5},
	{Name: "Tư", Quantity: 7, Digits: 4},
	{Name: "Năm", Quantity: 1, Digits: 4},
	{Name: "Sáu", Quantity: 3, Digits: 3},
	{Name: "Bảy", Quantity: 1, Digits: 2},
	{Name: "Tám", Quantity: 1, Digits: 2},
}

// Agencies is the distributor network.
var Agencies = []Agency{
	{Name: "Đại lý Trung tâm", Type: "Cấp 1"},
	{Name: "Đại lý Quận 1", Type: "Cấp 1"},
	{Name: "Đại lý Quận 5", Type: "Cấp 2"},
	{Name: "Đại lý Thủ Đức", Type: "Cấp 1"},
	{Name: "Đại lý Bình Thạnh", Type: "Cấp 2"},
	{Name: "Đại lý Tân Bình", Type: "Cấp 2"},
	{Name: "Đại lý Gò Vấp", Type: "Cấp 2"},
	{Name: "Đại lý Phú Nhuận", Type: "Cấp 2"},
}

// Sales model parameters.
const (
	baseTickets       = 15000
	ticketPrice       = 10000
	weekendMultiplier = 1.4
	drawDayMultiplier = 1.3
	stationDrawBonus  = 1.5
	dailyTrend        = 0.001
)

var (
	tier1Commission = decimal.RequireFromString("0.08")
	tier2Commission = decimal.RequireFromString("0.06")
)

// CommissionRate returns the commission rate for an agency type.
func CommissionRate(agencyType string) decimal.Decimal {
	if agencyType == "Cấp 1" {
		return tier1Commission
	}
	return tier2Commission
}

// Generator produces source records for a date range.
type Generator struct {
	faker *Faker
}

// NewGenerator creates a generator. A zero seed picks a random one.
func NewGenerator(seed uint64) *Generator {
	if seed == 0 {
		return &Generator{faker: NewFaker()}
	}
	return &Generator{faker: NewFakerWithSeed(seed)}
}

// Lottery returns one record per prize slot for every station draw between
// start and end inclusive.
func (g *Generator) Lottery(start, end time.Time) []model.LotteryRecord {
	var records []model.LotteryRecord
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		for _, st := range Schedule {
			if !st.DrawsOn(day.Weekday()) {
				continue
			}
			for _, p := range SouthernPrizes {
				for seq := 1; seq <= p.Quantity; seq++ {
					records = append(records, model.LotteryRecord{
						DrawDate:      day,
						StationName:   st.Name,
						PrizeName:     p.Name,
						PrizeSequence: seq,
						ResultNumber:  g.faker.Digits(p.Digits),
					})
				}
			}
		}
	}
	return records
}

// Sales returns ticket-sales records between start and end inclusive.
// Volume grows slowly over the range and peaks on weekends and draw days.
func (g *Generator) Sales(start, end time.Time) []model.SalesRecord {
	var (
		records []model.SalesRecord
		trend   float64
	)
	f := g.faker

	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		weekday := day.Weekday()

		weekend := 1.0
		if weekday == time.Saturday || weekday == time.Sunday {
			weekend = weekendMultiplier
		}
		seasonal := 1 + 0.2*f.Float64(0, 1)
		trend += dailyTrend
		daysFromStart := int(day.Sub(start).Hours() / 24)
		cycle := 1 + 0.15*(1+float64(daysFromStart%30)/30)

		var drawing []string
		for _, st := range Schedule {
			if st.DrawsOn(weekday) {
				drawing = append(drawing, st.Name)
			}
		}
		drawDay := 1.0
		active := drawing
		if len(drawing) > 0 {
			drawDay = drawDayMultiplier
		} else {
			names := make([]string, 0, len(Schedule))
			for _, st := range Schedule {
				names = append(names, st.Name)
			}
			active = Sample(f, names, f.Int(3, 5))
		}

		for _, station := range active {
			stationFactor := f.Float64(0.8, 1.2)
			bonus := 1.0
			if contains(drawing, station) {
				bonus = stationDrawBonus
			}

			for _, agency := range Sample(f, Agencies, f.Int(2, 4)) {
				tickets := int64(baseTickets * weekend * seasonal * (1 + trend) * cycle *
					stationFactor * drawDay * bonus * f.Float64(0.85, 1.15))
				records = append(records, g.sale(day, station, agency, tickets))
			}
		}
	}
	return records
}

func (g *Generator) sale(day time.Time, station string, agency Agency, tickets int64) model.SalesRecord {
	price := decimal.NewFromInt(ticketPrice)
	revenue := price.Mul(decimal.NewFromInt(tickets))
	winRate := decimal.NewFromFloat(g.faker.Float64(0.45, 0.55))
	payout := revenue.Mul(winRate).Round(2)
	commission := revenue.Mul(CommissionRate(agency.Type)).Round(2)

	return model.SalesRecord{
		SaleDate:     day,
		StationName:  station,
		AgencyName:   agency.Name,
		AgencyType:   agency.Type,
		TicketsSold:  tickets,
		TicketPrice:  price,
		TotalRevenue: revenue,
		TotalPayout:  payout,
		Commission:   commission,
		NetProfit:    revenue.Sub(payout).Sub(commission),
	}
}

func contains(items []string, s string) bool {
	for _, item := range items {
		if item == s {
			return true
		}
	}
	return false
}

// Stats describes a generated pair of sources.
type Stats struct {
	LotteryRecords int
	SalesRecords   int
	TotalTickets   int64
	TotalRevenue   decimal.Decimal
	LotteryBytes   int64
	SalesBytes     int64
}

// WriteSources generates both sources for the range and writes them as CSV
// files, creating parent directories as needed.
func (g *Generator) WriteSources(ctx context.Context, start, end time.Time, lotteryPath, salesPath string) (Stats, error) {
	var stats Stats
	if end.Before(start) {
		return stats, fmt.Errorf("end date %s is before start date %s",
			end.Format("2006-01-02"), start.Format("2006-01-02"))
	}

	lottery := g.Lottery(start, end)
	if err := ctx.Err(); err != nil {
		return stats, err
	}
	sales := g.Sales(start, end)

	rows := make([][]string, 0, len(lottery))
	for _, r := range lottery {
		rows = append(rows, []string{
			r.DrawDate.Format("2006-01-02"),
			r.StationName,
			r.PrizeName,
			strconv.Itoa(r.PrizeSequence),
			r.ResultNumber,
		})
	}
	n, err := writeCSV(ctx, lotteryPath, source.LotteryColumns, rows)
	if err != nil {
		return stats, err
	}
	stats.LotteryRecords = len(lottery)
	stats.LotteryBytes = n

	stats.TotalRevenue = decimal.Zero
	rows = make([][]string, 0, len(sales))
	for _, r := range sales {
		rows = append(rows, []string{
			r.SaleDate.Format("2006-01-02"),
			r.StationName,
			r.AgencyName,
			r.AgencyType,
			strconv.FormatInt(r.TicketsSold, 10),
			r.TicketPrice.String(),
			r.TotalRevenue.String(),
			r.TotalPayout.String(),
			r.Commission.String(),
			r.NetProfit.String(),
		})
		stats.TotalTickets += r.TicketsSold
		stats.TotalRevenue = stats.TotalRevenue.Add(r.TotalRevenue)
	}
	n, err = writeCSV(ctx, salesPath, source.SalesColumns, rows)
	if err != nil {
		return stats, err
	}
	stats.SalesRecords = len(sales)
	stats.SalesBytes = n

	return stats, nil
}

func writeCSV(ctx context.Context, path string, header []string, rows [][]string) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return 0, fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	progress := NewProgressReporter(filepath.Base(path), int64(len(rows)), DefaultBatchConfig().ProgressInterval)
	w := csv.NewWriter(file)
	if err := w.Write(header); err != nil {
		return 0, fmt.Errorf("failed to write %s: %w", path, err)
	}

	batch := DefaultBatchConfig().BatchSize
	for i := 0; i < len(rows); i += batch {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		stop := min(i+batch, len(rows))
		if err := w.WriteAll(rows[i:stop]); err != nil {
			return 0, fmt.Errorf("failed to write %s: %w", path, err)
		}
		progress.Update(int64(stop - i))
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return 0, fmt.Errorf("failed to write %s: %w", path, err)
	}
	progress.Done()

	info, err := file.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// BatchConfig configures how generated rows are written.
type BatchConfig struct {
	// BatchSize is the number of rows per write.
	BatchSize int

	// ProgressInterval is how often to log progress (in rows).
	ProgressInterval int64
}

// DefaultBatchConfig returns default batch configuration.
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{
		BatchSize:        1000,
		ProgressInterval: 10000,
	}
}

// ProgressReporter tracks and reports generation progress.
type ProgressReporter struct {
	name             string
	totalRows        int64
	currentRow       int64
	progressInterval int64
}

// NewProgressReporter creates a new progress reporter.
func NewProgressReporter(name string, totalRows int64, interval int64) *ProgressReporter {
	return &ProgressReporter{
		name:             name,
		totalRows:        totalRows,
		progressInterval: interval,
	}
}

// Update adds rowsWritten and logs when an interval boundary is crossed.
func (p *ProgressReporter) Update(rowsWritten int64) {
	oldRow := p.currentRow
	p.currentRow += rowsWritten

	if p.progressInterval > 0 && p.currentRow/p.progressInterval > oldRow/p.progressInterval {
		pct := float64(p.currentRow) / float64(p.totalRows) * 100
		logging.Info().
			Str("file", p.name).
			Int64("rows", p.currentRow).
			Int64("total", p.totalRows).
			Float64("percent", pct).
			Msg("Writing source")
	}
}

// Done logs completion.
func (p *ProgressReporter) Done() {
	logging.Info().
		Str("file", p.name).
		Int64("rows", p.currentRow).
		Msg("Source complete")
}

// FormatSize formats a byte count as a human-readable string.
func FormatSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
