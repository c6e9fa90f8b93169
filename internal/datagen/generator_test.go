//-------------------------------------------------------------------------
//
// pgEdge Lottery Warehouse
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package datagen

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgEdge/pgedge-lottery-warehouse/internal/logging"
	"github.com/pgEdge/pgedge-lottery-warehouse/internal/source"
)

func init() {
	logging.Discard()
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// slotsPerDraw is the number of prize slots in one station draw.
func slotsPerDraw() int {
	n := 0
	for _, p := range SouthernPrizes {
		n += p.Quantity
	}
	return n
}

func TestEveryWeekdayHasADraw(t *testing.T) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		drawing := 0
		for _, st := range Schedule {
			if st.DrawsOn(d) {
				drawing++
			}
		}
		assert.Positive(t, drawing, d.String())
	}
}

func TestLotteryFollowsSchedule(t *testing.T) {
	g := NewGenerator(42)

	// 2024-01-01 is a Monday: Hà Nội and TP Hồ Chí Minh draw.
	records := g.Lottery(day(2024, 1, 1), day(2024, 1, 1))
	require.Len(t, records, 2*slotsPerDraw())

	stations := make(map[string]int)
	for _, r := range records {
		stations[r.StationName]++
		assert.Equal(t, day(2024, 1, 1), r.DrawDate)
	}
	assert.Equal(t, map[string]int{
		"Hà Nội":         slotsPerDraw(),
		"TP Hồ Chí Minh": slotsPerDraw(),
	}, stations)
}

func TestLotteryResultNumbers(t *testing.T) {
	g := NewGenerator(7)
	digits := make(map[string]int)
	quantity := make(map[string]int)
	for _, p := range SouthernPrizes {
		digits[p.Name] = p.Digits
		quantity[p.Name] = p.Quantity
	}

	for _, r := range g.Lottery(day(2024, 1, 1), day(2024, 1, 7)) {
		assert.Len(t, r.ResultNumber, digits[r.PrizeName], r.PrizeName)
		assert.GreaterOrEqual(t, r.PrizeSequence, 1)
		assert.LessOrEqual(t, r.PrizeSequence, quantity[r.PrizeName])
	}
}

func TestSalesMoneyIsConsistent(t *testing.T) {
	g := NewGenerator(99)
	records := g.Sales(day(2024, 1, 1), day(2024, 1, 14))
	require.NotEmpty(t, records)

	for _, r := range records {
		assert.Positive(t, r.TicketsSold)
		assert.True(t, r.TicketPrice.Equal(r.TicketPrice.Round(0)))
		assert.True(t, r.TotalRevenue.Equal(r.TicketPrice.Mul(decimal.NewFromInt(r.TicketsSold))))
		assert.True(t, r.Commission.Equal(r.TotalRevenue.Mul(CommissionRate(r.AgencyType)).Round(2)))
		assert.True(t, r.NetProfit.Equal(r.TotalRevenue.Sub(r.TotalPayout).Sub(r.Commission)))

		rate := r.TotalPayout.Div(r.TotalRevenue).InexactFloat64()
		assert.InDelta(t, 0.5, rate, 0.0501)
	}
}

func TestSalesAgenciesPerStation(t *testing.T) {
	g := NewGenerator(3)
	records := g.Sales(day(2024, 3, 4), day(2024, 3, 10))

	type key struct {
		date    time.Time
		station string
	}
	perStation := make(map[key]map[string]bool)
	for _, r := range records {
		k := key{r.SaleDate, r.StationName}
		if perStation[k] == nil {
			perStation[k] = make(map[string]bool)
		}
		assert.False(t, perStation[k][r.AgencyName], "agency repeated for one station and day")
		perStation[k][r.AgencyName] = true
	}

	for k, agencies := range perStation {
		assert.GreaterOrEqual(t, len(agencies), 2, k.station)
		assert.LessOrEqual(t, len(agencies), 4, k.station)
	}
}

func TestGeneratorIsReproducible(t *testing.T) {
	a := NewGenerator(2024)
	b := NewGenerator(2024)

	assert.Equal(t, a.Lottery(day(2024, 1, 1), day(2024, 1, 10)), b.Lottery(day(2024, 1, 1), day(2024, 1, 10)))

	sa := a.Sales(day(2024, 1, 1), day(2024, 1, 10))
	sb := b.Sales(day(2024, 1, 1), day(2024, 1, 10))
	require.Equal(t, len(sa), len(sb))
	for i := range sa {
		assert.Equal(t, sa[i].TicketsSold, sb[i].TicketsSold)
		assert.True(t, sa[i].NetProfit.Equal(sb[i].NetProfit))
	}
}

func TestWriteSourcesPassValidation(t *testing.T) {
	dir := t.TempDir()
	lotteryPath := filepath.Join(dir, "raw", "lottery_results.csv")
	salesPath := filepath.Join(dir, "raw", "revenue_data.csv")

	stats, err := NewGenerator(11).WriteSources(context.Background(),
		day(2024, 1, 1), day(2024, 1, 31), lotteryPath, salesPath)
	require.NoError(t, err)
	assert.Positive(t, stats.LotteryRecords)
	assert.Positive(t, stats.SalesRecords)
	assert.Positive(t, stats.LotteryBytes)
	assert.True(t, stats.TotalRevenue.IsPositive())

	s, err := source.Read(lotteryPath, salesPath)
	require.NoError(t, err)
	v := s.Validate()
	require.True(t, v.Valid, "generated sources failed validation: %v", v.Errors)
	assert.Equal(t, stats.LotteryRecords, v.LotteryRecords)
	assert.Equal(t, stats.SalesRecords, v.SalesRecords)

	var eighth int
	for _, r := range s.Lottery {
		if r.PrizeName == "Tám" {
			eighth++
		}
	}
	assert.Positive(t, eighth, "the eighth prize is part of the southern structure")

	lottery, sales := s.DateRanges()
	assert.Equal(t, day(2024, 1, 1), lottery.Min)
	assert.Equal(t, day(2024, 1, 31), sales.Max)
	assert.Equal(t, 31, sales.Days)
}

func TestWriteSourcesRejectsReversedRange(t *testing.T) {
	dir := t.TempDir()
	_, err := NewGenerator(1).WriteSources(context.Background(),
		day(2024, 2, 1), day(2024, 1, 1),
		filepath.Join(dir, "a.csv"), filepath.Join(dir, "b.csv"))
	assert.Error(t, err)
}

func TestWriteSourcesCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dir := t.TempDir()
	_, err := NewGenerator(1).WriteSources(ctx, day(2024, 1, 1), day(2024, 1, 2),
		filepath.Join(dir, "a.csv"), filepath.Join(dir, "b.csv"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{512, "512 B"},
		{2048, "2.00 KB"},
		{5 * 1024 * 1024, "5.00 MB"},
		{3 * 1024 * 1024 * 1024, "3.00 GB"},
	}
	for _, tt := range tests {
		if got := FormatSize(tt.bytes); got != tt.want {
			t.Errorf("FormatSize(%d) = %q, want %q", tt.bytes, got, tt.want)
		}
	}
}
