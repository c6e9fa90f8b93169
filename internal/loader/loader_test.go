//-------------------------------------------------------------------------
//
// pgEdge Lottery Warehouse
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package loader

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgEdge/pgedge-lottery-warehouse/internal/logging"
	"github.com/pgEdge/pgedge-lottery-warehouse/internal/model"
	"github.com/pgEdge/pgedge-lottery-warehouse/internal/testutil"
	"github.com/pgEdge/pgedge-lottery-warehouse/internal/transform"
)

func init() {
	logging.Discard()
}

func newStore() *testutil.MemStore {
	return testutil.NewMemStore(
		[]string{"Hà Nội", "TP Hồ Chí Minh"},
		[]string{"Đặc biệt", "Nhất", "Bảy"},
	)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sale(date time.Time, station, agency, agencyType string) model.SalesRecord {
	return model.SalesRecord{
		SaleDate:     date,
		StationName:  station,
		AgencyName:   agency,
		AgencyType:   agencyType,
		TicketsSold:  1000,
		TicketPrice:  decimal.NewFromInt(10000),
		TotalRevenue: decimal.NewFromInt(10000000),
		TotalPayout:  decimal.NewFromInt(5000000),
		Commission:   decimal.NewFromInt(800000),
		NetProfit:    decimal.NewFromInt(4200000),
	}
}

func draw(date time.Time, station, prize string, seq int, number string) model.LotteryRecord {
	return model.LotteryRecord{
		DrawDate:      date,
		StationName:   station,
		PrizeName:     prize,
		PrizeSequence: seq,
		ResultNumber:  number,
	}
}

func sampleResult() *transform.Result {
	lottery := []model.LotteryRecord{
		draw(day(2024, 1, 1), "Hà Nội", "Đặc biệt", 1, "012345"),
		draw(day(2024, 1, 1), "Hà Nội", "Bảy", 1, "07"),
	}
	sales := []model.SalesRecord{
		sale(day(2024, 1, 1), "Hà Nội", "Đại lý Trung tâm", "Cấp 1"),
		sale(day(2024, 1, 2), "TP Hồ Chí Minh", "Đại lý Quận 5", "Cấp 2"),
	}
	return transform.Transform(lottery, sales)
}

func TestLoadFreshWarehouse(t *testing.T) {
	store := newStore()

	res, err := New(store).Load(context.Background(), sampleResult())
	require.NoError(t, err)

	assert.Equal(t, int64(2), res.Calendar)
	assert.Equal(t, int64(2), res.Distributors)
	assert.Equal(t, int64(2), res.DrawResults)
	assert.Equal(t, int64(2), res.Revenue)
	assert.Equal(t, int64(8), res.Total())
	assert.Zero(t, res.DroppedDrawResults.Total())
	assert.Zero(t, res.DroppedRevenue.Total())

	require.Len(t, store.DrawResults, 2)
	assert.Equal(t, "012345", store.DrawResults[0].ResultNumber)
	assert.Equal(t, store.Stations["Hà Nội"], store.DrawResults[0].StationID)
	assert.Equal(t, store.Categories["Đặc biệt"], store.DrawResults[0].PrizeID)

	agencyID, ok := store.AgencyID("Đại lý Quận 5")
	require.True(t, ok)
	assert.Equal(t, agencyID, store.Revenue[1].AgencyID)
	assert.Equal(t, 20240102, store.Revenue[1].DateKey)
}

func TestLoadIsIdempotentForDimensions(t *testing.T) {
	store := newStore()
	l := New(store)
	ctx := context.Background()

	_, err := l.Load(ctx, sampleResult())
	require.NoError(t, err)

	res, err := l.Load(ctx, sampleResult())
	require.NoError(t, err)

	assert.Zero(t, res.Calendar, "no new calendar rows on re-run")
	assert.Zero(t, res.Distributors, "no new distributor rows on re-run")
	assert.Len(t, store.Calendar, 2)
	assert.Len(t, store.Distributors, 2)

	// Fact rows are not deduplicated: a second identical load doubles them.
	assert.Equal(t, int64(2), res.DrawResults)
	assert.Equal(t, int64(2), res.Revenue)
	assert.Len(t, store.DrawResults, 4)
	assert.Len(t, store.Revenue, 4)
}

func TestLoadSkipsEmptyBatches(t *testing.T) {
	store := newStore()
	l := New(store)
	ctx := context.Background()

	_, err := l.Load(ctx, sampleResult())
	require.NoError(t, err)

	store.Calls = nil
	_, err = l.Load(ctx, transform.Transform(nil, []model.SalesRecord{
		sale(day(2024, 1, 1), "Hà Nội", "Đại lý Trung tâm", "Cấp 1"),
	}))
	require.NoError(t, err)

	assert.NotContains(t, store.Calls, "InsertCalendar")
	assert.NotContains(t, store.Calls, "InsertDistributors")
	assert.NotContains(t, store.Calls, "InsertDrawResults")
	assert.Contains(t, store.Calls, "InsertRevenue")
}

func TestLoadExcludesOrphans(t *testing.T) {
	store := newStore()

	lottery := []model.LotteryRecord{
		draw(day(2024, 1, 1), "Hà Nội", "Nhất", 1, "12345"),
		draw(day(2024, 1, 1), "Hà Nội", "Tám", 1, "42"),
		draw(day(2024, 1, 1), "Atlantis", "Nhất", 1, "54321"),
	}
	sales := []model.SalesRecord{
		sale(day(2024, 1, 1), "Hà Nội", "Đại lý Quận 1", "Cấp 1"),
		sale(day(2024, 1, 1), "Atlantis", "Đại lý Quận 1", "Cấp 1"),
	}

	res, err := New(store).Load(context.Background(), transform.Transform(lottery, sales))
	require.NoError(t, err)

	assert.Equal(t, int64(1), res.DrawResults)
	assert.Equal(t, Drops{MissingStation: 1, MissingCategory: 1}, res.DroppedDrawResults)
	assert.Equal(t, int64(1), res.Revenue)
	assert.Equal(t, Drops{MissingStation: 1}, res.DroppedRevenue)

	require.Len(t, store.DrawResults, 1)
	assert.Equal(t, "12345", store.DrawResults[0].ResultNumber)
}

func TestLoadDropsFactsWithoutCalendarRow(t *testing.T) {
	store := newStore()

	res := &transform.Result{
		DrawResults: []model.DrawResultCandidate{
			{DateKey: 20240105, StationName: "Hà Nội", PrizeName: "Nhất", PrizeSequence: 1, ResultNumber: "11111"},
		},
		Revenue: []model.RevenueCandidate{
			{DateKey: 20240105, StationName: "Hà Nội", AgencyName: "Đại lý Quận 1"},
		},
	}

	out, err := New(store).Load(context.Background(), res)
	require.NoError(t, err)
	assert.Equal(t, Drops{MissingDate: 1}, out.DroppedDrawResults)
	assert.Equal(t, Drops{MissingDate: 1}, out.DroppedRevenue)
	assert.Empty(t, store.DrawResults)
	assert.Empty(t, store.Revenue)
}

func TestLoadUnknownDistributorIsDropped(t *testing.T) {
	store := newStore()

	res := &transform.Result{
		Calendar: []model.Calendar{transform.NewCalendar(day(2024, 1, 1))},
		Revenue: []model.RevenueCandidate{
			{DateKey: 20240101, StationName: "Hà Nội", AgencyName: "Đại lý Ma"},
		},
	}

	out, err := New(store).Load(context.Background(), res)
	require.NoError(t, err)
	assert.Equal(t, Drops{MissingDistributor: 1}, out.DroppedRevenue)
	assert.Zero(t, out.Revenue)
}

func TestLoadDuplicateDistributorNameInBatch(t *testing.T) {
	store := newStore()

	sales := []model.SalesRecord{
		sale(day(2024, 1, 1), "Hà Nội", "Đại lý Bình Thạnh", "Cấp 2"),
		sale(day(2024, 1, 2), "Hà Nội", "Đại lý Bình Thạnh", "Cấp 1"),
	}

	res, err := New(store).Load(context.Background(), transform.Transform(nil, sales))
	require.NoError(t, err)

	assert.Equal(t, int64(1), res.Distributors)
	assert.Equal(t, "Cấp 1", store.Distributors["Đại lý Bình Thạnh"].Type,
		"first candidate in sorted order wins")
	assert.Equal(t, int64(2), res.Revenue)
}

func TestLoadPropagatesStoreErrors(t *testing.T) {
	ops := []string{
		"CalendarKeys",
		"InsertCalendar",
		"DistributorNames",
		"InsertDistributors",
		"StationIDs",
		"CategoryIDs",
		"InsertDrawResults",
		"DistributorIDs",
		"InsertRevenue",
	}

	for _, op := range ops {
		t.Run(op, func(t *testing.T) {
			store := newStore()
			store.FailOn = op

			_, err := New(store).Load(context.Background(), sampleResult())
			require.Error(t, err)
			assert.Contains(t, err.Error(), op)
		})
	}
}

func TestLoadStopsAfterFailedBatch(t *testing.T) {
	store := newStore()
	store.FailOn = "InsertDrawResults"

	res, err := New(store).Load(context.Background(), sampleResult())
	require.Error(t, err)

	// Earlier batches stay committed; later ones never run.
	assert.Equal(t, int64(2), res.Calendar)
	assert.Equal(t, int64(2), res.Distributors)
	assert.Len(t, store.Calendar, 2)
	assert.Empty(t, store.DrawResults)
	assert.Empty(t, store.Revenue)
	assert.NotContains(t, store.Calls, "InsertRevenue")
}

func TestLoadEmptyResult(t *testing.T) {
	store := newStore()

	res, err := New(store).Load(context.Background(), &transform.Result{})
	require.NoError(t, err)
	assert.Zero(t, res.Total())
}
