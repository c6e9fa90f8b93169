//-------------------------------------------------------------------------
//
// pgEdge Lottery Warehouse
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package transform

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgEdge/pgedge-lottery-warehouse/internal/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sale(date time.Time, station, agency, agencyType string) model.SalesRecord {
	return model.SalesRecord{
		SaleDate:     date,
		StationName:  station,
		AgencyName:   agency,
		AgencyType:   agencyType,
		TicketsSold:  100,
		TicketPrice:  decimal.NewFromInt(10000),
		TotalRevenue: decimal.NewFromInt(1000000),
		TotalPayout:  decimal.NewFromInt(500000),
		Commission:   decimal.NewFromInt(80000),
		NetProfit:    decimal.NewFromInt(420000),
	}
}

func TestDateKey(t *testing.T) {
	assert.Equal(t, 20240101, DateKey(day(2024, 1, 1)))
	assert.Equal(t, 20241231, DateKey(day(2024, 12, 31)))
	assert.Equal(t, 19991109, DateKey(day(1999, 11, 9)))

	// Time of day does not change the key.
	assert.Equal(t, 20240101, DateKey(time.Date(2024, 1, 1, 23, 59, 0, 0, time.UTC)))

	for _, key := range []int{20240101, 20240229, 19991109} {
		assert.Equal(t, key, DateKey(DateFromKey(key)))
	}
}

func TestNewCalendar(t *testing.T) {
	tests := []struct {
		date  time.Time
		want  model.Calendar
		label string
	}{
		{
			label: "new year monday",
			date:  day(2024, 1, 1),
			want: model.Calendar{
				DateKey: 20240101, FullDate: day(2024, 1, 1),
				Day: 1, Month: 1, Year: 2024, Quarter: 1,
				DayOfWeek: "Monday", IsMonthStart: true,
			},
		},
		{
			label: "leap day thursday",
			date:  day(2024, 2, 29),
			want: model.Calendar{
				DateKey: 20240229, FullDate: day(2024, 2, 29),
				Day: 29, Month: 2, Year: 2024, Quarter: 1,
				DayOfWeek: "Thursday", IsMonthEnd: true,
			},
		},
		{
			label: "non-leap february 28",
			date:  day(2023, 2, 28),
			want: model.Calendar{
				DateKey: 20230228, FullDate: day(2023, 2, 28),
				Day: 28, Month: 2, Year: 2023, Quarter: 1,
				DayOfWeek: "Tuesday", IsMonthEnd: true,
			},
		},
		{
			label: "saturday in q3",
			date:  day(2024, 7, 6),
			want: model.Calendar{
				DateKey: 20240706, FullDate: day(2024, 7, 6),
				Day: 6, Month: 7, Year: 2024, Quarter: 3,
				DayOfWeek: "Saturday", IsWeekend: true,
			},
		},
		{
			label: "year end tuesday",
			date:  day(2024, 12, 31),
			want: model.Calendar{
				DateKey: 20241231, FullDate: day(2024, 12, 31),
				Day: 31, Month: 12, Year: 2024, Quarter: 4,
				DayOfWeek: "Tuesday", IsMonthEnd: true,
			},
		},
		{
			label: "sunday month start",
			date:  day(2024, 9, 1),
			want: model.Calendar{
				DateKey: 20240901, FullDate: day(2024, 9, 1),
				Day: 1, Month: 9, Year: 2024, Quarter: 3,
				DayOfWeek: "Sunday", IsWeekend: true, IsMonthStart: true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.want, NewCalendar(tt.date))
		})
	}
}

func TestNewCalendarIgnoresTimeAndZone(t *testing.T) {
	loc := time.FixedZone("ICT", 7*3600)
	a := NewCalendar(time.Date(2024, 3, 15, 6, 30, 0, 0, loc))
	b := NewCalendar(day(2024, 3, 15))
	assert.Equal(t, b, a)
}

func TestCalendarScenario(t *testing.T) {
	lottery := []model.LotteryRecord{
		{DrawDate: day(2024, 1, 1), StationName: "Hà Nội", PrizeName: "Nhất", PrizeSequence: 1, ResultNumber: "01234"},
	}
	sales := []model.SalesRecord{
		sale(day(2024, 1, 1), "Hà Nội", "Đại lý Trung tâm", "Cấp 1"),
		sale(day(2024, 1, 2), "Hà Nội", "Đại lý Trung tâm", "Cấp 1"),
	}

	rows := Calendar(lottery, sales)
	require.Len(t, rows, 2)

	assert.Equal(t, 20240101, rows[0].DateKey)
	assert.Equal(t, "Monday", rows[0].DayOfWeek)
	assert.False(t, rows[0].IsWeekend)
	assert.Equal(t, 1, rows[0].Quarter)

	assert.Equal(t, 20240102, rows[1].DateKey)
	assert.Equal(t, "Tuesday", rows[1].DayOfWeek)
	assert.False(t, rows[1].IsWeekend)
	assert.Equal(t, 1, rows[1].Quarter)
}

func TestCalendarDeterministic(t *testing.T) {
	lottery := []model.LotteryRecord{
		{DrawDate: day(2024, 3, 2)},
		{DrawDate: day(2024, 1, 5)},
		{DrawDate: day(2024, 3, 2)},
	}
	sales := []model.SalesRecord{
		sale(day(2024, 2, 10), "a", "b", "c"),
		sale(day(2024, 1, 5), "a", "b", "c"),
	}

	first := Calendar(lottery, sales)
	second := Calendar(lottery, sales)
	assert.Equal(t, first, second)

	// Same dates from the other source give identical rows.
	swapped := Calendar(nil, []model.SalesRecord{
		sale(day(2024, 3, 2), "a", "b", "c"),
		sale(day(2024, 2, 10), "a", "b", "c"),
		sale(day(2024, 1, 5), "a", "b", "c"),
	})
	assert.Equal(t, first, swapped)

	keys := make([]int, 0, len(first))
	for _, c := range first {
		keys = append(keys, c.DateKey)
	}
	assert.Equal(t, []int{20240105, 20240210, 20240302}, keys)
}

func TestDistributors(t *testing.T) {
	sales := []model.SalesRecord{
		sale(day(2024, 1, 1), "s", "Đại lý Quận 5", "Cấp 2"),
		sale(day(2024, 1, 1), "s", "Đại lý Bình Thạnh", "Cấp 2"),
		sale(day(2024, 1, 2), "s", "Đại lý Quận 5", "Cấp 2"),
		sale(day(2024, 1, 2), "s", "Đại lý Quận 1", "Cấp 1"),
		sale(day(2024, 1, 3), "s", "Đại lý Bình Thạnh", "Cấp 1"),
	}

	got := Distributors(sales)
	assert.Equal(t, []model.Distributor{
		{Name: "Đại lý Bình Thạnh", Type: "Cấp 1"},
		{Name: "Đại lý Bình Thạnh", Type: "Cấp 2"},
		{Name: "Đại lý Quận 1", Type: "Cấp 1"},
		{Name: "Đại lý Quận 5", Type: "Cấp 2"},
	}, got)

	assert.Empty(t, Distributors(nil))
}

func TestFactProjections(t *testing.T) {
	lottery := []model.LotteryRecord{
		{DrawDate: day(2024, 1, 1), StationName: "Hà Nội", PrizeName: "Bảy", PrizeSequence: 2, ResultNumber: "05"},
	}
	s := sale(day(2024, 1, 2), "Hà Nội", "Đại lý Quận 1", "Cấp 1")

	res := Transform(lottery, []model.SalesRecord{s})

	require.Len(t, res.DrawResults, 1)
	assert.Equal(t, model.DrawResultCandidate{
		DateKey: 20240101, StationName: "Hà Nội", PrizeName: "Bảy", PrizeSequence: 2, ResultNumber: "05",
	}, res.DrawResults[0])

	require.Len(t, res.Revenue, 1)
	rev := res.Revenue[0]
	assert.Equal(t, 20240102, rev.DateKey)
	assert.Equal(t, "Đại lý Quận 1", rev.AgencyName)
	assert.Equal(t, s.TicketsSold, rev.TicketsSold)
	assert.True(t, s.NetProfit.Equal(rev.NetProfit))
	assert.True(t, s.Commission.Equal(rev.Commission))

	sum := res.Summary()
	assert.Equal(t, Summary{
		CalendarRows:    2,
		DistributorRows: 1,
		DrawResultRows:  1,
		RevenueRows:     1,
		FirstDate:       day(2024, 1, 1),
		LastDate:        day(2024, 1, 2),
	}, sum)
}

func TestTransformEmpty(t *testing.T) {
	res := Transform(nil, nil)
	assert.Empty(t, res.Calendar)
	assert.Empty(t, res.Distributors)
	assert.Empty(t, res.DrawResults)
	assert.Empty(t, res.Revenue)
	assert.True(t, res.Summary().FirstDate.IsZero())
}
