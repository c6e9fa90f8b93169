//-------------------------------------------------------------------------
//
// pgEdge Lottery Warehouse
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package transform

import (
	"time"

	"github.com/pgEdge/pgedge-lottery-warehouse/internal/model"
)

// DateKey returns the calendar surrogate key (YYYYMMDD) for t.
func DateKey(t time.Time) int {
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}

// DateFromKey is the inverse of DateKey.
func DateFromKey(key int) time.Time {
	return time.Date(key/10000, time.Month(key/100%100), key%100, 0, 0, 0, 0, time.UTC)
}

// NewCalendar derives the dim_date row for the calendar day of t. Only the
// year, month and day of t are used, so any time of day yields the same row.
func NewCalendar(t time.Time) model.Calendar {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	month := int(day.Month())
	weekday := day.Weekday()

	return model.Calendar{
		DateKey:      DateKey(day),
		FullDate:     day,
		Day:          day.Day(),
		Month:        month,
		Year:         day.Year(),
		Quarter:      (month-1)/3 + 1,
		DayOfWeek:    weekday.String(),
		IsWeekend:    weekday == time.Saturday || weekday == time.Sunday,
		IsMonthStart: day.Day() == 1,
		IsMonthEnd:   day.Day() == daysIn(day.Year(), day.Month()),
	}
}

// daysIn returns the number of days in the month, leap years included.
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
