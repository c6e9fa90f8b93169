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
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pgEdge/pgedge-lottery-warehouse/internal/model"
)

// dateLayouts are tried in order when parsing source dates.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// ParseDate parses a source date and truncates it to a UTC calendar day.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

func parseLottery(t *table) []model.LotteryRecord {
	if len(t.missing()) > 0 {
		return nil
	}

	records := make([]model.LotteryRecord, 0, len(t.rows))
	for i, row := range t.rows {
		if !t.complete(row) {
			continue
		}

		drawDate, err := ParseDate(t.value(row, "draw_date"))
		if err != nil {
			t.reject(i, "draw_date: %v", err)
			continue
		}
		seq, err := strconv.Atoi(t.value(row, "prize_sequence"))
		if err != nil {
			t.reject(i, "prize_sequence: invalid integer %q", t.value(row, "prize_sequence"))
			continue
		}
		result := t.value(row, "result_number")
		if !isDigits(result) {
			t.reject(i, "result_number: %q is not a numeric string", result)
			continue
		}

		records = append(records, model.LotteryRecord{
			DrawDate:      drawDate,
			StationName:   t.value(row, "station_name"),
			PrizeName:     t.value(row, "prize_name"),
			PrizeSequence: seq,
			ResultNumber:  result,
		})
	}
	return records
}

func parseSales(t *table) []model.SalesRecord {
	if len(t.missing()) > 0 {
		return nil
	}

	records := make([]model.SalesRecord, 0, len(t.rows))
	for i, row := range t.rows {
		if !t.complete(row) {
			continue
		}

		saleDate, err := ParseDate(t.value(row, "sale_date"))
		if err != nil {
			t.reject(i, "sale_date: %v", err)
			continue
		}
		tickets, err := strconv.ParseInt(t.value(row, "tickets_sold"), 10, 64)
		if err != nil {
			t.reject(i, "tickets_sold: invalid integer %q", t.value(row, "tickets_sold"))
			continue
		}

		amounts := make(map[string]decimal.Decimal, 5)
		ok := true
		for _, col := range []string{"ticket_price", "total_revenue", "total_payout", "commission", "net_profit"} {
			d, err := decimal.NewFromString(t.value(row, col))
			if err != nil {
				t.reject(i, "%s: invalid amount %q", col, t.value(row, col))
				ok = false
				break
			}
			amounts[col] = d
		}
		if !ok {
			continue
		}

		records = append(records, model.SalesRecord{
			SaleDate:     saleDate,
			StationName:  t.value(row, "station_name"),
			AgencyName:   t.value(row, "agency_name"),
			AgencyType:   t.value(row, "agency_type"),
			TicketsSold:  tickets,
			TicketPrice:  amounts["ticket_price"],
			TotalRevenue: amounts["total_revenue"],
			TotalPayout:  amounts["total_payout"],
			Commission:   amounts["commission"],
			NetProfit:    amounts["net_profit"],
		})
	}
	return records
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
