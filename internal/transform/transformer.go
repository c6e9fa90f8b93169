//-------------------------------------------------------------------------
//
// pgEdge Lottery Warehouse
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package transform reshapes validated source records into dimension and
// fact candidates. It is pure in-memory work; nothing here touches the
// warehouse.
package transform

import (
	"sort"
	"time"

	"github.com/pgEdge/pgedge-lottery-warehouse/internal/model"
)

// Result holds the candidate sets produced from one pair of sources.
type Result struct {
	// Calendar is sorted by DateKey with one row per distinct date.
	Calendar []model.Calendar

	// Distributors holds distinct (name, type) pairs sorted by name, then type.
	Distributors []model.Distributor

	DrawResults []model.DrawResultCandidate
	Revenue     []model.RevenueCandidate
}

// Summary counts the candidate sets.
type Summary struct {
	CalendarRows    int       `json:"calendar_rows"`
	DistributorRows int       `json:"distributor_rows"`
	DrawResultRows  int       `json:"draw_result_rows"`
	RevenueRows     int       `json:"revenue_rows"`
	FirstDate       time.Time `json:"first_date"`
	LastDate        time.Time `json:"last_date"`
}

// Transform builds every candidate set from the two record sets.
func Transform(lottery []model.LotteryRecord, sales []model.SalesRecord) *Result {
	return &Result{
		Calendar:     Calendar(lottery, sales),
		Distributors: Distributors(sales),
		DrawResults:  DrawResults(lottery),
		Revenue:      Revenue(sales),
	}
}

// Summary returns the candidate counts and the calendar span.
func (r *Result) Summary() Summary {
	s := Summary{
		CalendarRows:    len(r.Calendar),
		DistributorRows: len(r.Distributors),
		DrawResultRows:  len(r.DrawResults),
		RevenueRows:     len(r.Revenue),
	}
	if n := len(r.Calendar); n > 0 {
		s.FirstDate = r.Calendar[0].FullDate
		s.LastDate = r.Calendar[n-1].FullDate
	}
	return s
}

// Calendar returns one row per distinct date seen in either source, sorted
// by key.
func Calendar(lottery []model.LotteryRecord, sales []model.SalesRecord) []model.Calendar {
	byKey := make(map[int]model.Calendar)
	add := func(t time.Time) {
		key := DateKey(t)
		if _, ok := byKey[key]; !ok {
			byKey[key] = NewCalendar(t)
		}
	}
	for _, r := range lottery {
		add(r.DrawDate)
	}
	for _, r := range sales {
		add(r.SaleDate)
	}

	rows := make([]model.Calendar, 0, len(byKey))
	for _, c := range byKey {
		rows = append(rows, c)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].DateKey < rows[j].DateKey })
	return rows
}

// Distributors returns distinct (name, type) pairs from the sales source.
func Distributors(sales []model.SalesRecord) []model.Distributor {
	seen := make(map[model.Distributor]struct{})
	var rows []model.Distributor
	for _, r := range sales {
		d := model.Distributor{Name: r.AgencyName, Type: r.AgencyType}
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		rows = append(rows, d)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Name != rows[j].Name {
			return rows[i].Name < rows[j].Name
		}
		return rows[i].Type < rows[j].Type
	})
	return rows
}

// DrawResults projects lottery records onto draw-result candidates.
func DrawResults(lottery []model.LotteryRecord) []model.DrawResultCandidate {
	rows := make([]model.DrawResultCandidate, 0, len(lottery))
	for _, r := range lottery {
		rows = append(rows, model.DrawResultCandidate{
			DateKey:       DateKey(r.DrawDate),
			StationName:   r.StationName,
			PrizeName:     r.PrizeName,
			PrizeSequence: r.PrizeSequence,
			ResultNumber:  r.ResultNumber,
		})
	}
	return rows
}

// Revenue projects sales records onto revenue candidates.
func Revenue(sales []model.SalesRecord) []model.RevenueCandidate {
	rows := make([]model.RevenueCandidate, 0, len(sales))
	for _, r := range sales {
		rows = append(rows, model.RevenueCandidate{
			DateKey:      DateKey(r.SaleDate),
			StationName:  r.StationName,
			AgencyName:   r.AgencyName,
			TicketsSold:  r.TicketsSold,
			TicketPrice:  r.TicketPrice,
			TotalRevenue: r.TotalRevenue,
			TotalPayout:  r.TotalPayout,
			NetProfit:    r.NetProfit,
			Commission:   r.Commission,
		})
	}
	return rows
}
