//-------------------------------------------------------------------------
//
// pgEdge Lottery Warehouse
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package model holds the record, candidate and warehouse row types shared
// by the ETL stages.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// LotteryRecord is one prize-slot outcome read from the draw-results source.
type LotteryRecord struct {
	DrawDate      time.Time
	StationName   string
	PrizeName     string
	PrizeSequence int
	// ResultNumber is a fixed-width numeric string; leading zeros matter.
	ResultNumber string
}

// SalesRecord is one (date, station, agency) observation read from the
// ticket-sales source.
type SalesRecord struct {
	SaleDate     time.Time
	StationName  string
	AgencyName   string
	AgencyType   string
	TicketsSold  int64
	TicketPrice  decimal.Decimal
	TotalRevenue decimal.Decimal
	TotalPayout  decimal.Decimal
	Commission   decimal.Decimal
	NetProfit    decimal.Decimal
}

// Calendar is a dim_date row. DateKey is YYYYMMDD and is a pure function of
// FullDate.
type Calendar struct {
	DateKey      int
	FullDate     time.Time
	Day          int
	Month        int
	Year         int
	Quarter      int
	DayOfWeek    string
	IsWeekend    bool
	IsMonthStart bool
	IsMonthEnd   bool
}

// Distributor is a dim_agency candidate. Name is the natural key.
type Distributor struct {
	Name string
	Type string
}

// Station is a dim_station row.
type Station struct {
	ID     int64
	Name   string
	Region string
}

// PrizeCategory is a dim_prize row.
type PrizeCategory struct {
	ID       int64
	Name     string
	Order    int
	Quantity int
	Digits   int
	Value    decimal.Decimal
}

// DrawResultCandidate is a draw result keyed by calendar key and by the
// natural keys of its station and prize category.
type DrawResultCandidate struct {
	DateKey       int
	StationName   string
	PrizeName     string
	PrizeSequence int
	ResultNumber  string
}

// RevenueCandidate is a sales observation keyed by calendar key and by the
// natural keys of its station and distributor.
type RevenueCandidate struct {
	DateKey      int
	StationName  string
	AgencyName   string
	TicketsSold  int64
	TicketPrice  decimal.Decimal
	TotalRevenue decimal.Decimal
	TotalPayout  decimal.Decimal
	NetProfit    decimal.Decimal
	Commission   decimal.Decimal
}

// DrawResultFact is a fact_lottery_result row with resolved surrogate keys.
type DrawResultFact struct {
	DateKey       int
	StationID     int64
	PrizeID       int64
	PrizeSequence int
	ResultNumber  string
}

// RevenueFact is a fact_revenue row with resolved surrogate keys.
type RevenueFact struct {
	DateKey      int
	StationID    int64
	AgencyID     int64
	TicketsSold  int64
	TicketPrice  decimal.Decimal
	TotalRevenue decimal.Decimal
	TotalPayout  decimal.Decimal
	NetProfit    decimal.Decimal
	Commission   decimal.Decimal
}
