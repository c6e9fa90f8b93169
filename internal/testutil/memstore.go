//-------------------------------------------------------------------------
//
// pgEdge Lottery Warehouse
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/pgEdge/pgedge-lottery-warehouse/internal/model"
)

// MemStore is an in-memory warehouse for unit tests. It enforces the same
// unique and foreign key rules as the real schema, so a loader bug that
// would violate a constraint surfaces as an error here too.
type MemStore struct {
	mu sync.Mutex

	Calendar     map[int]model.Calendar
	Stations     map[string]int64
	Categories   map[string]int64
	Distributors map[string]model.Distributor
	agencyIDs    map[string]int64
	DrawResults  []model.DrawResultFact
	Revenue      []model.RevenueFact

	// FailOn makes the named operation return an error, e.g. "InsertRevenue".
	FailOn string

	// Calls records every operation in order.
	Calls []string

	nextID int64
}

// NewMemStore creates a store seeded with the given station and prize
// category names. Surrogate keys are assigned in argument order.
func NewMemStore(stations, categories []string) *MemStore {
	s := &MemStore{
		Calendar:     make(map[int]model.Calendar),
		Stations:     make(map[string]int64),
		Categories:   make(map[string]int64),
		Distributors: make(map[string]model.Distributor),
		agencyIDs:    make(map[string]int64),
	}
	for _, name := range stations {
		s.nextID++
		s.Stations[name] = s.nextID
	}
	for _, name := range categories {
		s.nextID++
		s.Categories[name] = s.nextID
	}
	return s
}

func (s *MemStore) call(op string) error {
	s.Calls = append(s.Calls, op)
	if s.FailOn == op {
		return fmt.Errorf("memstore: %s failed", op)
	}
	return nil
}

// CalendarKeys implements loader.Store.
func (s *MemStore) CalendarKeys(ctx context.Context) (map[int]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.call("CalendarKeys"); err != nil {
		return nil, err
	}
	keys := make(map[int]struct{}, len(s.Calendar))
	for k := range s.Calendar {
		keys[k] = struct{}{}
	}
	return keys, nil
}

// DistributorNames implements loader.Store.
func (s *MemStore) DistributorNames(ctx context.Context) (map[string]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.call("DistributorNames"); err != nil {
		return nil, err
	}
	names := make(map[string]struct{}, len(s.Distributors))
	for n := range s.Distributors {
		names[n] = struct{}{}
	}
	return names, nil
}

// StationIDs implements loader.Store.
func (s *MemStore) StationIDs(ctx context.Context) (map[string]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.call("StationIDs"); err != nil {
		return nil, err
	}
	return copyIDs(s.Stations), nil
}

// CategoryIDs implements loader.Store.
func (s *MemStore) CategoryIDs(ctx context.Context) (map[string]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.call("CategoryIDs"); err != nil {
		return nil, err
	}
	return copyIDs(s.Categories), nil
}

// DistributorIDs implements loader.Store.
func (s *MemStore) DistributorIDs(ctx context.Context) (map[string]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.call("DistributorIDs"); err != nil {
		return nil, err
	}
	return copyIDs(s.agencyIDs), nil
}

// InsertCalendar implements loader.Store. A duplicate key fails the whole
// batch.
func (s *MemStore) InsertCalendar(ctx context.Context, rows []model.Calendar) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.call("InsertCalendar"); err != nil {
		return 0, err
	}
	seen := make(map[int]struct{}, len(rows))
	for _, r := range rows {
		if _, ok := s.Calendar[r.DateKey]; ok {
			return 0, fmt.Errorf("memstore: duplicate date_id %d", r.DateKey)
		}
		if _, ok := seen[r.DateKey]; ok {
			return 0, fmt.Errorf("memstore: duplicate date_id %d", r.DateKey)
		}
		seen[r.DateKey] = struct{}{}
	}
	for _, r := range rows {
		s.Calendar[r.DateKey] = r
	}
	return int64(len(rows)), nil
}

// InsertDistributors implements loader.Store. A duplicate name fails the
// whole batch.
func (s *MemStore) InsertDistributors(ctx context.Context, rows []model.Distributor) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.call("InsertDistributors"); err != nil {
		return 0, err
	}
	seen := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		_, exists := s.Distributors[r.Name]
		_, dup := seen[r.Name]
		if exists || dup {
			return 0, fmt.Errorf("memstore: duplicate agency_name %q", r.Name)
		}
		seen[r.Name] = struct{}{}
	}
	for _, r := range rows {
		s.nextID++
		s.Distributors[r.Name] = r
		s.agencyIDs[r.Name] = s.nextID
	}
	return int64(len(rows)), nil
}

// InsertDrawResults implements loader.Store.
func (s *MemStore) InsertDrawResults(ctx context.Context, rows []model.DrawResultFact) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.call("InsertDrawResults"); err != nil {
		return 0, err
	}
	for _, r := range rows {
		if _, ok := s.Calendar[r.DateKey]; !ok {
			return 0, fmt.Errorf("memstore: date_id %d violates foreign key", r.DateKey)
		}
		if !hasID(s.Stations, r.StationID) {
			return 0, fmt.Errorf("memstore: station_id %d violates foreign key", r.StationID)
		}
		if !hasID(s.Categories, r.PrizeID) {
			return 0, fmt.Errorf("memstore: prize_id %d violates foreign key", r.PrizeID)
		}
	}
	s.DrawResults = append(s.DrawResults, rows...)
	return int64(len(rows)), nil
}

// InsertRevenue implements loader.Store.
func (s *MemStore) InsertRevenue(ctx context.Context, rows []model.RevenueFact) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.call("InsertRevenue"); err != nil {
		return 0, err
	}
	for _, r := range rows {
		if _, ok := s.Calendar[r.DateKey]; !ok {
			return 0, fmt.Errorf("memstore: date_id %d violates foreign key", r.DateKey)
		}
		if !hasID(s.Stations, r.StationID) {
			return 0, fmt.Errorf("memstore: station_id %d violates foreign key", r.StationID)
		}
		if !hasID(s.agencyIDs, r.AgencyID) {
			return 0, fmt.Errorf("memstore: agency_id %d violates foreign key", r.AgencyID)
		}
	}
	s.Revenue = append(s.Revenue, rows...)
	return int64(len(rows)), nil
}

// AgencyID returns the surrogate key assigned to a distributor name.
func (s *MemStore) AgencyID(name string) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.agencyIDs[name]
	return id, ok
}

func copyIDs(m map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func hasID(m map[string]int64, id int64) bool {
	for _, v := range m {
		if v == id {
			return true
		}
	}
	return false
}
