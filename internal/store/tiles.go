package store

import (
	"context"
	"fmt"

	"tiledash/internal/core"
	"tiledash/internal/services"
)

// Tiles returns a copy of the tile collection in display order.
func (s *Store) Tiles() []core.Tile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Tile, len(s.data.Tiles))
	for i, t := range s.data.Tiles {
		out[i] = t.Clone()
	}
	return out
}

// Tile returns a copy of one tile.
func (s *Store) Tile(id int64) (core.Tile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.tileIndex(id)
	if i < 0 {
		return core.Tile{}, fmt.Errorf("tile %d: %w", id, ErrNotFound)
	}
	return s.data.Tiles[i].Clone(), nil
}

func (s *Store) tileIndex(id int64) int {
	for i, t := range s.data.Tiles {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// nextID derives an id from the creation time in milliseconds plus a random
// tiebreak, bumped so ids strictly increase and are never reused.
func (s *Store) nextID() int64 {
	id := s.now().UnixMilli()*1000 + s.rnd.Int63n(1000)
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

// AddTile assigns an id to t, appends it and returns the stored tile.
func (s *Store) AddTile(ctx context.Context, t core.Tile) (core.Tile, error) {
	if err := t.Validate(); err != nil {
		return core.Tile{}, err
	}
	s.mu.Lock()
	t = t.Clone()
	t.ID = s.nextID()
	s.data.Tiles = append(s.data.Tiles, t)
	s.mu.Unlock()
	return t.Clone(), s.changed(ctx, KeyTiles)
}

// UpdateTile replaces the tile with t.ID. The id itself never changes.
func (s *Store) UpdateTile(ctx context.Context, t core.Tile) (core.Tile, error) {
	if err := t.Validate(); err != nil {
		return core.Tile{}, err
	}
	s.mu.Lock()
	i := s.tileIndex(t.ID)
	if i < 0 {
		s.mu.Unlock()
		return core.Tile{}, fmt.Errorf("tile %d: %w", t.ID, ErrNotFound)
	}
	s.data.Tiles[i] = t.Clone()
	s.mu.Unlock()
	return t.Clone(), s.changed(ctx, KeyTiles)
}

// DeleteTile removes the tile entirely.
func (s *Store) DeleteTile(ctx context.Context, id int64) error {
	s.mu.Lock()
	i := s.tileIndex(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("tile %d: %w", id, ErrNotFound)
	}
	s.data.Tiles = append(s.data.Tiles[:i], s.data.Tiles[i+1:]...)
	s.mu.Unlock()
	return s.changed(ctx, KeyTiles)
}

// MoveTile re-categorizes a tile. An empty categoryID clears both category
// and subcategory; an empty subcategory clears only the subcategory.
func (s *Store) MoveTile(ctx context.Context, id int64, categoryID, subcategory string) (core.Tile, error) {
	s.mu.Lock()
	i := s.tileIndex(id)
	if i < 0 {
		s.mu.Unlock()
		return core.Tile{}, fmt.Errorf("tile %d: %w", id, ErrNotFound)
	}
	t := &s.data.Tiles[i]
	switch {
	case categoryID == "":
		t.BudgetCategory = nil
		t.BudgetSubcategory = nil
	case s.categoryIndex(categoryID) < 0:
		s.mu.Unlock()
		return core.Tile{}, fmt.Errorf("category %q: %w", categoryID, ErrNotFound)
	default:
		cat := categoryID
		t.BudgetCategory = &cat
		t.BudgetSubcategory = nil
		if subcategory != "" {
			sub := subcategory
			t.BudgetSubcategory = &sub
		}
	}
	out := t.Clone()
	s.mu.Unlock()
	return out, s.changed(ctx, KeyTiles)
}

// RecordActual writes the actual spend of a tile for month. The entry's
// Budget is the tile's current monthly budget at the time of writing.
func (s *Store) RecordActual(ctx context.Context, id int64, month core.MonthKey, actual core.Money, paid core.Date, notes string) (core.Tile, error) {
	if _, err := core.ParseMonthKey(string(month)); err != nil {
		return core.Tile{}, err
	}
	s.mu.Lock()
	i := s.tileIndex(id)
	if i < 0 {
		s.mu.Unlock()
		return core.Tile{}, fmt.Errorf("tile %d: %w", id, ErrNotFound)
	}
	t := &s.data.Tiles[i]
	budget, _ := services.CurrentMonthlyBudget(*t)
	if t.BudgetHistory == nil {
		t.BudgetHistory = map[core.MonthKey]core.BudgetHistoryEntry{}
	}
	t.BudgetHistory[month] = core.BudgetHistoryEntry{
		Budget:   budget,
		Actual:   actual,
		PaidDate: paid,
		Notes:    notes,
	}
	out := t.Clone()
	s.mu.Unlock()
	return out, s.changed(ctx, KeyTiles)
}
