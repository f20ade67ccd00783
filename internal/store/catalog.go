package store

import (
	"context"
	"fmt"
	"strings"

	"tiledash/internal/core"
)

// Categories returns a copy of the budget categories.
func (s *Store) Categories() []core.BudgetCategory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Clone().BudgetCategories
}

func (s *Store) categoryIndex(id string) int {
	for i, c := range s.data.BudgetCategories {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// CategoryLabels maps category ids to display names. Unknown keys pass through.
func (s *Store) CategoryLabels() func(string) string {
	s.mu.RLock()
	names := make(map[string]string, len(s.data.BudgetCategories))
	for _, c := range s.data.BudgetCategories {
		names[c.ID] = c.Name
	}
	s.mu.RUnlock()
	return func(key string) string {
		if n, ok := names[key]; ok {
			return n
		}
		return key
	}
}

// AddCategory appends a category. An empty id is derived from the name.
func (s *Store) AddCategory(ctx context.Context, c core.BudgetCategory) (core.BudgetCategory, error) {
	if c.ID == "" {
		c.ID = slug(c.Name)
	}
	if err := c.Validate(); err != nil {
		return core.BudgetCategory{}, err
	}
	c.Subcategories = append([]string{}, c.Subcategories...)
	s.mu.Lock()
	if s.categoryIndex(c.ID) >= 0 {
		s.mu.Unlock()
		return core.BudgetCategory{}, fmt.Errorf("category %q: %w", c.ID, ErrDuplicateCategory)
	}
	s.data.BudgetCategories = append(s.data.BudgetCategories, c)
	s.mu.Unlock()
	return c, s.changed(ctx, KeyBudgetCategories)
}

// UpdateCategory replaces the name, icon and subcategories of a category.
// Tiles pointing at a subcategory that no longer exists lose that reference.
func (s *Store) UpdateCategory(ctx context.Context, c core.BudgetCategory) (core.BudgetCategory, error) {
	if err := c.Validate(); err != nil {
		return core.BudgetCategory{}, err
	}
	c.Subcategories = append([]string{}, c.Subcategories...)
	s.mu.Lock()
	i := s.categoryIndex(c.ID)
	if i < 0 {
		s.mu.Unlock()
		return core.BudgetCategory{}, fmt.Errorf("category %q: %w", c.ID, ErrNotFound)
	}
	s.data.BudgetCategories[i] = c
	tilesChanged := false
	for j := range s.data.Tiles {
		t := &s.data.Tiles[j]
		if t.BudgetCategory != nil && *t.BudgetCategory == c.ID &&
			t.BudgetSubcategory != nil && !c.HasSubcategory(*t.BudgetSubcategory) {
			t.BudgetSubcategory = nil
			tilesChanged = true
		}
	}
	s.mu.Unlock()
	keys := []string{KeyBudgetCategories}
	if tilesChanged {
		keys = append(keys, KeyTiles)
	}
	return c, s.changed(ctx, keys...)
}

// DeleteCategory removes a category and nulls the references on its tiles.
// Tiles are never deleted.
func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	s.mu.Lock()
	i := s.categoryIndex(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("category %q: %w", id, ErrNotFound)
	}
	s.data.BudgetCategories = append(s.data.BudgetCategories[:i], s.data.BudgetCategories[i+1:]...)
	tilesChanged := s.clearCategoryRefs(func(c string) bool { return c == id })
	s.mu.Unlock()
	keys := []string{KeyBudgetCategories}
	if tilesChanged {
		keys = append(keys, KeyTiles)
	}
	return s.changed(ctx, keys...)
}

// ResetCategories restores the default catalog. Tiles referencing a category
// that is not in the catalog lose the reference.
func (s *Store) ResetCategories(ctx context.Context) error {
	defaults := core.DefaultBudgetCategories()
	known := make(map[string]bool, len(defaults))
	for _, c := range defaults {
		known[c.ID] = true
	}
	s.mu.Lock()
	s.data.BudgetCategories = defaults
	s.clearCategoryRefs(func(c string) bool { return !known[c] })
	s.mu.Unlock()
	return s.changed(ctx, KeyBudgetCategories, KeyTiles)
}

// clearCategoryRefs nulls budget category references matching drop.
// Caller holds the write lock.
func (s *Store) clearCategoryRefs(drop func(string) bool) bool {
	changed := false
	for j := range s.data.Tiles {
		t := &s.data.Tiles[j]
		if t.BudgetCategory != nil && drop(*t.BudgetCategory) {
			t.BudgetCategory = nil
			t.BudgetSubcategory = nil
			changed = true
		}
	}
	return changed
}

func slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
