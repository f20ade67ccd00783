package store

import (
	"context"
	"fmt"
	"strings"

	"tiledash/internal/core"
)

// Tabs returns a copy of the navigation tabs.
func (s *Store) Tabs() []core.Tab {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Clone().Tabs
}

// HomePageTabs returns a copy of the home page tabs.
func (s *Store) HomePageTabs() []core.HomePageTab {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.HomePageTab{}, s.data.HomePageTabs...)
}

// SaveTab inserts or replaces a tab. A zero id inserts with a new id.
func (s *Store) SaveTab(ctx context.Context, tab core.Tab) (core.Tab, error) {
	if strings.TrimSpace(tab.Name) == "" {
		return core.Tab{}, core.ErrEmptyName
	}
	s.mu.Lock()
	if tab.ID == 0 {
		tab.ID = s.nextTabID()
		s.data.Tabs = append(s.data.Tabs, tab)
	} else {
		found := false
		for i := range s.data.Tabs {
			if s.data.Tabs[i].ID == tab.ID {
				s.data.Tabs[i] = tab
				found = true
				break
			}
		}
		if !found {
			s.mu.Unlock()
			return core.Tab{}, fmt.Errorf("tab %d: %w", tab.ID, ErrNotFound)
		}
	}
	s.mu.Unlock()
	return tab, s.changed(ctx, KeyTabs)
}

func (s *Store) nextTabID() int64 {
	var maxID int64
	for _, t := range s.data.Tabs {
		if t.ID > maxID {
			maxID = t.ID
		}
	}
	return maxID + 1
}

// DeleteTab removes a tab and nulls tabId on tiles that referenced it.
func (s *Store) DeleteTab(ctx context.Context, id int64) error {
	s.mu.Lock()
	idx := -1
	for i, t := range s.data.Tabs {
		if t.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("tab %d: %w", id, ErrNotFound)
	}
	s.data.Tabs = append(s.data.Tabs[:idx], s.data.Tabs[idx+1:]...)
	tilesChanged := false
	for j := range s.data.Tiles {
		if ref := s.data.Tiles[j].TabID; ref != nil && *ref == id {
			s.data.Tiles[j].TabID = nil
			tilesChanged = true
		}
	}
	s.mu.Unlock()
	keys := []string{KeyTabs}
	if tilesChanged {
		keys = append(keys, KeyTiles)
	}
	return s.changed(ctx, keys...)
}

// SaveHomePageTab inserts or replaces a home page tab.
func (s *Store) SaveHomePageTab(ctx context.Context, tab core.HomePageTab) (core.HomePageTab, error) {
	if strings.TrimSpace(tab.Name) == "" {
		return core.HomePageTab{}, core.ErrEmptyName
	}
	s.mu.Lock()
	if tab.ID == 0 {
		var maxID int64
		for _, t := range s.data.HomePageTabs {
			if t.ID > maxID {
				maxID = t.ID
			}
		}
		tab.ID = maxID + 1
		s.data.HomePageTabs = append(s.data.HomePageTabs, tab)
	} else {
		found := false
		for i := range s.data.HomePageTabs {
			if s.data.HomePageTabs[i].ID == tab.ID {
				s.data.HomePageTabs[i] = tab
				found = true
				break
			}
		}
		if !found {
			s.mu.Unlock()
			return core.HomePageTab{}, fmt.Errorf("home page tab %d: %w", tab.ID, ErrNotFound)
		}
	}
	s.mu.Unlock()
	return tab, s.changed(ctx, KeyHomePageTabs)
}

// DeleteHomePageTab removes a home page tab and nulls homePageTabId on tabs.
func (s *Store) DeleteHomePageTab(ctx context.Context, id int64) error {
	s.mu.Lock()
	idx := -1
	for i, t := range s.data.HomePageTabs {
		if t.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("home page tab %d: %w", id, ErrNotFound)
	}
	s.data.HomePageTabs = append(s.data.HomePageTabs[:idx], s.data.HomePageTabs[idx+1:]...)
	tabsChanged := false
	for j := range s.data.Tabs {
		if ref := s.data.Tabs[j].HomePageTabID; ref != nil && *ref == id {
			s.data.Tabs[j].HomePageTabID = nil
			tabsChanged = true
		}
	}
	s.mu.Unlock()
	keys := []string{KeyHomePageTabs}
	if tabsChanged {
		keys = append(keys, KeyTabs)
	}
	return s.changed(ctx, keys...)
}
