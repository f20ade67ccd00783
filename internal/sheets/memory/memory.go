package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	ports "tiledash/internal/sheets"
)

// Store keeps written grids in memory, keyed by sheet name.
type Store struct {
	mu     sync.Mutex
	grids  map[string]ports.Grid
	writes int
}

var _ ports.GridWriter = (*Store)(nil)

func New() *Store {
	return &Store{grids: map[string]ports.Grid{}}
}

// WriteGrid stores a copy of grid and returns a synthetic reference.
func (s *Store) WriteGrid(_ context.Context, name string, grid ports.Grid) (string, error) {
	if len(grid) == 0 {
		return "", ports.ErrEmptyGrid
	}
	name = ports.SafeName(name)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grids[name] = copyGrid(grid)
	s.writes++
	return fmt.Sprintf("mem:%s#%d", name, s.writes), nil
}

// Grid returns the last grid written under name.
func (s *Store) Grid(name string) (ports.Grid, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.grids[ports.SafeName(name)]
	if !ok {
		return nil, false
	}
	return copyGrid(g), true
}

// Names lists the written sheet names in order.
func (s *Store) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.grids))
	for k := range s.grids {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func copyGrid(g ports.Grid) ports.Grid {
	out := make(ports.Grid, len(g))
	for i, row := range g {
		out[i] = append([]string(nil), row...)
	}
	return out
}
