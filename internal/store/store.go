// Package store holds the dashboard collections and applies mutation commands.
//
// The Store is the single owner of in-memory state. Every successful mutation
// invokes the OnChange hook with the collection key that changed, which is
// where the shell persists. Reads always return copies.
package store

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"tiledash/internal/core"
)

// Collection keys, shared with the persistence layer.
const (
	KeyTiles            = "tiles"
	KeyBudgetCategories = "budgetCategories"
	KeyPaymentMethods   = "creditCards"
	KeyTabs             = "tabs"
	KeyHomePageTabs     = "homePageTabs"
	KeySettings         = "settings"
)

// AllKeys lists every collection key in persistence order.
var AllKeys = []string{KeyTiles, KeyBudgetCategories, KeyPaymentMethods, KeyTabs, KeyHomePageTabs, KeySettings}

var (
	ErrNotFound               = errors.New("not found")
	ErrDuplicatePaymentMethod = errors.New("payment method with this name and type already exists")
	ErrDuplicateCategory      = errors.New("category id already exists")
)

// ChangeFunc is called after a mutation with the key of the changed collection.
type ChangeFunc func(ctx context.Context, key string) error

// Store is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	data     core.Snapshot
	onChange ChangeFunc
	now      func() time.Time
	rnd      *rand.Rand
	lastID   int64
}

// Option configures a Store.
type Option func(*Store)

// WithOnChange sets the persistence hook.
func WithOnChange(fn ChangeFunc) Option {
	return func(s *Store) { s.onChange = fn }
}

// WithClock overrides the clock used for id generation.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates a store seeded with snap.
func New(snap core.Snapshot, opts ...Option) *Store {
	s := &Store{
		data: snap.Clone(),
		now:  time.Now,
		rnd:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.normalize()
	s.assignMissingIDs()
	return s
}

func (s *Store) normalize() {
	if s.data.Tiles == nil {
		s.data.Tiles = []core.Tile{}
	}
	if s.data.BudgetCategories == nil {
		s.data.BudgetCategories = core.DefaultBudgetCategories()
	}
	if s.data.PaymentMethods == nil {
		s.data.PaymentMethods = []core.PaymentMethod{}
	}
	if s.data.Tabs == nil {
		s.data.Tabs = []core.Tab{}
	}
	if s.data.HomePageTabs == nil {
		s.data.HomePageTabs = []core.HomePageTab{}
	}
	if s.data.Settings.StockSymbols == nil {
		s.data.Settings.StockSymbols = []string{}
	}
}

// assignMissingIDs raises lastID past every stored id, then gives tiles
// without a usable id (legacy records) a fresh one.
func (s *Store) assignMissingIDs() {
	for _, t := range s.data.Tiles {
		if t.ID > s.lastID {
			s.lastID = t.ID
		}
	}
	for i := range s.data.Tiles {
		if s.data.Tiles[i].ID <= 0 {
			s.data.Tiles[i].ID = s.nextID()
		}
	}
}

// SetOnChange replaces the persistence hook.
func (s *Store) SetOnChange(fn ChangeFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// changed runs the hook for each key. Called without the lock held.
func (s *Store) changed(ctx context.Context, keys ...string) error {
	s.mu.RLock()
	fn := s.onChange
	s.mu.RUnlock()
	if fn == nil {
		return nil
	}
	var errs []error
	for _, k := range keys {
		if err := fn(ctx, k); err != nil {
			errs = append(errs, fmt.Errorf("persist %s: %w", k, err))
		}
	}
	return errors.Join(errs...)
}

// Snapshot returns a deep copy of every collection.
func (s *Store) Snapshot() core.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Clone()
}

// Replace overwrites every collection, as a full backup import does.
func (s *Store) Replace(ctx context.Context, snap core.Snapshot) error {
	s.mu.Lock()
	s.data = snap.Clone()
	s.normalize()
	s.assignMissingIDs()
	s.mu.Unlock()
	return s.changed(ctx, AllKeys...)
}

// Settings returns a copy of the auxiliary settings.
func (s *Store) Settings() core.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Settings.Clone()
}

// UpdateSettings replaces the auxiliary settings.
func (s *Store) UpdateSettings(ctx context.Context, settings core.Settings) error {
	if settings.DueSoonDays < 0 {
		return fmt.Errorf("due soon days must not be negative")
	}
	settings = settings.Clone()
	for i, sym := range settings.StockSymbols {
		settings.StockSymbols[i] = strings.ToUpper(strings.TrimSpace(sym))
	}
	s.mu.Lock()
	s.data.Settings = settings
	s.normalize()
	s.mu.Unlock()
	return s.changed(ctx, KeySettings)
}

// StockSymbols returns the configured ticker symbols.
func (s *Store) StockSymbols() []string {
	return s.Settings().StockSymbols
}
