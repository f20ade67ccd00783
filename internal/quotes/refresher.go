package quotes

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"tiledash/internal/cache"
	"tiledash/internal/log"
)

// StatusLoading marks a symbol that has no cached quote yet.
const StatusLoading = "loading"

// SymbolSource supplies the symbols to refresh.
type SymbolSource interface {
	StockSymbols() []string
}

// RefresherConfig holds configuration for the refresher
type RefresherConfig struct {
	// Interval between refreshes (default: 60s)
	Interval time.Duration

	// TTL of a cached quote (default: 10m)
	TTL time.Duration

	// Concurrency caps in-flight lookups per refresh (default: 4)
	Concurrency int

	// MaxSymbols bounds the cache (default: 256)
	MaxSymbols int
}

// DefaultRefresherConfig returns sensible defaults
func DefaultRefresherConfig() RefresherConfig {
	return RefresherConfig{
		Interval:    60 * time.Second,
		TTL:         10 * time.Minute,
		Concurrency: 4,
		MaxSymbols:  256,
	}
}

// View is a quote as displayed: either a price or the loading status.
type View struct {
	Symbol string `json:"symbol"`
	Status string `json:"status"`
	*Quote
}

// Refresher keeps a cache of quotes for the configured symbols current.
// Each symbol is fetched independently; a failure leaves its previous
// entry in place and is retried on the next tick only.
type Refresher struct {
	provider Provider
	symbols  SymbolSource
	config   RefresherConfig
	cache    *cache.LRUCache[Quote]
	logger   *log.Logger

	refreshes atomic.Int64

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	doneCh  chan struct{}
}

// NewRefresher creates a refresher. Zero config values take the defaults.
func NewRefresher(provider Provider, symbols SymbolSource, config RefresherConfig, logger *log.Logger) *Refresher {
	def := DefaultRefresherConfig()
	if config.Interval <= 0 {
		config.Interval = def.Interval
	}
	if config.TTL <= 0 {
		config.TTL = def.TTL
	}
	if config.Concurrency <= 0 {
		config.Concurrency = def.Concurrency
	}
	if config.MaxSymbols <= 0 {
		config.MaxSymbols = def.MaxSymbols
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Refresher{
		provider: provider,
		symbols:  symbols,
		config:   config,
		cache:    cache.NewLRUCache[Quote](config.MaxSymbols, config.TTL),
		logger:   logger.WithComponent(log.ComponentQuotes),
	}
}

// Cache exposes the quote cache for registration with a cache.Manager.
func (r *Refresher) Cache() *cache.LRUCache[Quote] {
	return r.cache
}

// Refresh fetches every symbol once and returns how many succeeded and
// failed. It never returns early on a per-symbol failure.
func (r *Refresher) Refresh(ctx context.Context) (ok, failed int) {
	symbols := normalizeSymbols(r.symbols.StockSymbols())
	if len(symbols) == 0 {
		return 0, 0
	}

	var okCount, failCount atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.config.Concurrency)
	for _, sym := range symbols {
		g.Go(func() error {
			q, err := r.provider.Quote(gctx, sym)
			if err != nil {
				failCount.Add(1)
				r.logger.WarnContext(ctx, "Quote lookup failed",
					log.FieldSymbol, sym,
					"provider", r.provider.Name(),
					log.FieldError, err.Error())
				return nil
			}
			r.cache.Set(sym, q)
			okCount.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	r.refreshes.Add(1)
	r.logger.DebugContext(ctx, "Quotes refreshed",
		log.FieldOperation, log.OpRefresh,
		"ok", okCount.Load(),
		"failed", failCount.Load())
	return int(okCount.Load()), int(failCount.Load())
}

// Refreshes reports how many refresh cycles have completed.
func (r *Refresher) Refreshes() int64 {
	return r.refreshes.Load()
}

// Lookup returns the cached quote for symbol.
func (r *Refresher) Lookup(symbol string) (Quote, bool) {
	return r.cache.Get(strings.ToUpper(strings.TrimSpace(symbol)))
}

// Views returns the display state of every configured symbol in order.
func (r *Refresher) Views() []View {
	symbols := normalizeSymbols(r.symbols.StockSymbols())
	out := make([]View, 0, len(symbols))
	for _, sym := range symbols {
		v := View{Symbol: sym, Status: StatusLoading}
		if q, ok := r.cache.Get(sym); ok {
			v.Status = "ok"
			v.Quote = &q
		}
		out = append(out, v)
	}
	return out
}

// Start refreshes once and then every interval until Stop or ctx ends.
func (r *Refresher) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return fmt.Errorf("quote refresher is already running")
	}
	loopCtx, cancel := context.WithCancel(ctx)
	r.running = true
	r.cancel = cancel
	r.doneCh = make(chan struct{})
	go r.runLoop(loopCtx, r.doneCh)

	r.logger.InfoContext(ctx, "Quote refresher started",
		"interval", r.config.Interval,
		"provider", r.provider.Name())
	return nil
}

// Stop cancels the loop, including any in-flight lookups, and waits for it.
func (r *Refresher) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	cancel, done := r.cancel, r.doneCh
	r.mu.Unlock()

	cancel()
	<-done
}

// IsRunning returns whether the refresh loop is active
func (r *Refresher) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *Refresher) runLoop(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	r.Refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Refresh(ctx)
		}
	}
}

func normalizeSymbols(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
