package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"tiledash/internal/amqp"
	"tiledash/internal/core"
)

// TileSource supplies the current tile collection.
type TileSource interface {
	Tiles() []core.Tile
}

// ReminderPublisher delivers payment reminders.
type ReminderPublisher interface {
	PublishReminder(ctx context.Context, msg *amqp.PaymentReminderMessage) error
}

// ReminderProcessorConfig holds configuration for the reminder processor
type ReminderProcessorConfig struct {
	// Interval is how often tiles are scanned (default: 1h)
	Interval time.Duration

	// ThresholdDays is the due-soon window (default: 5)
	ThresholdDays int
}

// DefaultReminderProcessorConfig returns sensible defaults
func DefaultReminderProcessorConfig() ReminderProcessorConfig {
	return ReminderProcessorConfig{
		Interval:      time.Hour,
		ThresholdDays: DefaultDueSoonDays,
	}
}

// ReminderProcessor scans tiles for due-soon payments and publishes one
// reminder per payment occurrence for the lifetime of the process.
type ReminderProcessor struct {
	tiles     TileSource
	publisher ReminderPublisher
	config    ReminderProcessorConfig
	now       func() time.Time

	sentMu sync.Mutex
	sent   map[string]struct{}

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewReminderProcessor creates a new reminder processor
func NewReminderProcessor(tiles TileSource, publisher ReminderPublisher, config ReminderProcessorConfig) *ReminderProcessor {
	return &ReminderProcessor{
		tiles:     tiles,
		publisher: publisher,
		config:    config,
		now:       time.Now,
		sent:      make(map[string]struct{}),
	}
}

// Process publishes reminders for payments due soon as of now and returns how
// many were sent. Publish failures are logged and retried on the next scan.
func (p *ReminderProcessor) Process(ctx context.Context, now time.Time) (int, error) {
	if p.tiles == nil || p.publisher == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	due := DueSoon(p.tiles.Tiles(), p.config.ThresholdDays, now)
	sent := 0
	for _, payment := range due {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		msg := amqp.NewPaymentReminderMessage(
			payment.Tile.ID,
			payment.Tile.Name,
			payment.NextPaymentDate,
			payment.DaysUntil,
			payment.Amount(),
			payment.Tile.PaymentFrequency,
		)
		if p.alreadySent(msg.Key()) {
			continue
		}
		if err := p.publisher.PublishReminder(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "Failed to publish payment reminder",
				"tile_id", payment.Tile.ID,
				"due_date", payment.NextPaymentDate.String(),
				"error", err)
			continue
		}
		p.markSent(msg.Key())
		sent++
	}

	slog.InfoContext(ctx, "Reminder scan complete",
		"due_soon", len(due),
		"sent", sent,
		"threshold_days", p.config.ThresholdDays)

	return sent, nil
}

func (p *ReminderProcessor) alreadySent(key string) bool {
	p.sentMu.Lock()
	defer p.sentMu.Unlock()
	_, ok := p.sent[key]
	return ok
}

func (p *ReminderProcessor) markSent(key string) {
	p.sentMu.Lock()
	defer p.sentMu.Unlock()
	p.sent[key] = struct{}{}
}

// Start begins the scan loop. Returns an error if already running.
func (p *ReminderProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("reminder processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	slog.InfoContext(ctx, "Reminder processor started",
		"interval", p.config.Interval,
		"threshold_days", p.config.ThresholdDays)

	return nil
}

// Stop gracefully stops the processor and waits for completion.
func (p *ReminderProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	close(p.stopCh)

	select {
	case <-p.doneCh:
		slog.InfoContext(ctx, "Reminder processor stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Reminder processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()

	return nil
}

// IsRunning returns whether the processor is currently running
func (p *ReminderProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *ReminderProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	p.scan(ctx)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.scan(ctx)
		}
	}
}

func (p *ReminderProcessor) scan(ctx context.Context) {
	if _, err := p.Process(ctx, p.now()); err != nil {
		slog.ErrorContext(ctx, "Reminder scan failed", "error", err)
	}
}
