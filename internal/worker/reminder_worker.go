package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"time"

	"tiledash/internal/amqp"
	"tiledash/internal/cache"
	"tiledash/internal/sheets"
)

// RemindersSheet is the sheet the worker keeps up to date.
const RemindersSheet = "reminders"

// ReminderWorkerConfig tunes the reminder worker.
type ReminderWorkerConfig struct {
	// MaxReminders bounds how many reminders are kept (default: 500)
	MaxReminders int

	// Retention is how long a reminder stays on the sheet (default: 7 days)
	Retention time.Duration
}

// DefaultReminderWorkerConfig returns sensible defaults
func DefaultReminderWorkerConfig() ReminderWorkerConfig {
	return ReminderWorkerConfig{
		MaxReminders: 500,
		Retention:    7 * 24 * time.Hour,
	}
}

// ReminderWorker collects payment reminders and mirrors the live ones into
// a "reminders" sheet. A reminder for the same tile and due date is only
// recorded once.
type ReminderWorker struct {
	writer    sheets.GridWriter
	reminders *cache.LRUCache[amqp.PaymentReminderMessage]
	now       func() time.Time

	mu       sync.Mutex
	received int
	skipped  int
}

// NewReminderWorker creates a worker writing through writer.
func NewReminderWorker(writer sheets.GridWriter, config ReminderWorkerConfig) *ReminderWorker {
	def := DefaultReminderWorkerConfig()
	if config.MaxReminders <= 0 {
		config.MaxReminders = def.MaxReminders
	}
	if config.Retention <= 0 {
		config.Retention = def.Retention
	}
	return &ReminderWorker{
		writer:    writer,
		reminders: cache.NewLRUCache[amqp.PaymentReminderMessage](config.MaxReminders, config.Retention),
		now:       time.Now,
	}
}

// WithClock replaces the worker's time source.
func (w *ReminderWorker) WithClock(now func() time.Time) *ReminderWorker {
	w.now = now
	w.reminders.WithClock(now)
	return w
}

// Cache exposes the reminder cache so it can join a cache.Manager sweep.
func (w *ReminderWorker) Cache() *cache.LRUCache[amqp.PaymentReminderMessage] {
	return w.reminders
}

// HandleReminder records msg and rewrites the reminders sheet. Duplicates
// are acknowledged without touching the sheet.
func (w *ReminderWorker) HandleReminder(ctx context.Context, msg *amqp.PaymentReminderMessage) error {
	if msg == nil {
		return nil
	}
	key := msg.Key()
	if _, seen := w.reminders.Get(key); seen {
		w.mu.Lock()
		w.skipped++
		w.mu.Unlock()
		slog.DebugContext(ctx, "Duplicate reminder skipped", "key", key)
		return nil
	}

	w.reminders.Set(key, *msg)
	w.mu.Lock()
	w.received++
	w.mu.Unlock()

	slog.InfoContext(ctx, "Processing reminder message",
		"tile_id", msg.TileID,
		"name", msg.Name,
		"due_date", msg.DueDate.String(),
		"days_until", msg.DaysUntil)

	if _, err := w.Flush(ctx); err != nil {
		return fmt.Errorf("flush reminders: %w", err)
	}
	return nil
}

// PublishReminder lets the worker stand in for the AMQP client when the
// scanner and the writer share a process.
func (w *ReminderWorker) PublishReminder(ctx context.Context, msg *amqp.PaymentReminderMessage) error {
	return w.HandleReminder(ctx, msg)
}

// Handler adapts HandleReminder to amqp.Client.ConsumeReminders.
func (w *ReminderWorker) Handler(ctx context.Context) func(*amqp.PaymentReminderMessage) error {
	return func(msg *amqp.PaymentReminderMessage) error {
		return w.HandleReminder(ctx, msg)
	}
}

// Grid renders the live reminders ordered by due date, then name.
func (w *ReminderWorker) Grid() sheets.Grid {
	keys := w.reminders.Keys()
	msgs := make([]amqp.PaymentReminderMessage, 0, len(keys))
	for _, k := range keys {
		if m, ok := w.reminders.Get(k); ok {
			msgs = append(msgs, m)
		}
	}
	sort.Slice(msgs, func(i, j int) bool {
		a, b := msgs[i], msgs[j]
		if !a.DueDate.Time.Equal(b.DueDate.Time) {
			return a.DueDate.Time.Before(b.DueDate.Time)
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.TileID < b.TileID
	})

	grid := sheets.Grid{{"Name", "Due Date", "Days Until", "Amount", "Frequency", "Received"}}
	for _, m := range msgs {
		grid = append(grid, []string{
			m.Name,
			m.DueDate.String(),
			strconv.Itoa(m.DaysUntil),
			m.Amount.String(),
			m.Frequency,
			m.Timestamp.UTC().Format(time.RFC3339),
		})
	}
	return grid
}

// Flush writes the current reminders sheet and returns the writer's reference.
func (w *ReminderWorker) Flush(ctx context.Context) (string, error) {
	if w.writer == nil {
		return "", nil
	}
	grid := w.Grid()
	ref, err := w.writer.WriteGrid(ctx, RemindersSheet, grid)
	if err != nil {
		return "", err
	}
	slog.InfoContext(ctx, "Reminders sheet updated",
		"ref", ref,
		"rows", len(grid)-1)
	return ref, nil
}

// Stats reports how many reminders were recorded and how many were duplicates.
func (w *ReminderWorker) Stats() (received, skipped int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.received, w.skipped
}
