package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"tiledash/internal/amqp"
	"tiledash/internal/core"
)

type staticTiles []core.Tile

func (s staticTiles) Tiles() []core.Tile { return s }

type recordingPublisher struct {
	mu     sync.Mutex
	msgs   []*amqp.PaymentReminderMessage
	failID int64
}

func (r *recordingPublisher) PublishReminder(_ context.Context, msg *amqp.PaymentReminderMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if msg.TileID == r.failID {
		return errors.New("broker unavailable")
	}
	r.msgs = append(r.msgs, msg)
	return nil
}

func (r *recordingPublisher) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.msgs)
}

func TestReminderProcessor_Process(t *testing.T) {
	tiles := staticTiles{
		paid(1, core.NewDate(2024, 1, 3), core.Monthly, 999),
		paid(2, core.NewDate(2024, 1, 20), core.Monthly, 500),
		paid(3, core.NewDate(2024, 1, 1), core.Monthly, 100),
	}
	pub := &recordingPublisher{failID: 3}
	p := NewReminderProcessor(tiles, pub, DefaultReminderProcessorConfig())

	now := day(2024, 5, 1)
	n, err := p.Process(context.Background(), now)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if n != 1 {
		t.Fatalf("Process() sent = %d, want 1", n)
	}
	msg := pub.msgs[0]
	if msg.TileID != 1 || msg.DueDate.String() != "2024-05-03" || msg.DaysUntil != 2 || msg.Amount.Cents != 999 {
		t.Errorf("reminder = %+v", msg)
	}

	// Same occurrence is not sent twice; the failed one is retried.
	pub.failID = 0
	n, err = p.Process(context.Background(), now)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if n != 1 || pub.msgs[1].TileID != 3 {
		t.Errorf("second Process() sent = %d, msgs = %d", n, pub.count())
	}

	n, _ = p.Process(context.Background(), now)
	if n != 0 {
		t.Errorf("third Process() sent = %d, want 0", n)
	}
}

func TestReminderProcessor_NotInitialized(t *testing.T) {
	p := NewReminderProcessor(nil, nil, DefaultReminderProcessorConfig())
	if _, err := p.Process(context.Background(), time.Now()); err == nil {
		t.Error("expected error for uninitialized processor")
	}
}

func TestDefaultReminderProcessorConfig(t *testing.T) {
	config := DefaultReminderProcessorConfig()
	if config.Interval != time.Hour {
		t.Errorf("expected Interval 1h, got %v", config.Interval)
	}
	if config.ThresholdDays != 5 {
		t.Errorf("expected ThresholdDays 5, got %d", config.ThresholdDays)
	}
}

func TestReminderProcessor_StartStop(t *testing.T) {
	tiles := staticTiles{paid(1, core.NewDate(2024, 1, 3), core.Monthly, 999)}
	pub := &recordingPublisher{}
	config := DefaultReminderProcessorConfig()
	config.Interval = 10 * time.Millisecond
	p := NewReminderProcessor(tiles, pub, config)
	p.now = func() time.Time { return day(2024, 5, 1) }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := p.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := p.Start(ctx); err == nil {
		t.Error("expected error when starting already running processor")
	}
	if !p.IsRunning() {
		t.Error("processor should be running")
	}

	deadline := time.Now().Add(2 * time.Second)
	for pub.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	if err := p.Stop(stopCtx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if p.IsRunning() {
		t.Error("processor should not be running after Stop")
	}
	if pub.count() != 1 {
		t.Errorf("published %d reminders, want 1", pub.count())
	}
}

func TestReminderProcessor_StopNotRunning(t *testing.T) {
	p := NewReminderProcessor(nil, nil, DefaultReminderProcessorConfig())
	if err := p.Stop(context.Background()); err != nil {
		t.Errorf("Stop should not error when not running: %v", err)
	}
}
