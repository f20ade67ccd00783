package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"time"

	"tiledash/internal/amqp"
	"tiledash/internal/backend"
	"tiledash/internal/cache"
	"tiledash/internal/cli"
	"tiledash/internal/config"
	"tiledash/internal/log"
	"tiledash/internal/services"
	"tiledash/internal/worker"
)

func main() {
	mode := flag.String("mode", "scan", "scan: publish due-soon reminders; consume: write queued reminders to the export backend")
	once := flag.Bool("once", false, "scan a single time and exit")
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger().WithComponent(log.ComponentReminder)
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting reminder-worker", "mode", *mode)

	var err error
	switch *mode {
	case "scan":
		err = runScan(logger, cfg, *once)
	case "consume":
		err = runConsume(logger, cfg)
	default:
		logger.Error("Unknown mode", "mode", *mode)
		os.Exit(2)
	}
	if err != nil {
		logger.Error("Reminder worker failed", log.FieldError, err.Error())
		os.Exit(1)
	}
}

// newReminderWorker builds the sheet writer side from the export config.
func newReminderWorker(ctx context.Context, logger *log.Logger, cfg *config.Config) (*worker.ReminderWorker, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	writer, err := backend.NewFactory(logger).CreateExporter(ctx, bcfg)
	if err != nil {
		return nil, err
	}
	return worker.NewReminderWorker(writer, worker.DefaultReminderWorkerConfig()), nil
}

// runScan periodically scans the store for due-soon payments. Reminders go
// to AMQP when it is configured and straight to the reminders sheet otherwise.
func runScan(logger *log.Logger, cfg *config.Config, once bool) error {
	ctx := context.Background()
	store, closeStore, err := cli.OpenStore(ctx, logger, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	var publisher services.ReminderPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			return err
		}
		defer client.Close()
		publisher = client
		logger.Info("AMQP client initialized - reminders will be queued",
			"exchange", cfg.AMQPExchange,
			"queue", cfg.AMQPQueue)
	} else {
		w, err := newReminderWorker(ctx, logger, cfg)
		if err != nil {
			return err
		}
		publisher = w
		logger.Info("AMQP disabled - reminders are written directly", "export", cfg.ExportBackend)
	}

	processor := services.NewReminderProcessor(store, publisher, services.ReminderProcessorConfig{
		Interval:      cfg.ReminderInterval,
		ThresholdDays: cfg.DueSoonDays,
	})

	if once {
		count, err := processor.Process(ctx, time.Now())
		logger.Info("Reminder scan complete", "reminders_sent", count)
		return err
	}

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := processor.Stop(stopCtx); err != nil {
			logger.Error("Failed to stop reminder processor", log.FieldError, err.Error())
		}
	})
	if err := processor.Start(shutdownCtx); err != nil {
		return err
	}
	logger.Info("Reminder processor configured",
		"interval", cfg.ReminderInterval,
		"due_soon_days", cfg.DueSoonDays)

	cli.WaitForShutdown(shutdownCtx, done)
	return nil
}

// runConsume drains the reminder queue into the reminders sheet.
func runConsume(logger *log.Logger, cfg *config.Config) error {
	if cfg.AMQPURL == "" {
		return errors.New("consume mode requires AMQP_URL")
	}
	ctx := context.Background()
	w, err := newReminderWorker(ctx, logger, cfg)
	if err != nil {
		return err
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return err
	}
	defer client.Close()

	caches := cache.NewManager(logger)
	caches.Register(w.Cache())
	caches.StartCleanup(time.Hour)
	defer caches.Stop()

	consumeCtx, cancel := context.WithCancel(ctx)
	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, cancel)

	err = client.ConsumeReminders(consumeCtx, w.Handler(consumeCtx))
	received, skipped := w.Stats()
	logger.Info("Reminder consumer stopped", "received", received, "skipped", skipped)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	cli.WaitForShutdown(shutdownCtx, done)
	return nil
}
