package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"tiledash/internal/backend"
	"tiledash/internal/cli"
	"tiledash/internal/config"
	"tiledash/internal/core"
	"tiledash/internal/log"
	"tiledash/internal/services"
)

type options struct {
	report string
	offset int
	by     string
	month  string
}

func main() {
	var opts options
	flag.StringVar(&opts.report, "report", services.ReportUpcoming, fmt.Sprintf("report to export, one of %v", services.ReportNames))
	flag.IntVar(&opts.offset, "offset", 0, "month offset for the upcoming report (0 = current month)")
	flag.StringVar(&opts.by, "by", string(services.ByCategory), "grouping for the spend report: category, subcategory or paymentMethod")
	flag.StringVar(&opts.month, "month", "", "month for the reconcile report as YYYY-MM (default: current month)")
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger().WithComponent(log.ComponentExport)
	cfg := cli.LoadAndValidateConfig(logger)

	if err := run(context.Background(), logger, cfg, opts); err != nil {
		logger.Error("Export failed", log.FieldError, err.Error(), "report", opts.report)
		os.Exit(1)
	}
}

// run builds one report grid from the stored tiles and hands it to the
// configured export backend.
func run(ctx context.Context, logger *log.Logger, cfg *config.Config, opts options) error {
	by, err := services.ParseGroupBy(opts.by)
	if err != nil {
		return err
	}
	var month core.MonthKey
	if opts.month != "" {
		if month, err = core.ParseMonthKey(opts.month); err != nil {
			return err
		}
	}

	store, closeStore, err := cli.OpenStore(ctx, logger, cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer closeStore()

	grid, err := services.BuildReport(store.Tiles(), store.CategoryLabels(), services.ReportRequest{
		Name:   opts.report,
		Offset: opts.offset,
		By:     by,
		Month:  month,
	}, time.Now())
	if err != nil {
		return err
	}

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	writer, err := backend.NewFactory(logger).CreateExporter(ctx, bcfg)
	if err != nil {
		return err
	}
	ref, err := writer.WriteGrid(ctx, opts.report, grid)
	if err != nil {
		return fmt.Errorf("write %s report: %w", opts.report, err)
	}

	log.NewStructuredLogger(logger).LogExported(ctx, opts.report, ref, len(grid)-1)
	return nil
}
