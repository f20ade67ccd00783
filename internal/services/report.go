package services

import (
	"errors"
	"fmt"
	"time"

	"tiledash/internal/core"
)

// Report names accepted by BuildReport.
const (
	ReportUpcoming  = "upcoming"
	ReportSpend     = "spend"
	ReportReconcile = "reconcile"
)

// ReportNames lists the exportable reports.
var ReportNames = []string{ReportUpcoming, ReportSpend, ReportReconcile}

var ErrUnknownReport = errors.New("unknown report")

// ReportRequest selects a report and its parameters. Month defaults to the
// month of now.
type ReportRequest struct {
	Name   string
	Offset int
	By     GroupBy
	Month  core.MonthKey
}

// BuildReport renders the requested report as a grid whose first row is the
// header. labels resolves spend group keys to display names.
func BuildReport(tiles []core.Tile, labels func(string) string, req ReportRequest, now time.Time) ([][]string, error) {
	switch req.Name {
	case ReportUpcoming:
		return UpcomingGrid(UpcomingPaymentsInMonth(tiles, req.Offset, now)), nil
	case ReportSpend:
		by := req.By
		if by == "" {
			by = ByCategory
		}
		return AggregateSpend(tiles, by).Grid(labels), nil
	case ReportReconcile:
		month := req.Month
		if month == "" {
			month = core.MonthKeyOf(now)
		}
		return Reconcile(tiles, month).Grid(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownReport, req.Name)
}
