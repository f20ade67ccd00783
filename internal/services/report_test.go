package services

import (
	"errors"
	"testing"

	"tiledash/internal/core"
)

func TestBuildReport(t *testing.T) {
	now := day(2024, 5, 10)
	tiles := []core.Tile{
		paid(1, core.NewDate(2024, 1, 20), core.Monthly, 1500),
		{ID: 2, Name: "Gym", BudgetCategory: strp("health"), PaymentAmount: money(4000), PaymentFrequency: core.Monthly},
	}

	tests := []struct {
		name     string
		req      ReportRequest
		wantRows int
		header   string
	}{
		{"upcoming current month", ReportRequest{Name: ReportUpcoming}, 3, "Name"},
		{"upcoming negative offset", ReportRequest{Name: ReportUpcoming, Offset: -1}, 2, "Name"},
		{"spend default grouping", ReportRequest{Name: ReportSpend}, 4, "Group"},
		{"reconcile defaults to current month", ReportRequest{Name: ReportReconcile}, 4, "Name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grid, err := BuildReport(tiles, nil, tt.req, now)
			if err != nil {
				t.Fatalf("BuildReport() error = %v", err)
			}
			if len(grid) != tt.wantRows {
				t.Errorf("BuildReport() rows = %d, want %d: %v", len(grid), tt.wantRows, grid)
			}
			if grid[0][0] != tt.header {
				t.Errorf("BuildReport() header = %v", grid[0])
			}
		})
	}
}

func TestBuildReport_Unknown(t *testing.T) {
	_, err := BuildReport(nil, nil, ReportRequest{Name: "ledger"}, day(2024, 5, 10))
	if !errors.Is(err, ErrUnknownReport) {
		t.Errorf("BuildReport(ledger) error = %v, want ErrUnknownReport", err)
	}
}
