package services

import (
	"tiledash/internal/core"
)

// ReconcileLine is one tile's budget vs actual for a month.
type ReconcileLine struct {
	TileID     int64           `json:"tileId"`
	Name       string          `json:"name"`
	BudgetType core.BudgetType `json:"budgetType"`
	Budgeted   core.Money      `json:"budgeted"`
	Actual     core.Money      `json:"actual"`
	Difference core.Money      `json:"difference"`
	PaidDate   core.Date       `json:"paidDate"`
	Notes      string          `json:"notes,omitempty"`
}

// ReconcileTotals sums budgeted, actual and difference.
type ReconcileTotals struct {
	Budgeted   core.Money `json:"budgeted"`
	Actual     core.Money `json:"actual"`
	Difference core.Money `json:"difference"`
}

func (t *ReconcileTotals) add(l ReconcileLine) {
	t.Budgeted = t.Budgeted.Add(l.Budgeted)
	t.Actual = t.Actual.Add(l.Actual)
	t.Difference = t.Difference.Add(l.Difference)
}

// Reconciliation is the budget vs actual report of one month.
type Reconciliation struct {
	Month  core.MonthKey                       `json:"month"`
	Lines  []ReconcileLine                     `json:"lines"`
	ByType map[core.BudgetType]ReconcileTotals `json:"byType"`
	Total  ReconcileTotals                     `json:"total"`
}

// CurrentMonthlyBudget is the budget a tile is reconciled against: the monthly
// equivalent of its current amount and cadence, rounded to cents. Past months
// use today's configuration, not the Budget stored in their history entry.
func CurrentMonthlyBudget(t core.Tile) (core.Money, bool) {
	amount, ok := core.ResolveAmount(t)
	if !ok {
		return core.Money{}, false
	}
	cadence, ok := core.ResolveCadence(t)
	if !ok {
		return core.Money{}, false
	}
	return core.MoneyFromDecimal(core.MonthlyEquivalent(amount, cadence)), true
}

// Reconcile compares budgeted against recorded actuals for month. It only
// reads history; a missing entry counts as zero actual.
func Reconcile(tiles []core.Tile, month core.MonthKey) Reconciliation {
	r := Reconciliation{
		Month:  month,
		Lines:  []ReconcileLine{},
		ByType: map[core.BudgetType]ReconcileTotals{},
	}
	for _, t := range tiles {
		if !core.Tracked(t) {
			continue
		}
		budgeted, hasBudget := CurrentMonthlyBudget(t)
		entry, hasEntry := t.BudgetHistory[month]
		if !hasBudget && !hasEntry {
			continue
		}
		line := ReconcileLine{
			TileID:     t.ID,
			Name:       t.Name,
			BudgetType: t.BudgetType,
			Budgeted:   budgeted,
			Actual:     entry.Actual,
			Difference: budgeted.Sub(entry.Actual),
			PaidDate:   entry.PaidDate,
			Notes:      entry.Notes,
		}
		r.Lines = append(r.Lines, line)
		sub := r.ByType[t.BudgetType]
		sub.add(line)
		r.ByType[t.BudgetType] = sub
		r.Total.add(line)
	}
	return r
}

// Grid renders the reconciliation as an export grid.
func (r Reconciliation) Grid() [][]string {
	grid := [][]string{{"Name", "Budget Type", "Budgeted", "Actual", "Difference", "Paid Date", "Notes"}}
	for _, l := range r.Lines {
		grid = append(grid, []string{
			l.Name, string(l.BudgetType), l.Budgeted.String(), l.Actual.String(),
			l.Difference.String(), l.PaidDate.String(), l.Notes,
		})
	}
	return append(grid, []string{"Total", "", r.Total.Budgeted.String(), r.Total.Actual.String(), r.Total.Difference.String(), "", ""})
}
