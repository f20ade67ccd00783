package services

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"tiledash/internal/core"
)

// GroupBy selects the spend grouping dimension.
type GroupBy string

const (
	ByCategory      GroupBy = "category"
	BySubcategory   GroupBy = "subcategory"
	ByPaymentMethod GroupBy = "paymentMethod"
)

// ParseGroupBy validates a grouping name. Empty means by category.
func ParseGroupBy(s string) (GroupBy, error) {
	switch GroupBy(s) {
	case "", ByCategory:
		return ByCategory, nil
	case BySubcategory, ByPaymentMethod:
		return GroupBy(s), nil
	}
	return "", fmt.Errorf("unknown grouping %q", s)
}

func (g GroupBy) key(t core.Tile) string {
	switch g {
	case BySubcategory:
		return core.ResolveSubcategory(t)
	case ByPaymentMethod:
		return core.ResolvePaymentMethod(t)
	default:
		return core.ResolveCategory(t)
	}
}

// SpendGroup holds the recurring spend of one group.
//
// MonthlyCadence and AnnualCadence are the raw sums of monthly and annual
// items. Monthly and Annual are the combined monthly and yearly views; with
// mixed cadences Monthly*12 may differ from Annual by a few cents because each
// view is rounded once, from exact sums.
type SpendGroup struct {
	Key            string     `json:"key"`
	MonthlyCadence core.Money `json:"monthlyCadence"`
	AnnualCadence  core.Money `json:"annualCadence"`
	Monthly        core.Money `json:"monthly"`
	Annual         core.Money `json:"annual"`
	Count          int        `json:"count"`
}

// SpendSummary is the grouped spend plus the grand total.
type SpendSummary struct {
	By     GroupBy      `json:"by"`
	Groups []SpendGroup `json:"groups"`
	Total  SpendGroup   `json:"total"`
}

type spendAcc struct {
	monthly decimal.Decimal
	annual  decimal.Decimal
	count   int
}

func (a *spendAcc) add(amount core.Money, cadence core.Frequency) {
	if cadence == core.Annually {
		a.annual = a.annual.Add(amount.Decimal())
	} else {
		a.monthly = a.monthly.Add(amount.Decimal())
	}
	a.count++
}

func (a spendAcc) group(key string) SpendGroup {
	twelve := decimal.NewFromInt(12)
	return SpendGroup{
		Key:            key,
		MonthlyCadence: core.MoneyFromDecimal(a.monthly),
		AnnualCadence:  core.MoneyFromDecimal(a.annual),
		Monthly:        core.MoneyFromDecimal(a.monthly.Add(a.annual.Div(twelve))),
		Annual:         core.MoneyFromDecimal(a.monthly.Mul(twelve).Add(a.annual)),
		Count:          a.count,
	}
}

// AggregateSpend sums recurring spend of tracked tiles by the given dimension.
// Tiles without a resolvable amount or cadence contribute nothing. Groups keep
// first-seen order with the uncategorized bucket last.
func AggregateSpend(tiles []core.Tile, by GroupBy) SpendSummary {
	var (
		order  []string
		groups = map[string]*spendAcc{}
		total  spendAcc
	)
	for _, t := range tiles {
		if !core.Tracked(t) {
			continue
		}
		amount, ok := core.ResolveAmount(t)
		if !ok {
			continue
		}
		cadence, ok := core.ResolveCadence(t)
		if !ok {
			continue
		}
		k := by.key(t)
		acc, seen := groups[k]
		if !seen {
			acc = &spendAcc{}
			groups[k] = acc
			if k != core.Uncategorized {
				order = append(order, k)
			}
		}
		acc.add(amount, cadence)
		total.add(amount, cadence)
	}
	if _, ok := groups[core.Uncategorized]; ok {
		order = append(order, core.Uncategorized)
	}

	summary := SpendSummary{By: by, Groups: make([]SpendGroup, 0, len(order)), Total: total.group("total")}
	for _, k := range order {
		summary.Groups = append(summary.Groups, groups[k].group(k))
	}
	return summary
}

// Grid renders the summary as an export grid. labels maps group keys to
// display names; nil leaves keys as they are.
func (s SpendSummary) Grid(labels func(key string) string) [][]string {
	if labels == nil {
		labels = func(k string) string { return k }
	}
	grid := [][]string{{"Group", "Items", "Monthly Items", "Annual Items", "Monthly Total", "Annual Total"}}
	row := func(label string, g SpendGroup) []string {
		return []string{
			label,
			strconv.Itoa(g.Count),
			g.MonthlyCadence.String(),
			g.AnnualCadence.String(),
			g.Monthly.String(),
			g.Annual.String(),
		}
	}
	for _, g := range s.Groups {
		grid = append(grid, row(labels(g.Key), g))
	}
	return append(grid, row("Total", s.Total))
}
