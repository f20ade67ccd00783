package services

import (
	"sort"
	"strconv"
	"time"

	"tiledash/internal/core"
)

// DefaultDueSoonDays is the due-soon window used when none is configured.
const DefaultDueSoonDays = 5

// UpcomingPayment is one projected payment of a tile.
type UpcomingPayment struct {
	Tile            core.Tile `json:"tile"`
	NextPaymentDate core.Date `json:"nextPaymentDate"`
	DaysUntil       int       `json:"daysUntil"`
}

// Amount is the tile's payment amount, zero when absent.
func (p UpcomingPayment) Amount() core.Money {
	if p.Tile.PaymentAmount == nil {
		return core.Money{}
	}
	return *p.Tile.PaymentAmount
}

// IsDueSoon reports whether the tile's next payment falls within
// thresholdDays of today, today included. Overdue payments never count.
func IsDueSoon(tile core.Tile, thresholdDays int, now time.Time) bool {
	_, ok := dueSoon(tile, thresholdDays, now)
	return ok
}

func dueSoon(tile core.Tile, thresholdDays int, now time.Time) (UpcomingPayment, bool) {
	if !tile.PaidSubscription || tile.SignupDate.IsEmpty() || tile.PaymentFrequency == "" {
		return UpcomingPayment{}, false
	}
	next, ok := NextDueDate(tile.SignupDate, tile.PaymentFrequency, tile.AnnualType, now)
	if !ok {
		return UpcomingPayment{}, false
	}
	days := core.DateOf(now).DaysUntil(next)
	if days < 0 || days > thresholdDays {
		return UpcomingPayment{}, false
	}
	return UpcomingPayment{Tile: tile, NextPaymentDate: next, DaysUntil: days}, true
}

// DueSoon returns every due-soon payment ordered by date. Ties keep
// collection order.
func DueSoon(tiles []core.Tile, thresholdDays int, now time.Time) []UpcomingPayment {
	out := []UpcomingPayment{}
	for _, t := range tiles {
		if p, ok := dueSoon(t, thresholdDays, now); ok {
			out = append(out, p)
		}
	}
	sortByDate(out)
	return out
}

// UpcomingPaymentsInMonth lists the payments projected to fall in the month
// monthOffset months from today (0 = current month). Tiles need a paid
// subscription, a signup date and a payment amount. Negative offsets yield
// nothing.
func UpcomingPaymentsInMonth(tiles []core.Tile, monthOffset int, now time.Time) []UpcomingPayment {
	out := []UpcomingPayment{}
	if monthOffset < 0 {
		return out
	}
	today := core.DateOf(now)
	target := core.NewDate(today.Year(), int(today.Month()), 1).AddMonthsClamped(monthOffset)

	for _, t := range tiles {
		if !t.PaidSubscription || t.SignupDate.IsEmpty() || t.PaymentAmount == nil {
			continue
		}
		next, ok := NextDueDate(t.SignupDate, t.PaymentFrequency, t.AnnualType, now)
		if !ok || !next.SameMonth(target.Year(), target.Month()) {
			continue
		}
		out = append(out, UpcomingPayment{Tile: t, NextPaymentDate: next, DaysUntil: today.DaysUntil(next)})
	}
	sortByDate(out)
	return out
}

// SumPayments totals the payment amounts.
func SumPayments(payments []UpcomingPayment) core.Money {
	var total core.Money
	for _, p := range payments {
		total = total.Add(p.Amount())
	}
	return total
}

func sortByDate(p []UpcomingPayment) {
	sort.SliceStable(p, func(i, j int) bool {
		return p[i].NextPaymentDate.Before(p[j].NextPaymentDate.Time)
	})
}

// UpcomingGrid renders payments as an export grid.
func UpcomingGrid(payments []UpcomingPayment) [][]string {
	grid := [][]string{{"Name", "Next Payment", "Days Until", "Frequency", "Amount"}}
	for _, p := range payments {
		grid = append(grid, []string{
			p.Tile.Name,
			p.NextPaymentDate.String(),
			strconv.Itoa(p.DaysUntil),
			string(p.Tile.PaymentFrequency),
			p.Amount().String(),
		})
	}
	grid = append(grid, []string{"Total", "", "", "", SumPayments(payments).String()})
	return grid
}
