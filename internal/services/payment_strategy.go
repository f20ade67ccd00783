// Package services provides the payment scheduling and aggregation engine.
//
// This file implements the Strategy Pattern for payment date projection.
// Each (frequency, annual type) pair has its own strategy that encapsulates
// how the next occurrence after a given day is found.

package services

import (
	"time"

	"tiledash/internal/core"
)

// PaymentProjector is the strategy interface for projecting recurring payments.
type PaymentProjector interface {
	// Next returns the first occurrence strictly after today.
	Next(signup, today core.Date) (core.Date, bool)
}

// MonthlyProjector advances the signup date one calendar month at a time.
type MonthlyProjector struct{}

// Next steps signup+n months, each computed from the anchor so a short month
// never drags later occurrences backwards. Missing days clamp to month end.
func (MonthlyProjector) Next(signup, today core.Date) (core.Date, bool) {
	if signup.IsEmpty() {
		return core.Date{}, false
	}
	return stepFromAnchor(signup, today, 1), true
}

// AnniversaryProjector renews on the signup anniversary each year.
type AnniversaryProjector struct{}

// Next steps signup+n years. Feb 29 anchors fall on Feb 28 in common years.
func (AnniversaryProjector) Next(signup, today core.Date) (core.Date, bool) {
	if signup.IsEmpty() {
		return core.Date{}, false
	}
	return stepFromAnchor(signup, today, 12), true
}

// CalendarYearProjector renews every January 1 regardless of signup.
type CalendarYearProjector struct{}

func (CalendarYearProjector) Next(_, today core.Date) (core.Date, bool) {
	next := core.NewDate(today.Year()+1, 1, 1)
	if !today.Before(next.Time) {
		next = core.NewDate(today.Year()+2, 1, 1)
	}
	return next, true
}

// stepFromAnchor returns the first anchor+k*stepMonths strictly after today.
func stepFromAnchor(anchor, today core.Date, stepMonths int) core.Date {
	elapsed := (today.Year()-anchor.Year())*12 + int(today.Month()) - int(anchor.Month())
	k := 0
	if elapsed > stepMonths {
		k = elapsed/stepMonths - 1
	}
	for {
		next := anchor.AddMonthsClamped(k * stepMonths)
		if next.After(today.Time) {
			return next
		}
		k++
	}
}

type projectorKey struct {
	frequency core.Frequency
	annual    core.AnnualType
}

// projectors maps (frequency, annual type) to their strategies. Annual
// payments with an empty or unknown annual type use the Subscriber entry.
var projectors = map[projectorKey]PaymentProjector{
	{core.Monthly, ""}:               MonthlyProjector{},
	{core.Annually, core.Subscriber}: AnniversaryProjector{},
	{core.Annually, core.Fiscal}:     CalendarYearProjector{},
	{core.Annually, core.Calendar}:   CalendarYearProjector{},
}

// GetPaymentProjector returns the strategy for a frequency and annual type.
func GetPaymentProjector(freq core.Frequency, annual core.AnnualType) (PaymentProjector, bool) {
	if freq != core.Annually {
		annual = ""
	}
	p, ok := projectors[projectorKey{freq, annual}]
	if !ok && freq == core.Annually {
		p, ok = projectors[projectorKey{core.Annually, core.Subscriber}]
	}
	return p, ok
}

// RegisterPaymentProjector allows registering projectors for new frequencies
// or annual types, such as a fiscal year with a configurable start month.
func RegisterPaymentProjector(freq core.Frequency, annual core.AnnualType, p PaymentProjector) {
	if freq != core.Annually {
		annual = ""
	}
	projectors[projectorKey{freq, annual}] = p
}

// NextPaymentDate projects the next payment strictly after today, where today
// is the calendar date of now. It returns false when signup or frequency is
// absent or unknown.
func NextPaymentDate(signup core.Date, freq core.Frequency, annual core.AnnualType, now time.Time) (core.Date, bool) {
	return nextAfter(signup, freq, annual, core.DateOf(now))
}

// NextDueDate is NextPaymentDate with today included: a payment that falls on
// today is still due today, not next period.
func NextDueDate(signup core.Date, freq core.Frequency, annual core.AnnualType, now time.Time) (core.Date, bool) {
	yesterday := core.DateOf(now).AddDate(0, 0, -1)
	return nextAfter(signup, freq, annual, core.Date{Time: yesterday})
}

func nextAfter(signup core.Date, freq core.Frequency, annual core.AnnualType, today core.Date) (core.Date, bool) {
	if signup.IsEmpty() {
		return core.Date{}, false
	}
	p, ok := GetPaymentProjector(freq, annual)
	if !ok {
		return core.Date{}, false
	}
	return p.Next(signup, today)
}
