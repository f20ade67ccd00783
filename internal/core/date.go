package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the ISO calendar date format used in documents and APIs.
const DateLayout = "2006-01-02"

// Date is a calendar date held at midnight UTC. The zero value means absent.
type Date struct {
	time.Time
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar date of t in t's own location. This is how a
// wall-clock "now" becomes "today at midnight".
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string. RFC3339 timestamps are accepted and
// reduced to their date part.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(DateLayout) && s[len(DateLayout)] == 'T' {
		s = s[:len(DateLayout)]
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

// IsEmpty returns true if the date is zero (absent optional dates)
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// String returns the ISO date, or "" for an absent date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// DaysUntil returns the whole number of calendar days from d to o.
// Negative when o is before d.
func (d Date) DaysUntil(o Date) int {
	return int(o.Sub(d.Time).Hours() / 24)
}

// SameMonth reports whether both dates fall in the same calendar month.
func (d Date) SameMonth(year int, month time.Month) bool {
	return d.Year() == year && d.Month() == month
}

// AddMonthsClamped adds n calendar months. When the day does not exist in the
// target month it is clamped to that month's last day (Jan 31 + 1 -> Feb 28/29).
func (d Date) AddMonthsClamped(n int) Date {
	y, m, day := d.Date()
	total := int(m) - 1 + n
	ty := y + total/12
	tm := total % 12
	if tm < 0 {
		tm += 12
		ty--
	}
	month := time.Month(tm + 1)
	if last := DaysIn(ty, month); day > last {
		day = last
	}
	return Date{Time: time.Date(ty, month, day, 0, 0, 0, 0, time.UTC)}
}

// AddYearsClamped adds n years; Feb 29 becomes Feb 28 in common years.
func (d Date) AddYearsClamped(n int) Date {
	return d.AddMonthsClamped(12 * n)
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MarshalJSON encodes an absent date as null.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(DateLayout))
}

// UnmarshalJSON is lenient: null, "" and unparseable values leave the date
// absent rather than failing the whole document.
func (d *Date) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if string(b) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		*d = Date{}
		return nil
	}
	*d = parsed
	return nil
}

// MonthKey identifies a calendar month as "YYYY-MM".
type MonthKey string

const monthKeyLayout = "2006-01"

// MonthKeyOf returns the month key of t.
func MonthKeyOf(t time.Time) MonthKey {
	return MonthKey(t.Format(monthKeyLayout))
}

// ParseMonthKey validates s as a YYYY-MM key.
func ParseMonthKey(s string) (MonthKey, error) {
	s = strings.TrimSpace(s)
	if _, err := time.Parse(monthKeyLayout, s); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	return MonthKey(s), nil
}

// Start returns the first day of the month. Invalid keys yield a zero Date.
func (k MonthKey) Start() Date {
	t, err := time.Parse(monthKeyLayout, string(k))
	if err != nil {
		return Date{}
	}
	return Date{Time: t}
}

// AddMonths returns the key n months away.
func (k MonthKey) AddMonths(n int) MonthKey {
	start := k.Start()
	if start.IsZero() {
		return k
	}
	return MonthKeyOf(start.AddMonthsClamped(n).Time)
}

func (k MonthKey) String() string { return string(k) }
