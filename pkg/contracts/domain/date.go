package domain

import (
	"fmt"
	"sort"
	"time"
)

// Date is a calendar date with no time-of-day or timezone component.
// It is comparable and safe to use as a map key, unlike time.Time.
type Date struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Day   int        `json:"day"`
}

// NewDate builds a Date from its components, normalizing overflow the same
// way time.Date does (month 13 rolls into the next year, and so on).
func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf truncates a time.Time to its calendar date.
func DateOf(t time.Time) Date {
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// ParseDate parses the canonical YYYY-MM-DD form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// Time returns the date at midnight UTC.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d == Date{}
}

// Before reports whether d is earlier than other.
func (d Date) Before(other Date) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// String returns the canonical YYYY-MM-DD form used in the ledger,
// diagnostics blocks, and logs.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Header returns the day-month form used for summary table column headers,
// e.g. "7-Mar". The year is deliberately not part of the rendering; the
// summary table keeps a side mapping from column to full date.
func (d Date) Header() string {
	return fmt.Sprintf("%d-%s", d.Day, d.Time().Format("Jan"))
}

// SortDates sorts a slice of dates ascending, in place, and returns it.
func SortDates(dates []Date) []Date {
	sort.Slice(dates, func(i, j int) bool {
		return dates[i].Before(dates[j])
	})
	return dates
}
