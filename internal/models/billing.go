package models

import (
	"fmt"
	"strings"
	"time"
)

// BillingPeriod is a calendar month of a year that rent is billed for.
type BillingPeriod struct {
	Month time.Month
	Year  int
}

// PeriodOf returns the billing period containing t.
func PeriodOf(t time.Time) BillingPeriod {
	return BillingPeriod{Month: t.Month(), Year: t.Year()}
}

// NewBillingPeriod builds a period from an English month name (full or three-letter,
// any case) and a year.
func NewBillingPeriod(month string, year int) (BillingPeriod, error) {
	m, err := ParseMonth(month)
	if err != nil {
		return BillingPeriod{}, err
	}
	if year < 1970 || year > 9999 {
		return BillingPeriod{}, fmt.Errorf("year %d out of range", year)
	}
	return BillingPeriod{Month: m, Year: year}, nil
}

// ParseMonth parses "March", "mar" or "MARCH" into a time.Month.
func ParseMonth(s string) (time.Month, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) < 3 {
		return 0, fmt.Errorf("unknown month %q", s)
	}
	for m := time.January; m <= time.December; m++ {
		name := strings.ToLower(m.String())
		if s == name || s == name[:3] {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown month %q", s)
}

// MonthName is the stored form of the billing month, e.g. "March".
func (p BillingPeriod) MonthName() string {
	return p.Month.String()
}

// String renders the period as "March 2024".
func (p BillingPeriod) String() string {
	return fmt.Sprintf("%s %d", p.Month.String(), p.Year)
}

// Start returns midnight of the first day of the period in loc.
func (p BillingPeriod) Start(loc *time.Location) time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, loc)
}

// DueDate returns the end of day `day` of the period. Days past the end of the month
// are clamped to the last day.
func (p BillingPeriod) DueDate(day int, loc *time.Location) time.Time {
	last := p.Start(loc).AddDate(0, 1, -1).Day()
	if day < 1 {
		day = 1
	}
	if day > last {
		day = last
	}
	return time.Date(p.Year, p.Month, day, 23, 59, 59, 0, loc)
}

// Previous returns the period n months earlier.
func (p BillingPeriod) Previous(n int) BillingPeriod {
	return PeriodOf(p.Start(time.UTC).AddDate(0, -n, 0))
}
