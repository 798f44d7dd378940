package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// PeriodKind distinguishes calendar-month selections from explicit ranges
type PeriodKind string

const (
	PeriodMonth PeriodKind = "month"
	PeriodRange PeriodKind = "range"
)

const (
	monthLayout = "2006-01"
	dayLayout   = "2006-01-02"
)

// Period is the reporting window a computation is restricted to.
// Range bounds are inclusive calendar days.
type Period struct {
	Kind  PeriodKind
	Year  int
	Month time.Month
	Start time.Time
	End   time.Time
}

// MonthPeriod selects one calendar month
func MonthPeriod(year int, month time.Month) Period {
	return Period{Kind: PeriodMonth, Year: year, Month: month}
}

// RangePeriod selects the inclusive day range [start, end]
func RangePeriod(start, end time.Time) Period {
	return Period{Kind: PeriodRange, Start: truncateDay(start), End: truncateDay(end)}
}

// ParseMonth parses a YYYY-MM month selector
func ParseMonth(s string) (Period, error) {
	t, err := time.Parse(monthLayout, s)
	if err != nil {
		return Period{}, fmt.Errorf("invalid month %q: want YYYY-MM", s)
	}
	return MonthPeriod(t.Year(), t.Month()), nil
}

// ParseRange parses a YYYY-MM-DD..YYYY-MM-DD pair
func ParseRange(start, end string) (Period, error) {
	s, err := time.Parse(dayLayout, start)
	if err != nil {
		return Period{}, fmt.Errorf("invalid start %q: want YYYY-MM-DD", start)
	}
	e, err := time.Parse(dayLayout, end)
	if err != nil {
		return Period{}, fmt.Errorf("invalid end %q: want YYYY-MM-DD", end)
	}
	if e.Before(s) {
		return Period{}, fmt.Errorf("start %s is after end %s", start, end)
	}
	return RangePeriod(s, e), nil
}

// Contains reports whether the calendar day falls inside the period
func (p Period) Contains(day time.Time) bool {
	switch p.Kind {
	case PeriodMonth:
		return day.Year() == p.Year && day.Month() == p.Month
	case PeriodRange:
		d := truncateDay(day)
		return !d.Before(p.Start) && !d.After(p.End)
	default:
		return false
	}
}

// Label renders the month the way the dashboard selector shows it ("March/2025")
func (p Period) Label() string {
	if p.Kind != PeriodMonth {
		return p.String()
	}
	return fmt.Sprintf("%s/%d", p.Month, p.Year)
}

func (p Period) String() string {
	switch p.Kind {
	case PeriodMonth:
		return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC).Format(monthLayout)
	case PeriodRange:
		return p.Start.Format(dayLayout) + ".." + p.End.Format(dayLayout)
	default:
		return ""
	}
}

// MarshalJSON encodes the period as its selector fields
func (p Period) MarshalJSON() ([]byte, error) {
	out := map[string]string{
		"kind":  string(p.Kind),
		"value": p.String(),
	}
	switch p.Kind {
	case PeriodMonth:
		out["label"] = p.Label()
	case PeriodRange:
		out["start"] = p.Start.Format(dayLayout)
		out["end"] = p.End.Format(dayLayout)
	}
	return json.Marshal(out)
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
