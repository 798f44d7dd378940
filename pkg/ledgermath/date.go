package ledgermath

import (
	"fmt"
	"strings"
	"time"
)

// ParseDate parses a day/month ledger date and assigns the reporting year.
// "07/03" with year 2025 → 2025-03-07
// "07/03/2024"           → 2024-03-07 (an explicit year wins)
// Impossible dates such as "29/02" in a non-leap year return nil.
func ParseDate(raw string, year int) *time.Time {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}

	parts := strings.Split(s, "/")
	if len(parts) != 2 && len(parts) != 3 {
		return nil
	}

	day, ok := parseNumber(parts[0], 2)
	if !ok {
		return nil
	}
	month, ok := parseNumber(parts[1], 2)
	if !ok {
		return nil
	}
	if len(parts) == 3 {
		y, ok := parseNumber(parts[2], 4)
		if !ok || len(strings.TrimSpace(parts[2])) != 4 {
			return nil
		}
		year = y
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (31/04 → 01/05); reject those
	if t.Day() != day || int(t.Month()) != month || t.Year() != year {
		return nil
	}
	return &t
}

// DateValue converts a raw date cell of any supported type.
// Panics on unsupported types.
func DateValue(v any, year int) *time.Time {
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		return ParseDate(x, year)
	case []byte:
		return ParseDate(string(x), year)
	case time.Time:
		if x.IsZero() {
			return nil
		}
		t := time.Date(x.Year(), x.Month(), x.Day(), 0, 0, 0, 0, time.UTC)
		return &t
	default:
		panic(fmt.Sprintf("ledgermath: unsupported date value type %T", v))
	}
}

func parseNumber(s string, maxDigits int) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > maxDigits {
		return 0, false
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}
