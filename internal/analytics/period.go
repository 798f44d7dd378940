package analytics

import (
	"sort"

	"github.com/XavierBriggs/fortuna/services/ledger-analytics/pkg/models"
)

// FilterPeriod returns the records dated inside the period, in source order.
// Undated records never match.
func FilterPeriod(records []models.BetRecord, period models.Period) []models.BetRecord {
	filtered := make([]models.BetRecord, 0, len(records))
	for _, rec := range records {
		if rec.Day == nil || !period.Contains(*rec.Day) {
			continue
		}
		filtered = append(filtered, rec)
	}
	return filtered
}

// AvailableMonths lists every month holding at least one dated record, oldest first
func AvailableMonths(records []models.BetRecord) []models.Period {
	seen := make(map[int]bool)
	var months []models.Period

	for _, rec := range records {
		if rec.Day == nil {
			continue
		}
		key := rec.Day.Year()*12 + int(rec.Day.Month())
		if seen[key] {
			continue
		}
		seen[key] = true
		months = append(months, models.MonthPeriod(rec.Day.Year(), rec.Day.Month()))
	}

	sort.Slice(months, func(i, j int) bool {
		if months[i].Year != months[j].Year {
			return months[i].Year < months[j].Year
		}
		return months[i].Month < months[j].Month
	})

	return months
}

// LatestMonth returns the most recent month with activity
func LatestMonth(records []models.BetRecord) (models.Period, bool) {
	months := AvailableMonths(records)
	if len(months) == 0 {
		return models.Period{}, false
	}
	return months[len(months)-1], true
}
