package analytics

import (
	"sort"
	"time"

	"github.com/XavierBriggs/fortuna/services/ledger-analytics/pkg/models"
)

// dayGroup collects the settled bets of one calendar day
type dayGroup struct {
	balance  float64
	stakeSum float64
	results  []models.Result
	count    int
}

// ReconstructTimeline builds a gapless daily balance and profit series covering every
// day of the months spanned by the records.
//
// Records without a day or a balance are ignored. Within a day the record with the
// highest Seq sets the end-of-day balance. Balances are carried forward over days
// without bets; days before the first settled day have no balance.
func ReconstructTimeline(records []models.BetRecord) models.Timeline {
	settled := make([]models.BetRecord, 0, len(records))
	for _, rec := range records {
		if rec.Day == nil || rec.Balance == nil {
			continue
		}
		settled = append(settled, rec)
	}

	if len(settled) == 0 {
		return models.Timeline{}
	}

	sort.SliceStable(settled, func(i, j int) bool {
		if !settled[i].Day.Equal(*settled[j].Day) {
			return settled[i].Day.Before(*settled[j].Day)
		}
		return settled[i].Seq < settled[j].Seq
	})

	groups := make(map[time.Time]*dayGroup)
	for _, rec := range settled {
		day := civilDay(*rec.Day)
		g, ok := groups[day]
		if !ok {
			g = &dayGroup{}
			groups[day] = g
		}
		// Sorted by Seq within the day, so the last write is authoritative
		g.balance = *rec.Balance
		if rec.Stake != nil {
			g.stakeSum += *rec.Stake
		}
		g.results = append(g.results, rec.Result)
		g.count++
	}

	firstActive := civilDay(*settled[0].Day)
	lastActive := civilDay(*settled[len(settled)-1].Day)
	firstDay := time.Date(firstActive.Year(), firstActive.Month(), 1, 0, 0, 0, 0, time.UTC)
	lastDay := endOfMonth(lastActive)

	var days []models.DailyAggregate
	var balanceLine []models.BalancePoint
	var carried *float64

	for day := firstDay; !day.After(lastDay); day = day.AddDate(0, 0, 1) {
		agg := models.DailyAggregate{Day: day, Results: []models.Result{}}

		g, active := groups[day]
		if active {
			balance := g.balance
			if len(days) == 0 || carried == nil {
				agg.DailyProfit = balance
			} else {
				agg.DailyProfit = clamp(balance - *carried)
			}
			carried = &balance
			agg.StakeSum = clamp(g.stakeSum)
			agg.Results = g.results
			agg.BetCount = g.count
			agg.Active = true
		}

		if carried != nil {
			v := *carried
			agg.EndOfDayBalance = &v
		}

		days = append(days, agg)

		if !day.After(lastActive) {
			balanceLine = append(balanceLine, models.BalancePoint{Day: day, Balance: agg.EndOfDayBalance})
		}
	}

	return models.Timeline{
		FirstDay:      &firstDay,
		LastDay:       &lastDay,
		LastActiveDay: &lastActive,
		Days:          days,
		Balance:       balanceLine,
	}
}

// civilDay drops the clock and zone so days compare as map keys
func civilDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func endOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
}
