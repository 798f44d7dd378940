package models

import "time"

// DailyAggregate is one calendar day of the reconstructed timeline
type DailyAggregate struct {
	Day             time.Time `json:"day"`
	EndOfDayBalance *float64  `json:"end_of_day_balance"`
	DailyProfit     float64   `json:"daily_profit"`
	StakeSum        float64   `json:"stake_sum"`
	Results         []Result  `json:"results"`
	BetCount        int       `json:"bet_count"`
	Active          bool      `json:"active"`
}

// BalancePoint is one point of the balance curve
type BalancePoint struct {
	Day     time.Time `json:"day"`
	Balance *float64  `json:"balance"`
}

// Timeline is the gapless day-by-day view of a period.
// Days covers every day of the spanned months; Balance stops at LastActiveDay.
type Timeline struct {
	FirstDay      *time.Time       `json:"first_day"`
	LastDay       *time.Time       `json:"last_day"`
	LastActiveDay *time.Time       `json:"last_active_day"`
	Days          []DailyAggregate `json:"days"`
	Balance       []BalancePoint   `json:"balance"`
}

// Empty reports whether there was nothing to reconstruct
func (t Timeline) Empty() bool {
	return len(t.Days) == 0
}

// MarketBucket aggregates settled profit for one market category
type MarketBucket struct {
	Name     string   `json:"name"`
	Profit   float64  `json:"profit"`
	StakeSum float64  `json:"stake_sum"`
	ROIPct   *float64 `json:"roi_pct"`
	BetCount int      `json:"bet_count"`
}

// PeriodSummary provides headline metrics for the filtered ledger.
// Nil metrics are not available for the period.
type PeriodSummary struct {
	BetCount    int      `json:"bet_count"`
	LastBalance *float64 `json:"last_balance"`
	TotalStake  *float64 `json:"total_stake"`
	ROIPct      *float64 `json:"roi_pct"`
	WinRatePct  *float64 `json:"win_rate_pct"`
	AvgOdds     *float64 `json:"avg_odds"`
	Wins        int      `json:"wins"`
	Losses      int      `json:"losses"`
	HalfWins    int      `json:"half_wins"`
	HalfLosses  int      `json:"half_losses"`
	Voids       int      `json:"voids"`
}

// Report bundles every view computed for one period
type Report struct {
	ID              string         `json:"id"`
	Period          Period         `json:"period"`
	Summary         PeriodSummary  `json:"summary"`
	Markets         []MarketBucket `json:"markets"`
	OverlappingBets int            `json:"overlapping_bets"`
	Timeline        Timeline       `json:"timeline"`
	Records         []BetRecord    `json:"-"`
}
