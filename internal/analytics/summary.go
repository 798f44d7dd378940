package analytics

import "github.com/XavierBriggs/fortuna/services/ledger-analytics/pkg/models"

// Columns reports which optional source columns a ledger carried
type Columns struct {
	Balance bool
	Stake   bool
	Odds    bool
	Results bool
}

// AllColumns is the column set of a complete ledger
var AllColumns = Columns{Balance: true, Stake: true, Odds: true, Results: true}

// LedgerColumns inspects the ledger header
func LedgerColumns(l *models.Ledger) Columns {
	return Columns{
		Balance: l.HasColumn(models.ColumnBalance),
		Stake:   l.HasColumn(models.ColumnStake),
		Odds:    l.HasColumn(models.ColumnOdds),
		Results: l.HasColumn(models.ColumnResults),
	}
}

// Summarize computes the headline metrics of a record set.
// A metric is nil when it is not available: no records, a missing column,
// a zero denominator or a sum that overflowed.
func Summarize(records []models.BetRecord, cols Columns) models.PeriodSummary {
	summary := models.PeriodSummary{BetCount: len(records)}
	if len(records) == 0 {
		return summary
	}

	var (
		lastBalance *float64
		lastSeq     int
		totalStake  float64
		staked      bool
		oddsSum     float64
		oddsCount   int
	)

	for _, rec := range records {
		if rec.Balance != nil && (lastBalance == nil || rec.Seq >= lastSeq) {
			v := *rec.Balance
			lastBalance = &v
			lastSeq = rec.Seq
		}
		if rec.Stake != nil {
			totalStake += *rec.Stake
			staked = true
		}
		if rec.Odds != nil {
			oddsSum += *rec.Odds
			oddsCount++
		}

		switch rec.Result {
		case models.ResultGreen:
			summary.Wins++
		case models.ResultRed:
			summary.Losses++
		case models.ResultGreenVoid:
			summary.HalfWins++
		case models.ResultRedVoid:
			summary.HalfLosses++
		case models.ResultVoid:
			summary.Voids++
		}
	}

	if cols.Balance {
		summary.LastBalance = lastBalance
	}
	if cols.Stake && staked {
		summary.TotalStake = finite(totalStake)
	}
	if summary.LastBalance != nil && summary.TotalStake != nil {
		summary.ROIPct = roi(*summary.LastBalance, *summary.TotalStake)
	}

	if cols.Results {
		summary.WinRatePct = winRate(summary.Wins, summary.Losses, summary.HalfWins, summary.HalfLosses)
	}

	if cols.Odds && oddsCount > 0 {
		summary.AvgOdds = finite(oddsSum / float64(oddsCount))
	}

	return summary
}

// winRate weighs half-settled bets at 50%; voids count nowhere
func winRate(wins, losses, halfWins, halfLosses int) *float64 {
	w := float64(wins)
	l := float64(losses)
	hw := 0.5 * float64(halfWins)
	hl := 0.5 * float64(halfLosses)

	rate := 0.0
	if d := w + l + hw + hl; d > 0 {
		rate = 100 * (w + hw) / d
	}
	return &rate
}
