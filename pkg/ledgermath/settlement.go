package ledgermath

import "github.com/XavierBriggs/fortuna/services/ledger-analytics/pkg/models"

// SettlementProfit returns the net profit of a settled bet.
// Green      → stake × (odds − 1)
// Green/void → stake × (odds − 1) × 0.5
// Red        → −stake
// Red/void   → −stake × 0.5
// Void, unrecognized results, and bets missing an input the formula needs settle at 0.
func SettlementProfit(result models.Result, stake, odds *float64) float64 {
	if stake == nil {
		return 0
	}

	switch result {
	case models.ResultGreen:
		if odds == nil {
			return 0
		}
		return *stake * (*odds - 1)
	case models.ResultGreenVoid:
		if odds == nil {
			return 0
		}
		return *stake * (*odds - 1) * 0.5
	case models.ResultRed:
		return -*stake
	case models.ResultRedVoid:
		return -*stake * 0.5
	default:
		return 0
	}
}
