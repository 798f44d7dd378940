package testutil

import (
	"fmt"
	"time"

	"github.com/XavierBriggs/fortuna/services/ledger-analytics/pkg/models"
)

// Columns is the header of a standard dashboard ledger
var Columns = []string{"Day", "Event", "Market", "Odds", "Stake", "Results", "Balance"}

// Day returns UTC midnight of the given date
func Day(year int, month time.Month, day int) *time.Time {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &t
}

// Float returns a pointer to v
func Float(v float64) *float64 {
	return &v
}

// BetFixture creates a settled Green bet with sensible defaults
func BetFixture(overrides ...func(*models.BetRecord)) models.BetRecord {
	bet := models.BetRecord{
		Day:     Day(2025, time.March, 1),
		Market:  "1X2",
		Odds:    Float(2.0),
		Stake:   Float(10),
		Result:  models.ResultGreen,
		Balance: Float(10),
	}

	for _, override := range overrides {
		override(&bet)
	}

	bet.Raw = rawCells(bet)
	return bet
}

// SettledBet creates a bet on a given March 2025 day
func SettledBet(seq, day int, market string, result models.Result, stake, odds, balance float64) models.BetRecord {
	return BetFixture(func(b *models.BetRecord) {
		b.Seq = seq
		b.Day = Day(2025, time.March, day)
		b.Market = market
		b.Result = result
		b.Stake = Float(stake)
		b.Odds = Float(odds)
		b.Balance = Float(balance)
	})
}

// Ledger wraps records in a ledger with the standard header, renumbering Seq
func Ledger(records ...models.BetRecord) *models.Ledger {
	for i := range records {
		records[i].Seq = i
	}
	return &models.Ledger{
		Columns: append([]string(nil), Columns...),
		Records: records,
		Stats:   models.DecodeStats{Rows: len(records)},
	}
}

// SampleCSV is a small March 2025 ledger in the sheet's export format
const SampleCSV = `Day,Event,Market,Odds,Stake,Results,Balance
01/03,Flamengo x Vasco,1X2,"2,10","R$ 10,00",Green,"R$ 11,00"
01/03,Palmeiras x Santos,Over 2.5 Goals,"1,80","R$ 10,00",Red,"R$ 1,00"
03/03,Gremio x Inter,AH -0.25,"1,95","R$ 20,00",Green/void,"R$ 10,50"
04/03,Bahia x Vitoria,Under 3.5,"1,70","R$ 10,00",Void,"R$ 10,50"
xx/03,Unknown,1X2,abc,"R$ 5,00",Green,
`

func rawCells(b models.BetRecord) []string {
	day := ""
	if b.Day != nil {
		day = b.Day.Format("02/01")
	}
	return []string{
		day,
		"Fixture Event",
		b.Market,
		formatPtr(b.Odds),
		formatPtr(b.Stake),
		string(b.Result),
		formatPtr(b.Balance),
	}
}

func formatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.2f", *v)
}
