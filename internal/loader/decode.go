package loader

import (
	"strings"

	"github.com/XavierBriggs/fortuna/services/ledger-analytics/pkg/ledgermath"
	"github.com/XavierBriggs/fortuna/services/ledger-analytics/pkg/models"
)

// columnIndex holds the position of each canonical column, -1 when absent
type columnIndex struct {
	day, market, odds, stake, results, balance int
}

func indexColumns(columns []string) columnIndex {
	return columnIndex{
		day:     models.ColumnIndex(columns, models.ColumnDay),
		market:  models.ColumnIndex(columns, models.ColumnMarket),
		odds:    models.ColumnIndex(columns, models.ColumnOdds),
		stake:   models.ColumnIndex(columns, models.ColumnStake),
		results: models.ColumnIndex(columns, models.ColumnResults),
		balance: models.ColumnIndex(columns, models.ColumnBalance),
	}
}

// rowDecoder turns source rows into bet records, counting unparsable cells
type rowDecoder struct {
	idx   columnIndex
	year  int
	stats models.DecodeStats
}

func newRowDecoder(columns []string, year int) *rowDecoder {
	return &rowDecoder{idx: indexColumns(columns), year: year}
}

// decode builds the record at position seq. values holds the typed cell values
// in header order; raw holds their display strings.
func (d *rowDecoder) decode(seq int, values []any, raw []string) models.BetRecord {
	d.stats.Rows++

	rec := models.BetRecord{Seq: seq, Raw: raw}

	if d.idx.day >= 0 {
		rec.Day = ledgermath.DateValue(values[d.idx.day], d.year)
		if rec.Day == nil {
			d.stats.InvalidDates++
		}
	}
	if d.idx.market >= 0 {
		rec.Market = strings.TrimSpace(raw[d.idx.market])
	}
	if d.idx.results >= 0 {
		rec.Result = models.ParseResult(raw[d.idx.results])
	}

	rec.Odds = d.money(values, raw, d.idx.odds)
	rec.Stake = d.money(values, raw, d.idx.stake)
	rec.Balance = d.money(values, raw, d.idx.balance)

	return rec
}

// money parses one numeric cell; blank cells are absent, not invalid
func (d *rowDecoder) money(values []any, raw []string, i int) *float64 {
	if i < 0 {
		return nil
	}
	v := ledgermath.MoneyValue(values[i])
	if v == nil && strings.TrimSpace(raw[i]) != "" {
		d.stats.InvalidMoney++
	}
	return v
}
