package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"

	"github.com/XavierBriggs/fortuna/services/ledger-analytics/pkg/models"
)

// Filename is the attachment name of the CSV download
const Filename = "betting_data.csv"

// ContentType is the media type of the CSV download
const ContentType = "text/csv; charset=utf-8"

// Table is the betting details view: display strings in header order
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// WriteCSV writes the header and the original cells of every record, in source order
func WriteCSV(w io.Writer, columns []string, records []models.BetRecord) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, rec := range records {
		if err := cw.Write(padded(rec.Raw, len(columns))); err != nil {
			return fmt.Errorf("writing row %d: %w", rec.Seq, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// DetailTable renders records newest first with the dashboard's fixed formatting:
// Day as DD/MM, Balance and Stake with 2 decimals, Odds with 3.
// Cells that could not be parsed keep their original text.
func DetailTable(columns []string, records []models.BetRecord) Table {
	ordered := append([]models.BetRecord(nil), records...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Seq > ordered[j].Seq
	})

	day := models.ColumnIndex(columns, models.ColumnDay)
	odds := models.ColumnIndex(columns, models.ColumnOdds)
	stake := models.ColumnIndex(columns, models.ColumnStake)
	balance := models.ColumnIndex(columns, models.ColumnBalance)

	table := Table{
		Columns: append([]string(nil), columns...),
		Rows:    make([][]string, 0, len(ordered)),
	}

	for _, rec := range ordered {
		row := padded(rec.Raw, len(columns))

		if day >= 0 && rec.Day != nil {
			row[day] = rec.Day.Format("02/01")
		}
		formatCell(row, odds, rec.Odds, 3)
		formatCell(row, stake, rec.Stake, 2)
		formatCell(row, balance, rec.Balance, 2)

		table.Rows = append(table.Rows, row)
	}

	return table
}

func formatCell(row []string, i int, v *float64, decimals int) {
	if i < 0 || v == nil {
		return
	}
	row[i] = fmt.Sprintf("%.*f", decimals, *v)
}

// padded copies raw into a row of exactly n cells
func padded(raw []string, n int) []string {
	row := make([]string, n)
	copy(row, raw)
	return row
}
