package loader

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/XavierBriggs/fortuna/services/ledger-analytics/pkg/models"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DecodeCSV reads a ledger in the sheet's CSV export format.
// The first row is the header. Dates without a year are assigned year.
func DecodeCSV(r io.Reader, year int) (*models.Ledger, error) {
	br := bufio.NewReader(r)
	if prefix, _ := br.Peek(len(utf8BOM)); bytes.Equal(prefix, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("empty ledger: missing header row")
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.TrimSpace(h)
	}

	decoder := newRowDecoder(columns, year)
	ledger := &models.Ledger{Columns: columns, Records: []models.BetRecord{}}

	for seq := 0; ; seq++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", seq+1, err)
		}

		raw := make([]string, len(columns))
		copy(raw, row)

		values := make([]any, len(raw))
		for i, cell := range raw {
			values[i] = cell
		}

		ledger.Records = append(ledger.Records, decoder.decode(seq, values, raw))
	}

	ledger.Stats = decoder.stats
	return ledger, nil
}
