package models

import (
	"strings"
	"time"
)

// Canonical ledger column names
const (
	ColumnDay     = "Day"
	ColumnMarket  = "Market"
	ColumnOdds    = "Odds"
	ColumnStake   = "Stake"
	ColumnResults = "Results"
	ColumnBalance = "Balance"
)

// Result is the settlement outcome recorded for a bet
type Result string

// Recognized settlement outcomes
const (
	ResultGreen     Result = "Green"
	ResultRed       Result = "Red"
	ResultGreenVoid Result = "Green/void"
	ResultRedVoid   Result = "Red/void"
	ResultVoid      Result = "Void"
)

var knownResults = []Result{ResultGreen, ResultRed, ResultGreenVoid, ResultRedVoid, ResultVoid}

// ParseResult maps raw result text onto a recognized outcome.
// Unrecognized text is returned trimmed but otherwise untouched.
func ParseResult(raw string) Result {
	trimmed := strings.TrimSpace(raw)
	for _, r := range knownResults {
		if strings.EqualFold(trimmed, string(r)) {
			return r
		}
	}
	return Result(trimmed)
}

// Known reports whether the result belongs to the closed settlement set
func (r Result) Known() bool {
	for _, k := range knownResults {
		if r == k {
			return true
		}
	}
	return false
}

// BetRecord represents one row of the betting ledger
type BetRecord struct {
	Seq     int        `json:"seq"`
	Day     *time.Time `json:"day"`
	Market  string     `json:"market"`
	Odds    *float64   `json:"odds"`
	Stake   *float64   `json:"stake"`
	Result  Result     `json:"result"`
	Balance *float64   `json:"balance"`
	Raw     []string   `json:"raw"`
}

// DecodeStats counts value-level problems absorbed while decoding a ledger
type DecodeStats struct {
	Rows         int `json:"rows"`
	InvalidDates int `json:"invalid_dates"`
	InvalidMoney int `json:"invalid_money"`
}

// Ledger is a decoded bet table together with its source header
type Ledger struct {
	Columns []string    `json:"columns"`
	Records []BetRecord `json:"records"`
	Stats   DecodeStats `json:"stats"`
}

// HasColumn reports whether the source header carried the named column
func (l *Ledger) HasColumn(name string) bool {
	return ColumnIndex(l.Columns, name) >= 0
}

// ColumnIndex finds a column by case-insensitive name, accepting known aliases
func ColumnIndex(columns []string, name string) int {
	for i, c := range columns {
		if matchesColumn(c, name) {
			return i
		}
	}
	return -1
}

func matchesColumn(column, name string) bool {
	column = strings.TrimSpace(column)
	if strings.EqualFold(column, name) {
		return true
	}
	// Portuguese sheets label the results column "Resultado"
	return strings.EqualFold(name, ColumnResults) && strings.EqualFold(column, "Resultado")
}

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
