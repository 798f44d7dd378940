package ledgermath

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// currencyMarkers are stripped before parsing, longest first
var currencyMarkers = []string{"R$", "US$", "$", "€", "£"}

// realMarker formats amounts with '.' grouping thousands and ',' as the decimal mark
const realMarker = "R$"

// dotGrouped matches dot-only thousands grouping such as "1.000" or "-12.345.678"
var dotGrouped = regexp.MustCompile(`^[+-]?\d{1,3}(\.\d{3})+$`)

// ParseMoney parses a locale-formatted monetary or odds string.
// "R$ 1.234,56" → 1234.56
// "1234.56"     → 1234.56
// "R$ 1.000"    → 1000
// "abc"         → nil
func ParseMoney(raw string) *float64 {
	s := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r', '\u00a0':
			return -1
		}
		return r
	}, raw)

	brl := strings.Contains(s, realMarker)
	for _, marker := range currencyMarkers {
		s = strings.ReplaceAll(s, marker, "")
	}

	if s == "" {
		return nil
	}

	if brl && dotGrouped.MatchString(s) {
		s = strings.ReplaceAll(s, ".", "")
	}

	d, err := decimal.NewFromString(normalizeSeparators(s))
	if err != nil {
		return nil
	}

	f := d.InexactFloat64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return nil
	}
	return &f
}

// normalizeSeparators rewrites the decimal mark to '.' and drops thousands separators.
// When both ',' and '.' appear, the one occurring last is the decimal mark.
func normalizeSeparators(s string) string {
	comma := strings.LastIndex(s, ",")
	dot := strings.LastIndex(s, ".")

	switch {
	case comma >= 0 && dot >= 0 && comma > dot:
		s = strings.ReplaceAll(s, ".", "")
		return strings.Replace(s, ",", ".", 1)
	case comma >= 0 && dot >= 0:
		return strings.ReplaceAll(s, ",", "")
	case comma >= 0:
		return strings.Replace(s, ",", ".", 1)
	default:
		return s
	}
}

// MoneyValue converts a raw cell of any supported type.
// Numbers pass through unchanged; strings and byte slices go through ParseMoney.
// Panics on unsupported types.
func MoneyValue(v any) *float64 {
	var f float64
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		return ParseMoney(x)
	case []byte:
		return ParseMoney(string(x))
	case decimal.Decimal:
		f = x.InexactFloat64()
	case *float64:
		if x == nil {
			return nil
		}
		f = *x
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int8:
		f = float64(x)
	case int16:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint:
		f = float64(x)
	case uint8:
		f = float64(x)
	case uint16:
		f = float64(x)
	case uint32:
		f = float64(x)
	case uint64:
		f = float64(x)
	default:
		panic(fmt.Sprintf("ledgermath: unsupported money value type %T", v))
	}

	if math.IsInf(f, 0) || math.IsNaN(f) {
		return nil
	}
	return &f
}

// Float returns a pointer to v
func Float(v float64) *float64 {
	return &v
}
