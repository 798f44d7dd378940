package analytics

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/XavierBriggs/fortuna/services/ledger-analytics/pkg/ledgermath"
	"github.com/XavierBriggs/fortuna/services/ledger-analytics/pkg/models"
)

// AttributionMode controls how a bet whose market text matches several buckets is counted
type AttributionMode string

const (
	// AttributionIndependent counts a bet in every bucket it matches
	AttributionIndependent AttributionMode = "independent"
	// AttributionExclusive counts a bet in the first matching bucket only;
	// unmatched bets fall into OtherBucket
	AttributionExclusive AttributionMode = "exclusive"
)

// OtherBucket collects unmatched bets in exclusive mode
const OtherBucket = "Other"

// DefaultBuckets are the market categories tracked by the dashboard
var DefaultBuckets = []string{"1X2", "AH", "Under", "Over"}

// ParseAttributionMode validates a configured attribution mode
func ParseAttributionMode(s string) (AttributionMode, error) {
	switch mode := AttributionMode(strings.ToLower(strings.TrimSpace(s))); mode {
	case "":
		return AttributionIndependent, nil
	case AttributionIndependent, AttributionExclusive:
		return mode, nil
	default:
		return "", fmt.Errorf("unknown attribution mode %q", s)
	}
}

// Attribution is the per-market breakdown of a record set
type Attribution struct {
	Buckets []models.MarketBucket
	// Overlapping counts records whose market matched more than one bucket
	Overlapping int
}

// AttributeMarkets sums settled profit and stake per market bucket.
// Buckets match market text by case-insensitive substring. The result is ordered
// by ascending absolute profit; ties keep the configured order.
func AttributeMarkets(records []models.BetRecord, buckets []string, mode AttributionMode) Attribution {
	needles := make([]string, len(buckets))
	for i, name := range buckets {
		needles[i] = strings.ToLower(name)
	}

	out := make([]models.MarketBucket, len(buckets))
	for i, name := range buckets {
		out[i].Name = name
	}
	other := models.MarketBucket{Name: OtherBucket}

	overlapping := 0
	for _, rec := range records {
		market := strings.ToLower(rec.Market)
		profit := ledgermath.SettlementProfit(rec.Result, rec.Stake, rec.Odds)

		matches := 0
		for i, needle := range needles {
			if market == "" || !strings.Contains(market, needle) {
				continue
			}
			matches++
			if mode == AttributionExclusive && matches > 1 {
				continue
			}
			addToBucket(&out[i], rec, profit)
		}

		if matches > 1 {
			overlapping++
		}
		if matches == 0 && mode == AttributionExclusive {
			addToBucket(&other, rec, profit)
		}
	}

	if other.BetCount > 0 {
		out = append(out, other)
	}

	for i := range out {
		out[i].Profit = clamp(out[i].Profit)
		out[i].StakeSum = clamp(out[i].StakeSum)
		out[i].ROIPct = roi(out[i].Profit, out[i].StakeSum)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return math.Abs(out[i].Profit) < math.Abs(out[j].Profit)
	})

	return Attribution{Buckets: out, Overlapping: overlapping}
}

func addToBucket(b *models.MarketBucket, rec models.BetRecord, profit float64) {
	b.Profit += profit
	if rec.Stake != nil {
		b.StakeSum += *rec.Stake
	}
	b.BetCount++
}

// roi returns 100 × profit / stake, or nil when nothing was staked
func roi(profit, stake float64) *float64 {
	if stake <= 0 {
		return nil
	}
	return finite(100 * profit / stake)
}

// finite returns &v, or nil when v overflowed or is undefined
func finite(v float64) *float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}

// clamp bounds an overflowed sum to the largest representable magnitude
func clamp(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case math.IsInf(v, 1):
		return math.MaxFloat64
	case math.IsInf(v, -1):
		return -math.MaxFloat64
	default:
		return v
	}
}
