package analytics

import (
	"bytes"
	"strconv"

	"github.com/XavierBriggs/fortuna/services/ledger-analytics/pkg/models"
	"github.com/google/uuid"
)

// reportNamespace scopes the name-based report IDs
var reportNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://fortuna/ledger-analytics/report"))

// Options configures the market attribution of an Engine
type Options struct {
	Buckets []string
	Mode    AttributionMode
}

// Engine computes period reports from a ledger.
// It holds configuration only and is safe for concurrent use.
type Engine struct {
	buckets []string
	mode    AttributionMode
}

// NewEngine creates an engine, defaulting to the dashboard buckets in independent mode
func NewEngine(opts Options) *Engine {
	buckets := opts.Buckets
	if len(buckets) == 0 {
		buckets = DefaultBuckets
	}
	mode := opts.Mode
	if mode == "" {
		mode = AttributionIndependent
	}

	return &Engine{
		buckets: append([]string(nil), buckets...),
		mode:    mode,
	}
}

// Buckets returns the configured market categories
func (e *Engine) Buckets() []string {
	return append([]string(nil), e.buckets...)
}

// Mode returns the configured attribution mode
func (e *Engine) Mode() AttributionMode {
	return e.mode
}

// ResolvePeriod returns the requested period, or the latest month with activity
// when none was requested. ok is false when the ledger has no dated records.
func ResolvePeriod(ledger *models.Ledger, requested *models.Period) (models.Period, bool) {
	if requested != nil {
		return *requested, true
	}
	return LatestMonth(ledger.Records)
}

// Compute filters the ledger to the period and derives every view from the result
func (e *Engine) Compute(ledger *models.Ledger, period models.Period) *models.Report {
	records := FilterPeriod(ledger.Records, period)
	attribution := AttributeMarkets(records, e.buckets, e.mode)

	return &models.Report{
		ID:              e.reportID(period, ledger.Columns, records),
		Period:          period,
		Summary:         Summarize(records, LedgerColumns(ledger)),
		Markets:         attribution.Buckets,
		OverlappingBets: attribution.Overlapping,
		Timeline:        ReconstructTimeline(records),
		Records:         records,
	}
}

// reportID derives a stable identifier from everything the report depends on
func (e *Engine) reportID(period models.Period, columns []string, records []models.BetRecord) string {
	var buf bytes.Buffer
	buf.WriteString(period.String())
	buf.WriteByte(0)
	buf.WriteString(string(e.mode))
	for _, b := range e.buckets {
		buf.WriteByte(2)
		buf.WriteString(b)
	}
	for _, c := range columns {
		buf.WriteByte(0)
		buf.WriteString(c)
	}
	for _, rec := range records {
		buf.WriteByte(1)
		buf.WriteString(strconv.Itoa(rec.Seq))
		for _, cell := range rec.Raw {
			buf.WriteByte(0)
			buf.WriteString(cell)
		}
	}
	return uuid.NewSHA1(reportNamespace, buf.Bytes()).String()
}
