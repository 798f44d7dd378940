package handlers_test

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/XavierBriggs/fortuna/services/ledger-analytics/internal/analytics"
	"github.com/XavierBriggs/fortuna/services/ledger-analytics/internal/handlers"
	"github.com/XavierBriggs/fortuna/services/ledger-analytics/internal/loader"
	"github.com/XavierBriggs/fortuna/services/ledger-analytics/internal/testutil"
	"github.com/XavierBriggs/fortuna/services/ledger-analytics/pkg/models"
	"github.com/go-chi/chi/v5"
)

// MockLoader implements loader.Loader for testing
type MockLoader struct {
	ledger      *models.Ledger
	shouldError bool
	pingError   error
}

func (m *MockLoader) Source() string { return "mock" }

func (m *MockLoader) Load(ctx context.Context) (*models.Ledger, error) {
	if m.shouldError {
		return nil, context.DeadlineExceeded
	}
	return m.ledger, nil
}

// PingingLoader adds a health check to MockLoader
type PingingLoader struct {
	MockLoader
}

func (p *PingingLoader) Ping(ctx context.Context) error {
	return p.pingError
}

func sampleLoader(t *testing.T) *MockLoader {
	t.Helper()
	ledger, err := loader.DecodeCSV(strings.NewReader(testutil.SampleCSV), 2025)
	if err != nil {
		t.Fatalf("decoding sample ledger: %v", err)
	}
	return &MockLoader{ledger: ledger}
}

func newRouter(l loader.Loader) http.Handler {
	h := handlers.NewHandler(l, analytics.NewEngine(analytics.Options{}), nil)
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func get(t *testing.T, router http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", target, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return response
}

func TestHealthCheck_Success(t *testing.T) {
	w := get(t, newRouter(sampleLoader(t)), "/health")

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	response := decode(t, w)
	if response["status"] != "healthy" {
		t.Errorf("expected status 'healthy', got %v", response["status"])
	}
	if response["source"] != "mock" {
		t.Errorf("expected source 'mock', got %v", response["source"])
	}
}

func TestHealthCheck_SourceUnhealthy(t *testing.T) {
	l := &PingingLoader{MockLoader: MockLoader{pingError: errors.New("connection refused")}}

	w := get(t, newRouter(l), "/health")

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", w.Code)
	}
}

func TestGetPeriods(t *testing.T) {
	w := get(t, newRouter(sampleLoader(t)), "/api/v1/periods")

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	response := decode(t, w)
	periods := response["periods"].([]interface{})
	if len(periods) != 1 {
		t.Fatalf("expected 1 period, got %d", len(periods))
	}

	def := response["default"].(map[string]interface{})
	if def["value"] != "2025-03" || def["label"] != "March/2025" {
		t.Errorf("unexpected default period %v", def)
	}

	stats := response["stats"].(map[string]interface{})
	if stats["invalid_dates"] != float64(1) {
		t.Errorf("expected decode stats, got %v", stats)
	}
}

func TestGetReport_DefaultsToLatestMonth(t *testing.T) {
	w := get(t, newRouter(sampleLoader(t)), "/api/v1/report")

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	response := decode(t, w)
	if response["id"] == "" {
		t.Error("expected report id")
	}

	period := response["period"].(map[string]interface{})
	if period["value"] != "2025-03" {
		t.Errorf("expected period 2025-03, got %v", period["value"])
	}

	summary := response["summary"].(map[string]interface{})
	if summary["bet_count"] != float64(4) {
		t.Errorf("expected 4 dated bets in March, got %v", summary["bet_count"])
	}
	if summary["last_balance"] != 10.5 {
		t.Errorf("expected last balance 10.5, got %v", summary["last_balance"])
	}

	timeline := response["timeline"].(map[string]interface{})
	if days := timeline["days"].([]interface{}); len(days) != 31 {
		t.Errorf("expected 31 timeline days, got %d", len(days))
	}
}

func TestGetReport_IsDeterministic(t *testing.T) {
	router := newRouter(sampleLoader(t))

	first := get(t, router, "/api/v1/report?month=2025-03").Body.String()
	second := get(t, router, "/api/v1/report?month=2025-03").Body.String()

	if first != second {
		t.Error("expected identical responses for identical input")
	}
}

func TestGetReport_EmptyPeriodHasNullMetrics(t *testing.T) {
	w := get(t, newRouter(sampleLoader(t)), "/api/v1/report/summary?month=2025-07")

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	summary := decode(t, w)["summary"].(map[string]interface{})
	for _, key := range []string{"last_balance", "total_stake", "roi_pct", "win_rate_pct", "avg_odds"} {
		v, present := summary[key]
		if !present || v != nil {
			t.Errorf("expected %s to be null, got %v", key, v)
		}
	}
}

func TestGetMarkets(t *testing.T) {
	w := get(t, newRouter(sampleLoader(t)), "/api/v1/report/markets?month=2025-03")

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	response := decode(t, w)
	if response["mode"] != "independent" {
		t.Errorf("expected independent mode, got %v", response["mode"])
	}

	markets := response["markets"].([]interface{})
	profits := map[string]float64{}
	for _, m := range markets {
		bucket := m.(map[string]interface{})
		profits[bucket["name"].(string)] = bucket["profit"].(float64)
	}

	if profits["Over"] != -10 {
		t.Errorf("expected Over profit -10, got %v", profits["Over"])
	}
	if profits["Under"] != 0 {
		t.Errorf("expected void Under bet to contribute 0, got %v", profits["Under"])
	}
}

func TestGetTimeline_Range(t *testing.T) {
	w := get(t, newRouter(sampleLoader(t)), "/api/v1/report/timeline?start=2025-03-01&end=2025-03-03")

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	timeline := decode(t, w)["timeline"].(map[string]interface{})
	balance := timeline["balance"].([]interface{})
	if len(balance) != 3 {
		t.Errorf("expected balance line through March 3, got %d points", len(balance))
	}
}

func TestReportEndpoints_InvalidPeriod(t *testing.T) {
	router := newRouter(sampleLoader(t))

	targets := []string{
		"/api/v1/report?month=03-2025",
		"/api/v1/report?start=2025-03-10",
		"/api/v1/report?start=2025-03-10&end=2025-03-01",
		"/api/v1/report?month=2025-03&start=2025-03-01&end=2025-03-02",
		"/api/v1/bets?start=yesterday&end=today",
	}

	for _, target := range targets {
		t.Run(target, func(t *testing.T) {
			w := get(t, router, target)
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d", w.Code)
			}

			response := decode(t, w)
			if response["code"] != float64(http.StatusBadRequest) {
				t.Errorf("expected error body, got %v", response)
			}
		})
	}
}

func TestReportEndpoints_LoaderFailure(t *testing.T) {
	router := newRouter(&MockLoader{shouldError: true})

	for _, target := range []string{"/api/v1/report", "/api/v1/periods", "/api/v1/bets", "/api/v1/bets/export"} {
		w := get(t, router, target)
		if w.Code != http.StatusBadGateway {
			t.Errorf("%s: expected status 502, got %d", target, w.Code)
		}
	}
}

func TestGetReport_NoDatedBets(t *testing.T) {
	ledger := testutil.Ledger(testutil.BetFixture(func(b *models.BetRecord) { b.Day = nil }))

	w := get(t, newRouter(&MockLoader{ledger: ledger}), "/api/v1/report")

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}

func TestGetBets(t *testing.T) {
	w := get(t, newRouter(sampleLoader(t)), "/api/v1/bets?month=2025-03")

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	response := decode(t, w)
	if response["count"] != float64(4) {
		t.Errorf("expected 4 rows, got %v", response["count"])
	}

	rows := response["rows"].([]interface{})
	newest := rows[0].([]interface{})
	if newest[0] != "04/03" || newest[3] != "1.700" || newest[6] != "10.50" {
		t.Errorf("unexpected newest row %v", newest)
	}
}

func TestGetBets_WholeLedgerWithoutPeriod(t *testing.T) {
	w := get(t, newRouter(sampleLoader(t)), "/api/v1/bets")

	response := decode(t, w)
	if response["count"] != float64(5) {
		t.Errorf("expected every row, got %v", response["count"])
	}
	if response["period"] != nil {
		t.Errorf("expected null period, got %v", response["period"])
	}
}

func TestExportBets(t *testing.T) {
	w := get(t, newRouter(sampleLoader(t)), "/api/v1/bets/export?month=2025-03")

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/csv; charset=utf-8" {
		t.Errorf("unexpected content type %s", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); cd != `attachment; filename="betting_data.csv"` {
		t.Errorf("unexpected content disposition %s", cd)
	}

	rows, err := csv.NewReader(w.Body).ReadAll()
	if err != nil {
		t.Fatalf("reading CSV: %v", err)
	}
	if len(rows) != 5 {
		t.Errorf("expected header plus 4 rows, got %d", len(rows))
	}
	if rows[1][6] != "R$ 11,00" {
		t.Errorf("expected original cell text, got %q", rows[1][6])
	}
}

func TestGetSummary_OverflowingStakesStayEncodable(t *testing.T) {
	const csvLedger = `Day,Event,Market,Odds,Stake,Results,Balance
01/03,A x B,1X2,2.0,1e308,Green,10
02/03,C x D,1X2,2.0,1e308,Red,5
`
	ledger, err := loader.DecodeCSV(strings.NewReader(csvLedger), 2025)
	if err != nil {
		t.Fatalf("decoding ledger: %v", err)
	}

	w := get(t, newRouter(&MockLoader{ledger: ledger}), "/api/v1/report/summary?month=2025-03")

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	summary := decode(t, w)["summary"].(map[string]interface{})
	if v, present := summary["total_stake"]; !present || v != nil {
		t.Errorf("expected overflowed total stake to be null, got %v", v)
	}
	if summary["last_balance"] != float64(5) {
		t.Errorf("expected last balance 5, got %v", summary["last_balance"])
	}
}
