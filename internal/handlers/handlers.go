package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/XavierBriggs/fortuna/services/ledger-analytics/internal/analytics"
	"github.com/XavierBriggs/fortuna/services/ledger-analytics/internal/loader"
	"github.com/XavierBriggs/fortuna/services/ledger-analytics/pkg/models"
	"go.uber.org/zap"
)

const (
	serviceName        = "ledger-analytics"
	defaultLoadTimeout = 20 * time.Second
)

// errNoData is returned when the ledger holds no dated bet to default a period to
var errNoData = errors.New("ledger has no dated bets")

// Pinger is implemented by loaders backed by a store that can be health checked
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler contains dependencies for HTTP handlers
type Handler struct {
	loader      loader.Loader
	engine      *analytics.Engine
	logger      *zap.Logger
	loadTimeout time.Duration
}

// NewHandler creates a new handler with dependencies
func NewHandler(l loader.Loader, engine *analytics.Engine, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		loader:      l,
		engine:      engine,
		logger:      logger,
		loadTimeout: defaultLoadTimeout,
	}
}

// WithLoadTimeout bounds how long a request may wait for the ledger
func (h *Handler) WithLoadTimeout(d time.Duration) *Handler {
	if d > 0 {
		h.loadTimeout = d
	}
	return h
}

// HealthCheck returns the health status of the service
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if p, ok := h.loader.(Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			h.respondError(w, http.StatusServiceUnavailable, "ledger source unhealthy", err)
			return
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   serviceName,
		"source":    h.loader.Source(),
	})
}

// GetPeriods lists the months with activity and the default selection
func (h *Handler) GetPeriods(w http.ResponseWriter, r *http.Request) {
	ledger, ok := h.loadLedger(w, r)
	if !ok {
		return
	}

	months := analytics.AvailableMonths(ledger.Records)
	if months == nil {
		months = []models.Period{}
	}

	var latest *models.Period
	if p, ok := analytics.LatestMonth(ledger.Records); ok {
		latest = &p
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"periods": months,
		"default": latest,
		"count":   len(months),
		"stats":   ledger.Stats,
	})
}

// GetReport computes every view for the selected period
// Query params: month=YYYY-MM, or start=YYYY-MM-DD&end=YYYY-MM-DD
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	report, ok := h.computeReport(w, r)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// GetSummary returns the headline metrics of the selected period
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	report, ok := h.computeReport(w, r)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"id":      report.ID,
		"period":  report.Period,
		"summary": report.Summary,
	})
}

// GetMarkets returns the per-market profit breakdown of the selected period
func (h *Handler) GetMarkets(w http.ResponseWriter, r *http.Request) {
	report, ok := h.computeReport(w, r)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"id":               report.ID,
		"period":           report.Period,
		"mode":             h.engine.Mode(),
		"markets":          report.Markets,
		"overlapping_bets": report.OverlappingBets,
	})
}

// GetTimeline returns the daily balance and profit series of the selected period
func (h *Handler) GetTimeline(w http.ResponseWriter, r *http.Request) {
	report, ok := h.computeReport(w, r)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"id":       report.ID,
		"period":   report.Period,
		"timeline": report.Timeline,
	})
}

// computeReport handles period parsing, loading and the engine run shared by the
// report endpoints. It writes the error response itself when ok is false.
func (h *Handler) computeReport(w http.ResponseWriter, r *http.Request) (*models.Report, bool) {
	requested, err := parsePeriod(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), nil)
		return nil, false
	}

	ledger, ok := h.loadLedger(w, r)
	if !ok {
		return nil, false
	}

	period, ok := analytics.ResolvePeriod(ledger, requested)
	if !ok {
		h.respondError(w, http.StatusNotFound, errNoData.Error(), nil)
		return nil, false
	}

	start := time.Now()
	report := h.engine.Compute(ledger, period)

	h.logger.Debug("report computed",
		zap.String("period", period.String()),
		zap.String("report_id", report.ID),
		zap.Int("rows", len(report.Records)),
		zap.Duration("duration", time.Since(start)))

	return report, true
}

// loadLedger fetches a ledger snapshot, answering 502 when the source fails
func (h *Handler) loadLedger(w http.ResponseWriter, r *http.Request) (*models.Ledger, bool) {
	ctx, cancel := context.WithTimeout(r.Context(), h.loadTimeout)
	defer cancel()

	start := time.Now()
	ledger, err := h.loader.Load(ctx)
	if err != nil {
		if !errors.Is(err, loader.ErrLedgerUnavailable) {
			err = fmt.Errorf("%w: %w", loader.ErrLedgerUnavailable, err)
		}
		h.respondError(w, http.StatusBadGateway, "failed to load ledger", err)
		return nil, false
	}

	h.logger.Debug("ledger loaded",
		zap.String("source", h.loader.Source()),
		zap.Int("rows", ledger.Stats.Rows),
		zap.Int("invalid_dates", ledger.Stats.InvalidDates),
		zap.Int("invalid_money", ledger.Stats.InvalidMoney),
		zap.Duration("duration", time.Since(start)))

	return ledger, true
}

// parsePeriod reads the optional period selector. nil means none was given.
func parsePeriod(r *http.Request) (*models.Period, error) {
	q := r.URL.Query()
	month, start, end := q.Get("month"), q.Get("start"), q.Get("end")

	switch {
	case month != "" && (start != "" || end != ""):
		return nil, fmt.Errorf("use either month or start/end, not both")
	case month != "":
		p, err := models.ParseMonth(month)
		if err != nil {
			return nil, err
		}
		return &p, nil
	case start != "" || end != "":
		if start == "" || end == "" {
			return nil, fmt.Errorf("start and end must be given together")
		}
		p, err := models.ParseRange(start, end)
		if err != nil {
			return nil, err
		}
		return &p, nil
	default:
		return nil, nil
	}
}

// respondJSON encodes data before writing the status so an encode failure is still a 500
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		zap.L().Error("error encoding response", zap.Int("status", status), zap.Error(err))

		status = http.StatusInternalServerError
		body, _ = json.Marshal(models.ErrorResponse{
			Error:   http.StatusText(status),
			Message: "failed to encode response",
			Code:    status,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(body, '\n'))
}

func (h *Handler) respondError(w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		h.logger.Error(message,
			zap.Int("status", status),
			zap.String("source", h.loader.Source()),
			zap.Error(err))
	}

	respondJSON(w, status, models.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	})
}
