package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/XavierBriggs/fortuna/services/ledger-analytics/internal/analytics"
	"github.com/XavierBriggs/fortuna/services/ledger-analytics/internal/export"
	"github.com/XavierBriggs/fortuna/services/ledger-analytics/pkg/models"
	"go.uber.org/zap"
)

// GetBets returns the betting details table, newest first.
// Without a period selector the whole ledger is listed.
func (h *Handler) GetBets(w http.ResponseWriter, r *http.Request) {
	ledger, period, records, ok := h.selectRecords(w, r)
	if !ok {
		return
	}

	table := export.DetailTable(ledger.Columns, records)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"period":  period,
		"columns": table.Columns,
		"rows":    table.Rows,
		"count":   len(table.Rows),
	})
}

// ExportBets downloads the selected records as CSV with their original cells
func (h *Handler) ExportBets(w http.ResponseWriter, r *http.Request) {
	ledger, _, records, ok := h.selectRecords(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, ledger.Columns, records); err != nil {
		h.respondError(w, http.StatusInternalServerError, "failed to export bets", err)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.Warn("error writing export", zap.Error(err))
	}
}

// selectRecords loads the ledger and applies the optional period selector
func (h *Handler) selectRecords(w http.ResponseWriter, r *http.Request) (*models.Ledger, *models.Period, []models.BetRecord, bool) {
	period, err := parsePeriod(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), nil)
		return nil, nil, nil, false
	}

	ledger, ok := h.loadLedger(w, r)
	if !ok {
		return nil, nil, nil, false
	}

	records := ledger.Records
	if period != nil {
		records = analytics.FilterPeriod(records, *period)
	}

	return ledger, period, records, true
}
