package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/XavierBriggs/fortuna/services/ledger-analytics/internal/retry"
	"github.com/XavierBriggs/fortuna/services/ledger-analytics/pkg/models"
)

const (
	// SheetsBaseURL is the Google Sheets document endpoint
	SheetsBaseURL = "https://docs.google.com/spreadsheets/d"

	maxErrorBody = 512
)

var sheetIDPattern = regexp.MustCompile(`/d/([a-zA-Z0-9_-]+)`)

// SheetID extracts the document ID from a Google Sheets URL
func SheetID(sheetURL string) (string, error) {
	m := sheetIDPattern.FindStringSubmatch(sheetURL)
	if m == nil {
		return "", fmt.Errorf("no sheet id in %q", sheetURL)
	}
	return m[1], nil
}

// SheetsLoader fetches the ledger from a Google Sheet's CSV export
type SheetsLoader struct {
	sheetID     string
	baseURL     string
	year        int
	httpClient  *http.Client
	retryPolicy *retry.RetryPolicy
}

// SheetsOption customizes a SheetsLoader
type SheetsOption func(*SheetsLoader)

// WithBaseURL points the loader at another endpoint
func WithBaseURL(baseURL string) SheetsOption {
	return func(s *SheetsLoader) { s.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithHTTPClient replaces the default client
func WithHTTPClient(client *http.Client) SheetsOption {
	return func(s *SheetsLoader) { s.httpClient = client }
}

// WithRetryPolicy replaces the default single-attempt policy
func WithRetryPolicy(policy *retry.RetryPolicy) SheetsOption {
	return func(s *SheetsLoader) { s.retryPolicy = policy }
}

// NewSheetsLoader creates a loader for the sheet behind sheetURL
func NewSheetsLoader(sheetURL string, year int, opts ...SheetsOption) (*SheetsLoader, error) {
	id, err := SheetID(sheetURL)
	if err != nil {
		return nil, err
	}

	s := &SheetsLoader{
		sheetID: id,
		baseURL: SheetsBaseURL,
		year:    year,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		retryPolicy: retry.NewRetryPolicy(1, 0),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Source implements Loader
func (s *SheetsLoader) Source() string {
	return "sheets"
}

// Location is the sheet ID
func (s *SheetsLoader) Location() string {
	return s.sheetID
}

// ExportURL is the CSV export address of the sheet
func (s *SheetsLoader) ExportURL() string {
	return fmt.Sprintf("%s/%s/gviz/tq?tqx=out:csv", s.baseURL, s.sheetID)
}

// Load implements Loader
func (s *SheetsLoader) Load(ctx context.Context) (*models.Ledger, error) {
	var ledger *models.Ledger

	err := s.retryPolicy.Execute(ctx, func(ctx context.Context) error {
		l, err := s.fetch(ctx)
		if err != nil {
			return err
		}
		ledger = l
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: sheet %s: %w", ErrLedgerUnavailable, s.sheetID, err)
	}

	return ledger, nil
}

func (s *SheetsLoader) fetch(ctx context.Context) (*models.Ledger, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.ExportURL(), nil)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("creating request: %w", err))
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		err := fmt.Errorf("sheets export error: status=%d, body=%s", resp.StatusCode, string(body))
		// Client errors (private sheet, bad id) will not heal on retry
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, retry.Permanent(err)
		}
		return nil, err
	}

	ledger, err := DecodeCSV(resp.Body, s.year)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("decoding export: %w", err))
	}

	return ledger, nil
}
