package loader_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/XavierBriggs/fortuna/services/ledger-analytics/internal/loader"
	"github.com/XavierBriggs/fortuna/services/ledger-analytics/internal/retry"
	"github.com/XavierBriggs/fortuna/services/ledger-analytics/internal/testutil"
)

const sheetURL = "https://docs.google.com/spreadsheets/d/1AbC-dEf_123/edit#gid=0"

func TestSheetID(t *testing.T) {
	tests := []struct {
		url     string
		want    string
		wantErr bool
	}{
		{sheetURL, "1AbC-dEf_123", false},
		{"https://docs.google.com/spreadsheets/d/xyz/", "xyz", false},
		{"https://example.com/ledger.csv", "", true},
	}

	for _, tt := range tests {
		got, err := loader.SheetID(tt.url)
		if (err != nil) != tt.wantErr {
			t.Errorf("SheetID(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("SheetID(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestSheetsLoader_Load(t *testing.T) {
	var path, query string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		query = r.URL.RawQuery
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte(testutil.SampleCSV))
	}))
	defer server.Close()

	l, err := loader.NewSheetsLoader(sheetURL, 2025, loader.WithBaseURL(server.URL+"/spreadsheets/d"))
	if err != nil {
		t.Fatalf("NewSheetsLoader failed: %v", err)
	}

	ledger, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if path != "/spreadsheets/d/1AbC-dEf_123/gviz/tq" {
		t.Errorf("unexpected export path %s", path)
	}
	if query != "tqx=out:csv" {
		t.Errorf("unexpected export query %s", query)
	}
	if len(ledger.Records) != 5 {
		t.Errorf("expected 5 records, got %d", len(ledger.Records))
	}
}

func TestSheetsLoader_DefaultExportURL(t *testing.T) {
	l, err := loader.NewSheetsLoader(sheetURL, 2025)
	if err != nil {
		t.Fatalf("NewSheetsLoader failed: %v", err)
	}

	want := "https://docs.google.com/spreadsheets/d/1AbC-dEf_123/gviz/tq?tqx=out:csv"
	if got := l.ExportURL(); got != want {
		t.Errorf("ExportURL() = %s, want %s", got, want)
	}
}

func TestSheetsLoader_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			http.Error(w, "backend error", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(testutil.SampleCSV))
	}))
	defer server.Close()

	l, _ := loader.NewSheetsLoader(sheetURL, 2025,
		loader.WithBaseURL(server.URL),
		loader.WithRetryPolicy(retry.NewRetryPolicy(3, time.Millisecond)),
	)

	if _, err := l.Load(context.Background()); err != nil {
		t.Fatalf("expected success on third attempt, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 requests, got %d", calls)
	}
}

func TestSheetsLoader_ClientErrorIsNotRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "not shared", http.StatusForbidden)
	}))
	defer server.Close()

	l, _ := loader.NewSheetsLoader(sheetURL, 2025,
		loader.WithBaseURL(server.URL),
		loader.WithRetryPolicy(retry.NewRetryPolicy(3, time.Millisecond)),
	)

	_, err := l.Load(context.Background())
	if !errors.Is(err, loader.ErrLedgerUnavailable) {
		t.Errorf("expected ErrLedgerUnavailable, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected a single request, got %d", calls)
	}
}

func TestNewSheetsLoader_InvalidURL(t *testing.T) {
	if _, err := loader.NewSheetsLoader("not a sheet", 2025); err == nil {
		t.Error("expected error for URL without sheet id")
	}
}
