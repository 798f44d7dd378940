package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/XavierBriggs/fortuna/services/ledger-analytics/pkg/models"
)

// FileLoader reads the ledger from a local CSV export
type FileLoader struct {
	path string
	year int
}

// NewFileLoader creates a loader for the CSV file at path
func NewFileLoader(path string, year int) *FileLoader {
	return &FileLoader{path: path, year: year}
}

// Source implements Loader
func (f *FileLoader) Source() string {
	return "file"
}

// Location is the absolute path of the CSV file
func (f *FileLoader) Location() string {
	if abs, err := filepath.Abs(f.path); err == nil {
		return abs
	}
	return f.path
}

// Load implements Loader
func (f *FileLoader) Load(ctx context.Context) (*models.Ledger, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLedgerUnavailable, err)
	}

	file, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrLedgerUnavailable, f.path, err)
	}
	defer file.Close()

	ledger, err := DecodeCSV(file, f.year)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrLedgerUnavailable, f.path, err)
	}

	return ledger, nil
}
