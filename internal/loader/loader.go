package loader

import (
	"context"
	"errors"

	"github.com/XavierBriggs/fortuna/services/ledger-analytics/pkg/models"
)

// ErrLedgerUnavailable wraps every failure to obtain a ledger from its source
var ErrLedgerUnavailable = errors.New("ledger unavailable")

// Loader produces a decoded ledger snapshot
type Loader interface {
	Load(ctx context.Context) (*models.Ledger, error)
	// Source names the backing store, e.g. "sheets" or "postgres"
	Source() string
}

// Locator is implemented by loaders that can name the document they read
type Locator interface {
	Location() string
}

// Location reports which sheet, file or table l reads, or "" when it cannot tell
func Location(l Loader) string {
	if loc, ok := l.(Locator); ok {
		return loc.Location()
	}
	return ""
}
