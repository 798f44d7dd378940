package loader_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/XavierBriggs/fortuna/services/ledger-analytics/internal/cache"
	"github.com/XavierBriggs/fortuna/services/ledger-analytics/internal/loader"
	"github.com/XavierBriggs/fortuna/services/ledger-analytics/internal/testutil"
	"github.com/XavierBriggs/fortuna/services/ledger-analytics/pkg/models"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// StubLoader counts loads and returns a fixed ledger or error
type StubLoader struct {
	Ledger *models.Ledger
	Err    error
	Calls  int
}

func (s *StubLoader) Source() string { return "stub" }

func (s *StubLoader) Load(ctx context.Context) (*models.Ledger, error) {
	s.Calls++
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Ledger, nil
}

func setupCachedLoader(t *testing.T, inner loader.Loader) (*loader.CachedLoader, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { client.Close() })

	c := cache.NewRedisCache(client, time.Minute)
	return loader.NewCachedLoader(inner, c, cache.LedgerKey(inner.Source(), loader.Location(inner)), cache.ErrMiss, nil), mr
}

func TestCachedLoader_ServesFromCache(t *testing.T) {
	stub := &StubLoader{Ledger: testutil.Ledger(
		testutil.SettledBet(0, 1, "1X2", models.ResultGreen, 10, 2.0, 10),
		testutil.SettledBet(0, 2, "AH", models.ResultRedVoid, 10, 2.0, 5),
	)}
	cached, mr := setupCachedLoader(t, stub)
	ctx := context.Background()

	first, err := cached.Load(ctx)
	if err != nil {
		t.Fatalf("first Load failed: %v", err)
	}
	if !mr.Exists("ledger:stub") {
		t.Fatal("expected ledger to be written under ledger:stub")
	}

	second, err := cached.Load(ctx)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}

	if stub.Calls != 1 {
		t.Errorf("expected inner loader to run once, ran %d times", stub.Calls)
	}
	if len(second.Records) != len(first.Records) {
		t.Fatalf("expected %d cached records, got %d", len(first.Records), len(second.Records))
	}
	rec := second.Records[1]
	if rec.Seq != 1 || rec.Result != models.ResultRedVoid || !rec.Day.Equal(*first.Records[1].Day) {
		t.Errorf("cached record differs: %+v", rec)
	}
	if *rec.Balance != 5 {
		t.Errorf("expected balance 5, got %f", *rec.Balance)
	}
}

func TestCachedLoader_ReloadsAfterExpiry(t *testing.T) {
	stub := &StubLoader{Ledger: testutil.Ledger(testutil.BetFixture())}
	cached, mr := setupCachedLoader(t, stub)
	ctx := context.Background()

	if _, err := cached.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	mr.FastForward(2 * time.Minute)
	if _, err := cached.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if stub.Calls != 2 {
		t.Errorf("expected reload after TTL, got %d inner loads", stub.Calls)
	}
}

func TestCachedLoader_BypassesUnavailableCache(t *testing.T) {
	stub := &StubLoader{Ledger: testutil.Ledger(testutil.BetFixture())}
	cached, mr := setupCachedLoader(t, stub)
	mr.Close()

	ledger, err := cached.Load(context.Background())
	if err != nil {
		t.Fatalf("expected cache failure to be bypassed, got %v", err)
	}
	if len(ledger.Records) != 1 {
		t.Errorf("expected 1 record, got %d", len(ledger.Records))
	}
}

func TestCachedLoader_BypassesCorruptEntry(t *testing.T) {
	stub := &StubLoader{Ledger: testutil.Ledger(testutil.BetFixture())}
	cached, mr := setupCachedLoader(t, stub)
	mr.Set("ledger:stub", "garbage")

	if _, err := cached.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if stub.Calls != 1 {
		t.Errorf("expected inner load on corrupt entry, got %d", stub.Calls)
	}
}

func TestCachedLoader_PropagatesSourceFailure(t *testing.T) {
	upstream := errors.New("sheet offline")
	stub := &StubLoader{Err: upstream}
	cached, mr := setupCachedLoader(t, stub)

	_, err := cached.Load(context.Background())
	if !errors.Is(err, upstream) {
		t.Errorf("expected source error, got %v", err)
	}
	if mr.Exists("ledger:stub") {
		t.Error("expected nothing to be cached on failure")
	}
	if cached.Source() != "stub" {
		t.Errorf("expected inner source name, got %s", cached.Source())
	}
}

func TestCachedLoader_KeyedByLocation(t *testing.T) {
	first, err := loader.NewSheetsLoader("https://docs.google.com/spreadsheets/d/first-sheet/edit", 2025)
	if err != nil {
		t.Fatalf("NewSheetsLoader failed: %v", err)
	}
	second, err := loader.NewSheetsLoader("https://docs.google.com/spreadsheets/d/second-sheet/edit", 2025)
	if err != nil {
		t.Fatalf("NewSheetsLoader failed: %v", err)
	}

	firstKey := cache.LedgerKey(first.Source(), loader.Location(first))
	secondKey := cache.LedgerKey(second.Source(), loader.Location(second))

	if firstKey != "ledger:sheets:first-sheet" {
		t.Errorf("unexpected key %s", firstKey)
	}
	if firstKey == secondKey {
		t.Error("expected sheets with different IDs to use different keys")
	}

	wrapped := loader.NewCachedLoader(first, nil, firstKey, cache.ErrMiss, nil)
	if loader.Location(wrapped) != "first-sheet" {
		t.Errorf("expected cached loader to report the inner location, got %q", loader.Location(wrapped))
	}
	if loader.Location(&StubLoader{}) != "" {
		t.Error("expected no location for a loader that does not report one")
	}
}
