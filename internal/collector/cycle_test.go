package collector

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cryptocollector/config"
	"cryptocollector/internal/model"

	"go.uber.org/zap"
)

type fakeGateway struct {
	mu       sync.Mutex
	calls    int
	failures int   // fail this many calls before succeeding
	err      error // error returned while failing
	snapshot model.Snapshot
	delay    time.Duration
}

func (g *fakeGateway) FetchSnapshot(ctx context.Context, symbol string) (model.Snapshot, error) {
	g.mu.Lock()
	g.calls++
	calls := g.calls
	g.mu.Unlock()

	if g.delay > 0 {
		time.Sleep(g.delay)
	}
	if calls <= g.failures {
		return model.Snapshot{}, g.err
	}
	return g.snapshot, nil
}

func (g *fakeGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

type fakeSink struct {
	mu     sync.Mutex
	stored []model.Snapshot
	err    error
}

func (s *fakeSink) store(snap model.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.stored = append(s.stored, snap)
	return nil
}

func (s *fakeSink) StoreSnapshot(ctx context.Context, snap model.Snapshot) error {
	return s.store(snap)
}

func (s *fakeSink) AppendSnapshot(ctx context.Context, snap model.Snapshot) error {
	return s.store(snap)
}

func (s *fakeSink) snapshots() []model.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]model.Snapshot, len(s.stored))
	copy(cp, s.stored)
	return cp
}

func testCollectorConfig() config.CollectorConfig {
	return config.CollectorConfig{
		Symbols:      []string{"BTC/USDT"},
		Interval:     10 * time.Millisecond,
		CycleTimeout: time.Second,
		Retry: config.RetryConfig{
			MaxAttempts:    3,
			BaseDelay:      time.Millisecond,
			MaxDelay:       5 * time.Millisecond,
			Multiplier:     2.0,
			RateLimitDelay: 2 * time.Millisecond,
		},
	}
}

func testSnapshot() model.Snapshot {
	return model.Snapshot{
		Symbol:    "BTC/USDT",
		Timestamp: time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC),
		LastPrice: 50000,
		Volume:    1.2,
		OrderBook: model.OrderBook{
			Bids: []model.PriceLevel{{Price: 49999, Size: 1}, {Price: 49998, Size: 2}},
			Asks: []model.PriceLevel{{Price: 50001, Size: 1}, {Price: 50002, Size: 2}},
		},
	}
}

func TestRunOnceSuccessStoresInBothSinks(t *testing.T) {
	gw := &fakeGateway{snapshot: testSnapshot()}
	cacheSink := &fakeSink{}
	durableSink := &fakeSink{}
	runner := NewRunner(gw, cacheSink, durableSink, testCollectorConfig(), zap.NewNop())

	res := runner.RunOnce(context.Background(), "BTC/USDT")

	if res.Outcome != Success {
		t.Fatalf("expected Success, got %s", res.Outcome)
	}
	if res.Attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", res.Attempts)
	}

	cached := cacheSink.snapshots()
	if len(cached) != 1 || cached[0].LastPrice != 50000 {
		t.Errorf("unexpected cache contents: %+v", cached)
	}
	durable := durableSink.snapshots()
	if len(durable) != 1 {
		t.Fatalf("expected 1 durable row, got %d", len(durable))
	}
	if durable[0].Symbol != "BTC/USDT" || durable[0].LastPrice != 50000 || durable[0].Volume != 1.2 {
		t.Errorf("unexpected durable row: %+v", durable[0])
	}
}

func TestRunOnceRetriesTransientThenSucceeds(t *testing.T) {
	gw := &fakeGateway{
		snapshot: testSnapshot(),
		failures: 2,
		err:      &model.GatewayError{Kind: model.KindTransient, Symbol: "BTC/USDT", Err: errors.New("timeout")},
	}
	runner := NewRunner(gw, &fakeSink{}, &fakeSink{}, testCollectorConfig(), zap.NewNop())

	res := runner.RunOnce(context.Background(), "BTC/USDT")

	if res.Outcome != Success {
		t.Fatalf("expected Success after retries, got %s (%v)", res.Outcome, res.FetchErr)
	}
	if gw.callCount() != 3 {
		t.Errorf("expected exactly 3 gateway calls, got %d", gw.callCount())
	}
}

func TestRunOnceAbortsOnPermanentErrorWithoutRetry(t *testing.T) {
	gw := &fakeGateway{
		failures: 100,
		err:      &model.GatewayError{Kind: model.KindPermanent, Symbol: "BTC/USDT", Err: errors.New("invalid symbol")},
	}
	cacheSink := &fakeSink{}
	durableSink := &fakeSink{}
	runner := NewRunner(gw, cacheSink, durableSink, testCollectorConfig(), zap.NewNop())

	res := runner.RunOnce(context.Background(), "BTC/USDT")

	if res.Outcome != Aborted {
		t.Fatalf("expected Aborted, got %s", res.Outcome)
	}
	if gw.callCount() != 1 {
		t.Errorf("permanent error must not be retried, got %d calls", gw.callCount())
	}
	if len(cacheSink.snapshots()) != 0 || len(durableSink.snapshots()) != 0 {
		t.Error("aborted cycle must not write to any sink")
	}
}

func TestRunOnceAbortsAfterExhaustedRetries(t *testing.T) {
	gw := &fakeGateway{
		failures: 100,
		err:      &model.GatewayError{Kind: model.KindTransient, Symbol: "BTC/USDT", Err: errors.New("timeout")},
	}
	runner := NewRunner(gw, &fakeSink{}, &fakeSink{}, testCollectorConfig(), zap.NewNop())

	res := runner.RunOnce(context.Background(), "BTC/USDT")

	if res.Outcome != Aborted {
		t.Fatalf("expected Aborted, got %s", res.Outcome)
	}
	if gw.callCount() != 3 {
		t.Errorf("expected at most 3 gateway calls, got %d", gw.callCount())
	}
	if res.FetchErr == nil {
		t.Error("aborted result must carry the fetch error")
	}
}

func TestRunOncePartialFailureWhenOneSinkFails(t *testing.T) {
	cases := []struct {
		name       string
		cacheErr   error
		durableErr error
	}{
		{"cache fails", errors.New("redis down"), nil},
		{"durable fails", nil, errors.New("postgres down")},
		{"both fail", errors.New("redis down"), errors.New("postgres down")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gw := &fakeGateway{snapshot: testSnapshot()}
			cacheSink := &fakeSink{err: tc.cacheErr}
			durableSink := &fakeSink{err: tc.durableErr}
			runner := NewRunner(gw, cacheSink, durableSink, testCollectorConfig(), zap.NewNop())

			res := runner.RunOnce(context.Background(), "BTC/USDT")

			if res.Outcome != PartialFailure {
				t.Fatalf("expected PartialFailure, got %s", res.Outcome)
			}
			if (res.CacheErr != nil) != (tc.cacheErr != nil) {
				t.Errorf("cache error mismatch: %v", res.CacheErr)
			}
			if (res.DurableErr != nil) != (tc.durableErr != nil) {
				t.Errorf("durable error mismatch: %v", res.DurableErr)
			}

			// A failing cache must not stop the durable write and
			// vice versa.
			if tc.durableErr == nil && len(durableSink.snapshots()) != 1 {
				t.Error("durable write skipped after cache failure")
			}
			if tc.cacheErr == nil && len(cacheSink.snapshots()) != 1 {
				t.Error("cache write skipped after durable failure")
			}
		})
	}
}

func TestRunOnceRejectsInvalidSnapshot(t *testing.T) {
	gw := &fakeGateway{snapshot: model.Snapshot{Symbol: "BTC/USDT", LastPrice: 0, Volume: 1}}
	cacheSink := &fakeSink{}
	runner := NewRunner(gw, cacheSink, &fakeSink{}, testCollectorConfig(), zap.NewNop())

	res := runner.RunOnce(context.Background(), "BTC/USDT")

	if res.Outcome != Aborted {
		t.Fatalf("expected Aborted for invalid snapshot, got %s", res.Outcome)
	}
	if len(cacheSink.snapshots()) != 0 {
		t.Error("invalid snapshot must not reach the sinks")
	}
}
