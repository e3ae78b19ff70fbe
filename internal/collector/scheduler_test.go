package collector

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

// slowRunner blocks each cycle until released and tracks concurrency.
type slowRunner struct {
	mu         sync.Mutex
	running    int
	maxRunning int
	started    atomic.Int64
	block      chan struct{}
}

func newSlowRunner() *slowRunner {
	return &slowRunner{block: make(chan struct{})}
}

func (r *slowRunner) RunOnce(ctx context.Context, symbol string) CycleResult {
	r.started.Add(1)
	r.mu.Lock()
	r.running++
	if r.running > r.maxRunning {
		r.maxRunning = r.running
	}
	r.mu.Unlock()

	<-r.block

	r.mu.Lock()
	r.running--
	r.mu.Unlock()
	return CycleResult{Symbol: symbol, Outcome: Success, Attempts: 1}
}

func (r *slowRunner) maxConcurrent() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.maxRunning
}

func TestSchedulerSkipsOverlappingTicks(t *testing.T) {
	runner := newSlowRunner()

	cfg := testCollectorConfig()
	cfg.Interval = 5 * time.Millisecond
	s := NewScheduler(runner, cfg, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)

	// Let several ticks fire while the first cycle is still blocked.
	deadline := time.After(time.Second)
	for s.Skipped() < 3 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for skipped ticks")
		case <-time.After(time.Millisecond):
		}
	}

	if got := runner.maxConcurrent(); got != 1 {
		t.Errorf("expected at most 1 concurrent cycle per symbol, got %d", got)
	}
	if got := runner.started.Load(); got != 1 {
		t.Errorf("expected exactly 1 started cycle while blocked, got %d", got)
	}

	cancel()
	close(runner.block)
	s.Stop()
}

func TestSchedulerDrainsInFlightCycleOnStop(t *testing.T) {
	runner := newSlowRunner()

	cfg := testCollectorConfig()
	cfg.Interval = time.Hour // only the startup cycle fires
	s := NewScheduler(runner, cfg, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)

	// Wait for the startup cycle to be in flight, then request shutdown.
	deadline := time.After(time.Second)
	for runner.started.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("startup cycle never started")
		case <-time.After(time.Millisecond):
		}
	}
	cancel()

	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()

	// Stop must wait for the blocked cycle.
	select {
	case <-stopped:
		t.Fatal("Stop returned while a cycle was still in flight")
	case <-time.After(20 * time.Millisecond):
	}

	close(runner.block)
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return after the cycle finished")
	}
}

func TestSchedulerRunsSymbolsConcurrently(t *testing.T) {
	runner := newSlowRunner()

	cfg := testCollectorConfig()
	cfg.Symbols = []string{"BTC/USDT", "ETH/USDT"}
	cfg.Interval = time.Hour
	s := NewScheduler(runner, cfg, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)

	deadline := time.After(time.Second)
	for runner.started.Load() < 2 {
		select {
		case <-deadline:
			t.Fatal("expected startup cycles for both symbols")
		case <-time.After(time.Millisecond):
		}
	}
	if got := runner.maxConcurrent(); got != 2 {
		t.Errorf("expected 2 concurrent cycles across symbols, got %d", got)
	}

	cancel()
	close(runner.block)
	s.Stop()
}
