package collector

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"cryptocollector/config"
	"cryptocollector/internal/model"

	"go.uber.org/zap"
)

// CycleRunner is what the scheduler drives once per tick per symbol.
type CycleRunner interface {
	RunOnce(ctx context.Context, symbol string) CycleResult
}

// Scheduler owns one ticker loop per configured symbol. Loops for
// different symbols run concurrently; within a symbol at most one cycle
// is in flight, and a tick that fires while the previous cycle is still
// running is skipped, not queued.
//
// Cycles run on their own timeout context derived from Background:
// cancelling the scheduler's context stops future ticks, but an issued
// exchange call is always allowed to finish.
type Scheduler struct {
	runner       CycleRunner
	symbols      []string
	interval     time.Duration
	initialDelay time.Duration
	cycleTimeout time.Duration
	log          *zap.Logger

	wg      sync.WaitGroup
	skipped atomic.Uint64
}

func NewScheduler(runner CycleRunner, cfg config.CollectorConfig, log *zap.Logger) *Scheduler {
	return &Scheduler{
		runner:       runner,
		symbols:      cfg.Symbols,
		interval:     cfg.Interval,
		initialDelay: cfg.InitialDelay,
		cycleTimeout: cfg.CycleTimeout,
		log:          log,
	}
}

// Start launches the per-symbol loops. It does not block.
func (s *Scheduler) Start(ctx context.Context) {
	for _, symbol := range s.symbols {
		s.wg.Add(1)
		go s.loop(ctx, symbol)
	}
	s.log.Info("scheduler started",
		zap.Strings("symbols", s.symbols),
		zap.Duration("interval", s.interval))
}

// Stop waits for the loops and any in-flight cycles to drain. The
// caller cancels the context passed to Start first.
func (s *Scheduler) Stop() {
	s.wg.Wait()
}

// Skipped returns how many ticks were dropped because the previous
// cycle for the symbol was still running.
func (s *Scheduler) Skipped() uint64 {
	return s.skipped.Load()
}

func (s *Scheduler) loop(ctx context.Context, symbol string) {
	defer s.wg.Done()

	if s.initialDelay > 0 {
		select {
		case <-time.After(s.initialDelay):
		case <-ctx.Done():
			return
		}
	}

	inFlight := make(chan struct{}, 1)

	// First cycle fires at startup, then on every tick.
	s.launch(symbol, inFlight)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.launch(symbol, inFlight)
		}
	}
}

// launch starts a cycle goroutine unless one is already running for the
// symbol, in which case the tick is dropped.
func (s *Scheduler) launch(symbol string, inFlight chan struct{}) {
	select {
	case inFlight <- struct{}{}:
	default:
		s.skipped.Add(1)
		s.log.Warn("previous cycle still running, skipping tick",
			zap.String("symbol", symbol))
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() { <-inFlight }()

		ctx, cancel := context.WithTimeout(context.Background(), s.cycleTimeout)
		defer cancel()

		s.report(s.runner.RunOnce(ctx, symbol))
	}()
}

// report surfaces every cycle result; aborted cycles and sink failures
// are never dropped silently.
func (s *Scheduler) report(res CycleResult) {
	switch res.Outcome {
	case Success:
		s.log.Debug("cycle completed",
			zap.String("symbol", res.Symbol),
			zap.Int("attempts", res.Attempts))
	case Aborted:
		s.log.Error("cycle aborted",
			zap.String("symbol", res.Symbol),
			zap.Time("at", time.Now().UTC()),
			zap.Int("attempts", res.Attempts),
			zap.String("kind", errorKind(res.FetchErr)),
			zap.Error(res.FetchErr))
	case PartialFailure:
		fields := []zap.Field{
			zap.String("symbol", res.Symbol),
			zap.Time("at", time.Now().UTC()),
			zap.Strings("failed_sinks", res.FailedSinks()),
		}
		if res.CacheErr != nil {
			fields = append(fields, zap.NamedError("cache_error", res.CacheErr))
		}
		if res.DurableErr != nil {
			fields = append(fields, zap.NamedError("durable_error", res.DurableErr))
		}
		s.log.Error("cycle stored partially", fields...)
	}
}

func errorKind(err error) string {
	var ge *model.GatewayError
	if errors.As(err, &ge) {
		return ge.Kind.String()
	}
	return "unknown"
}
