package collector

import (
	"context"
	"fmt"

	"cryptocollector/config"
	"cryptocollector/internal/model"

	"go.uber.org/zap"
)

// Runner executes collection cycles: fetch a snapshot through the
// gateway (with retry), then fan it out to the cache and the durable
// store. The two sink writes are independent: neither is skipped or
// rolled back because the other failed.
type Runner struct {
	gateway     Gateway
	cache       CacheWriter
	durable     DurableWriter
	retry       RetryPolicy
	largeVolume float64
	log         *zap.Logger
}

func NewRunner(gateway Gateway, cache CacheWriter, durable DurableWriter,
	cfg config.CollectorConfig, log *zap.Logger) *Runner {
	return &Runner{
		gateway:     gateway,
		cache:       cache,
		durable:     durable,
		retry:       PolicyFromConfig(cfg.Retry),
		largeVolume: cfg.LargeVolume,
		log:         log,
	}
}

// RunOnce performs one fetch-and-fan-out cycle for a symbol.
func (r *Runner) RunOnce(ctx context.Context, symbol string) CycleResult {
	result := CycleResult{Symbol: symbol}

	var snap model.Snapshot
	attempts, err := r.retry.Do(ctx, func(ctx context.Context) error {
		s, err := r.gateway.FetchSnapshot(ctx, symbol)
		if err == nil {
			snap = s
		}
		return err
	})
	result.Attempts = attempts
	if err != nil {
		result.Outcome = Aborted
		result.FetchErr = err
		return result
	}

	if !snap.Valid() {
		result.Outcome = Aborted
		result.FetchErr = fmt.Errorf("invalid snapshot for %s: price=%g volume=%g",
			symbol, snap.LastPrice, snap.Volume)
		return result
	}

	if r.largeVolume > 0 && snap.Volume > r.largeVolume {
		r.log.Info("large volume observed",
			zap.String("symbol", symbol),
			zap.Float64("volume", snap.Volume),
			zap.Float64("price", snap.LastPrice))
	}

	result.CacheErr = r.cache.StoreSnapshot(ctx, snap)
	result.DurableErr = r.durable.AppendSnapshot(ctx, snap)

	if result.CacheErr == nil && result.DurableErr == nil {
		result.Outcome = Success
	} else {
		result.Outcome = PartialFailure
	}
	return result
}
