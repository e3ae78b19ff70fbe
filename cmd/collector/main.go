package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"cryptocollector/config"
	"cryptocollector/internal/cache"
	"cryptocollector/internal/collector"
	"cryptocollector/internal/visualizer"
	"cryptocollector/logger"
	"cryptocollector/pkg/binance"
	"cryptocollector/pkg/storage/postgres"

	"go.uber.org/zap"
)

func main() {
	// viper config, validated before anything is constructed
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}

	// zap logger
	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to create logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	if cfg.Collector.Exchange != "binance" {
		log.Fatal("unsupported exchange", zap.String("exchange", cfg.Collector.Exchange))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// durable store
	pg, err := postgres.InitializeAndMigrate(cfg.Postgres, cfg.Log.Environment, true)
	if err != nil {
		log.Fatal("failed to initialize durable store", zap.Error(err))
	}
	defer pg.Close()

	// cache store
	snapshots, err := cache.NewRedisCache(ctx, cfg.Cache.Addr, cfg.Cache.Password,
		cfg.Cache.DB, cfg.Cache.TTL)
	if err != nil {
		log.Fatal("failed to connect to cache store", zap.Error(err))
	}
	defer snapshots.Close()

	// exchange gateway
	gateway := binance.NewClient(cfg.Collector.APIKey, cfg.Collector.APISecret,
		cfg.Collector.FetchTimeout, cfg.Collector.DepthLimit)

	// collection cycles on a fixed interval per symbol
	runner := collector.NewRunner(gateway, snapshots, pg, cfg.Collector, log)
	scheduler := collector.NewScheduler(runner, cfg.Collector, log)
	scheduler.Start(ctx)

	// trend charts, decoupled from the write path
	if cfg.Visualizer.Enabled {
		renderer, err := visualizer.NewRenderer(pg, cfg.Visualizer.OutputDir, log)
		if err != nil {
			log.Fatal("failed to initialize visualizer", zap.Error(err))
		}
		go renderer.Run(ctx, cfg.Collector.Symbols, cfg.Visualizer.Interval, cfg.Visualizer.Lookback)
	}

	log.Info("collector started",
		zap.String("exchange", cfg.Collector.Exchange),
		zap.Strings("symbols", cfg.Collector.Symbols),
		zap.Duration("interval", cfg.Collector.Interval))

	<-ctx.Done()
	log.Info("shutdown requested, draining in-flight cycles")
	scheduler.Stop()
	log.Info("collector stopped")
}
