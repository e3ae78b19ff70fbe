package postgres_test

import (
	"context"
	"testing"
	"time"

	"cryptocollector/config"
	"cryptocollector/internal/model"
	"cryptocollector/pkg/storage/postgres"
)

// go test -v --run TestSnapshotAppendAndRange
func TestSnapshotAppendAndRange(t *testing.T) {
	cfg := config.PostgresConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "yourpw",
		DBName:   "cryptocollector",
		SSLMode:  "disable",
		TimeZone: "UTC",
	}

	client, err := postgres.NewClient(cfg.DSN("dev"))
	if err != nil {
		t.Skipf("postgres not reachable, skipping: %v", err)
	}
	defer client.Close()

	ctx := context.Background()

	if err := client.AutoMigrateSnapshotRecord(); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	symbol := "TEST/USDT"
	base := time.Now().UTC().Truncate(time.Second)

	before, err := client.CountForSymbol(ctx, symbol)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}

	// Append three snapshots out of order.
	for _, offset := range []time.Duration{2 * time.Second, 0, time.Second} {
		snap := model.Snapshot{
			Symbol:    symbol,
			Timestamp: base.Add(offset),
			LastPrice: 100 + float64(offset/time.Second),
			Volume:    1,
			OrderBook: model.OrderBook{
				Bids: []model.PriceLevel{{Price: 99, Size: 1}},
				Asks: []model.PriceLevel{{Price: 101, Size: 1}},
			},
		}
		if err := client.AppendSnapshot(ctx, snap); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}

	after, err := client.CountForSymbol(ctx, symbol)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if after != before+3 {
		t.Errorf("expected %d rows, got %d", before+3, after)
	}

	got, err := client.SnapshotsInRange(ctx, symbol, base, base.Add(2*time.Second))
	if err != nil {
		t.Fatalf("range read failed: %v", err)
	}
	if len(got) < 3 {
		t.Fatalf("expected at least 3 snapshots, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Timestamp.Before(got[i-1].Timestamp) {
			t.Errorf("snapshots not ordered by timestamp: %v before %v",
				got[i].Timestamp, got[i-1].Timestamp)
		}
	}
	if got[len(got)-1].BestBid() != 99 || got[len(got)-1].BestAsk() != 101 {
		t.Errorf("book summary lost: %+v", got[len(got)-1])
	}
}
