package postgres

import (
	"context"
	"time"

	"cryptocollector/internal/model"
)

// AppendSnapshot inserts one durable record for the given snapshot.
// Plain insert: the table is append-only and two snapshots for the same
// symbol and timestamp are legitimate distinct observations.
func (p *PostgresClient) AppendSnapshot(ctx context.Context, s model.Snapshot) error {
	record := ToSnapshotRecord(s)
	if err := p.DB.WithContext(ctx).Create(record).Error; err != nil {
		return &model.StoreError{Sink: "durable", Err: err}
	}
	return nil
}

// SnapshotsInRange returns the stored snapshots for a symbol within
// [from, to], ordered by timestamp ascending.
func (p *PostgresClient) SnapshotsInRange(ctx context.Context, symbol string, from, to time.Time) ([]model.Snapshot, error) {
	var records []SnapshotRecord
	err := p.DB.WithContext(ctx).
		Where("symbol = ? AND timestamp >= ? AND timestamp <= ?", symbol, from, to).
		Order("timestamp ASC").
		Find(&records).Error
	if err != nil {
		return nil, &model.StoreError{Sink: "durable", Err: err}
	}

	out := make([]model.Snapshot, 0, len(records))
	for _, r := range records {
		out = append(out, r.ToSnapshot())
	}
	return out, nil
}

// CountForSymbol returns the number of stored rows for a symbol. Used by
// operational checks and tests.
func (p *PostgresClient) CountForSymbol(ctx context.Context, symbol string) (int64, error) {
	var n int64
	err := p.DB.WithContext(ctx).
		Model(&SnapshotRecord{}).
		Where("symbol = ?", symbol).
		Count(&n).Error
	if err != nil {
		return 0, &model.StoreError{Sink: "durable", Err: err}
	}
	return n, nil
}

// ToSnapshotRecord converts a snapshot into its durable row, summarizing
// the order book into best bid/ask and per-side level counts.
func ToSnapshotRecord(s model.Snapshot) *SnapshotRecord {
	return &SnapshotRecord{
		Symbol:    s.Symbol,
		Timestamp: s.Timestamp,
		Price:     s.LastPrice,
		Volume:    s.Volume,
		BestBid:   s.BestBid(),
		BestAsk:   s.BestAsk(),
		BidLevels: len(s.OrderBook.Bids),
		AskLevels: len(s.OrderBook.Asks),
	}
}

// ToSnapshot maps a durable row back to the model. The order book only
// survives as its summary, so Bids/Asks hold at most the best level.
func (r SnapshotRecord) ToSnapshot() model.Snapshot {
	s := model.Snapshot{
		Symbol:    r.Symbol,
		Timestamp: r.Timestamp,
		LastPrice: r.Price,
		Volume:    r.Volume,
	}
	if r.BestBid > 0 {
		s.OrderBook.Bids = []model.PriceLevel{{Price: r.BestBid}}
	}
	if r.BestAsk > 0 {
		s.OrderBook.Asks = []model.PriceLevel{{Price: r.BestAsk}}
	}
	return s
}
