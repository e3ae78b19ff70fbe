package postgres

import "time"

// SnapshotRecord is the durable row written once per collection cycle.
// The table is append-only: rows are never updated or deleted by the
// collector. The order book is kept as a summary (best bid/ask plus the
// number of levels on each side) rather than the full depth, which is
// enough for trend charts while keeping rows compact.
type SnapshotRecord struct {
	ID uint `gorm:"primaryKey"`

	Symbol    string    `gorm:"type:text;not null;index:idx_snapshot_symbol;index:idx_snapshot_symbol_ts"`
	Timestamp time.Time `gorm:"not null;index:idx_snapshot_symbol_ts"`

	Price  float64 `gorm:"type:numeric;not null"`
	Volume float64 `gorm:"type:numeric;not null"`

	BestBid   float64 `gorm:"type:numeric"`
	BestAsk   float64 `gorm:"type:numeric"`
	BidLevels int     `gorm:"not null"`
	AskLevels int     `gorm:"not null"`

	RecordedAt time.Time `gorm:"autoCreateTime"`
}

// TableName overrides the default table name for GORM.
func (SnapshotRecord) TableName() string {
	return "snapshot_record"
}
