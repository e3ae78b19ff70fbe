package model

import "time"

// PriceLevel is a single order-book level.
type PriceLevel struct {
	Price float64 `json:"price"`
	Size  float64 `json:"size"`
}

// OrderBook holds the bid/ask levels returned by the exchange,
// best price first on both sides.
type OrderBook struct {
	Bids []PriceLevel `json:"bids"`
	Asks []PriceLevel `json:"asks"`
}

// Snapshot is one fetched unit of market data for a symbol: the latest
// trade stats plus an order-book snapshot, taken at Timestamp.
// Immutable once constructed.
type Snapshot struct {
	Symbol    string    `json:"symbol"`     // unified symbol, e.g. "BTC/USDT"
	Timestamp time.Time `json:"timestamp"`  // time the snapshot was taken
	LastPrice float64   `json:"last_price"` // last traded price
	Volume    float64   `json:"volume"`     // rolling 24h base-asset volume
	OrderBook OrderBook `json:"order_book"`
}

// BestBid returns the top bid price, or 0 if the book side is empty.
func (s Snapshot) BestBid() float64 {
	if len(s.OrderBook.Bids) == 0 {
		return 0
	}
	return s.OrderBook.Bids[0].Price
}

// BestAsk returns the top ask price, or 0 if the book side is empty.
func (s Snapshot) BestAsk() float64 {
	if len(s.OrderBook.Asks) == 0 {
		return 0
	}
	return s.OrderBook.Asks[0].Price
}

// Valid reports whether the snapshot is usable for storage: a positive
// price and a non-negative volume.
func (s Snapshot) Valid() bool {
	return s.Symbol != "" && s.LastPrice > 0 && s.Volume >= 0
}
