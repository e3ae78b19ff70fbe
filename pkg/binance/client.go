package binance

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"cryptocollector/internal/model"

	binance "github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
)

// Client wraps the Binance spot REST client behind the gateway contract:
// one call fetches the latest trade stats and an order-book snapshot for
// a symbol. No caching, no retries; every call hits the network.
type Client struct {
	api        *binance.Client
	depthLimit int
}

// NewClient creates a gateway client. API credentials are passed through
// to the exchange client; public market-data endpoints work without them.
func NewClient(apiKey, apiSecret string, timeout time.Duration, depthLimit int) *Client {
	api := binance.NewClient(apiKey, apiSecret)
	api.HTTPClient = &http.Client{Timeout: timeout}
	return &Client{
		api:        api,
		depthLimit: depthLimit,
	}
}

// SetBaseURL overrides the exchange endpoint. Used by tests to point the
// client at a stub server.
func (c *Client) SetBaseURL(url string) {
	c.api.BaseURL = url
}

// FetchSnapshot fetches the 24h ticker stats and the order book for the
// given unified symbol (e.g. "BTC/USDT") and combines them into a
// Snapshot. Failures carry a model.GatewayError taxonomy so the caller
// can decide whether to retry.
func (c *Client) FetchSnapshot(ctx context.Context, symbol string) (model.Snapshot, error) {
	exSymbol := ToExchangeSymbol(symbol)

	stats, err := c.api.NewListPriceChangeStatsService().Symbol(exSymbol).Do(ctx)
	if err != nil {
		return model.Snapshot{}, classify(symbol, err)
	}
	if len(stats) == 0 {
		return model.Snapshot{}, permanent(symbol, "exchange returned no ticker data")
	}

	lastPrice, err := strconv.ParseFloat(stats[0].LastPrice, 64)
	if err != nil {
		return model.Snapshot{}, permanent(symbol, "decode last price %q", stats[0].LastPrice)
	}
	volume, err := strconv.ParseFloat(stats[0].Volume, 64)
	if err != nil {
		return model.Snapshot{}, permanent(symbol, "decode volume %q", stats[0].Volume)
	}

	depth, err := c.api.NewDepthService().Symbol(exSymbol).Limit(c.depthLimit).Do(ctx)
	if err != nil {
		return model.Snapshot{}, classify(symbol, err)
	}

	return model.Snapshot{
		Symbol:    symbol,
		Timestamp: time.Now().UTC(),
		LastPrice: lastPrice,
		Volume:    volume,
		OrderBook: model.OrderBook{
			Bids: parseLevels(depth.Bids),
			Asks: parseLevels(depth.Asks),
		},
	}, nil
}

// parseLevels converts exchange price levels to model levels, skipping
// rows that fail to parse. Bid and Ask are both aliases of
// common.PriceLevel, so one helper covers both sides.
func parseLevels(levels []common.PriceLevel) []model.PriceLevel {
	out := make([]model.PriceLevel, 0, len(levels))
	for _, l := range levels {
		price, err := strconv.ParseFloat(l.Price, 64)
		if err != nil {
			continue // skip malformed row
		}
		size, err := strconv.ParseFloat(l.Quantity, 64)
		if err != nil {
			continue
		}
		out = append(out, model.PriceLevel{Price: price, Size: size})
	}
	return out
}
