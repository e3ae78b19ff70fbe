package binance

import "testing"

func TestToExchangeSymbol(t *testing.T) {
	cases := map[string]string{
		"BTC/USDT":  "BTCUSDT",
		"eth/usdt":  "ETHUSDT",
		"SOL-USDT":  "SOLUSDT",
		"DOGE_USDT": "DOGEUSDT",
		"BTCUSDT":   "BTCUSDT",
	}

	for in, want := range cases {
		if got := ToExchangeSymbol(in); got != want {
			t.Errorf("ToExchangeSymbol(%q) = %q, want %q", in, got, want)
		}
	}
}
