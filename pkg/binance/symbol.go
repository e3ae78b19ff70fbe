package binance

import "strings"

// ToExchangeSymbol converts a unified symbol like "BTC/USDT" into the
// exchange's format ("BTCUSDT"). Separators used by other venues ("-",
// "_") are stripped as well so configs copied between tools still work.
func ToExchangeSymbol(sym string) string {
	sym = strings.ReplaceAll(sym, "/", "")
	sym = strings.ReplaceAll(sym, "-", "")
	sym = strings.ReplaceAll(sym, "_", "")
	return strings.ToUpper(sym)
}
