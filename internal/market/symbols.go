package market

import (
	"sort"
	"strings"
)

// symbolToID maps tracked tickers to CoinGecko coin ids.
// This is the only place the tracked universe is defined; the cache
// refuses symbols outside this table.
var symbolToID = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"BNB":   "binancecoin",
	"ADA":   "cardano",
	"DOGE":  "dogecoin",
	"SOL":   "solana",
	"XRP":   "ripple",
	"DOT":   "polkadot",
	"LTC":   "litecoin",
	"BCH":   "bitcoin-cash",
	"LINK":  "chainlink",
	"MATIC": "matic-network",
	"AVAX":  "avalanche-2",
	"TRX":   "tron",
	"SHIB":  "shiba-inu",
	"UNI":   "uniswap",
	"XLM":   "stellar",
	"ATOM":  "cosmos",
	"FTT":   "ftx-token",
	"EOS":   "eos",
	"AAVE":  "aave",
	"NEAR":  "near",
	"ALGO":  "algorand",
	"FIL":   "filecoin",
	"SUSHI": "sushi",
	"ICP":   "internet-computer",
	"KSM":   "kusama",
	"SNX":   "havven",
	"GRT":   "the-graph",
	"MKR":   "maker",
}

// idToSymbol is the reverse index, built once at init.
var idToSymbol = func() map[string]string {
	m := make(map[string]string, len(symbolToID))
	for sym, id := range symbolToID {
		m[id] = sym
	}
	return m
}()

// Lookup resolves a ticker (case-insensitive) to its CoinGecko id.
func Lookup(symbol string) (string, bool) {
	id, ok := symbolToID[strings.ToUpper(symbol)]
	return id, ok
}

// SymbolForID resolves a CoinGecko id back to its ticker.
func SymbolForID(id string) (string, bool) {
	sym, ok := idToSymbol[id]
	return sym, ok
}

// Tracked reports whether the ticker belongs to the fixed universe.
func Tracked(symbol string) bool {
	_, ok := symbolToID[strings.ToUpper(symbol)]
	return ok
}

// Symbols returns the tracked tickers in stable sorted order.
func Symbols() []string {
	out := make([]string, 0, len(symbolToID))
	for sym := range symbolToID {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// CoinIDs returns the CoinGecko ids in stable sorted order.
func CoinIDs() []string {
	out := make([]string, 0, len(symbolToID))
	for _, id := range symbolToID {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// StreamNames returns the Binance combined-stream names, one logical
// stream per tracked symbol ("btcusdt@ticker", ...).
func StreamNames() []string {
	out := make([]string, 0, len(symbolToID))
	for _, sym := range Symbols() {
		out = append(out, strings.ToLower(sym)+"usdt@ticker")
	}
	return out
}
