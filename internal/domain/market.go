package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// The wire format carries prices as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// MarketQuote is the latest known state of one tradable symbol.
// IsUp is always derived from Change; it is never set independently.
type MarketQuote struct {
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	Change    float64         `json:"change"`
	IsUp      bool            `json:"isUp"`
	UpdatedAt time.Time       `json:"-"`
}

// NewMarketQuote builds a quote with a normalized symbol and derived direction.
func NewMarketQuote(symbol string, price decimal.Decimal, change float64) MarketQuote {
	return MarketQuote{
		Symbol:    strings.ToUpper(symbol),
		Price:     price,
		Change:    change,
		IsUp:      change >= 0,
		UpdatedAt: time.Now().UTC(),
	}
}

// Same reports whether two quotes carry the same persisted values.
// UpdatedAt is intentionally excluded: it is in-process metadata only.
func (q MarketQuote) Same(other MarketQuote) bool {
	return q.Price.Equal(other.Price) && q.Change == other.Change
}
