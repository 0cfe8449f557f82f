package dataflows

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// MarketData represents a single quote snapshot for a symbol.
type MarketData struct {
	Symbol    string          `json:"symbol"`
	Name      string          `json:"name,omitempty"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	PrevClose decimal.Decimal `json:"prev_close"`
	Volume    int64           `json:"volume"`
	Source    string          `json:"source"`
	Timestamp time.Time       `json:"timestamp"`
}

// Price returns the last traded price as a float for consumers that
// do not need decimal precision.
func (m *MarketData) Price() float64 {
	f, _ := m.Close.Float64()
	return f
}

// QuoteProvider fetches current market data for a symbol.
type QuoteProvider interface {
	Name() string
	Quote(ctx context.Context, symbol string) (*MarketData, error)
}
