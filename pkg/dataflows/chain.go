package dataflows

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
)

// ChainProvider tries each provider in order and returns the first
// successful quote.
type ChainProvider struct {
	providers []QuoteProvider
}

// NewChainProvider creates a chained quote source. Nil entries are skipped.
func NewChainProvider(providers ...QuoteProvider) *ChainProvider {
	chain := make([]QuoteProvider, 0, len(providers))
	for _, p := range providers {
		if p != nil {
			chain = append(chain, p)
		}
	}
	return &ChainProvider{providers: chain}
}

func (cp *ChainProvider) Name() string { return "chain" }

// Quote returns the first provider's answer, falling through on error.
func (cp *ChainProvider) Quote(ctx context.Context, symbol string) (*MarketData, error) {
	if len(cp.providers) == 0 {
		return nil, fmt.Errorf("no quote providers configured")
	}

	var lastErr error
	for _, p := range cp.providers {
		md, err := p.Quote(ctx, symbol)
		if err == nil {
			return md, nil
		}
		lastErr = err
		log.Printf("quote provider %s failed for %s: %v", p.Name(), symbol, err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("all quote providers failed for %s: %w", symbol, lastErr)
}

// StaticProvider answers every quote with a fixed price. It backs the
// offline path when no network source is available.
type StaticProvider struct {
	price float64
}

// NewStaticProvider creates a fixed-price quote source
func NewStaticProvider(price float64) *StaticProvider {
	return &StaticProvider{price: price}
}

func (sp *StaticProvider) Name() string { return "static" }

func (sp *StaticProvider) Quote(ctx context.Context, symbol string) (*MarketData, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}

	price := decimal.NewFromFloat(sp.price)
	return &MarketData{
		Symbol:    NormalizeSymbol(symbol),
		Open:      price,
		High:      price,
		Low:       price,
		Close:     price,
		PrevClose: price,
		Source:    sp.Name(),
		Timestamp: time.Now(),
	}, nil
}
