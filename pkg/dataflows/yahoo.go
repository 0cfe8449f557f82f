package dataflows

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/piquette/finance-go/quote"
	"github.com/shopspring/decimal"

	"github.com/dyike/QuorumGo/config"
)

// YahooClient fetches quotes from Yahoo Finance
type YahooClient struct {
	cache *CacheManager
}

// NewYahooClient creates a new Yahoo Finance client
func NewYahooClient(cfg *config.Config) *YahooClient {
	cacheDir := filepath.Join(cfg.DataCacheDir, "yahoo_finance")
	cache := NewCacheManager(cacheDir, 10*time.Minute, cfg.CacheEnabled)

	return &YahooClient{cache: cache}
}

func (yc *YahooClient) Name() string { return "yahoo" }

// Quote gets current quote data for a symbol
func (yc *YahooClient) Quote(ctx context.Context, symbol string) (*MarketData, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}

	symbol = NormalizeSymbol(symbol)

	var cached MarketData
	if yc.cache.Get("yahoo", "quote", symbol, &cached) {
		return &cached, nil
	}

	var result *MarketData
	err := WithRetry(ctx, DefaultRetryConfig(), func() error {
		q, err := quote.Get(symbol)
		if err != nil {
			return fmt.Errorf("failed to get quote for %s: %w", symbol, err)
		}
		if q == nil {
			return fmt.Errorf("no quote returned for %s", symbol)
		}

		result = &MarketData{
			Symbol:    symbol,
			Name:      q.ShortName,
			Open:      decimal.NewFromFloat(q.RegularMarketOpen),
			High:      decimal.NewFromFloat(q.RegularMarketDayHigh),
			Low:       decimal.NewFromFloat(q.RegularMarketDayLow),
			Close:     decimal.NewFromFloat(q.RegularMarketPrice),
			PrevClose: decimal.NewFromFloat(q.RegularMarketPreviousClose),
			Volume:    int64(q.RegularMarketVolume),
			Source:    yc.Name(),
			Timestamp: time.Now(),
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	yc.cache.Set("yahoo", "quote", symbol, result)

	return result, nil
}
