package dataflows

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/dyike/QuorumGo/config"
)

// FinnhubClient fetches quotes from the Finnhub API
type FinnhubClient struct {
	client *resty.Client
	cache  *CacheManager
	apiKey string
}

// NewFinnhubClient creates a new Finnhub client
func NewFinnhubClient(cfg *config.Config) *FinnhubClient {
	cacheDir := filepath.Join(cfg.DataCacheDir, "finnhub")
	cache := NewCacheManager(cacheDir, 10*time.Minute, cfg.CacheEnabled)

	client := resty.New()
	client.SetBaseURL("https://finnhub.io/api/v1")
	client.SetTimeout(30 * time.Second)

	return &FinnhubClient{
		client: client,
		cache:  cache,
		apiKey: cfg.FinnhubAPIKey,
	}
}

func (fc *FinnhubClient) Name() string { return "finnhub" }

// finnhubQuote mirrors the /quote response fields
type finnhubQuote struct {
	Current   float64 `json:"c"`
	High      float64 `json:"h"`
	Low       float64 `json:"l"`
	Open      float64 `json:"o"`
	PrevClose float64 `json:"pc"`
	Timestamp int64   `json:"t"`
}

// Quote gets current quote data for a symbol
func (fc *FinnhubClient) Quote(ctx context.Context, symbol string) (*MarketData, error) {
	if fc.apiKey == "" {
		return nil, fmt.Errorf("Finnhub API key not configured")
	}

	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}

	symbol = NormalizeSymbol(symbol)

	var cached MarketData
	if fc.cache.Get("finnhub", "quote", symbol, &cached) {
		return &cached, nil
	}

	var result *MarketData
	err := WithRetry(ctx, DefaultRetryConfig(), func() error {
		resp, err := fc.client.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"symbol": symbol,
				"token":  fc.apiKey,
			}).
			Get("/quote")

		if err != nil {
			return fmt.Errorf("failed to fetch quote for %s: %w", symbol, err)
		}

		if resp.StatusCode() != 200 {
			return fmt.Errorf("API error %d: %s", resp.StatusCode(), resp.String())
		}

		var q finnhubQuote
		if err := json.Unmarshal(resp.Body(), &q); err != nil {
			return fmt.Errorf("failed to parse quote response: %w", err)
		}

		// Finnhub answers unknown symbols with an all-zero quote.
		if q.Current == 0 && q.Timestamp == 0 {
			return fmt.Errorf("no quote data for %s", symbol)
		}

		result = &MarketData{
			Symbol:    symbol,
			Open:      decimal.NewFromFloat(q.Open),
			High:      decimal.NewFromFloat(q.High),
			Low:       decimal.NewFromFloat(q.Low),
			Close:     decimal.NewFromFloat(q.Current),
			PrevClose: decimal.NewFromFloat(q.PrevClose),
			Source:    fc.Name(),
			Timestamp: time.Unix(q.Timestamp, 0),
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	fc.cache.Set("finnhub", "quote", symbol, result)

	return result, nil
}
