package alphavantage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/epeers/marketsync/internal/syncerr"
	log "github.com/sirupsen/logrus"
)

// Alphavantage is a Stock, ETF and crypto API that serves reference data,
// prices and news sentiment. It is a subscription service with free API access.
// https://www.alphavantage.co/documentation/
const defaultBaseURL = "https://www.alphavantage.co/query"

// Client is an HTTP client for the AlphaVantage API. It only fetches raw
// payloads; the Parse* functions turn them into rows.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new AlphaVantage client
func NewClient(apiKey string) *Client {
	return NewClientWithBaseURL(apiKey, defaultBaseURL)
}

// NewClientWithBaseURL creates a new AlphaVantage client with a custom base URL (for testing)
func NewClientWithBaseURL(apiKey, baseURL string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SymbolSearch fetches SYMBOL_SEARCH matches for keywords as CSV.
func (c *Client) SymbolSearch(ctx context.Context, keywords string) ([]byte, error) {
	params := url.Values{}
	params.Set("function", "SYMBOL_SEARCH")
	params.Set("keywords", keywords)
	params.Set("datatype", "csv")
	return c.fetch(ctx, "symbol_search", params)
}

// Overview fetches company fundamentals as JSON.
func (c *Client) Overview(ctx context.Context, symbol string) ([]byte, error) {
	params := url.Values{}
	params.Set("function", "OVERVIEW")
	params.Set("symbol", symbol)
	return c.fetch(ctx, "overview", params)
}

// Intraday fetches 1-minute bars for an exchange-listed symbol as CSV.
func (c *Client) Intraday(ctx context.Context, symbol string) ([]byte, error) {
	params := url.Values{}
	params.Set("function", "TIME_SERIES_INTRADAY")
	params.Set("symbol", symbol)
	params.Set("interval", "1min")
	params.Set("datatype", "csv")
	return c.fetch(ctx, "intraday", params)
}

// CryptoIntraday fetches 1-minute bars for a digital asset priced in USD as CSV.
func (c *Client) CryptoIntraday(ctx context.Context, symbol string) ([]byte, error) {
	params := url.Values{}
	params.Set("function", "CRYPTO_INTRADAY")
	params.Set("symbol", symbol)
	params.Set("market", "USD")
	params.Set("interval", "1min")
	params.Set("datatype", "csv")
	return c.fetch(ctx, "crypto_intraday", params)
}

// Daily fetches daily bars as JSON. outputSize is "compact" (last 100) or "full".
func (c *Client) Daily(ctx context.Context, symbol, outputSize string) ([]byte, error) {
	params := url.Values{}
	params.Set("function", "TIME_SERIES_DAILY")
	params.Set("symbol", symbol)
	params.Set("datatype", "json")
	params.Set("outputsize", outputSize)
	return c.fetch(ctx, "daily", params)
}

// TopMovers fetches the day's top gainers, losers and most active tickers.
func (c *Client) TopMovers(ctx context.Context) ([]byte, error) {
	params := url.Values{}
	params.Set("function", "TOP_GAINERS_LOSERS")
	return c.fetch(ctx, "top_movers", params)
}

// News fetches the news sentiment feed for a ticker.
func (c *Client) News(ctx context.Context, ticker string) ([]byte, error) {
	params := url.Values{}
	params.Set("function", "NEWS_SENTIMENT")
	params.Set("tickers", ticker)
	return c.fetch(ctx, "news", params)
}

func (c *Client) fetch(ctx context.Context, op string, params url.Values) ([]byte, error) {
	params.Set("apikey", c.apiKey)
	body, err := c.doRequest(ctx, params)
	if err != nil {
		return nil, syncerr.New(syncerr.Transient, op, err)
	}
	return body, nil
}

func (c *Client) doRequest(ctx context.Context, params url.Values) ([]byte, error) {
	reqURL := c.baseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	log.Debugf("%s returned %d bytes in %d ms", params.Get("function"), len(body), time.Since(start).Milliseconds())
	return body, nil
}
