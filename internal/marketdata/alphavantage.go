package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"finthrust/internal/util"
)

// Compile-time interface check.
var _ PriceSource = (*AlphaVantageClient)(nil)

const defaultAlphaVantageURL = "https://www.alphavantage.co"

// Free-tier request quota, used when the configured limit is unset.
const defaultQuoteRateLimit = 5

// AlphaVantageClient fetches current quotes from the Alpha Vantage
// GLOBAL_QUOTE endpoint. The free tier is heavily rate-limited, so the
// client owns a token-bucket limiter and paces its own requests; it is
// safe to share one client across callers.
type AlphaVantageClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *util.RateLimiter
	log        *slog.Logger
}

// NewAlphaVantageClient creates a client with the given API key, limited
// to perMinute requests per minute. baseURL overrides the production
// endpoint when non-empty (used by tests); a non-positive perMinute falls
// back to the free-tier quota.
func NewAlphaVantageClient(baseURL, apiKey string, perMinute int, log *slog.Logger) *AlphaVantageClient {
	if baseURL == "" {
		baseURL = defaultAlphaVantageURL
	}
	if log == nil {
		log = slog.Default()
	}
	return &AlphaVantageClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		limiter:    util.NewRateLimiter(quoteRateLimit(perMinute)),
		log:        log.With("client", "alphavantage"),
	}
}

// quoteRateLimit clamps the configured per-minute quota. A zero or negative
// rate would build a limiter whose bucket never refills, stalling every
// quote batch after the first ticker.
func quoteRateLimit(perMinute int) int {
	if perMinute <= 0 {
		return defaultQuoteRateLimit
	}
	return perMinute
}

// globalQuoteResponse mirrors the GLOBAL_QUOTE payload. Alpha Vantage
// reports rate limiting through a "Note" field and bad symbols through
// "Error Message", both with HTTP 200.
type globalQuoteResponse struct {
	GlobalQuote struct {
		Price string `json:"05. price"`
	} `json:"Global Quote"`
	Note         string `json:"Note"`
	ErrorMessage string `json:"Error Message"`
}

// LastPrices fetches the latest quote for each unique ticker, one API call
// per ticker, paced by the rate limiter. Tickers that fail to resolve are
// logged and omitted from the result; only transport-level failures and
// context cancellation abort the batch.
func (c *AlphaVantageClient) LastPrices(ctx context.Context, tickers []string) (map[string]float64, error) {
	prices := make(map[string]float64, len(tickers))
	seen := make(map[string]bool, len(tickers))

	for _, ticker := range tickers {
		if seen[ticker] {
			continue
		}
		seen[ticker] = true

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		price, err := c.quote(ctx, ticker)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.log.Warn("quote lookup failed", "ticker", ticker, "error", err)
			continue
		}
		prices[ticker] = price
	}
	return prices, nil
}

// quote fetches a single GLOBAL_QUOTE price.
func (c *AlphaVantageClient) quote(ctx context.Context, ticker string) (float64, error) {
	q := url.Values{}
	q.Set("function", "GLOBAL_QUOTE")
	q.Set("symbol", ticker)
	q.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/query?"+q.Encode(), nil)
	if err != nil {
		return 0, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var payload globalQuoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("decoding quote: %w", err)
	}

	switch {
	case payload.Note != "":
		return 0, fmt.Errorf("rate limited: %s", payload.Note)
	case payload.ErrorMessage != "":
		return 0, fmt.Errorf("api error: %s", payload.ErrorMessage)
	case payload.GlobalQuote.Price == "":
		return 0, fmt.Errorf("no price in response")
	}

	price, err := strconv.ParseFloat(payload.GlobalQuote.Price, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing price %q: %w", payload.GlobalQuote.Price, err)
	}
	return price, nil
}
