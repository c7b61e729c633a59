// Package finthrust provides a Go SDK for the finthrust-server API.
package finthrust

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to a running finthrust-server instance.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new finthrust API client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Login registers (or re-registers) a user and returns the server's echo.
func (c *Client) Login(ctx context.Context, username string) (*LoginResponse, error) {
	var resp LoginResponse
	err := c.do(ctx, http.MethodPost, "/api/login", LoginRequest{Username: username}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// AddPosition appends one transaction to a user's log.
func (c *Client) AddPosition(ctx context.Context, username string, req PositionRequest) (*TransactionJSON, error) {
	var resp TransactionJSON
	path := "/api/users/" + url.PathEscape(username) + "/positions"
	if err := c.do(ctx, http.MethodPost, path, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetPositions retrieves a user's raw transaction log.
func (c *Client) GetPositions(ctx context.Context, username string) (*PositionsResponse, error) {
	var resp PositionsResponse
	path := "/api/users/" + url.PathEscape(username) + "/positions"
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetPortfolio retrieves a user's aggregated holdings marked to market.
func (c *Client) GetPortfolio(ctx context.Context, username string) (*PortfolioResponse, error) {
	var resp PortfolioResponse
	path := "/api/users/" + url.PathEscape(username) + "/portfolio"
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListStrategies retrieves the registered strategy names.
func (c *Client) ListStrategies(ctx context.Context) ([]string, error) {
	var resp StrategiesResponse
	if err := c.do(ctx, http.MethodGet, "/api/strategies", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Strategies, nil
}

// RunBacktest runs a backtest over stored bars and returns the full result.
func (c *Client) RunBacktest(ctx context.Context, req BacktestRequest) (*BacktestResponse, error) {
	var resp BacktestResponse
	if err := c.do(ctx, http.MethodPost, "/api/backtest", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// do sends one JSON request and decodes the JSON response into out.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s (status %d)", method, path, apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
