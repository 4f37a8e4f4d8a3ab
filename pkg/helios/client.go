// Package helios provides a Go SDK for the helios-server API.
package helios

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"helios/internal/domain"
	"helios/internal/httpapi"
	"helios/internal/store"
)

// Client provides a Go SDK for interacting with the helios-server API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new helios API client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("helios api: status %d: %s", e.StatusCode, e.Message)
}

// RunBacktest runs a backtest on the server and returns the stored run ID
// with the full result.
func (c *Client) RunBacktest(ctx context.Context, req httpapi.BacktestRequest) (*httpapi.BacktestResponse, error) {
	var out httpapi.BacktestResponse
	if err := c.do(ctx, http.MethodPost, "/api/backtest", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetBacktest retrieves a stored run by ID.
func (c *Client) GetBacktest(ctx context.Context, id int64) (*store.StoredRun, error) {
	var out store.StoredRun
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/backtests/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListBacktests lists the most recent stored runs, newest first.
func (c *Client) ListBacktests(ctx context.Context, limit int) ([]store.RunSummary, error) {
	path := "/api/backtests"
	if limit > 0 {
		path = fmt.Sprintf("%s?limit=%d", path, limit)
	}
	var out []store.RunSummary
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListSymbols lists the symbols with market data available on the server.
func (c *Client) ListSymbols(ctx context.Context) ([]string, error) {
	var out []string
	if err := c.do(ctx, http.MethodGet, "/api/symbols", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetMarket retrieves the daily market series for a symbol.
func (c *Client) GetMarket(ctx context.Context, symbol string, start, end time.Time) ([]domain.MarketPoint, error) {
	path := fmt.Sprintf("/api/market/%s?start=%s&end=%s",
		strings.ToUpper(symbol),
		start.Format(domain.DateLayout),
		end.Format(domain.DateLayout),
	)
	var out []domain.MarketPoint
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetSentiment retrieves the daily sentiment series for a symbol.
func (c *Client) GetSentiment(ctx context.Context, symbol string, start, end time.Time) ([]domain.SentimentPoint, error) {
	path := fmt.Sprintf("/api/sentiment/%s?start=%s&end=%s",
		strings.ToUpper(symbol),
		start.Format(domain.DateLayout),
		end.Format(domain.DateLayout),
	)
	var out []domain.SentimentPoint
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		msg := resp.Status
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			msg = apiErr.Error
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
