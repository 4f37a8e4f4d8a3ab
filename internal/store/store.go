// Package store defines storage interfaces for persisting and retrieving
// market series, sentiment series, and backtest results.
package store

import (
	"context"
	"errors"
	"time"

	"helios/internal/domain"
)

// ErrRunNotFound is returned when a backtest run ID does not exist.
var ErrRunNotFound = errors.New("backtest run not found")

// MarketStore persists and retrieves daily market data.
type MarketStore interface {
	// WriteMarket persists a batch of market points to storage.
	WriteMarket(ctx context.Context, points []domain.MarketPoint) error

	// ReadMarket returns market points for the given symbol within [start, end].
	ReadMarket(ctx context.Context, symbol string, start, end time.Time) ([]domain.MarketPoint, error)

	// ListSymbols returns all distinct symbols with market data available.
	ListSymbols(ctx context.Context) ([]string, error)
}

// SentimentStore persists and retrieves daily sentiment data.
type SentimentStore interface {
	// WriteSentiment persists a batch of sentiment points to storage.
	WriteSentiment(ctx context.Context, points []domain.SentimentPoint) error

	// ReadSentiment returns sentiment points for the given symbol within [start, end].
	ReadSentiment(ctx context.Context, symbol string, start, end time.Time) ([]domain.SentimentPoint, error)
}

// RunSummary is the listing view of a persisted backtest run.
type RunSummary struct {
	ID             int64     `json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	Mode           string    `json:"mode"`
	Symbols        []string  `json:"symbols"`
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	InitialCapital float64   `json:"initial_capital"`
	TotalReturnPct float64   `json:"total_return_pct"`
	SharpeRatio    float64   `json:"sharpe_ratio"`
	TotalTrades    int       `json:"total_trades"`
}

// StoredRun is a fully hydrated persisted run: the configuration it was
// launched with and the complete result.
type StoredRun struct {
	Summary RunSummary            `json:"summary"`
	Config  domain.BacktestConfig `json:"config"`
	Result  domain.BacktestResult `json:"result"`
}

// ResultStore persists and retrieves backtest runs.
type ResultStore interface {
	// SaveRun persists a completed run and returns its assigned ID.
	SaveRun(ctx context.Context, cfg domain.BacktestConfig, result domain.BacktestResult) (int64, error)

	// GetRun retrieves a single run by ID, or ErrRunNotFound.
	GetRun(ctx context.Context, id int64) (*StoredRun, error)

	// ListRuns returns the most recent runs, newest first, up to limit.
	ListRuns(ctx context.Context, limit int) ([]RunSummary, error)
}
