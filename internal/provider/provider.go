// Package provider defines the data-source interfaces the backtest engine
// loads its series from, with implementations backed by local storage, fixed
// in-memory data, and a deterministic synthetic generator for dry runs.
package provider

import (
	"context"
	"time"

	"helios/internal/domain"
)

// MarketProvider supplies daily market data for a symbol over a date range.
type MarketProvider interface {
	// Name returns the provider identifier (e.g. "store", "static").
	Name() string

	// Market returns the daily market points for symbol within [start, end].
	Market(ctx context.Context, symbol string, start, end time.Time) ([]domain.MarketPoint, error)
}

// SentimentProvider supplies daily sentiment data for a symbol over a date range.
type SentimentProvider interface {
	// Name returns the provider identifier.
	Name() string

	// Sentiment returns the daily sentiment points for symbol within [start, end].
	Sentiment(ctx context.Context, symbol string, start, end time.Time) ([]domain.SentimentPoint, error)
}
