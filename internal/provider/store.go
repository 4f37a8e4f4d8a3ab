package provider

import (
	"context"
	"fmt"
	"time"

	"helios/internal/domain"
	"helios/internal/store"
)

// Compile-time interface checks.
var _ MarketProvider = (*StoreProvider)(nil)
var _ SentimentProvider = (*StoreProvider)(nil)

// StoreProvider serves series out of the local data store. This is the
// provider used for backtests against previously gathered data.
type StoreProvider struct {
	market    store.MarketStore
	sentiment store.SentimentStore
}

// NewStoreProvider creates a StoreProvider reading from the given stores.
func NewStoreProvider(market store.MarketStore, sentiment store.SentimentStore) *StoreProvider {
	return &StoreProvider{market: market, sentiment: sentiment}
}

func (p *StoreProvider) Name() string { return "store" }

// Market returns the stored market points for symbol within [start, end].
func (p *StoreProvider) Market(ctx context.Context, symbol string, start, end time.Time) ([]domain.MarketPoint, error) {
	points, err := p.market.ReadMarket(ctx, symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("reading market data for %s: %w", symbol, err)
	}
	return points, nil
}

// Sentiment returns the stored sentiment points for symbol within [start, end].
func (p *StoreProvider) Sentiment(ctx context.Context, symbol string, start, end time.Time) ([]domain.SentimentPoint, error) {
	points, err := p.sentiment.ReadSentiment(ctx, symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("reading sentiment data for %s: %w", symbol, err)
	}
	return points, nil
}
