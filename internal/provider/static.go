package provider

import (
	"context"
	"strings"
	"time"

	"helios/internal/domain"
)

// Compile-time interface checks.
var _ MarketProvider = (*StaticProvider)(nil)
var _ SentimentProvider = (*StaticProvider)(nil)

// StaticProvider serves fixed in-memory series, keyed by uppercase symbol.
// Useful in tests and for replaying externally prepared datasets.
type StaticProvider struct {
	MarketData    map[string][]domain.MarketPoint
	SentimentData map[string][]domain.SentimentPoint
}

// NewStaticProvider creates an empty StaticProvider. Populate it with Add
// calls or by assigning the maps directly.
func NewStaticProvider() *StaticProvider {
	return &StaticProvider{
		MarketData:    make(map[string][]domain.MarketPoint),
		SentimentData: make(map[string][]domain.SentimentPoint),
	}
}

// AddMarket appends market points for their respective symbols.
func (p *StaticProvider) AddMarket(points ...domain.MarketPoint) {
	for _, pt := range points {
		sym := strings.ToUpper(pt.Symbol)
		p.MarketData[sym] = append(p.MarketData[sym], pt)
	}
}

// AddSentiment appends sentiment points for their respective symbols.
func (p *StaticProvider) AddSentiment(points ...domain.SentimentPoint) {
	for _, pt := range points {
		sym := strings.ToUpper(pt.Symbol)
		p.SentimentData[sym] = append(p.SentimentData[sym], pt)
	}
}

func (p *StaticProvider) Name() string { return "static" }

// Market returns the fixed market points for symbol within [start, end].
func (p *StaticProvider) Market(_ context.Context, symbol string, start, end time.Time) ([]domain.MarketPoint, error) {
	var out []domain.MarketPoint
	for _, pt := range p.MarketData[strings.ToUpper(symbol)] {
		if !pt.Timestamp.Before(start) && !pt.Timestamp.After(end) {
			out = append(out, pt)
		}
	}
	return out, nil
}

// Sentiment returns the fixed sentiment points for symbol within [start, end].
func (p *StaticProvider) Sentiment(_ context.Context, symbol string, start, end time.Time) ([]domain.SentimentPoint, error) {
	var out []domain.SentimentPoint
	for _, pt := range p.SentimentData[strings.ToUpper(symbol)] {
		if !pt.Timestamp.Before(start) && !pt.Timestamp.After(end) {
			out = append(out, pt)
		}
	}
	return out, nil
}
