package provider

import (
	"context"
	"fmt"
	"strings"

	"helios/internal/backtest"
	"helios/internal/domain"
)

// LoadSeries assembles the per-symbol input series for a backtest run by
// querying the given providers over the run's date window.
func LoadSeries(ctx context.Context, mp MarketProvider, sp SentimentProvider, cfg domain.BacktestConfig) (backtest.Series, error) {
	series := backtest.Series{
		Market:    make(map[string][]domain.MarketPoint, len(cfg.Symbols)),
		Sentiment: make(map[string][]domain.SentimentPoint, len(cfg.Symbols)),
	}

	for _, symbol := range cfg.Symbols {
		sym := strings.ToUpper(symbol)

		market, err := mp.Market(ctx, sym, cfg.Start, cfg.End)
		if err != nil {
			return backtest.Series{}, fmt.Errorf("loading market series for %s from %s: %w", sym, mp.Name(), err)
		}
		sentiment, err := sp.Sentiment(ctx, sym, cfg.Start, cfg.End)
		if err != nil {
			return backtest.Series{}, fmt.Errorf("loading sentiment series for %s from %s: %w", sym, sp.Name(), err)
		}

		series.Market[sym] = market
		series.Sentiment[sym] = sentiment
	}
	return series, nil
}
