// Package httpapi provides the HTTP REST API for running backtests and
// browsing stored runs and series data.
package httpapi

import (
	"time"

	"helios/internal/domain"
)

// BacktestRequest is the JSON body of POST /api/backtest.
type BacktestRequest struct {
	Start          string            `json:"start"` // ISO calendar date
	End            string            `json:"end"`   // ISO calendar date
	InitialCapital float64           `json:"initial_capital"`
	Symbols        []string          `json:"symbols"`
	Mode           string            `json:"mode"`
	Risk           domain.RiskParams `json:"risk"`

	// Inline series. When present they take the place of the stored data
	// for the symbols they cover.
	Market    []domain.MarketPoint    `json:"market,omitempty"`
	Sentiment []domain.SentimentPoint `json:"sentiment,omitempty"`

	// SyntheticSentiment replaces the gathered sentiment series with a
	// deterministic generated one. Off unless explicitly requested.
	SyntheticSentiment bool  `json:"synthetic_sentiment,omitempty"`
	SyntheticSeed      int64 `json:"synthetic_seed,omitempty"`
}

// Config converts the request into a validated-later BacktestConfig.
func (r *BacktestRequest) Config() (domain.BacktestConfig, error) {
	start, err := time.Parse(domain.DateLayout, r.Start)
	if err != nil {
		return domain.BacktestConfig{}, &domain.InvalidConfigError{Field: "start", Reason: "must be a YYYY-MM-DD date"}
	}
	end, err := time.Parse(domain.DateLayout, r.End)
	if err != nil {
		return domain.BacktestConfig{}, &domain.InvalidConfigError{Field: "end", Reason: "must be a YYYY-MM-DD date"}
	}
	return domain.BacktestConfig{
		Start:          start,
		End:            end,
		InitialCapital: r.InitialCapital,
		Symbols:        r.Symbols,
		Mode:           domain.StrategyMode(r.Mode),
		Risk:           r.Risk,
	}, nil
}

// BacktestResponse is the JSON body returned by POST /api/backtest.
type BacktestResponse struct {
	ID     int64                 `json:"id"`
	Result domain.BacktestResult `json:"result"`
}
