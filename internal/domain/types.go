// Package domain defines the shared data model for the helios backtesting
// engine: market and sentiment series points, strategy configuration, the
// trade ledger, and the performance result types.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the ISO calendar date format used to key daily series.
const DateLayout = "2006-01-02"

// ---------------------------------------------------------------------------
// Enums
// ---------------------------------------------------------------------------

// Signal is a discrete trading recommendation for one symbol on one day.
type Signal string

const (
	SignalBuy  Signal = "BUY"
	SignalSell Signal = "SELL"
	SignalHold Signal = "HOLD"
)

// StrategyMode selects how signals are derived from market and sentiment data.
type StrategyMode string

const (
	ModeSentiment StrategyMode = "sentiment"
	ModeTechnical StrategyMode = "technical"
	ModeHybrid    StrategyMode = "hybrid"
)

// ExitReason records why a position was closed.
type ExitReason string

const (
	ExitStopLoss     ExitReason = "STOP_LOSS"
	ExitTakeProfit   ExitReason = "TAKE_PROFIT"
	ExitSignalChange ExitReason = "SIGNAL_CHANGE"
	ExitTimeLimit    ExitReason = "TIME_LIMIT"
)

// ---------------------------------------------------------------------------
// Series points
// ---------------------------------------------------------------------------

// MarketPoint is one daily price/volume observation for a symbol.
type MarketPoint struct {
	Symbol    string    `json:"symbol"`
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`      // > 0
	Volume    float64   `json:"volume"`     // >= 0
	MarketCap float64   `json:"market_cap"` // >= 0, zero when the feed has none
	Change24h float64   `json:"change_24h"` // percent, optional
}

// SentimentPoint is one daily sentiment observation for a symbol.
type SentimentPoint struct {
	Symbol     string    `json:"symbol"`
	Timestamp  time.Time `json:"timestamp"`
	Score      float64   `json:"score"`      // in [-1, 1]
	Mentions   int64     `json:"mentions"`   // >= 0
	Engagement float64   `json:"engagement"` // >= 0
}

// Date returns the ISO calendar date key for the point.
func (p MarketPoint) Date() string { return p.Timestamp.Format(DateLayout) }

// Date returns the ISO calendar date key for the point.
func (p SentimentPoint) Date() string { return p.Timestamp.Format(DateLayout) }

// ---------------------------------------------------------------------------
// Configuration
// ---------------------------------------------------------------------------

// RiskParams holds the per-run risk limits applied by the position simulator.
type RiskParams struct {
	MaxPositionSize float64 `json:"max_position_size" yaml:"max_position_size"` // fraction of cash, (0, 1]
	StopLossPct     float64 `json:"stop_loss_pct" yaml:"stop_loss_pct"`         // percent below entry
	TakeProfitPct   float64 `json:"take_profit_pct" yaml:"take_profit_pct"`     // percent above entry
	MaxDrawdownPct  float64 `json:"max_drawdown_pct" yaml:"max_drawdown_pct"`   // advisory limit, reported against the result
}

// BacktestConfig describes a single backtest run. It is immutable for the
// duration of the run.
type BacktestConfig struct {
	Start          time.Time    `json:"start"`
	End            time.Time    `json:"end"`
	InitialCapital float64      `json:"initial_capital"`
	Symbols        []string     `json:"symbols"`
	Mode           StrategyMode `json:"mode"`
	Risk           RiskParams   `json:"risk"`
}

// InvalidConfigError reports a BacktestConfig field that failed validation.
// It is the only error class that aborts a run; data gaps and degenerate
// metrics are recovered in place.
type InvalidConfigError struct {
	Field  string
	Reason string
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid backtest config: %s: %s", e.Field, e.Reason)
}

// Validate checks the config invariants and returns an *InvalidConfigError
// for the first violation found.
func (c *BacktestConfig) Validate() error {
	if c.InitialCapital <= 0 {
		return &InvalidConfigError{Field: "initial_capital", Reason: "must be positive"}
	}
	if len(c.Symbols) == 0 {
		return &InvalidConfigError{Field: "symbols", Reason: "must not be empty"}
	}
	seen := make(map[string]bool, len(c.Symbols))
	for _, s := range c.Symbols {
		sym := strings.ToUpper(strings.TrimSpace(s))
		if sym == "" {
			return &InvalidConfigError{Field: "symbols", Reason: "contains an empty symbol"}
		}
		if seen[sym] {
			return &InvalidConfigError{Field: "symbols", Reason: fmt.Sprintf("duplicate symbol %q", sym)}
		}
		seen[sym] = true
	}
	if !c.Start.Before(c.End) {
		return &InvalidConfigError{Field: "start", Reason: "start date must be before end date"}
	}
	switch c.Mode {
	case ModeSentiment, ModeTechnical, ModeHybrid:
	default:
		return &InvalidConfigError{Field: "mode", Reason: fmt.Sprintf("unknown strategy mode %q", c.Mode)}
	}
	if c.Risk.MaxPositionSize <= 0 || c.Risk.MaxPositionSize > 1 {
		return &InvalidConfigError{Field: "risk.max_position_size", Reason: "must be in (0, 1]"}
	}
	if c.Risk.StopLossPct < 0 {
		return &InvalidConfigError{Field: "risk.stop_loss_pct", Reason: "must not be negative"}
	}
	if c.Risk.TakeProfitPct < 0 {
		return &InvalidConfigError{Field: "risk.take_profit_pct", Reason: "must not be negative"}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Simulation state and ledger
// ---------------------------------------------------------------------------

// Position is an open, unrealized holding in one symbol. At most one position
// per symbol exists at a time; the value is discarded once the trade closes.
type Position struct {
	Symbol     string    `json:"symbol"`
	EntryTime  time.Time `json:"entry_time"`
	EntryPrice float64   `json:"entry_price"`
	Quantity   float64   `json:"quantity"`
	StopLoss   float64   `json:"stop_loss"`
	TakeProfit float64   `json:"take_profit"`
}

// TradeResult is one closed trade. Values are immutable once the trade is
// appended to the ledger.
type TradeResult struct {
	Symbol     string     `json:"symbol"`
	EntryTime  time.Time  `json:"entry_time"`
	ExitTime   time.Time  `json:"exit_time"`
	EntryPrice float64    `json:"entry_price"`
	ExitPrice  float64    `json:"exit_price"`
	Quantity   float64    `json:"quantity"`
	PnL        float64    `json:"pnl"`
	PnLPct     float64    `json:"pnl_pct"`
	ExitReason ExitReason `json:"exit_reason"`
}

// DailyReturn is one point on the realized equity curve. Entries exist only
// for days on which at least one trade closed.
type DailyReturn struct {
	Date           string  `json:"date"` // ISO calendar date
	PortfolioValue float64 `json:"portfolio_value"`
	DailyReturnPct float64 `json:"daily_return_pct"`
	CumulativePct  float64 `json:"cumulative_pct"`
}

// ---------------------------------------------------------------------------
// Results
// ---------------------------------------------------------------------------

// RiskMetrics holds the distribution statistics of the daily-return series.
// Every ratio reports 0 when its denominator degenerates; callers distinguish
// "no signal" from "perfect strategy" via the trade count on BacktestResult.
type RiskMetrics struct {
	AnnualVolatility float64 `json:"annual_volatility"`
	CalmarRatio      float64 `json:"calmar_ratio"`
	SortinoRatio     float64 `json:"sortino_ratio"`
	VaR95            float64 `json:"var_95"` // 5th percentile daily return
	Skewness         float64 `json:"skewness"`
	ExcessKurtosis   float64 `json:"excess_kurtosis"`
}

// BacktestResult is the complete outcome of one run: headline metrics, risk
// statistics, and the ordered trade ledger and daily-return series.
type BacktestResult struct {
	TotalReturnPct float64       `json:"total_return_pct"`
	SharpeRatio    float64       `json:"sharpe_ratio"`
	MaxDrawdownPct float64       `json:"max_drawdown_pct"` // <= 0
	WinRatePct     float64       `json:"win_rate_pct"`     // in [0, 100]
	AvgWin         float64       `json:"avg_win"`
	AvgLoss        float64       `json:"avg_loss"` // positive magnitude
	ProfitFactor   float64       `json:"profit_factor"`
	TotalTrades    int           `json:"total_trades"`
	Trades         []TradeResult `json:"trades"`
	DailyReturns   []DailyReturn `json:"daily_returns"`
	Risk           RiskMetrics   `json:"risk"`
}
