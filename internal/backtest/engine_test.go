package backtest

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"testing"
	"time"

	"helios/internal/domain"
	"helios/internal/signal"
)

func day(i int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
}

// marketSeries builds one point per day starting at day(0). A non-positive
// price marks a gap: the point is omitted entirely.
func marketSeries(sym string, prices []float64, changes []float64) []domain.MarketPoint {
	var points []domain.MarketPoint
	for i, p := range prices {
		if p <= 0 {
			continue
		}
		var ch float64
		if changes != nil {
			ch = changes[i]
		}
		points = append(points, domain.MarketPoint{
			Symbol:    sym,
			Timestamp: day(i),
			Price:     p,
			Volume:    1000,
			Change24h: ch,
		})
	}
	return points
}

func sentimentSeries(sym string, scores []float64) []domain.SentimentPoint {
	var points []domain.SentimentPoint
	for i, s := range scores {
		if math.IsNaN(s) { // NaN marks a gap
			continue
		}
		points = append(points, domain.SentimentPoint{
			Symbol:    sym,
			Timestamp: day(i),
			Score:     s,
			Mentions:  10,
		})
	}
	return points
}

func testEngine() *Engine {
	return NewEngine(signal.NewRegistry(signal.DefaultThresholds()), slog.New(slog.DiscardHandler))
}

func testConfig(symbols []string, mode domain.StrategyMode, days int) domain.BacktestConfig {
	return domain.BacktestConfig{
		Start:          day(0),
		End:            day(days - 1),
		InitialCapital: 10000,
		Symbols:        symbols,
		Mode:           mode,
		Risk: domain.RiskParams{
			MaxPositionSize: 0.10,
			StopLossPct:     15,
			TakeProfitPct:   30,
			MaxDrawdownPct:  25,
		},
	}
}

func runSingle(t *testing.T, cfg domain.BacktestConfig, prices, changes, scores []float64) *domain.BacktestResult {
	t.Helper()
	sym := cfg.Symbols[0]
	res, err := testEngine().Run(context.Background(), cfg, Series{
		Market:    map[string][]domain.MarketPoint{sym: marketSeries(sym, prices, changes)},
		Sentiment: map[string][]domain.SentimentPoint{sym: sentimentSeries(sym, scores)},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return res
}

func TestRunTimeLimitScenario(t *testing.T) {
	// initialCapital 10000, prices [100,105,95,110,120], sentiment +0.5,
	// stop 15%, take-profit 30%: opens at 100, never hits either level
	// (120 is +20% < 30%, 95 is -5% > -15%), closes TIME_LIMIT at 120.
	cfg := testConfig([]string{"BTC"}, domain.ModeSentiment, 5)
	prices := []float64{100, 105, 95, 110, 120}
	scores := []float64{0.5, 0.5, 0.5, 0.5, 0.5}

	res := runSingle(t, cfg, prices, nil, scores)

	if res.TotalTrades != 1 {
		t.Fatalf("TotalTrades = %d, want 1", res.TotalTrades)
	}
	tr := res.Trades[0]
	if tr.ExitReason != domain.ExitTimeLimit {
		t.Errorf("ExitReason = %v, want TIME_LIMIT", tr.ExitReason)
	}
	if tr.EntryPrice != 100 || tr.ExitPrice != 120 {
		t.Errorf("entry/exit = %v/%v, want 100/120", tr.EntryPrice, tr.ExitPrice)
	}

	// Allocation is 10% of 10000 = 1000 → quantity 10, PnL 200 (20% of the
	// allocated position size).
	if got, want := tr.Quantity, 10.0; math.Abs(got-want) > 1e-9 {
		t.Errorf("Quantity = %v, want %v", got, want)
	}
	if got, want := tr.PnL, 200.0; math.Abs(got-want) > 1e-9 {
		t.Errorf("PnL = %v, want %v", got, want)
	}
	if got, want := res.TotalReturnPct, 2.0; math.Abs(got-want) > 1e-9 {
		t.Errorf("TotalReturnPct = %v, want %v", got, want)
	}
}

func TestRunHybridMonotonicRise(t *testing.T) {
	cfg := testConfig([]string{"ETH"}, domain.ModeHybrid, 4)
	prices := []float64{100, 101, 102, 103}
	changes := []float64{1, 1, 1, 1}
	scores := []float64{1, 1, 1, 1}

	res := runSingle(t, cfg, prices, changes, scores)

	if res.TotalTrades != 1 {
		t.Fatalf("TotalTrades = %d, want exactly 1", res.TotalTrades)
	}
	tr := res.Trades[0]
	if tr.ExitReason != domain.ExitTimeLimit {
		t.Errorf("ExitReason = %v, want TIME_LIMIT", tr.ExitReason)
	}
	wantPnL := (103.0 - 100.0) * tr.Quantity
	if math.Abs(tr.PnL-wantPnL) > 1e-9 {
		t.Errorf("PnL = %v, want (final-entry)*quantity = %v", tr.PnL, wantPnL)
	}
}

func TestRunStopLossBeforeSignal(t *testing.T) {
	// Price crosses the stop before any SELL signal ever appears.
	cfg := testConfig([]string{"BTC"}, domain.ModeSentiment, 2)
	prices := []float64{100, 80} // stop level is 85
	scores := []float64{0.5, 0.5}

	res := runSingle(t, cfg, prices, nil, scores)

	if res.TotalTrades != 1 {
		t.Fatalf("TotalTrades = %d, want 1", res.TotalTrades)
	}
	if got := res.Trades[0].ExitReason; got != domain.ExitStopLoss {
		t.Errorf("ExitReason = %v, want STOP_LOSS", got)
	}
	if got := res.Trades[0].ExitPrice; got != 80 {
		t.Errorf("ExitPrice = %v, want 80", got)
	}
}

func TestRunTakeProfit(t *testing.T) {
	cfg := testConfig([]string{"BTC"}, domain.ModeSentiment, 2)
	prices := []float64{100, 135} // take-profit level is 130
	scores := []float64{0.5, 0.5}

	res := runSingle(t, cfg, prices, nil, scores)

	if res.TotalTrades != 1 {
		t.Fatalf("TotalTrades = %d, want 1", res.TotalTrades)
	}
	if got := res.Trades[0].ExitReason; got != domain.ExitTakeProfit {
		t.Errorf("ExitReason = %v, want TAKE_PROFIT", got)
	}
}

func TestRunSignalChangeExit(t *testing.T) {
	cfg := testConfig([]string{"BTC"}, domain.ModeSentiment, 3)
	prices := []float64{100, 98, 97} // inside both risk levels
	scores := []float64{0.5, -0.6, 0.5}

	res := runSingle(t, cfg, prices, nil, scores)

	if res.TotalTrades != 2 {
		t.Fatalf("TotalTrades = %d, want 2 (signal exit then re-entry force-closed)", res.TotalTrades)
	}
	if got := res.Trades[0].ExitReason; got != domain.ExitSignalChange {
		t.Errorf("first ExitReason = %v, want SIGNAL_CHANGE", got)
	}
	if got := res.Trades[1].ExitReason; got != domain.ExitTimeLimit {
		t.Errorf("second ExitReason = %v, want TIME_LIMIT", got)
	}
}

func TestExitPriorityStopDominatesSignal(t *testing.T) {
	// Same bar: price at 80 is below the stop AND sentiment flips to SELL.
	cfg := testConfig([]string{"BTC"}, domain.ModeSentiment, 2)
	prices := []float64{100, 80}
	scores := []float64{0.5, -0.6}

	res := runSingle(t, cfg, prices, nil, scores)
	if got := res.Trades[0].ExitReason; got != domain.ExitStopLoss {
		t.Errorf("default priority ExitReason = %v, want STOP_LOSS", got)
	}
}

func TestExitPriorityConfigurable(t *testing.T) {
	cfg := testConfig([]string{"BTC"}, domain.ModeSentiment, 2)
	e := testEngine()
	e.SetExitPriority([]ExitRule{RuleSignal, RuleStopLoss, RuleTakeProfit})

	res, err := e.Run(context.Background(), cfg, Series{
		Market:    map[string][]domain.MarketPoint{"BTC": marketSeries("BTC", []float64{100, 80}, nil)},
		Sentiment: map[string][]domain.SentimentPoint{"BTC": sentimentSeries("BTC", []float64{0.5, -0.6})},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := res.Trades[0].ExitReason; got != domain.ExitSignalChange {
		t.Errorf("signal-first priority ExitReason = %v, want SIGNAL_CHANGE", got)
	}
}

func TestRunSkipsDataGaps(t *testing.T) {
	// Day 1 has a market point below the stop level but no sentiment point:
	// the day must be skipped entirely and the stop must NOT fire.
	cfg := testConfig([]string{"BTC"}, domain.ModeSentiment, 3)
	prices := []float64{100, 50, 110}
	scores := []float64{0.5, math.NaN(), 0.5}

	res := runSingle(t, cfg, prices, nil, scores)

	if res.TotalTrades != 1 {
		t.Fatalf("TotalTrades = %d, want 1", res.TotalTrades)
	}
	tr := res.Trades[0]
	if tr.ExitReason != domain.ExitTimeLimit {
		t.Errorf("ExitReason = %v, want TIME_LIMIT (gap day must not trigger the stop)", tr.ExitReason)
	}
	if tr.ExitPrice != 110 {
		t.Errorf("ExitPrice = %v, want 110", tr.ExitPrice)
	}
}

func TestRunSharedCashAcrossSymbols(t *testing.T) {
	cfg := testConfig([]string{"BTC", "ETH"}, domain.ModeSentiment, 2)
	prices := []float64{100, 100}
	scores := []float64{0.5, 0.5}

	res, err := testEngine().Run(context.Background(), cfg, Series{
		Market: map[string][]domain.MarketPoint{
			"BTC": marketSeries("BTC", prices, nil),
			"ETH": marketSeries("ETH", prices, nil),
		},
		Sentiment: map[string][]domain.SentimentPoint{
			"BTC": sentimentSeries("BTC", scores),
			"ETH": sentimentSeries("ETH", scores),
		},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.TotalTrades != 2 {
		t.Fatalf("TotalTrades = %d, want 2", res.TotalTrades)
	}

	// BTC opens first with 10% of 10000, ETH with 10% of the remaining 9000.
	bySymbol := map[string]domain.TradeResult{}
	for _, tr := range res.Trades {
		bySymbol[tr.Symbol] = tr
	}
	if got, want := bySymbol["BTC"].Quantity, 10.0; math.Abs(got-want) > 1e-9 {
		t.Errorf("BTC quantity = %v, want %v", got, want)
	}
	if got, want := bySymbol["ETH"].Quantity, 9.0; math.Abs(got-want) > 1e-9 {
		t.Errorf("ETH quantity = %v, want %v", got, want)
	}
}

func TestRunEmptySeries(t *testing.T) {
	cfg := testConfig([]string{"BTC", "ETH"}, domain.ModeHybrid, 5)

	res, err := testEngine().Run(context.Background(), cfg, Series{})
	if err != nil {
		t.Fatalf("Run on empty series: %v", err)
	}

	if res.TotalTrades != 0 || len(res.Trades) != 0 || len(res.DailyReturns) != 0 {
		t.Fatalf("expected empty result, got %d trades, %d daily returns", len(res.Trades), len(res.DailyReturns))
	}
	for name, v := range map[string]float64{
		"TotalReturnPct":   res.TotalReturnPct,
		"SharpeRatio":      res.SharpeRatio,
		"MaxDrawdownPct":   res.MaxDrawdownPct,
		"WinRatePct":       res.WinRatePct,
		"AvgWin":           res.AvgWin,
		"AvgLoss":          res.AvgLoss,
		"ProfitFactor":     res.ProfitFactor,
		"AnnualVolatility": res.Risk.AnnualVolatility,
		"CalmarRatio":      res.Risk.CalmarRatio,
		"SortinoRatio":     res.Risk.SortinoRatio,
		"VaR95":            res.Risk.VaR95,
		"Skewness":         res.Risk.Skewness,
		"ExcessKurtosis":   res.Risk.ExcessKurtosis,
	} {
		if v != 0 || math.IsNaN(v) {
			t.Errorf("%s = %v, want 0", name, v)
		}
	}
}

func TestRunInvalidConfigAborts(t *testing.T) {
	cfg := testConfig([]string{"BTC"}, domain.ModeSentiment, 5)
	cfg.InitialCapital = -1

	_, err := testEngine().Run(context.Background(), cfg, Series{})
	if err == nil {
		t.Fatal("Run accepted invalid config")
	}
	var ice *domain.InvalidConfigError
	if !errors.As(err, &ice) {
		t.Errorf("Run returned %T, want *domain.InvalidConfigError", err)
	}
}

func TestRunPnLMatchesTotalReturn(t *testing.T) {
	// sum(trade.pnl) == totalReturn * initialCapital / 100 for any ledger.
	cfg := testConfig([]string{"BTC"}, domain.ModeSentiment, 8)
	prices := []float64{100, 84, 100, 135, 100, 80, 90, 95}
	scores := []float64{0.5, 0.5, 0.5, 0.5, 0.5, -0.6, 0.5, 0.5}

	res := runSingle(t, cfg, prices, nil, scores)

	if res.TotalTrades == 0 {
		t.Fatal("scenario produced no trades")
	}
	var sum float64
	for _, tr := range res.Trades {
		sum += tr.PnL
	}
	want := res.TotalReturnPct * cfg.InitialCapital / 100
	if math.Abs(sum-want) > 1e-6 {
		t.Errorf("sum(PnL) = %v, totalReturn*capital/100 = %v", sum, want)
	}

	if res.WinRatePct < 0 || res.WinRatePct > 100 {
		t.Errorf("WinRatePct = %v, want within [0,100]", res.WinRatePct)
	}
	if res.MaxDrawdownPct > 0 {
		t.Errorf("MaxDrawdownPct = %v, want <= 0", res.MaxDrawdownPct)
	}
	for _, tr := range res.Trades {
		if tr.Quantity <= 0 || tr.EntryPrice <= 0 || tr.ExitPrice <= 0 {
			t.Errorf("trade has non-positive quantity or prices: %+v", tr)
		}
	}
}

func TestRunProfitFactorZeroWithoutLosses(t *testing.T) {
	cfg := testConfig([]string{"BTC"}, domain.ModeSentiment, 2)
	prices := []float64{100, 135}
	scores := []float64{0.5, 0.5}

	res := runSingle(t, cfg, prices, nil, scores)

	if res.TotalTrades != 1 {
		t.Fatalf("TotalTrades = %d, want 1", res.TotalTrades)
	}
	if res.Trades[0].PnL <= 0 {
		t.Fatalf("scenario should produce a winning trade, got PnL %v", res.Trades[0].PnL)
	}
	if res.ProfitFactor != 0 {
		t.Errorf("ProfitFactor = %v, want 0 when there are no losing trades", res.ProfitFactor)
	}
	if res.AvgLoss != 0 {
		t.Errorf("AvgLoss = %v, want 0", res.AvgLoss)
	}
}

func TestRunRespectsDateWindow(t *testing.T) {
	// Points outside [start, end] must be invisible to the simulation.
	cfg := testConfig([]string{"BTC"}, domain.ModeSentiment, 3)
	prices := []float64{100, 102, 104, 200, 300} // days 3-4 are outside the window
	scores := []float64{0.5, 0.5, 0.5, 0.5, 0.5}

	res := runSingle(t, cfg, prices, nil, scores)

	if res.TotalTrades != 1 {
		t.Fatalf("TotalTrades = %d, want 1", res.TotalTrades)
	}
	if got := res.Trades[0].ExitPrice; got != 104 {
		t.Errorf("ExitPrice = %v, want 104 (last price inside the window)", got)
	}
}

func TestRunContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := testConfig([]string{"BTC"}, domain.ModeSentiment, 2)
	_, err := testEngine().Run(ctx, cfg, Series{
		Market:    map[string][]domain.MarketPoint{"BTC": marketSeries("BTC", []float64{100, 101}, nil)},
		Sentiment: map[string][]domain.SentimentPoint{"BTC": sentimentSeries("BTC", []float64{0.5, 0.5})},
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run with cancelled context returned %v, want context.Canceled", err)
	}
}
