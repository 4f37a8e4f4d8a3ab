package report

import (
	"strings"
	"testing"
	"time"

	"helios/internal/domain"
)

func TestFormatMoney(t *testing.T) {
	if got := FormatMoney(1234.5); got != "$1234.50" {
		t.Errorf("FormatMoney(1234.5) = %q", got)
	}
	if got := FormatMoney(-20); got != "-$20.00" {
		t.Errorf("FormatMoney(-20) = %q", got)
	}
}

func TestFormatPct(t *testing.T) {
	if got := FormatPct(2.5); got != "+2.50%" {
		t.Errorf("FormatPct(2.5) = %q", got)
	}
	if got := FormatPct(-3.25); got != "-3.25%" {
		t.Errorf("FormatPct(-3.25) = %q", got)
	}
	if got := FormatPct(0); got != "0.00%" {
		t.Errorf("FormatPct(0) = %q", got)
	}
}

func TestRender(t *testing.T) {
	cfg := domain.BacktestConfig{
		Start:          time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:            time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		InitialCapital: 10000,
		Symbols:        []string{"BTC"},
		Mode:           domain.ModeHybrid,
		Risk:           domain.RiskParams{MaxPositionSize: 0.1, MaxDrawdownPct: 25},
	}
	result := &domain.BacktestResult{
		TotalReturnPct: 2,
		SharpeRatio:    1.5,
		MaxDrawdownPct: -1.2,
		WinRatePct:     100,
		TotalTrades:    1,
		Trades: []domain.TradeResult{{
			Symbol:     "BTC",
			EntryTime:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			ExitTime:   time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
			EntryPrice: 100,
			ExitPrice:  120,
			Quantity:   10,
			PnL:        200,
			PnLPct:     20,
			ExitReason: domain.ExitTimeLimit,
		}},
	}

	out := Render(cfg, result)
	for _, want := range []string{
		"2024-01-01 .. 2024-01-31",
		"mode=hybrid",
		"Total return:    +2.00%",
		"TIME_LIMIT",
		"$200.00",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "exceeds limit") {
		t.Errorf("report flags drawdown limit without breach:\n%s", out)
	}
}

func TestRenderDrawdownBreach(t *testing.T) {
	cfg := domain.BacktestConfig{
		Start:          time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:            time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		InitialCapital: 10000,
		Symbols:        []string{"BTC"},
		Mode:           domain.ModeSentiment,
		Risk:           domain.RiskParams{MaxPositionSize: 0.1, MaxDrawdownPct: 5},
	}
	result := &domain.BacktestResult{MaxDrawdownPct: -9.5}

	out := Render(cfg, result)
	if !strings.Contains(out, "exceeds limit of 5.0%") {
		t.Errorf("report does not flag drawdown breach:\n%s", out)
	}
}
