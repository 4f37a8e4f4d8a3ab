// Package report renders backtest results as human-readable text for the
// CLI.
package report

import (
	"fmt"
	"strings"

	"helios/internal/domain"
)

// FormatMoney formats a dollar amount as $X.XX with a sign.
func FormatMoney(v float64) string {
	if v < 0 {
		return fmt.Sprintf("-$%.2f", -v)
	}
	return fmt.Sprintf("$%.2f", v)
}

// FormatPct formats a percentage with a leading sign for positive values.
func FormatPct(v float64) string {
	if v > 0 {
		return fmt.Sprintf("+%.2f%%", v)
	}
	return fmt.Sprintf("%.2f%%", v)
}

// Render writes a complete text report of a backtest run.
func Render(cfg domain.BacktestConfig, result *domain.BacktestResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Backtest %s .. %s  mode=%s  symbols=%s\n",
		cfg.Start.Format(domain.DateLayout),
		cfg.End.Format(domain.DateLayout),
		cfg.Mode,
		strings.Join(cfg.Symbols, ","),
	)
	fmt.Fprintf(&b, "Initial capital: %s\n\n", FormatMoney(cfg.InitialCapital))

	fmt.Fprintf(&b, "Total return:    %s\n", FormatPct(result.TotalReturnPct))
	fmt.Fprintf(&b, "Sharpe ratio:    %.2f\n", result.SharpeRatio)
	fmt.Fprintf(&b, "Max drawdown:    %s", FormatPct(result.MaxDrawdownPct))
	if cfg.Risk.MaxDrawdownPct > 0 && -result.MaxDrawdownPct > cfg.Risk.MaxDrawdownPct {
		fmt.Fprintf(&b, "  (exceeds limit of %.1f%%)", cfg.Risk.MaxDrawdownPct)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Win rate:        %.1f%%  (%d trades)\n", result.WinRatePct, result.TotalTrades)
	fmt.Fprintf(&b, "Avg win/loss:    %s / %s\n", FormatMoney(result.AvgWin), FormatMoney(result.AvgLoss))
	fmt.Fprintf(&b, "Profit factor:   %.2f\n\n", result.ProfitFactor)

	fmt.Fprintf(&b, "Annual vol:      %.2f%%\n", result.Risk.AnnualVolatility)
	fmt.Fprintf(&b, "Calmar:          %.2f\n", result.Risk.CalmarRatio)
	fmt.Fprintf(&b, "Sortino:         %.2f\n", result.Risk.SortinoRatio)
	fmt.Fprintf(&b, "VaR 95:          %.2f%%\n", result.Risk.VaR95)
	fmt.Fprintf(&b, "Skew / kurtosis: %.2f / %.2f\n", result.Risk.Skewness, result.Risk.ExcessKurtosis)

	if len(result.Trades) > 0 {
		b.WriteString("\nTrades:\n")
		for _, t := range result.Trades {
			fmt.Fprintf(&b, "  %-6s %s -> %s  %9.2f -> %9.2f  pnl %10s (%s)  %s\n",
				t.Symbol,
				t.EntryTime.Format(domain.DateLayout),
				t.ExitTime.Format(domain.DateLayout),
				t.EntryPrice,
				t.ExitPrice,
				FormatMoney(t.PnL),
				FormatPct(t.PnLPct),
				t.ExitReason,
			)
		}
	}

	return b.String()
}
