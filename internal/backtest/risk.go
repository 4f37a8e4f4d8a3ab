package backtest

import (
	"helios/internal/domain"
)

// defaultCashFraction caps a single entry at 10% of available cash even when
// the configured max position size allows more.
const defaultCashFraction = 0.10

// ExitRule identifies one exit condition checked against an open position.
// Hard risk limits are evaluated before strategy-driven exits by default so
// that a stop dominates a signal reversal on the same bar; the ordering is a
// policy choice and can be overridden per engine.
type ExitRule string

const (
	RuleStopLoss   ExitRule = "stop_loss"
	RuleTakeProfit ExitRule = "take_profit"
	RuleSignal     ExitRule = "signal"
)

// DefaultExitPriority returns the standard exit evaluation order:
// stop-loss, then take-profit, then signal change.
func DefaultExitPriority() []ExitRule {
	return []ExitRule{RuleStopLoss, RuleTakeProfit, RuleSignal}
}

// allocation returns the cash amount committed to a new position.
func allocation(cash float64, risk domain.RiskParams) float64 {
	frac := risk.MaxPositionSize
	if frac > defaultCashFraction {
		frac = defaultCashFraction
	}
	return cash * frac
}

// stopLevel returns the stop-loss price for an entry.
func stopLevel(entryPrice float64, risk domain.RiskParams) float64 {
	return entryPrice * (1 - risk.StopLossPct/100)
}

// takeProfitLevel returns the take-profit price for an entry.
func takeProfitLevel(entryPrice float64, risk domain.RiskParams) float64 {
	return entryPrice * (1 + risk.TakeProfitPct/100)
}

// evaluateExit checks the exit rules in priority order against the current
// price and signal. Only the first matching rule applies; the boolean reports
// whether the position should close.
func evaluateExit(pos domain.Position, price float64, sig domain.Signal, priority []ExitRule) (domain.ExitReason, bool) {
	for _, rule := range priority {
		switch rule {
		case RuleStopLoss:
			if price <= pos.StopLoss {
				return domain.ExitStopLoss, true
			}
		case RuleTakeProfit:
			if price >= pos.TakeProfit {
				return domain.ExitTakeProfit, true
			}
		case RuleSignal:
			if sig == domain.SignalSell {
				return domain.ExitSignalChange, true
			}
		}
	}
	return "", false
}
