// Package backtest replays a trading strategy against historical market and
// sentiment series and derives risk-adjusted performance statistics. The
// simulation is a pure computation over pre-fetched data: the engine performs
// no I/O and keeps no state between runs, so independent runs may execute
// concurrently.
package backtest

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"helios/internal/domain"
	"helios/internal/signal"
)

// Series bundles the pre-fetched per-symbol inputs for one run, keyed by
// symbol. How the series were fetched is the caller's concern.
type Series struct {
	Market    map[string][]domain.MarketPoint
	Sentiment map[string][]domain.SentimentPoint
}

// Engine executes backtest runs. A single Engine is safe for concurrent use;
// all per-run state lives in the ledger threaded through Run.
type Engine struct {
	registry     *signal.Registry
	exitPriority []ExitRule
	log          *slog.Logger
}

// NewEngine creates an Engine that resolves generators from the given
// registry and evaluates exits in the default priority order.
func NewEngine(registry *signal.Registry, log *slog.Logger) *Engine {
	return &Engine{
		registry:     registry,
		exitPriority: DefaultExitPriority(),
		log:          log,
	}
}

// SetExitPriority overrides the order in which exit rules are evaluated.
func (e *Engine) SetExitPriority(rules []ExitRule) {
	e.exitPriority = rules
}

// ledger is the explicit accumulator threaded through the simulation loop:
// available cash, open positions, and the append-only trade record.
type ledger struct {
	initialCapital float64
	cash           float64
	positions      map[string]domain.Position
	trades         []domain.TradeResult
}

func newLedger(initialCapital float64) *ledger {
	return &ledger{
		initialCapital: initialCapital,
		cash:           initialCapital,
		positions:      make(map[string]domain.Position),
	}
}

// open commits cash to a new position for a symbol. It is a no-op when the
// allocation rounds to nothing.
func (l *ledger) open(m domain.MarketPoint, risk domain.RiskParams) {
	alloc := allocation(l.cash, risk)
	if alloc <= 0 {
		return
	}
	l.cash -= alloc
	l.positions[m.Symbol] = domain.Position{
		Symbol:     m.Symbol,
		EntryTime:  m.Timestamp,
		EntryPrice: m.Price,
		Quantity:   alloc / m.Price,
		StopLoss:   stopLevel(m.Price, risk),
		TakeProfit: takeProfitLevel(m.Price, risk),
	}
}

// close realizes a position at the given price, credits the proceeds back to
// cash, and appends the trade to the ledger.
func (l *ledger) close(m domain.MarketPoint, reason domain.ExitReason) {
	pos := l.positions[m.Symbol]
	delete(l.positions, m.Symbol)

	pnl := (m.Price - pos.EntryPrice) * pos.Quantity
	l.cash += m.Price * pos.Quantity
	l.trades = append(l.trades, domain.TradeResult{
		Symbol:     pos.Symbol,
		EntryTime:  pos.EntryTime,
		ExitTime:   m.Timestamp,
		EntryPrice: pos.EntryPrice,
		ExitPrice:  m.Price,
		Quantity:   pos.Quantity,
		PnL:        pnl,
		PnLPct:     (m.Price - pos.EntryPrice) / pos.EntryPrice * 100,
		ExitReason: reason,
	})
}

// Run executes one backtest. It validates the config, walks the union of all
// trading dates in strictly increasing order, applies the position rules for
// each (date, symbol) pair that has both market and sentiment data, force-
// closes whatever is still open at the end of the range, and hands the ledger
// to the performance analyzer.
func (e *Engine) Run(ctx context.Context, cfg domain.BacktestConfig, series Series) (*domain.BacktestResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	gen, ok := e.registry.Get(cfg.Mode)
	if !ok {
		return nil, &domain.InvalidConfigError{Field: "mode", Reason: fmt.Sprintf("no generator registered for %q", cfg.Mode)}
	}

	symbols := make([]string, len(cfg.Symbols))
	for i, s := range cfg.Symbols {
		symbols[i] = strings.ToUpper(strings.TrimSpace(s))
	}

	market, sentiment, dates := indexSeries(cfg, symbols, series)

	led := newLedger(cfg.InitialCapital)
	lastSeen := make(map[string]domain.MarketPoint, len(symbols))

	for _, date := range dates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, sym := range symbols {
			m, okM := market[sym][date]
			s, okS := sentiment[sym][date]
			if !okM || !okS || m.Price <= 0 {
				// Historical feeds are allowed holes; skip the day for
				// this symbol without touching any state.
				continue
			}
			lastSeen[sym] = m

			sig := gen.Evaluate(m, s)
			if pos, open := led.positions[sym]; open {
				if reason, exit := evaluateExit(pos, m.Price, sig, e.exitPriority); exit {
					led.close(m, reason)
				}
			} else if sig == domain.SignalBuy {
				led.open(m, cfg.Risk)
			}
		}
	}

	// Force-close anything still open at the last available price.
	for _, sym := range symbols {
		if _, open := led.positions[sym]; open {
			led.close(lastSeen[sym], domain.ExitTimeLimit)
		}
	}

	result := analyze(cfg, led.trades)
	e.log.Info("backtest complete",
		"mode", cfg.Mode,
		"symbols", len(symbols),
		"days", len(dates),
		"trades", result.TotalTrades,
		"totalReturnPct", result.TotalReturnPct,
	)
	return result, nil
}

// indexSeries builds per-symbol date-keyed lookups restricted to the config
// window and returns the sorted union of all trading dates across symbols.
func indexSeries(cfg domain.BacktestConfig, symbols []string, series Series) (
	market map[string]map[string]domain.MarketPoint,
	sentiment map[string]map[string]domain.SentimentPoint,
	dates []string,
) {
	startKey := cfg.Start.Format(domain.DateLayout)
	endKey := cfg.End.Format(domain.DateLayout)
	inWindow := func(date string) bool { return date >= startKey && date <= endKey }

	market = make(map[string]map[string]domain.MarketPoint, len(symbols))
	sentiment = make(map[string]map[string]domain.SentimentPoint, len(symbols))
	dateSet := make(map[string]bool)

	for _, sym := range symbols {
		market[sym] = make(map[string]domain.MarketPoint)
		sentiment[sym] = make(map[string]domain.SentimentPoint)
	}

	for sym, points := range series.Market {
		key := strings.ToUpper(sym)
		byDate, ok := market[key]
		if !ok {
			continue // symbol not in this run
		}
		for _, p := range points {
			if date := p.Date(); inWindow(date) {
				p.Symbol = key
				byDate[date] = p
				dateSet[date] = true
			}
		}
	}
	for sym, points := range series.Sentiment {
		key := strings.ToUpper(sym)
		byDate, ok := sentiment[key]
		if !ok {
			continue
		}
		for _, p := range points {
			if date := p.Date(); inWindow(date) {
				p.Symbol = key
				byDate[date] = p
			}
		}
	}

	dates = make([]string, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return market, sentiment, dates
}
