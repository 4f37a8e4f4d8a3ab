package backtest

import (
	"math"
	"sort"

	"helios/internal/domain"
)

// tradingDaysPerYear annualizes daily statistics.
const tradingDaysPerYear = 252

// analyze turns a trade ledger into the full BacktestResult. Every ratio
// reports 0 instead of Inf/NaN when its denominator degenerates; the ledger
// and trade count always accompany the metrics so callers can tell a silent
// strategy from a perfect one.
func analyze(cfg domain.BacktestConfig, trades []domain.TradeResult) *domain.BacktestResult {
	res := &domain.BacktestResult{
		TotalTrades:  len(trades),
		Trades:       trades,
		DailyReturns: []domain.DailyReturn{},
	}
	if res.Trades == nil {
		res.Trades = []domain.TradeResult{}
	}
	if len(trades) == 0 {
		return res
	}

	var totalPnL, winSum, lossSum float64
	var wins, losses int
	for _, t := range trades {
		totalPnL += t.PnL
		switch {
		case t.PnL > 0:
			wins++
			winSum += t.PnL
		case t.PnL < 0:
			losses++
			lossSum += t.PnL
		}
	}

	res.TotalReturnPct = totalPnL / cfg.InitialCapital * 100
	res.WinRatePct = float64(wins) / float64(len(trades)) * 100
	if wins > 0 {
		res.AvgWin = winSum / float64(wins)
	}
	if losses > 0 {
		res.AvgLoss = math.Abs(lossSum) / float64(losses)
	}
	if res.AvgLoss > 0 {
		// Reported as 0 when there are no losing trades; Inf would poison
		// serialization and downstream aggregation.
		res.ProfitFactor = res.AvgWin / res.AvgLoss
	}

	res.DailyReturns = dailyReturns(cfg.InitialCapital, trades)

	returns := make([]float64, len(res.DailyReturns))
	values := make([]float64, len(res.DailyReturns))
	for i, d := range res.DailyReturns {
		returns[i] = d.DailyReturnPct
		values[i] = d.PortfolioValue
	}

	meanRet := mean(returns)
	stdRet := sampleStdDev(returns)

	if stdRet > 0 {
		res.SharpeRatio = meanRet / stdRet * math.Sqrt(tradingDaysPerYear)
	}
	res.MaxDrawdownPct = maxDrawdown(cfg.InitialCapital, values)

	res.Risk = riskMetrics(meanRet, stdRet, returns, res.MaxDrawdownPct)
	return res
}

// dailyReturns groups realized PnL by exit date and accumulates it into a
// running portfolio value starting from the initial capital. One entry exists
// per day with at least one closing trade; idle days are deliberately absent.
func dailyReturns(initialCapital float64, trades []domain.TradeResult) []domain.DailyReturn {
	pnlByDate := make(map[string]float64)
	for _, t := range trades {
		pnlByDate[t.ExitTime.Format(domain.DateLayout)] += t.PnL
	}

	dates := make([]string, 0, len(pnlByDate))
	for d := range pnlByDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	daily := make([]domain.DailyReturn, 0, len(dates))
	value := initialCapital
	for _, date := range dates {
		prev := value
		value += pnlByDate[date]
		daily = append(daily, domain.DailyReturn{
			Date:           date,
			PortfolioValue: value,
			DailyReturnPct: (value - prev) / prev * 100,
			CumulativePct:  (value - initialCapital) / initialCapital * 100,
		})
	}
	return daily
}

// maxDrawdown returns the most negative percentage decline from the running
// peak portfolio value, seeded with the initial capital. The result is <= 0.
func maxDrawdown(initialCapital float64, values []float64) float64 {
	peak := initialCapital
	maxDD := 0.0
	for _, v := range values {
		if v > peak {
			peak = v
		}
		if dd := (v - peak) / peak * 100; dd < maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// riskMetrics computes the distribution statistics of the daily-return
// series: annualized volatility, Calmar, Sortino, 95% VaR, and the third and
// fourth standardized moments.
func riskMetrics(meanRet, stdRet float64, returns []float64, maxDDPct float64) domain.RiskMetrics {
	rm := domain.RiskMetrics{
		AnnualVolatility: stdRet * math.Sqrt(tradingDaysPerYear),
	}
	if len(returns) == 0 {
		return rm
	}

	if maxDDPct != 0 {
		rm.CalmarRatio = meanRet * tradingDaysPerYear / math.Abs(maxDDPct)
	}

	// Sortino: Sharpe with only downside deviation in the denominator.
	var downside []float64
	for _, r := range returns {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	if dd := populationStdDev(downside); dd > 0 {
		rm.SortinoRatio = meanRet / dd * math.Sqrt(tradingDaysPerYear)
	}

	rm.VaR95 = percentile(returns, 0.05)

	// Standardized moments use the population deviation.
	if sigma := populationStdDev(returns); sigma > 0 {
		var m3, m4 float64
		for _, r := range returns {
			z := (r - meanRet) / sigma
			m3 += z * z * z
			m4 += z * z * z * z
		}
		n := float64(len(returns))
		rm.Skewness = m3 / n
		rm.ExcessKurtosis = m4/n - 3
	}
	return rm
}

// percentile returns the value at the given fraction of the sorted series
// (0.05 = 5th percentile, the most negative 5% boundary).
func percentile(series []float64, p float64) float64 {
	if len(series) == 0 {
		return 0
	}
	sorted := make([]float64, len(series))
	copy(sorted, series)
	sort.Float64s(sorted)

	idx := int(float64(len(sorted)) * p)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func mean(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}
	total := 0.0
	for _, v := range series {
		total += v
	}
	return total / float64(len(series))
}

// sampleStdDev is the n-1 estimator, used for Sharpe and volatility.
func sampleStdDev(series []float64) float64 {
	if len(series) < 2 {
		return 0
	}
	mu := mean(series)
	total := 0.0
	for _, v := range series {
		d := v - mu
		total += d * d
	}
	return math.Sqrt(total / float64(len(series)-1))
}

// populationStdDev is the n estimator, used for the standardized moments and
// the downside deviation.
func populationStdDev(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}
	mu := mean(series)
	total := 0.0
	for _, v := range series {
		d := v - mu
		total += d * d
	}
	return math.Sqrt(total / float64(len(series)))
}
