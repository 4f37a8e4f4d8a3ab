package signal

import (
	"helios/internal/domain"
)

// Compile-time interface checks.
var _ Generator = (*SentimentGenerator)(nil)
var _ Generator = (*TechnicalGenerator)(nil)
var _ Generator = (*HybridGenerator)(nil)

// SentimentGenerator trades on the social sentiment score alone.
type SentimentGenerator struct {
	Thresholds Thresholds
}

// Mode returns domain.ModeSentiment.
func (g *SentimentGenerator) Mode() domain.StrategyMode { return domain.ModeSentiment }

// Evaluate returns BUY when the sentiment score exceeds the buy threshold,
// SELL when it falls below the sell threshold, and HOLD otherwise.
func (g *SentimentGenerator) Evaluate(_ domain.MarketPoint, s domain.SentimentPoint) domain.Signal {
	switch {
	case s.Score > g.Thresholds.SentimentBuy:
		return domain.SignalBuy
	case s.Score < g.Thresholds.SentimentSell:
		return domain.SignalSell
	default:
		return domain.SignalHold
	}
}

// TechnicalGenerator trades on 24h price momentum alone.
type TechnicalGenerator struct {
	Thresholds Thresholds
}

// Mode returns domain.ModeTechnical.
func (g *TechnicalGenerator) Mode() domain.StrategyMode { return domain.ModeTechnical }

// Evaluate returns BUY when the 24h price change exceeds the buy threshold,
// SELL when it falls below the sell threshold, and HOLD otherwise.
func (g *TechnicalGenerator) Evaluate(m domain.MarketPoint, _ domain.SentimentPoint) domain.Signal {
	switch {
	case m.Change24h > g.Thresholds.TechnicalBuy:
		return domain.SignalBuy
	case m.Change24h < g.Thresholds.TechnicalSell:
		return domain.SignalSell
	default:
		return domain.SignalHold
	}
}

// HybridGenerator averages the sentiment score with the normalized 24h price
// change and trades on the combined score.
type HybridGenerator struct {
	Thresholds Thresholds
}

// Mode returns domain.ModeHybrid.
func (g *HybridGenerator) Mode() domain.StrategyMode { return domain.ModeHybrid }

// Evaluate combines sentiment and momentum into a single score in roughly
// [-1, 1] and compares it against the hybrid thresholds.
func (g *HybridGenerator) Evaluate(m domain.MarketPoint, s domain.SentimentPoint) domain.Signal {
	combined := (s.Score + m.Change24h/100) / 2
	switch {
	case combined > g.Thresholds.HybridBuy:
		return domain.SignalBuy
	case combined < g.Thresholds.HybridSell:
		return domain.SignalSell
	default:
		return domain.SignalHold
	}
}
