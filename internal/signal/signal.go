// Package signal derives discrete trading signals (BUY/SELL/HOLD) from daily
// market and sentiment points. Generators are deterministic and stateless;
// the decision thresholds are policy values carried by each generator rather
// than hard-coded constants.
package signal

import (
	"sort"

	"helios/internal/domain"
)

// Thresholds holds the decision boundaries for all strategy modes. The zero
// value is not useful; start from DefaultThresholds and override as needed.
type Thresholds struct {
	SentimentBuy  float64 `yaml:"sentiment_buy"`  // BUY when score > this
	SentimentSell float64 `yaml:"sentiment_sell"` // SELL when score < this
	TechnicalBuy  float64 `yaml:"technical_buy"`  // BUY when 24h change % > this
	TechnicalSell float64 `yaml:"technical_sell"` // SELL when 24h change % < this
	HybridBuy     float64 `yaml:"hybrid_buy"`     // BUY when combined score > this
	HybridSell    float64 `yaml:"hybrid_sell"`    // SELL when combined score < this
}

// DefaultThresholds returns the standard policy boundaries.
func DefaultThresholds() Thresholds {
	return Thresholds{
		SentimentBuy:  0.3,
		SentimentSell: -0.3,
		TechnicalBuy:  5.0,
		TechnicalSell: -5.0,
		HybridBuy:     0.2,
		HybridSell:    -0.2,
	}
}

// Generator maps one (market point, sentiment point) pair to a signal.
// Implementations hold no mutable state and are safe for concurrent use.
type Generator interface {
	// Mode returns the strategy mode this generator implements.
	Mode() domain.StrategyMode

	// Evaluate returns the signal for one symbol on one day.
	Evaluate(m domain.MarketPoint, s domain.SentimentPoint) domain.Signal
}

// Registry holds one generator per strategy mode.
type Registry struct {
	generators map[domain.StrategyMode]Generator
}

// NewRegistry creates a Registry pre-populated with the three built-in
// generators, all sharing the given thresholds.
func NewRegistry(th Thresholds) *Registry {
	r := &Registry{generators: make(map[domain.StrategyMode]Generator)}
	r.Register(&SentimentGenerator{Thresholds: th})
	r.Register(&TechnicalGenerator{Thresholds: th})
	r.Register(&HybridGenerator{Thresholds: th})
	return r
}

// Register adds a generator to the registry, keyed by its Mode().
func (r *Registry) Register(g Generator) {
	r.generators[g.Mode()] = g
}

// Get retrieves the generator for a mode. The second return value indicates
// whether the mode is registered.
func (r *Registry) Get(mode domain.StrategyMode) (Generator, bool) {
	g, ok := r.generators[mode]
	return g, ok
}

// List returns a sorted slice of all registered modes.
func (r *Registry) List() []domain.StrategyMode {
	modes := make([]domain.StrategyMode, 0, len(r.generators))
	for mode := range r.generators {
		modes = append(modes, mode)
	}
	sort.Slice(modes, func(i, j int) bool { return modes[i] < modes[j] })
	return modes
}
