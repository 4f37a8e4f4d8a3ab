package provider

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"strings"
	"time"

	"helios/internal/domain"
	"helios/internal/util"
)

// Compile-time interface check.
var _ SentimentProvider = (*SyntheticSentimentProvider)(nil)

// SyntheticSentimentProvider generates a deterministic pseudo-random
// sentiment series for dry runs when no gathered sentiment exists. It is
// never used as a silent fallback: callers must construct it explicitly,
// and every generated batch is tagged through the provider name.
//
// The series is reproducible: the value for a (symbol, day) pair depends
// only on the provider seed and that pair.
type SyntheticSentimentProvider struct {
	Seed int64
}

// NewSyntheticSentimentProvider creates a generator with the given seed.
func NewSyntheticSentimentProvider(seed int64) *SyntheticSentimentProvider {
	return &SyntheticSentimentProvider{Seed: seed}
}

func (p *SyntheticSentimentProvider) Name() string { return "synthetic" }

// Sentiment generates one point per calendar day in [start, end].
func (p *SyntheticSentimentProvider) Sentiment(_ context.Context, symbol string, start, end time.Time) ([]domain.SentimentPoint, error) {
	symbol = strings.ToUpper(symbol)

	var points []domain.SentimentPoint
	for _, day := range util.DayRange(start, end) {
		rng := rand.New(rand.NewSource(p.daySeed(symbol, day)))

		// Smooth-ish scores in [-0.8, 0.8] with plausible activity counts.
		score := (rng.Float64()*2 - 1) * 0.8
		mentions := int64(20 + rng.Intn(480))
		points = append(points, domain.SentimentPoint{
			Symbol:     symbol,
			Timestamp:  day,
			Score:      score,
			Mentions:   mentions,
			Engagement: float64(mentions) * (5 + rng.Float64()*45),
		})
	}
	return points, nil
}

func (p *SyntheticSentimentProvider) daySeed(symbol string, day time.Time) int64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%d|%s|%s", p.Seed, symbol, day.Format(domain.DateLayout))
	return int64(h.Sum64())
}
