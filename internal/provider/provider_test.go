package provider

import (
	"context"
	"testing"
	"time"

	"helios/internal/domain"
	"helios/internal/store"
)

func day(i int) time.Time {
	return time.Date(2024, 1, i, 0, 0, 0, 0, time.UTC)
}

func TestStaticProviderWindow(t *testing.T) {
	ctx := context.Background()
	p := NewStaticProvider()
	for i := 1; i <= 5; i++ {
		p.AddMarket(domain.MarketPoint{Symbol: "btc", Timestamp: day(i), Price: 100 + float64(i)})
	}

	got, err := p.Market(ctx, "BTC", day(2), day(4))
	if err != nil {
		t.Fatalf("Market failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Market returned %d points, want 3", len(got))
	}
	if got[0].Price != 102 || got[2].Price != 104 {
		t.Errorf("window = [%v..%v], want [102..104]", got[0].Price, got[2].Price)
	}
}

func TestStoreProviderRoundTrip(t *testing.T) {
	ctx := context.Background()
	ps := store.NewParquetStore(t.TempDir())

	if err := ps.WriteMarket(ctx, []domain.MarketPoint{
		{Symbol: "BTC", Timestamp: day(1), Price: 42000},
		{Symbol: "BTC", Timestamp: day(2), Price: 43000},
	}); err != nil {
		t.Fatalf("WriteMarket failed: %v", err)
	}
	if err := ps.WriteSentiment(ctx, []domain.SentimentPoint{
		{Symbol: "BTC", Timestamp: day(1), Score: 0.5, Mentions: 100},
	}); err != nil {
		t.Fatalf("WriteSentiment failed: %v", err)
	}

	p := NewStoreProvider(ps, ps)
	market, err := p.Market(ctx, "BTC", day(1), day(31))
	if err != nil {
		t.Fatalf("Market failed: %v", err)
	}
	if len(market) != 2 {
		t.Errorf("Market returned %d points, want 2", len(market))
	}

	sentiment, err := p.Sentiment(ctx, "BTC", day(1), day(31))
	if err != nil {
		t.Fatalf("Sentiment failed: %v", err)
	}
	if len(sentiment) != 1 || sentiment[0].Score != 0.5 {
		t.Errorf("Sentiment = %+v, want one point with score 0.5", sentiment)
	}
}

func TestSyntheticSentimentDeterministic(t *testing.T) {
	ctx := context.Background()
	p := NewSyntheticSentimentProvider(42)

	first, err := p.Sentiment(ctx, "BTC", day(1), day(10))
	if err != nil {
		t.Fatalf("Sentiment failed: %v", err)
	}
	if len(first) != 10 {
		t.Fatalf("Sentiment returned %d points, want 10", len(first))
	}

	second, err := p.Sentiment(ctx, "btc", day(1), day(10))
	if err != nil {
		t.Fatalf("second Sentiment failed: %v", err)
	}
	for i := range first {
		if first[i].Score != second[i].Score || first[i].Mentions != second[i].Mentions {
			t.Fatalf("point %d differs across runs: %+v vs %+v", i, first[i], second[i])
		}
	}

	for _, pt := range first {
		if pt.Score < -1 || pt.Score > 1 {
			t.Errorf("score %v on %s outside [-1, 1]", pt.Score, pt.Date())
		}
		if pt.Mentions < 0 {
			t.Errorf("negative mentions on %s", pt.Date())
		}
	}
}

func TestSyntheticSentimentSeedChangesSeries(t *testing.T) {
	ctx := context.Background()

	a, _ := NewSyntheticSentimentProvider(1).Sentiment(ctx, "BTC", day(1), day(10))
	b, _ := NewSyntheticSentimentProvider(2).Sentiment(ctx, "BTC", day(1), day(10))

	same := true
	for i := range a {
		if a[i].Score != b[i].Score {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds produced identical series")
	}
}

func TestLoadSeries(t *testing.T) {
	ctx := context.Background()
	p := NewStaticProvider()
	p.AddMarket(
		domain.MarketPoint{Symbol: "BTC", Timestamp: day(1), Price: 42000},
		domain.MarketPoint{Symbol: "ETH", Timestamp: day(1), Price: 2500},
	)
	p.AddSentiment(domain.SentimentPoint{Symbol: "BTC", Timestamp: day(1), Score: 0.4})

	cfg := domain.BacktestConfig{
		Start:          day(1),
		End:            day(31),
		InitialCapital: 10000,
		Symbols:        []string{"BTC", "ETH"},
		Mode:           domain.ModeSentiment,
		Risk:           domain.RiskParams{MaxPositionSize: 0.1},
	}

	series, err := LoadSeries(ctx, p, p, cfg)
	if err != nil {
		t.Fatalf("LoadSeries failed: %v", err)
	}
	if len(series.Market["BTC"]) != 1 || len(series.Market["ETH"]) != 1 {
		t.Errorf("market series = %v, want one point per symbol", series.Market)
	}
	if len(series.Sentiment["BTC"]) != 1 {
		t.Errorf("sentiment series for BTC has %d points, want 1", len(series.Sentiment["BTC"]))
	}
	if series.Sentiment["ETH"] != nil && len(series.Sentiment["ETH"]) != 0 {
		t.Errorf("sentiment series for ETH = %v, want empty", series.Sentiment["ETH"])
	}
}
