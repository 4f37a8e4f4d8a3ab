package gather

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"helios/internal/domain"
	"helios/internal/store"
	"helios/internal/util"
)

// Compile-time interface check.
var _ Gatherer = (*MarketGatherer)(nil)

// MarketGatherer gathers daily crypto market data via the Alpaca market-data
// API and writes it to the Parquet store. Runs are idempotent: rewriting a
// window merges with what is already on disk.
type MarketGatherer struct {
	client  *marketdata.Client
	store   store.MarketStore
	symbols []string
	window  DateRange
	limiter *util.RateLimiter
	log     *slog.Logger
}

// NewMarketGatherer creates a MarketGatherer for the given symbols and window.
func NewMarketGatherer(apiKey, apiSecret, dataURL string, s store.MarketStore, symbols []string, window DateRange, rateLimitPerMin int) *MarketGatherer {
	opts := marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if dataURL != "" {
		opts.BaseURL = dataURL
	}

	return &MarketGatherer{
		client:  marketdata.NewClient(opts),
		store:   s,
		symbols: symbols,
		window:  window,
		limiter: util.NewRateLimiter(rateLimitPerMin),
		log:     slog.Default().With("gatherer", "crypto-market"),
	}
}

// Name returns the gatherer identifier.
func (g *MarketGatherer) Name() string { return "crypto-market" }

// Run fetches daily bars for all configured symbols and writes them to the
// store. Fetch failures for one symbol do not abort the others; the first
// error is reported after the pass completes.
func (g *MarketGatherer) Run(ctx context.Context) error {
	runStart := time.Now()
	g.log.Info("starting crypto-market",
		"symbols", len(g.symbols),
		"start", g.window.Start.Format(domain.DateLayout),
		"end", g.window.End.Format(domain.DateLayout),
	)

	var firstErr error
	var written int
	for _, symbol := range g.symbols {
		if err := g.limiter.Wait(ctx); err != nil {
			return err
		}

		points, err := g.fetchDaily(ctx, symbol)
		if err != nil {
			g.log.Error("fetching market data failed", "symbol", symbol, "err", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if len(points) == 0 {
			g.log.Warn("no market data in window", "symbol", symbol)
			continue
		}

		if err := g.store.WriteMarket(ctx, points); err != nil {
			return fmt.Errorf("writing market data for %s: %w", symbol, err)
		}
		written += len(points)
		g.log.Info("symbol done", "symbol", symbol, "points", len(points))
	}

	g.log.Info("complete", "points", written, "elapsed", time.Since(runStart).Round(time.Second))
	return firstErr
}

// fetchDaily fetches daily bars for one symbol, retrying transient failures.
func (g *MarketGatherer) fetchDaily(ctx context.Context, symbol string) ([]domain.MarketPoint, error) {
	pair := strings.ToUpper(symbol) + "/USD"

	var bars map[string][]marketdata.CryptoBar
	err := util.Retry(ctx, 3, 2*time.Second, func() error {
		var err error
		bars, err = g.client.GetCryptoMultiBars([]string{pair}, marketdata.GetCryptoBarsRequest{
			TimeFrame: marketdata.OneDay,
			Start:     g.window.Start,
			End:       g.window.End,
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("GetCryptoMultiBars: %w", err)
	}

	return toMarketPoints(strings.ToUpper(symbol), bars[pair]), nil
}

// toMarketPoints converts Alpaca crypto bars into daily market points.
// Change24h is derived from consecutive closes; the first bar in the window
// carries 0.
func toMarketPoints(symbol string, bars []marketdata.CryptoBar) []domain.MarketPoint {
	sort.Slice(bars, func(i, j int) bool {
		return bars[i].Timestamp.Before(bars[j].Timestamp)
	})

	points := make([]domain.MarketPoint, 0, len(bars))
	var prevClose float64
	for _, b := range bars {
		var change float64
		if prevClose > 0 {
			change = (b.Close - prevClose) / prevClose * 100
		}
		points = append(points, domain.MarketPoint{
			Symbol:    symbol,
			Timestamp: b.Timestamp.UTC(),
			Price:     b.Close,
			Volume:    b.Volume,
			Change24h: change,
		})
		prevClose = b.Close
	}
	return points
}
