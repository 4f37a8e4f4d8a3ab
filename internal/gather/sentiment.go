package gather

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"helios/internal/domain"
	"helios/internal/sentiment"
	"helios/internal/store"
	"helios/internal/util"
)

// Compile-time interface check.
var _ Gatherer = (*SentimentGatherer)(nil)

// SentimentGatherer fetches news and social text for the configured symbols,
// scores it, and writes the resulting daily sentiment series to the store.
type SentimentGatherer struct {
	client  *marketdata.Client
	store   store.SentimentStore
	symbols []string
	window  DateRange
	limiter *util.RateLimiter
	log     *slog.Logger
}

// NewSentimentGatherer creates a SentimentGatherer for the given symbols and
// window.
func NewSentimentGatherer(apiKey, apiSecret, dataURL string, s store.SentimentStore, symbols []string, window DateRange, rateLimitPerMin int) *SentimentGatherer {
	opts := marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if dataURL != "" {
		opts.BaseURL = dataURL
	}

	return &SentimentGatherer{
		client:  marketdata.NewClient(opts),
		store:   s,
		symbols: symbols,
		window:  window,
		limiter: util.NewRateLimiter(rateLimitPerMin),
		log:     slog.Default().With("gatherer", "crypto-sentiment"),
	}
}

// Name returns the gatherer identifier.
func (g *SentimentGatherer) Name() string { return "crypto-sentiment" }

// Run gathers and scores text for all configured symbols. Source failures
// degrade to whatever the other sources returned; a symbol is skipped only
// when every source failed.
func (g *SentimentGatherer) Run(ctx context.Context) error {
	runStart := time.Now()
	g.log.Info("starting crypto-sentiment",
		"symbols", len(g.symbols),
		"start", g.window.Start.Format(domain.DateLayout),
		"end", g.window.End.Format(domain.DateLayout),
	)

	// StockTwits is unauthenticated; keep its page rate low.
	ticker := time.NewTicker(3 * time.Second)
	defer ticker.Stop()

	var firstErr error
	var written int
	for _, symbol := range g.symbols {
		if err := g.limiter.Wait(ctx); err != nil {
			return err
		}

		sym := strings.ToUpper(symbol)
		articles, err := g.fetchArticles(ctx, sym, ticker)
		if err != nil {
			g.log.Error("fetching articles failed", "symbol", sym, "err", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if len(articles) == 0 {
			g.log.Warn("no articles in window", "symbol", sym)
			continue
		}

		points := sentiment.DailyScores(sym, articles)
		if err := g.store.WriteSentiment(ctx, points); err != nil {
			return fmt.Errorf("writing sentiment for %s: %w", sym, err)
		}
		written += len(points)
		g.log.Info("symbol done", "symbol", sym, "articles", len(articles), "days", len(points))
	}

	g.log.Info("complete", "points", written, "elapsed", time.Since(runStart).Round(time.Second))
	return firstErr
}

// fetchArticles pulls from every source and returns the union. A source
// failure is logged and tolerated as long as another source produced text.
func (g *SentimentGatherer) fetchArticles(ctx context.Context, symbol string, ticker *time.Ticker) ([]sentiment.Article, error) {
	var articles []sentiment.Article
	var errs []error

	news, err := func() ([]sentiment.Article, error) {
		var out []sentiment.Article
		err := util.Retry(ctx, 3, 2*time.Second, func() error {
			var err error
			out, err = sentiment.FetchAlpacaNews(g.client, symbol, g.window.Start, g.window.End)
			return err
		})
		return out, err
	}()
	if err != nil {
		g.log.Warn("alpaca news failed", "symbol", symbol, "err", err)
		errs = append(errs, err)
	}
	articles = append(articles, news...)

	twits, err := sentiment.FetchStockTwits(symbol, g.window.Start, g.window.End, true, ticker)
	if err != nil {
		g.log.Warn("stocktwits failed", "symbol", symbol, "err", err)
		errs = append(errs, err)
	}
	articles = append(articles, twits...)

	if len(articles) == 0 && len(errs) > 0 {
		return nil, errs[0]
	}
	return articles, nil
}
