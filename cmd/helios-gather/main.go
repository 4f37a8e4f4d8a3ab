package main

import (
	"context"
	"flag"
	"log"
	"os"
	osignal "os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"helios/internal/config"
	"helios/internal/domain"
	"helios/internal/gather"
	"helios/internal/store"
	"helios/internal/util"
)

func main() {
	marketOnly := flag.Bool("market-only", false, "gather market data only")
	sentimentOnly := flag.Bool("sentiment-only", false, "gather sentiment data only")
	startFlag := flag.String("start", "", "start date (YYYY-MM-DD), overrides config")
	endFlag := flag.String("end", "", "end date (YYYY-MM-DD), defaults to today")
	flag.Parse()

	godotenv.Load()

	cfgPath := "config/helios.yaml"
	if p := os.Getenv("HELIOS_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level)
	util.SetDefault(logger)

	startDate := cfg.Gather.StartDate
	if *startFlag != "" {
		startDate = *startFlag
	}
	start, err := time.Parse(domain.DateLayout, startDate)
	if err != nil {
		log.Fatalf("invalid start date %q: %v", startDate, err)
	}

	end := util.MidnightUTC(time.Now())
	if *endFlag != "" {
		end, err = time.Parse(domain.DateLayout, *endFlag)
		if err != nil {
			log.Fatalf("invalid end date %q: %v", *endFlag, err)
		}
	}

	if len(cfg.Gather.Symbols) == 0 {
		log.Fatal("no gather symbols configured")
	}

	pstore := store.NewParquetStore(cfg.Storage.DataDir)
	window := gather.DateRange{Start: start, End: end}

	var gatherers []gather.Gatherer
	if !*sentimentOnly {
		gatherers = append(gatherers, gather.NewMarketGatherer(
			cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.DataURL,
			pstore, cfg.Gather.Symbols, window, cfg.Gather.RateLimitPerMin,
		))
	}
	if !*marketOnly {
		gatherers = append(gatherers, gather.NewSentimentGatherer(
			cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.DataURL,
			pstore, cfg.Gather.Symbols, window, cfg.Gather.RateLimitPerMin,
		))
	}

	ctx, cancel := osignal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	for _, g := range gatherers {
		if ctx.Err() != nil {
			break
		}
		logger.Info("running gatherer", "name", g.Name())
		if err := g.Run(ctx); err != nil {
			if ctx.Err() != nil {
				logger.Info("interrupted", "name", g.Name())
				break
			}
			logger.Error("gatherer finished with errors", "name", g.Name(), "err", err)
		}
	}
}
