package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	osignal "os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"helios/internal/backtest"
	"helios/internal/config"
	"helios/internal/domain"
	"helios/internal/provider"
	"helios/internal/report"
	"helios/internal/signal"
	"helios/internal/store"
	"helios/internal/util"
)

func main() {
	startFlag := flag.String("start", "", "start date (YYYY-MM-DD)")
	endFlag := flag.String("end", "", "end date (YYYY-MM-DD)")
	capitalFlag := flag.Float64("capital", 0, "initial capital, overrides config")
	symbolsFlag := flag.String("symbols", "", "comma-separated symbols, overrides config")
	modeFlag := flag.String("mode", "", "strategy mode: sentiment, technical, or hybrid")
	syntheticFlag := flag.Bool("synthetic-sentiment", false, "use generated sentiment instead of gathered data")
	seedFlag := flag.Int64("seed", 0, "seed for synthetic sentiment")
	saveFlag := flag.Bool("save", false, "persist the run to the result store")
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

	btCfg, err := buildConfig(cfg, *startFlag, *endFlag, *capitalFlag, *symbolsFlag, *modeFlag)
	if err != nil {
		log.Fatalf("invalid run configuration: %v", err)
	}

	pstore := store.NewParquetStore(cfg.Storage.DataDir)
	data := provider.NewStoreProvider(pstore, pstore)

	var sentiment provider.SentimentProvider = data
	if *syntheticFlag {
		sentiment = provider.NewSyntheticSentimentProvider(*seedFlag)
		logger.Info("using synthetic sentiment", "seed", *seedFlag)
	}

	ctx, cancel := osignal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	series, err := provider.LoadSeries(ctx, data, sentiment, btCfg)
	if err != nil {
		log.Fatalf("loading series: %v", err)
	}

	engine := backtest.NewEngine(signal.NewRegistry(cfg.Thresholds()), logger)
	result, err := engine.Run(ctx, btCfg, series)
	if err != nil {
		log.Fatalf("backtest failed: %v", err)
	}

	fmt.Print(report.Render(btCfg, result))

	if *saveFlag {
		results, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
		if err != nil {
			log.Fatalf("opening result store: %v", err)
		}
		defer results.Close()

		id, err := results.SaveRun(ctx, btCfg, *result)
		if err != nil {
			log.Fatalf("saving run: %v", err)
		}
		fmt.Printf("\nsaved as run %d\n", id)
	}
}

// buildConfig merges config-file defaults with command-line overrides.
func buildConfig(cfg *config.Config, start, end string, capital float64, symbols, mode string) (domain.BacktestConfig, error) {
	out := domain.BacktestConfig{
		InitialCapital: cfg.Backtest.InitialCapital,
		Symbols:        cfg.Backtest.Symbols,
		Mode:           domain.StrategyMode(cfg.Backtest.Mode),
		Risk:           cfg.Backtest.Risk,
	}

	if capital > 0 {
		out.InitialCapital = capital
	}
	if symbols != "" {
		out.Symbols = nil
		for _, s := range strings.Split(symbols, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out.Symbols = append(out.Symbols, s)
			}
		}
	}
	if mode != "" {
		out.Mode = domain.StrategyMode(mode)
	}

	if start == "" || end == "" {
		return out, fmt.Errorf("both -start and -end are required")
	}
	var err error
	if out.Start, err = time.Parse(domain.DateLayout, start); err != nil {
		return out, fmt.Errorf("invalid start date %q", start)
	}
	if out.End, err = time.Parse(domain.DateLayout, end); err != nil {
		return out, fmt.Errorf("invalid end date %q", end)
	}
	return out, nil
}
