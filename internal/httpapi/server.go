package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"helios/internal/backtest"
	"helios/internal/domain"
	"helios/internal/provider"
	"helios/internal/store"
)

// BacktestServer serves the backtest HTTP API.
type BacktestServer struct {
	engine    *backtest.Engine
	market    provider.MarketProvider
	sentiment provider.SentimentProvider
	symbols   store.MarketStore
	results   store.ResultStore
	log       *slog.Logger
}

// NewBacktestServer creates a new backtest HTTP server.
func NewBacktestServer(
	engine *backtest.Engine,
	market provider.MarketProvider,
	sentiment provider.SentimentProvider,
	symbols store.MarketStore,
	results store.ResultStore,
	log *slog.Logger,
) *BacktestServer {
	return &BacktestServer{
		engine:    engine,
		market:    market,
		sentiment: sentiment,
		symbols:   symbols,
		results:   results,
		log:       log,
	}
}

// RegisterRoutes registers all API routes on the given mux.
func (s *BacktestServer) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/backtest", s.handleRunBacktest)
	mux.HandleFunc("GET /api/backtests", s.handleListBacktests)
	mux.HandleFunc("GET /api/backtests/{id}", s.handleGetBacktest)
	mux.HandleFunc("GET /api/symbols", s.handleSymbols)
	mux.HandleFunc("GET /api/market/{symbol}", s.handleMarket)
	mux.HandleFunc("GET /api/sentiment/{symbol}", s.handleSentiment)
}

// Handler returns an http.Handler with CORS middleware.
func (s *BacktestServer) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// ---------------------------------------------------------------------------
// Handlers
// ---------------------------------------------------------------------------

func (s *BacktestServer) handleRunBacktest(w http.ResponseWriter, r *http.Request) {
	var req BacktestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	cfg, err := req.Config()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := cfg.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	market := s.market
	sentiment := s.sentiment
	if len(req.Market) > 0 || len(req.Sentiment) > 0 {
		inline := provider.NewStaticProvider()
		inline.AddMarket(req.Market...)
		inline.AddSentiment(req.Sentiment...)
		if len(req.Market) > 0 {
			market = inline
		}
		if len(req.Sentiment) > 0 {
			sentiment = inline
		}
	}
	if req.SyntheticSentiment {
		sentiment = provider.NewSyntheticSentimentProvider(req.SyntheticSeed)
		s.log.Info("using synthetic sentiment", "seed", req.SyntheticSeed)
	}

	series, err := provider.LoadSeries(r.Context(), market, sentiment, cfg)
	if err != nil {
		s.log.Error("loading series failed", "error", err)
		writeError(w, http.StatusInternalServerError, "loading series: "+err.Error())
		return
	}

	result, err := s.engine.Run(r.Context(), cfg, series)
	if err != nil {
		var cfgErr *domain.InvalidConfigError
		if errors.As(err, &cfgErr) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.log.Error("backtest run failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	id, err := s.results.SaveRun(r.Context(), cfg, *result)
	if err != nil {
		s.log.Error("saving run failed", "error", err)
		writeError(w, http.StatusInternalServerError, "saving run: "+err.Error())
		return
	}

	writeJSON(w, BacktestResponse{ID: id, Result: *result})
}

func (s *BacktestServer) handleListBacktests(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	runs, err := s.results.ListRuns(r.Context(), limit)
	if err != nil {
		s.log.Error("listing runs failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if runs == nil {
		runs = []store.RunSummary{}
	}
	writeJSON(w, runs)
}

func (s *BacktestServer) handleGetBacktest(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "id must be an integer")
		return
	}

	run, err := s.results.GetRun(r.Context(), id)
	if errors.Is(err, store.ErrRunNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		s.log.Error("getting run failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, run)
}

func (s *BacktestServer) handleSymbols(w http.ResponseWriter, r *http.Request) {
	symbols, err := s.symbols.ListSymbols(r.Context())
	if err != nil {
		s.log.Error("listing symbols failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if symbols == nil {
		symbols = []string{}
	}
	writeJSON(w, symbols)
}

func (s *BacktestServer) handleMarket(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(r.PathValue("symbol"))
	start, end, ok := parseWindow(w, r)
	if !ok {
		return
	}

	points, err := s.market.Market(r.Context(), symbol, start, end)
	if err != nil {
		s.log.Error("reading market series failed", "symbol", symbol, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if points == nil {
		points = []domain.MarketPoint{}
	}
	writeJSON(w, points)
}

func (s *BacktestServer) handleSentiment(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(r.PathValue("symbol"))
	start, end, ok := parseWindow(w, r)
	if !ok {
		return
	}

	points, err := s.sentiment.Sentiment(r.Context(), symbol, start, end)
	if err != nil {
		s.log.Error("reading sentiment series failed", "symbol", symbol, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if points == nil {
		points = []domain.SentimentPoint{}
	}
	writeJSON(w, points)
}

// parseWindow extracts the start/end query params, defaulting to the last 90
// days. It writes a 400 and returns ok=false on malformed dates.
func parseWindow(w http.ResponseWriter, r *http.Request) (start, end time.Time, ok bool) {
	end = time.Now().UTC()
	start = end.AddDate(0, 0, -90)

	if v := r.URL.Query().Get("start"); v != "" {
		t, err := time.Parse(domain.DateLayout, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "start must be a YYYY-MM-DD date")
			return start, end, false
		}
		start = t
	}
	if v := r.URL.Query().Get("end"); v != "" {
		t, err := time.Parse(domain.DateLayout, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "end must be a YYYY-MM-DD date")
			return start, end, false
		}
		end = t
	}
	return start, end, true
}
