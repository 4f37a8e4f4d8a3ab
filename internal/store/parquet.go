package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"helios/internal/domain"
)

// Compile-time interface checks.
var _ MarketStore = (*ParquetStore)(nil)
var _ SentimentStore = (*ParquetStore)(nil)

// ParquetStore implements MarketStore and SentimentStore using Parquet files
// on disk, one file per symbol and year.
type ParquetStore struct {
	DataDir string
}

// NewParquetStore creates a new ParquetStore rooted at the given data directory.
func NewParquetStore(dataDir string) *ParquetStore {
	return &ParquetStore{DataDir: dataDir}
}

// ---------------------------------------------------------------------------
// Parquet record types (on-disk schema)
// ---------------------------------------------------------------------------

// MarketRecord is the Parquet schema for daily market data.
type MarketRecord struct {
	Symbol    string  `parquet:"symbol"`
	Timestamp int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Price     float64 `parquet:"price"`
	Volume    float64 `parquet:"volume"`
	MarketCap float64 `parquet:"market_cap"`
	Change24h float64 `parquet:"change_24h"`
}

// SentimentRecord is the Parquet schema for daily sentiment data.
type SentimentRecord struct {
	Symbol     string  `parquet:"symbol"`
	Timestamp  int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Score      float64 `parquet:"score"`
	Mentions   int64   `parquet:"mentions"`
	Engagement float64 `parquet:"engagement"`
}

// ---------------------------------------------------------------------------
// MarketStore implementation
// ---------------------------------------------------------------------------

// WriteMarket writes market points to Parquet files organized by symbol and
// year. Each symbol+year combination produces a separate file at:
//
//	<DataDir>/crypto/daily/<SYMBOL>/<YYYY>.parquet
//
// Incoming points are merged with any existing file contents, deduplicated
// by (symbol, timestamp) with new points winning.
func (s *ParquetStore) WriteMarket(_ context.Context, points []domain.MarketPoint) error {
	if len(points) == 0 {
		return nil
	}

	type key struct {
		symbol string
		year   int
	}
	groups := make(map[key][]MarketRecord)
	for _, p := range points {
		k := key{symbol: strings.ToUpper(p.Symbol), year: p.Timestamp.UTC().Year()}
		groups[k] = append(groups[k], MarketRecord{
			Symbol:    strings.ToUpper(p.Symbol),
			Timestamp: p.Timestamp.UnixMilli(),
			Price:     p.Price,
			Volume:    p.Volume,
			MarketCap: p.MarketCap,
			Change24h: p.Change24h,
		})
	}

	for k, records := range groups {
		path := s.marketPath(k.symbol, k.year)

		existing, _ := readParquetFile[MarketRecord](path)
		merged := mergeRecords(existing, records, func(r MarketRecord) recordKey {
			return recordKey{r.Symbol, r.Timestamp}
		})

		if err := writeParquetFile(path, merged); err != nil {
			return fmt.Errorf("writing market data for %s/%d: %w", k.symbol, k.year, err)
		}
	}
	return nil
}

// ReadMarket reads market points from Parquet files for the given symbol and
// time range. Missing year files are skipped silently.
func (s *ParquetStore) ReadMarket(_ context.Context, symbol string, start, end time.Time) ([]domain.MarketPoint, error) {
	var points []domain.MarketPoint
	for year := start.Year(); year <= end.Year(); year++ {
		records, err := readParquetFile[MarketRecord](s.marketPath(symbol, year))
		if err != nil {
			continue
		}
		for _, r := range records {
			ts := time.UnixMilli(r.Timestamp).UTC()
			if inRange(ts, start, end) {
				points = append(points, domain.MarketPoint{
					Symbol:    r.Symbol,
					Timestamp: ts,
					Price:     r.Price,
					Volume:    r.Volume,
					MarketCap: r.MarketCap,
					Change24h: r.Change24h,
				})
			}
		}
	}
	return points, nil
}

// ListSymbols lists all symbols that have market data on disk.
func (s *ParquetStore) ListSymbols(_ context.Context) ([]string, error) {
	dir := filepath.Join(s.DataDir, "crypto", "daily")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var symbols []string
	for _, e := range entries {
		if e.IsDir() {
			symbols = append(symbols, e.Name())
		}
	}
	sort.Strings(symbols)
	return symbols, nil
}

// ---------------------------------------------------------------------------
// SentimentStore implementation
// ---------------------------------------------------------------------------

// WriteSentiment writes sentiment points to Parquet files organized by symbol
// and year at <DataDir>/crypto/sentiment/<SYMBOL>/<YYYY>.parquet.
func (s *ParquetStore) WriteSentiment(_ context.Context, points []domain.SentimentPoint) error {
	if len(points) == 0 {
		return nil
	}

	type key struct {
		symbol string
		year   int
	}
	groups := make(map[key][]SentimentRecord)
	for _, p := range points {
		k := key{symbol: strings.ToUpper(p.Symbol), year: p.Timestamp.UTC().Year()}
		groups[k] = append(groups[k], SentimentRecord{
			Symbol:     strings.ToUpper(p.Symbol),
			Timestamp:  p.Timestamp.UnixMilli(),
			Score:      p.Score,
			Mentions:   p.Mentions,
			Engagement: p.Engagement,
		})
	}

	for k, records := range groups {
		path := s.sentimentPath(k.symbol, k.year)

		existing, _ := readParquetFile[SentimentRecord](path)
		merged := mergeRecords(existing, records, func(r SentimentRecord) recordKey {
			return recordKey{r.Symbol, r.Timestamp}
		})

		if err := writeParquetFile(path, merged); err != nil {
			return fmt.Errorf("writing sentiment data for %s/%d: %w", k.symbol, k.year, err)
		}
	}
	return nil
}

// ReadSentiment reads sentiment points from Parquet files for the given
// symbol and time range.
func (s *ParquetStore) ReadSentiment(_ context.Context, symbol string, start, end time.Time) ([]domain.SentimentPoint, error) {
	var points []domain.SentimentPoint
	for year := start.Year(); year <= end.Year(); year++ {
		records, err := readParquetFile[SentimentRecord](s.sentimentPath(symbol, year))
		if err != nil {
			continue
		}
		for _, r := range records {
			ts := time.UnixMilli(r.Timestamp).UTC()
			if inRange(ts, start, end) {
				points = append(points, domain.SentimentPoint{
					Symbol:     r.Symbol,
					Timestamp:  ts,
					Score:      r.Score,
					Mentions:   r.Mentions,
					Engagement: r.Engagement,
				})
			}
		}
	}
	return points, nil
}

// ---------------------------------------------------------------------------
// Path helpers
// ---------------------------------------------------------------------------

// marketPath returns the filesystem path for a market Parquet file.
// Layout: <dataDir>/crypto/daily/<SYMBOL>/<YYYY>.parquet
func (s *ParquetStore) marketPath(symbol string, year int) string {
	return filepath.Join(s.DataDir, "crypto", "daily", strings.ToUpper(symbol), fmt.Sprintf("%d.parquet", year))
}

// sentimentPath returns the filesystem path for a sentiment Parquet file.
// Layout: <dataDir>/crypto/sentiment/<SYMBOL>/<YYYY>.parquet
func (s *ParquetStore) sentimentPath(symbol string, year int) string {
	return filepath.Join(s.DataDir, "crypto", "sentiment", strings.ToUpper(symbol), fmt.Sprintf("%d.parquet", year))
}

func inRange(ts, start, end time.Time) bool {
	return (ts.Equal(start) || ts.After(start)) && (ts.Equal(end) || ts.Before(end))
}

// ---------------------------------------------------------------------------
// Parquet file helpers
// ---------------------------------------------------------------------------

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

type recordKey struct {
	symbol string
	ts     int64
}

// mergeRecords deduplicates records by key, preferring incoming records over
// existing ones. Results are sorted by timestamp.
func mergeRecords[T any](existing, incoming []T, keyOf func(T) recordKey) []T {
	seen := make(map[recordKey]T, len(existing)+len(incoming))
	for _, r := range existing {
		seen[keyOf(r)] = r
	}
	for _, r := range incoming {
		seen[keyOf(r)] = r
	}

	merged := make([]T, 0, len(seen))
	for _, r := range seen {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool {
		return keyOf(merged[i]).ts < keyOf(merged[j]).ts
	})
	return merged
}
