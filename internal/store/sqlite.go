package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"helios/internal/domain"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface check.
var _ ResultStore = (*SQLiteStore)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS backtest_runs (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at       TEXT    NOT NULL,
	mode             TEXT    NOT NULL,
	symbols          TEXT    NOT NULL,
	start_date       TEXT    NOT NULL,
	end_date         TEXT    NOT NULL,
	initial_capital  REAL    NOT NULL,
	total_return_pct REAL    NOT NULL,
	sharpe_ratio     REAL    NOT NULL,
	total_trades     INTEGER NOT NULL,
	config_json      TEXT    NOT NULL,
	result_json      TEXT    NOT NULL
);

CREATE TABLE IF NOT EXISTS backtest_trades (
	run_id      INTEGER NOT NULL REFERENCES backtest_runs(id) ON DELETE CASCADE,
	symbol      TEXT    NOT NULL,
	entry_time  TEXT    NOT NULL,
	exit_time   TEXT    NOT NULL,
	entry_price REAL    NOT NULL,
	exit_price  REAL    NOT NULL,
	quantity    REAL    NOT NULL,
	pnl         REAL    NOT NULL,
	pnl_pct     REAL    NOT NULL,
	exit_reason TEXT    NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_backtest_trades_run ON backtest_trades(run_id);
`

// SQLiteStore implements ResultStore backed by a SQLite database. The full
// run (config and result) is stored as JSON for hydration; headline columns
// and a per-trade table exist for listing and ad-hoc queries.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, applies the
// schema, and returns a ready-to-use SQLiteStore.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveRun persists a completed backtest run and returns its assigned ID.
func (s *SQLiteStore) SaveRun(ctx context.Context, cfg domain.BacktestConfig, result domain.BacktestResult) (int64, error) {
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return 0, fmt.Errorf("marshaling config: %w", err)
	}
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return 0, fmt.Errorf("marshaling result: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO backtest_runs
			(created_at, mode, symbols, start_date, end_date, initial_capital,
			 total_return_pct, sharpe_ratio, total_trades, config_json, result_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339),
		string(cfg.Mode),
		strings.Join(cfg.Symbols, ","),
		cfg.Start.UTC().Format(domain.DateLayout),
		cfg.End.UTC().Format(domain.DateLayout),
		cfg.InitialCapital,
		result.TotalReturnPct,
		result.SharpeRatio,
		result.TotalTrades,
		string(cfgJSON),
		string(resultJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, t := range result.Trades {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO backtest_trades
				(run_id, symbol, entry_time, exit_time, entry_price, exit_price,
				 quantity, pnl, pnl_pct, exit_reason)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, t.Symbol,
			t.EntryTime.UTC().Format(time.RFC3339),
			t.ExitTime.UTC().Format(time.RFC3339),
			t.EntryPrice, t.ExitPrice, t.Quantity, t.PnL, t.PnLPct,
			string(t.ExitReason),
		); err != nil {
			return 0, fmt.Errorf("inserting trade for run %d: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// GetRun retrieves a single run by ID, hydrating the stored config and result.
func (s *SQLiteStore) GetRun(ctx context.Context, id int64) (*StoredRun, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, mode, symbols, start_date, end_date,
		       initial_capital, total_return_pct, sharpe_ratio, total_trades,
		       config_json, result_json
		FROM backtest_runs WHERE id = ?`, id)

	var (
		run        StoredRun
		createdAt  string
		symbols    string
		startDate  string
		endDate    string
		cfgJSON    string
		resultJSON string
	)
	err := row.Scan(
		&run.Summary.ID, &createdAt, &run.Summary.Mode, &symbols,
		&startDate, &endDate, &run.Summary.InitialCapital,
		&run.Summary.TotalReturnPct, &run.Summary.SharpeRatio,
		&run.Summary.TotalTrades, &cfgJSON, &resultJSON,
	)
	if err == sql.ErrNoRows {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := fillSummary(&run.Summary, createdAt, symbols, startDate, endDate); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(cfgJSON), &run.Config); err != nil {
		return nil, fmt.Errorf("unmarshaling config for run %d: %w", id, err)
	}
	if err := json.Unmarshal([]byte(resultJSON), &run.Result); err != nil {
		return nil, fmt.Errorf("unmarshaling result for run %d: %w", id, err)
	}
	return &run, nil
}

// ListRuns returns the most recent runs, newest first, up to limit.
// A non-positive limit returns the 50 most recent runs.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, mode, symbols, start_date, end_date,
		       initial_capital, total_return_pct, sharpe_ratio, total_trades
		FROM backtest_runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []RunSummary
	for rows.Next() {
		var (
			s         RunSummary
			createdAt string
			symbols   string
			startDate string
			endDate   string
		)
		if err := rows.Scan(
			&s.ID, &createdAt, &s.Mode, &symbols, &startDate, &endDate,
			&s.InitialCapital, &s.TotalReturnPct, &s.SharpeRatio, &s.TotalTrades,
		); err != nil {
			return nil, err
		}
		if err := fillSummary(&s, createdAt, symbols, startDate, endDate); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

func fillSummary(s *RunSummary, createdAt, symbols, startDate, endDate string) error {
	var err error
	if s.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return fmt.Errorf("parsing created_at for run %d: %w", s.ID, err)
	}
	if s.Start, err = time.Parse(domain.DateLayout, startDate); err != nil {
		return fmt.Errorf("parsing start_date for run %d: %w", s.ID, err)
	}
	if s.End, err = time.Parse(domain.DateLayout, endDate); err != nil {
		return fmt.Errorf("parsing end_date for run %d: %w", s.ID, err)
	}
	if symbols != "" {
		s.Symbols = strings.Split(symbols, ",")
	}
	return nil
}
