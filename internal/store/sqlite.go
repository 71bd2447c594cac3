package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"quote-tracker/internal/market"
)

var ErrEmptySymbol = errors.New("empty symbol")

// SQLiteHistory is the append-only history log. Rows are never updated or deleted.
type SQLiteHistory struct {
	db   *sql.DB
	part Partitioner
}

func OpenSQLiteHistory(path string, part Partitioner) (*SQLiteHistory, error) {
	if path == "" {
		path = "data/history.db"
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=3000;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragma busy_timeout: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	h := &SQLiteHistory{db: db, part: part}
	if err := h.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return h, nil
}

func (h *SQLiteHistory) Close() error {
	if h == nil || h.db == nil {
		return nil
	}
	return h.db.Close()
}

func (h *SQLiteHistory) Ping(ctx context.Context) error {
	return h.db.PingContext(ctx)
}

func (h *SQLiteHistory) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS quote_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol TEXT NOT NULL,
			partition_key TEXT NOT NULL,
			ts INTEGER NOT NULL,
			price REAL,
			change REAL,
			change_pct REAL,
			currency TEXT,
			source TEXT,
			meta TEXT,
			created_at TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_quote_history_symbol_partition ON quote_history(symbol, partition_key);`,
	}
	for _, stmt := range stmts {
		if _, err := h.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (h *SQLiteHistory) Append(ctx context.Context, q market.Quote) error {
	if q.Symbol == "" {
		return ErrEmptySymbol
	}
	var meta sql.NullString
	if len(q.Meta) > 0 {
		b, err := json.Marshal(q.Meta)
		if err != nil {
			return fmt.Errorf("marshal meta: %w", err)
		}
		meta = sql.NullString{String: string(b), Valid: true}
	}
	_, err := h.db.ExecContext(ctx,
		`INSERT INTO quote_history (symbol, partition_key, ts, price, change, change_pct, currency, source, meta, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		q.Symbol, h.part.Key(q.TS), q.TS, nullFloat(q.Price), nullFloat(q.Change), nullFloat(q.ChangePct),
		q.Currency, q.Source, meta, time.Now().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert quote history: %w", err)
	}
	return nil
}

// Query returns the symbol's records in insertion order, restricted to the
// partitions covering date when date is non-empty.
func (h *SQLiteHistory) Query(ctx context.Context, symbol, date string) ([]market.Quote, error) {
	query := `SELECT symbol, ts, price, change, change_pct, currency, source, meta
		FROM quote_history WHERE symbol = ?`
	args := []any{symbol}
	if date != "" {
		keys, err := h.part.KeysForDate(date)
		if err != nil {
			return nil, err
		}
		query += " AND partition_key IN (?" + strings.Repeat(", ?", len(keys)-1) + ")"
		for _, k := range keys {
			args = append(args, k)
		}
	}
	query += " ORDER BY id ASC"

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query quote history: %w", err)
	}
	defer rows.Close()

	out := []market.Quote{}
	for rows.Next() {
		var (
			q                        market.Quote
			price, change, changePct sql.NullFloat64
			currency, source, meta   sql.NullString
		)
		if err := rows.Scan(&q.Symbol, &q.TS, &price, &change, &changePct, &currency, &source, &meta); err != nil {
			return nil, fmt.Errorf("scan quote history: %w", err)
		}
		q.Price = floatPtr(price)
		q.Change = floatPtr(change)
		q.ChangePct = floatPtr(changePct)
		q.Currency = currency.String
		q.Source = source.String
		if meta.Valid && meta.String != "" {
			if err := json.Unmarshal([]byte(meta.String), &q.Meta); err != nil {
				return nil, fmt.Errorf("decode meta: %w", err)
			}
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows quote history: %w", err)
	}
	return out, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return market.Float(v.Float64)
}
