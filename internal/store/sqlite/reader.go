package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"fxtrader/internal/model"
)

// Reader provides read-only access to stored bars for backtesting.
type Reader struct {
	db *sql.DB
}

// NewReader opens a read connection to the bar database.
func NewReader(dbPath string) (*Reader, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open reader: %w", err)
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(2)
	return &Reader{db: db}, nil
}

// ReadBars returns bars for one pair and interval ordered by open time
// ascending, restricted to open times at or after `from` when from is
// non-zero.
func (r *Reader) ReadBars(pair model.Pair, interval time.Duration, from time.Time) ([]model.Bar, error) {
	var fromUnix int64
	if !from.IsZero() {
		fromUnix = from.Unix()
	}
	rows, err := r.db.Query(`
		SELECT pair, interval_s, open_time, open, high, low, close, volume
		FROM bars
		WHERE pair = ? AND interval_s = ? AND open_time >= ?
		ORDER BY open_time ASC
	`, string(pair), int64(interval/time.Second), fromUnix)
	if err != nil {
		return nil, fmt.Errorf("sqlite query bars: %w", err)
	}
	defer rows.Close()
	return scanBars(rows)
}

// ReadAllBars returns every pair's bars at one interval, ordered by
// open time so a multi-pair backtest replays in market order.
func (r *Reader) ReadAllBars(interval time.Duration, from time.Time) ([]model.Bar, error) {
	var fromUnix int64
	if !from.IsZero() {
		fromUnix = from.Unix()
	}
	rows, err := r.db.Query(`
		SELECT pair, interval_s, open_time, open, high, low, close, volume
		FROM bars
		WHERE interval_s = ? AND open_time >= ?
		ORDER BY open_time ASC, pair ASC
	`, int64(interval/time.Second), fromUnix)
	if err != nil {
		return nil, fmt.Errorf("sqlite query all bars: %w", err)
	}
	defer rows.Close()
	return scanBars(rows)
}

func scanBars(rows *sql.Rows) ([]model.Bar, error) {
	var bars []model.Bar
	for rows.Next() {
		var b model.Bar
		var pair string
		var intervalSec, openUnix int64
		if err := rows.Scan(&pair, &intervalSec, &openUnix,
			&b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("sqlite scan bar: %w", err)
		}
		b.Pair = model.Pair(pair)
		b.Interval = time.Duration(intervalSec) * time.Second
		b.OpenTime = time.Unix(openUnix, 0).UTC()
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

// Close closes the reader.
func (r *Reader) Close() error {
	return r.db.Close()
}
