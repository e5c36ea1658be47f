// Package sqlite persists finalized bars so backtests and restarts can
// replay history. One writer goroutine owns the database; reads go
// through a separate Reader with its own connection.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"fxtrader/internal/model"
)

const (
	defaultBatchSize  = 100
	defaultFlushDelay = 200 * time.Millisecond
)

// Writer batches bar inserts into transactions. Partial bars are never
// persisted; the schema key makes re-inserting a bar idempotent.
type Writer struct {
	db  *sql.DB
	log *slog.Logger
}

// NewWriter opens (and if needed initializes) the bar database.
func NewWriter(dbPath string, log *slog.Logger) (*Writer, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log.Info("bar database opened", "path", dbPath)
	return &Writer{db: db, log: log}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS bars (
			pair       TEXT    NOT NULL,
			interval_s INTEGER NOT NULL,
			open_time  INTEGER NOT NULL,
			open       REAL    NOT NULL,
			high       REAL    NOT NULL,
			low        REAL    NOT NULL,
			close      REAL    NOT NULL,
			volume     INTEGER NOT NULL,
			PRIMARY KEY (pair, interval_s, open_time)
		);
	`)
	return err
}

// Run drains barCh into batched transactions. A batch flushes when it
// reaches defaultBatchSize or defaultFlushDelay elapses, whichever is
// first. Returns when ctx is cancelled or barCh closes, after a final
// flush.
func (w *Writer) Run(ctx context.Context, barCh <-chan model.Bar) {
	batch := make([]model.Bar, 0, defaultBatchSize)
	timer := time.NewTimer(defaultFlushDelay)
	defer timer.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := w.WriteBars(batch); err != nil {
			w.log.Error("bar batch insert failed", "bars", len(batch), "err", err)
		}
		batch = batch[:0]
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return
		case bar, ok := <-barCh:
			if !ok {
				flush()
				return
			}
			if bar.Partial {
				continue
			}
			batch = append(batch, bar)
			if len(batch) >= defaultBatchSize {
				flush()
				timer.Reset(defaultFlushDelay)
			}
		case <-timer.C:
			flush()
			timer.Reset(defaultFlushDelay)
		}
	}
}

// WriteBars inserts a batch in one transaction. Existing rows for the
// same (pair, interval, open_time) key are replaced.
func (w *Writer) WriteBars(bars []model.Bar) error {
	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("sqlite begin: %w", err)
	}
	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO bars
			(pair, interval_s, open_time, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("sqlite prepare: %w", err)
	}
	defer stmt.Close()

	for _, b := range bars {
		if _, err := stmt.Exec(
			string(b.Pair), int64(b.Interval/time.Second), b.OpenTime.Unix(),
			b.Open, b.High, b.Low, b.Close, b.Volume,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("sqlite insert bar: %w", err)
		}
	}
	return tx.Commit()
}

// Close closes the database.
func (w *Writer) Close() error {
	return w.db.Close()
}
