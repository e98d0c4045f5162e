// Package journal provides an append-only SQLite log of financial
// operations for administrative inspection.
//
// The journal records operations and their outcomes, not balances: ledger
// state itself lives only in memory. Journaling is optional; the server
// runs without it when no journal path is configured.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

const dbTimeLayout = "2006-01-02 15:04:05"

// Entry is one journaled financial operation.
type Entry struct {
	ID      int64
	Account string
	Op      string // "WDRA" or "DEPO"
	Amount  decimal.Decimal
	OK      bool
	At      time.Time
}

// Journal is an append-only transaction log backed by SQLite.
type Journal struct {
	db *sql.DB
}

// Open opens (or creates) the journal database and runs migrations.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("journal: open DB: %w", err)
	}

	ctx := context.Background()

	// Enable WAL mode for better concurrent read performance
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal: set WAL: %w", err)
	}
	// Set busy timeout to avoid "database is locked" under concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal: set busy_timeout: %w", err)
	}

	j := &Journal{db: db}
	if err := j.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal: migrate: %w", err)
	}
	return j, nil
}

func (j *Journal) migrate(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS transactions (
		id      INTEGER PRIMARY KEY AUTOINCREMENT,
		account TEXT    NOT NULL CHECK(length(account) > 0 AND length(account) <= 32),
		op      TEXT    NOT NULL CHECK(op IN ('WDRA', 'DEPO')),
		amount  TEXT    NOT NULL,
		ok      INTEGER NOT NULL DEFAULT 0,
		at      TEXT    NOT NULL DEFAULT (datetime('now'))
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_account ON transactions(account);
	`
	if _, err := j.db.ExecContext(ctx, schema); err != nil {
		return err
	}
	return nil
}

// Record appends one entry. Amount is stored as its decimal string so no
// precision is lost.
func (j *Journal) Record(ctx context.Context, e Entry) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO transactions (account, op, amount, ok, at) VALUES (?, ?, ?, ?, ?)`,
		e.Account, e.Op, e.Amount.String(), boolToInt(e.OK),
		time.Now().UTC().Format(dbTimeLayout),
	)
	if err != nil {
		return fmt.Errorf("journal: record: %w", err)
	}
	return nil
}

// Recent returns the most recent n entries, newest first.
func (j *Journal) Recent(ctx context.Context, n int) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, account, op, amount, ok, at FROM transactions ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("journal: query recent: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var amount, at string
		var ok int
		if err := rows.Scan(&e.ID, &e.Account, &e.Op, &amount, &ok, &at); err != nil {
			return nil, fmt.Errorf("journal: scan: %w", err)
		}
		e.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("journal: parse amount %q: %w", amount, err)
		}
		e.OK = ok != 0
		e.At, err = time.Parse(dbTimeLayout, at)
		if err != nil {
			return nil, fmt.Errorf("journal: parse time %q: %w", at, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("journal: rows: %w", err)
	}
	return entries, nil
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
