package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"finthrust/internal/domain"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface check.
var _ TransactionStore = (*SQLiteStore)(nil)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
	username   TEXT PRIMARY KEY,
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS transactions (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	username    TEXT NOT NULL REFERENCES users(username),
	ticker      TEXT NOT NULL,
	side        TEXT NOT NULL,
	quantity    REAL NOT NULL,
	price       REAL NOT NULL,
	executed_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_user
	ON transactions(username, executed_at);
`

// SQLiteStore implements TransactionStore backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, applies
// the schema, and returns a ready-to-use SQLiteStore.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateUser registers a user, succeeding silently if it already exists.
func (s *SQLiteStore) CreateUser(ctx context.Context, username string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, created_at) VALUES (?, ?)
		 ON CONFLICT(username) DO NOTHING`,
		username, time.Now().UnixMilli())
	return err
}

// UserExists reports whether the user is registered.
func (s *SQLiteStore) UserExists(ctx context.Context, username string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM users WHERE username = ?`, username).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// SaveTransaction appends one transaction to the user's log.
func (s *SQLiteStore) SaveTransaction(ctx context.Context, username string, tx domain.Transaction) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (username, ticker, side, quantity, price, executed_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		username, tx.Ticker, string(tx.Side), tx.Quantity, tx.Price, tx.Timestamp.UnixMilli())
	return err
}

// ListTransactions returns the user's log ordered by timestamp, with
// insertion order breaking ties.
func (s *SQLiteStore) ListTransactions(ctx context.Context, username string) ([]domain.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ticker, side, quantity, price, executed_at
		 FROM transactions
		 WHERE username = ?
		 ORDER BY executed_at, id`,
		username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []domain.Transaction
	for rows.Next() {
		var (
			tx   domain.Transaction
			side string
			ms   int64
		)
		if err := rows.Scan(&tx.Ticker, &side, &tx.Quantity, &tx.Price, &ms); err != nil {
			return nil, err
		}
		tx.Side = domain.Side(side)
		tx.Timestamp = time.UnixMilli(ms).UTC()
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}
