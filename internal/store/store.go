// Package store defines storage interfaces for persisting and retrieving
// domain objects such as OHLCV bars and portfolio transaction logs.
package store

import (
	"context"
	"time"

	"finthrust/internal/domain"
)

// BarStore persists and retrieves OHLCV bar data.
type BarStore interface {
	// WriteBars persists a batch of bars to storage.
	WriteBars(ctx context.Context, bars []domain.Bar) error

	// ReadBars returns bars for the given symbol and market within [start, end].
	ReadBars(ctx context.Context, symbol string, market string, start, end time.Time) ([]domain.Bar, error)

	// ListSymbols returns all distinct symbols available in the given market.
	ListSymbols(ctx context.Context, market string) ([]string, error)
}

// TransactionStore persists per-user portfolio transaction logs. The log is
// append-only history: holdings are always recomputed from it, never stored.
type TransactionStore interface {
	// CreateUser registers a user, succeeding silently if it already exists.
	CreateUser(ctx context.Context, username string) error

	// UserExists reports whether the user is registered.
	UserExists(ctx context.Context, username string) (bool, error)

	// SaveTransaction appends one transaction to the user's log.
	SaveTransaction(ctx context.Context, username string, tx domain.Transaction) error

	// ListTransactions returns the user's log ordered by timestamp, with
	// insertion order breaking ties.
	ListTransactions(ctx context.Context, username string) ([]domain.Transaction, error)
}
