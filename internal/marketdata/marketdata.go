// Package marketdata provides clients for external market data providers:
// historical bar series and current price lookups. The core never performs
// I/O itself; these collaborators supply its inputs and are rate-limited
// and retried here, at the boundary.
package marketdata

import (
	"context"
	"errors"
	"time"

	"finthrust/internal/domain"
)

// ErrNoData is returned when a provider has no bars for the requested
// symbol and range, including unknown symbols. Callers check preconditions
// with it before running a simulation; the engine never runs on absent
// data.
var ErrNoData = errors.New("no market data for symbol in range")

// BarSource supplies an ordered bar series for a symbol and date range.
type BarSource interface {
	GetBars(ctx context.Context, symbol string, start, end time.Time) (domain.Series, error)
}

// PriceSource supplies current prices, batched per unique ticker. Tickers
// whose price could not be resolved are absent from the result rather
// than failing the whole batch.
type PriceSource interface {
	LastPrices(ctx context.Context, tickers []string) (map[string]float64, error)
}
