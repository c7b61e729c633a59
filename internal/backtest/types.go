// Package backtest simulates a single-instrument portfolio from a bar
// series and a signal stream, and computes performance metrics from the
// resulting ledger.
package backtest

import (
	"encoding/csv"
	"io"
	"math"
	"strconv"
	"time"

	"finthrust/internal/domain"
)

// Row is one ledger entry: the portfolio state at a series timestamp.
// Total is always Cash + Holdings. Return is the equity change relative to
// the previous row and is NaN on the first row, where it is undefined.
type Row struct {
	Timestamp time.Time
	Cash      float64
	Holdings  float64
	Total     float64
	Return    float64
}

// Ledger is the time-indexed record produced by a simulation run. It is the
// source of truth for performance metrics, which are derived on demand and
// never persisted.
type Ledger []Row

// Totals returns the equity column in row order.
func (l Ledger) Totals() []float64 {
	totals := make([]float64, len(l))
	for i := range l {
		totals[i] = l[i].Total
	}
	return totals
}

// Returns is the period-return column with the undefined first entry
// dropped.
func (l Ledger) Returns() []float64 {
	if len(l) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(l)-1)
	for _, row := range l[1:] {
		returns = append(returns, row.Return)
	}
	return returns
}

// WriteCSV renders the ledger as CSV with a header row, for consumption by
// reporting or charting tools. The first row's undefined return is written
// as an empty field.
func (l Ledger) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "cash", "holdings", "total", "returns"}); err != nil {
		return err
	}
	for _, row := range l {
		ret := ""
		if !math.IsNaN(row.Return) {
			ret = strconv.FormatFloat(row.Return, 'g', -1, 64)
		}
		rec := []string{
			row.Timestamp.Format("2006-01-02"),
			strconv.FormatFloat(row.Cash, 'g', -1, 64),
			strconv.FormatFloat(row.Holdings, 'g', -1, 64),
			strconv.FormatFloat(row.Total, 'g', -1, 64),
			ret,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Trade is one executed buy or sell derived from a nonzero joined signal.
type Trade struct {
	Timestamp time.Time
	Side      domain.Side
	Price     float64
	Quantity  float64
}

// TradeList is the discrete trade record of a simulation run, in series
// order.
type TradeList []Trade
