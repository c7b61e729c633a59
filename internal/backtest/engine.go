package backtest

import (
	"errors"
	"math"

	"finthrust/internal/domain"
)

// ErrEmptySeries is returned by Engine.Run when the bar series has no rows.
// It is fatal for that run: no partial ledger is produced.
var ErrEmptySeries = errors.New("empty bar series")

// DefaultInitialCapital is the starting cash of a run unless overridden.
const DefaultInitialCapital = 100000

// Options configure a simulation run.
type Options struct {
	// InitialCapital is the starting cash. Defaults to
	// DefaultInitialCapital when zero.
	InitialCapital float64

	// UnitSize scales every signal into a traded quantity: a signal of
	// value v trades |v|*UnitSize units. Defaults to 1 when zero. This is
	// the sizing policy hook; there are no position limits or capital
	// checks, and cash may go negative without error.
	UnitSize float64
}

func (o Options) withDefaults() Options {
	if o.InitialCapital == 0 {
		o.InitialCapital = DefaultInitialCapital
	}
	if o.UnitSize == 0 {
		o.UnitSize = 1
	}
	return o
}

// Engine converts a signal stream into a cash/holdings ledger over a bar
// series. A run is deterministic given its inputs, O(n) in series length,
// and free of lookahead: every ledger row depends only on rows at or
// before it.
type Engine struct {
	opts Options
}

// NewEngine creates an Engine with the given options.
func NewEngine(opts Options) *Engine {
	return &Engine{opts: opts.withDefaults()}
}

// Run simulates the portfolio over the series. Signals are left-joined
// onto the series by timestamp: every series timestamp produces exactly
// one ledger row, a missing signal counts as zero, and signal timestamps
// outside the series' domain are ignored. The running position is the
// cumulative sum of joined signal values; cash decreases by the notional
// of every buy and increases by the notional of every sell. Each nonzero
// joined signal is one trade at that bar's close.
//
// An empty series fails with ErrEmptySeries. An empty signal series is
// valid and produces an all-flat ledger at the initial capital.
func (e *Engine) Run(series domain.Series, signals domain.SignalSeries) (Ledger, TradeList, error) {
	if len(series) == 0 {
		return nil, nil, ErrEmptySeries
	}

	joined := make(map[int64]float64, len(signals))
	for _, sig := range signals {
		joined[sig.Timestamp.UnixNano()] = sig.Value
	}

	ledger := make(Ledger, 0, len(series))
	var trades TradeList

	position := 0.0
	spent := 0.0 // cumulative notional of executed trades
	prevTotal := math.NaN()

	for _, bar := range series {
		sig := joined[bar.Timestamp.UnixNano()]

		position += sig * e.opts.UnitSize
		spent += sig * e.opts.UnitSize * bar.Close

		cash := e.opts.InitialCapital - spent
		holdings := position * bar.Close
		total := cash + holdings

		ret := math.NaN()
		if !math.IsNaN(prevTotal) {
			ret = total/prevTotal - 1
		}
		prevTotal = total

		ledger = append(ledger, Row{
			Timestamp: bar.Timestamp,
			Cash:      cash,
			Holdings:  holdings,
			Total:     total,
			Return:    ret,
		})

		if sig != 0 {
			side := domain.SideBuy
			if sig < 0 {
				side = domain.SideSell
			}
			trades = append(trades, Trade{
				Timestamp: bar.Timestamp,
				Side:      side,
				Price:     bar.Close,
				Quantity:  math.Abs(sig) * e.opts.UnitSize,
			})
		}
	}

	return ledger, trades, nil
}
