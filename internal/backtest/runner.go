package backtest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"finthrust/internal/domain"
	"finthrust/internal/store"
	"finthrust/internal/strategy"
)

// ErrNoBars is returned by Runner.Run when the store has no bars for the
// requested symbol and range.
var ErrNoBars = errors.New("no bars for symbol in range")

// Request describes one backtest: which strategy, over which symbol and
// date range, with which simulation options.
type Request struct {
	Strategy string
	Params   strategy.Params
	Symbol   string
	Market   string
	Start    time.Time
	End      time.Time
	Options  Options
}

// Result bundles a completed run: the full ledger, executed trades, and
// summary metrics.
type Result struct {
	Symbol   string
	Strategy string
	Ledger   Ledger
	Trades   TradeList
	Metrics  Metrics
}

// Runner wires strategies, bar storage, and the simulation engine into a
// single entry point for running backtests.
type Runner struct {
	bars     store.BarStore
	registry *strategy.Registry
	log      *slog.Logger
}

// NewRunner creates a Runner reading bars from the given store and building
// strategies from the given registry.
func NewRunner(bars store.BarStore, registry *strategy.Registry, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}
	return &Runner{bars: bars, registry: registry, log: log}
}

// Run loads the requested bars from storage and simulates the strategy over
// them. A symbol with no stored bars in the range fails with ErrNoBars.
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	bars, err := r.bars.ReadBars(ctx, req.Symbol, req.Market, req.Start, req.End)
	if err != nil {
		return nil, fmt.Errorf("read bars for %s: %w", req.Symbol, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoBars, req.Symbol)
	}
	return r.RunSeries(ctx, req.Strategy, req.Params, domain.Series(bars), req.Options)
}

// RunSeries simulates the named strategy over an already-loaded series.
// A strategy reporting insufficient data is treated as a neutral run: the
// simulation proceeds with no signals and produces an all-flat ledger.
func (r *Runner) RunSeries(ctx context.Context, name string, params strategy.Params, series domain.Series, opts Options) (*Result, error) {
	strat, err := r.registry.New(name, params)
	if err != nil {
		return nil, fmt.Errorf("build strategy %q: %w", name, err)
	}

	signals, err := strat.GenerateSignals(ctx, series)
	if err != nil {
		if !errors.Is(err, strategy.ErrInsufficientData) {
			return nil, fmt.Errorf("generate signals: %w", err)
		}
		r.log.Warn("series shorter than strategy lookback, running flat",
			"strategy", name, "bars", len(series))
		signals = nil
	}

	engine := NewEngine(opts)
	ledger, trades, err := engine.Run(series, signals)
	if err != nil {
		return nil, err
	}

	metrics, err := Analyze(ledger, trades)
	if err != nil {
		return nil, err
	}

	symbol := ""
	if len(series) > 0 {
		symbol = series[0].Symbol
	}
	r.log.Info("backtest complete",
		"strategy", name,
		"symbol", symbol,
		"bars", len(series),
		"trades", len(trades),
		"final_equity", metrics.FinalEquity)

	return &Result{
		Symbol:   symbol,
		Strategy: name,
		Ledger:   ledger,
		Trades:   trades,
		Metrics:  metrics,
	}, nil
}
