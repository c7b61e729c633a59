// Package builtins provides the strategy implementations that ship with
// finthrust.
package builtins

import (
	"context"
	"fmt"

	"finthrust/internal/domain"
	"finthrust/internal/strategy"
)

// Compile-time interface check.
var _ strategy.Strategy = (*MACross)(nil)

// Default moving-average windows, in bars.
const (
	DefaultShortWindow = 20
	DefaultLongWindow  = 50
)

// MACross implements a moving average crossover strategy. It emits a +1
// signal when the short-window SMA crosses above the long-window SMA and a
// -1 signal when it crosses back below.
//
// Both averages are trailing simple moving averages with a minimum-periods
// of one: the average is defined from the first bar onward, over however
// many closes are available below the window size. Crossover state is only
// evaluated from index shortWindow onward; earlier indices are held flat.
// Both choices affect which bar carries the first signal and are relied on
// by the engine tests.
type MACross struct {
	shortWindow int
	longWindow  int
}

// NewMACross creates a MACross strategy with the given short and long
// moving average windows. Both must be positive; shortWindow is normally
// smaller than longWindow but that is not enforced.
func NewMACross(shortWindow, longWindow int) (*MACross, error) {
	if shortWindow <= 0 || longWindow <= 0 {
		return nil, fmt.Errorf("ma-cross: windows must be positive, got short=%d long=%d", shortWindow, longWindow)
	}
	return &MACross{
		shortWindow: shortWindow,
		longWindow:  longWindow,
	}, nil
}

// FromParams builds a MACross from a parameter map with keys "short_window"
// and "long_window". Missing keys fall back to the defaults. It has the
// strategy.Factory signature for registry use.
func FromParams(params strategy.Params) (strategy.Strategy, error) {
	return NewMACross(
		params.Int("short_window", DefaultShortWindow),
		params.Int("long_window", DefaultLongWindow),
	)
}

// Name returns "ma-cross".
func (s *MACross) Name() string {
	return "ma-cross"
}

// GenerateSignals computes crossover events over the series. A series with
// no bars past the short window has an empty crossover domain; it yields no
// signals and ErrInsufficientData.
func (s *MACross) GenerateSignals(_ context.Context, series domain.Series) (domain.SignalSeries, error) {
	if len(series) <= s.shortWindow {
		return nil, fmt.Errorf("ma-cross: series has %d bars, short window is %d: %w",
			len(series), s.shortWindow, strategy.ErrInsufficientData)
	}

	closes := series.Closes()
	short := rollingMean(closes, s.shortWindow)
	long := rollingMean(closes, s.longWindow)

	// Crossover state per bar: 1 while the short average is above the long
	// one, 0 otherwise. Bars before the short window stay flat.
	state := make([]int8, len(series))
	for i := s.shortWindow; i < len(series); i++ {
		if short[i] > long[i] {
			state[i] = 1
		}
	}

	// A signal event is the nonzero first difference of the state: +1 on a
	// crossover up, -1 on a crossover down.
	var signals domain.SignalSeries
	for i := 1; i < len(state); i++ {
		if d := state[i] - state[i-1]; d != 0 {
			signals = append(signals, domain.Signal{
				Timestamp: series[i].Timestamp,
				Value:     float64(d),
			})
		}
	}
	return signals, nil
}

// rollingMean computes a trailing simple moving average with a minimum of
// one period: entry i averages values[max(0, i-window+1) .. i].
func rollingMean(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	sum := 0.0
	for i, v := range values {
		sum += v
		n := window
		if i+1 < window {
			n = i + 1
		} else if i >= window {
			sum -= values[i-window]
		}
		out[i] = sum / float64(n)
	}
	return out
}
