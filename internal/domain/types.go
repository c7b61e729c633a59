// Package domain defines the core data types shared across finthrust:
// OHLCV bars, strategy signals, portfolio transactions, and holdings.
package domain

import (
	"sort"
	"time"
)

// Bar is a single OHLCV observation for a symbol at a timestamp.
type Bar struct {
	Symbol    string
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    int64
}

// Series is an ordered sequence of bars for one symbol, ascending by
// timestamp with unique timestamps. It is gap-tolerant: consecutive bars
// need not be calendar-adjacent.
type Series []Bar

// Sort orders the series ascending by timestamp in place.
func (s Series) Sort() {
	sort.Slice(s, func(i, j int) bool {
		return s[i].Timestamp.Before(s[j].Timestamp)
	})
}

// Closes returns the close prices in series order.
func (s Series) Closes() []float64 {
	closes := make([]float64, len(s))
	for i := range s {
		closes[i] = s[i].Close
	}
	return closes
}

// Signal is a directional trading instruction at a timestamp. Value is +1
// for a buy event, -1 for a sell event; continuous target values are also
// allowed and are scaled by the engine's unit size.
type Signal struct {
	Timestamp time.Time
	Value     float64
}

// SignalSeries is a sparse sequence of signals over a Series' timestamp
// domain. Only nonzero values represent actionable events.
type SignalSeries []Signal

// Side identifies the direction of a transaction or executed trade.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Transaction is one raw buy/sell event in a portfolio's transaction log.
type Transaction struct {
	Ticker    string
	Side      Side
	Quantity  float64
	Price     float64
	Timestamp time.Time
}

// Holding is the aggregated standing position for one ticker. The invariant
// TotalCost/Quantity is the volume-weighted average purchase cost.
type Holding struct {
	Ticker    string
	Quantity  float64
	TotalCost float64
}

// AvgCost returns the volume-weighted average cost per unit, or 0 for an
// empty holding.
func (h Holding) AvgCost() float64 {
	if h.Quantity == 0 {
		return 0
	}
	return h.TotalCost / h.Quantity
}
