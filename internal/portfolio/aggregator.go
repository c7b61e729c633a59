// Package portfolio folds raw transaction logs into current per-ticker
// holdings with volume-weighted cost basis, and marks holdings to market
// through an injected price source.
package portfolio

import (
	"fmt"
	"sort"
	"time"

	"finthrust/internal/domain"
)

// Epsilon is the quantity below which a holding is considered closed and
// dropped from the active set. It absorbs floating-point drift from
// fractional buys and sells.
const Epsilon = 1e-3

// Warning reports a recoverable inconsistency found while folding the log,
// such as a sell with no matching holding. The fold continues with state
// unchanged for the offending transaction.
type Warning struct {
	Ticker    string
	Timestamp time.Time
	Message   string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s %s: %s", w.Timestamp.Format("2006-01-02"), w.Ticker, w.Message)
}

// Aggregate processes transactions in timestamp order (insertion order
// breaking ties) and returns the active holdings per ticker.
//
// A buy increases quantity and total cost by the transaction notional. A
// sell reduces the total cost proportionally by the quantity sold times
// the pre-sale average cost, floored at zero, then reduces the quantity.
// A sell against a missing holding, or for more than is held, yields a
// Warning and leaves state unchanged: positions never go negative.
// Holdings whose quantity ends below Epsilon are dropped from the result;
// the historical log itself is never modified.
func Aggregate(txs []domain.Transaction) (map[string]domain.Holding, []Warning) {
	ordered := make([]domain.Transaction, len(txs))
	copy(ordered, txs)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	holdings := make(map[string]domain.Holding)
	var warnings []Warning

	for _, tx := range ordered {
		switch tx.Side {
		case domain.SideBuy:
			h := holdings[tx.Ticker]
			h.Ticker = tx.Ticker
			h.Quantity += tx.Quantity
			h.TotalCost += tx.Quantity * tx.Price
			holdings[tx.Ticker] = h

		case domain.SideSell:
			h, ok := holdings[tx.Ticker]
			if !ok {
				warnings = append(warnings, Warning{
					Ticker:    tx.Ticker,
					Timestamp: tx.Timestamp,
					Message:   "sell without holding",
				})
				continue
			}
			if tx.Quantity > h.Quantity {
				warnings = append(warnings, Warning{
					Ticker:    tx.Ticker,
					Timestamp: tx.Timestamp,
					Message: fmt.Sprintf("sell of %g exceeds held quantity %g",
						tx.Quantity, h.Quantity),
				})
				continue
			}

			// Reduce cost basis by the quantity sold at the pre-sale
			// average cost, reconstructed from the post-sale quantity.
			h.Quantity -= tx.Quantity
			preSaleQty := h.Quantity + tx.Quantity
			if preSaleQty > 0 {
				avgCost := h.TotalCost / preSaleQty
				h.TotalCost -= tx.Quantity * avgCost
				if h.TotalCost < 0 {
					h.TotalCost = 0
				}
			}
			holdings[tx.Ticker] = h

		default:
			warnings = append(warnings, Warning{
				Ticker:    tx.Ticker,
				Timestamp: tx.Timestamp,
				Message:   fmt.Sprintf("unknown transaction side %q", tx.Side),
			})
		}
	}

	for ticker, h := range holdings {
		if h.Quantity < Epsilon {
			delete(holdings, ticker)
		}
	}

	return holdings, warnings
}
