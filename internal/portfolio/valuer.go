package portfolio

import (
	"context"
	"sort"

	"finthrust/internal/domain"
	"finthrust/internal/marketdata"
)

// ValuedHolding is a holding marked to market. Priced is false when the
// price source could not resolve the ticker; MarketValue and PnL are then
// zero and the totals treat the position as unvalued.
type ValuedHolding struct {
	domain.Holding
	Price       float64
	MarketValue float64
	PnL         float64
	Priced      bool
}

// Summary aggregates a set of valued holdings.
type Summary struct {
	TotalValue float64
	TotalCost  float64
	TotalPnL   float64
}

// Valuer marks holdings to market using an injected price source.
type Valuer struct {
	prices marketdata.PriceSource
}

// NewValuer creates a Valuer backed by the given price source.
func NewValuer(prices marketdata.PriceSource) *Valuer {
	return &Valuer{prices: prices}
}

// Value fetches a price per unique ticker in one batch and returns the
// holdings with market value and unrealized PnL, sorted by ticker.
func (v *Valuer) Value(ctx context.Context, holdings map[string]domain.Holding) ([]ValuedHolding, Summary, error) {
	tickers := make([]string, 0, len(holdings))
	for ticker := range holdings {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)

	prices, err := v.prices.LastPrices(ctx, tickers)
	if err != nil {
		return nil, Summary{}, err
	}

	valued := make([]ValuedHolding, 0, len(tickers))
	var sum Summary
	for _, ticker := range tickers {
		h := holdings[ticker]
		vh := ValuedHolding{Holding: h}
		if price, ok := prices[ticker]; ok {
			vh.Price = price
			vh.MarketValue = h.Quantity * price
			vh.PnL = vh.MarketValue - h.TotalCost
			vh.Priced = true

			sum.TotalValue += vh.MarketValue
			sum.TotalPnL += vh.PnL
		}
		sum.TotalCost += h.TotalCost
		valued = append(valued, vh)
	}
	return valued, sum, nil
}
