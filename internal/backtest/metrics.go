package backtest

import (
	"errors"
	"math"
)

// ErrEmptyLedger is returned by Analyze when the ledger has no rows.
var ErrEmptyLedger = errors.New("empty ledger")

// daysPerYear absorbs leap years when annualizing returns over calendar
// days. tradingDaysPerYear is the convention for annualizing daily return
// volatility.
const (
	daysPerYear        = 365.25
	tradingDaysPerYear = 252
)

// Metrics is the fixed set of summary statistics derived from one run's
// ledger and trade list. Ratio values are fractions, not percentages;
// MaxDrawdown is zero or negative.
type Metrics struct {
	TotalReturn      float64
	AnnualReturn     float64
	AnnualVolatility float64
	SharpeRatio      float64
	MaxDrawdown      float64
	TradeCount       int
	FinalEquity      float64
}

// Map renders the metrics as a flat name-to-value mapping with percentage
// scaling, the shape consumed by the reporting layer.
func (m Metrics) Map() map[string]float64 {
	return map[string]float64{
		"total_return_pct":      m.TotalReturn * 100,
		"annual_return_pct":     m.AnnualReturn * 100,
		"annual_volatility_pct": m.AnnualVolatility * 100,
		"sharpe_ratio":          m.SharpeRatio,
		"max_drawdown_pct":      m.MaxDrawdown * 100,
		"trade_count":           float64(m.TradeCount),
		"final_equity":          m.FinalEquity,
	}
}

// Analyze computes performance metrics from a ledger and its trade list.
// All values are computed together; the only failure mode is a zero-row
// ledger.
//
// Annualization uses calendar days between the first and last ledger rows
// with a 365.25-day year. Volatility is the sample standard deviation of
// daily returns scaled by sqrt(252), zero when fewer than two returns
// exist or the variance is zero. The Sharpe ratio divides the annualized
// total return by the annualized volatility (not the annualized
// mean-daily-return ratio; the two are not equivalent), and is zero when
// the volatility is zero.
func Analyze(ledger Ledger, trades TradeList) (Metrics, error) {
	if len(ledger) == 0 {
		return Metrics{}, ErrEmptyLedger
	}

	first := ledger[0]
	last := ledger[len(ledger)-1]

	m := Metrics{
		TradeCount:  len(trades),
		FinalEquity: last.Total,
	}
	m.TotalReturn = last.Total/first.Total - 1

	elapsedDays := int(last.Timestamp.Sub(first.Timestamp).Hours() / 24)
	if elapsedDays > 0 {
		m.AnnualReturn = math.Pow(1+m.TotalReturn, daysPerYear/float64(elapsedDays)) - 1
	}

	if sd := stddev(ledger.Returns()); sd > 0 {
		m.AnnualVolatility = sd * math.Sqrt(tradingDaysPerYear)
		m.SharpeRatio = m.AnnualReturn / m.AnnualVolatility
	}

	m.MaxDrawdown = maxDrawdown(ledger.Totals())

	return m, nil
}

// stddev is the sample standard deviation (n-1 denominator), or 0 when
// fewer than two values exist.
func stddev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	variance := 0.0
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values) - 1)
	return math.Sqrt(variance)
}

// maxDrawdown is the most negative relative decline of the equity curve
// from its running peak, expressed as a fraction in [-1, 0].
func maxDrawdown(totals []float64) float64 {
	if len(totals) == 0 {
		return 0
	}
	initial := totals[0]
	peak := math.Inf(-1)
	worst := 0.0
	for _, total := range totals {
		cum := total / initial
		if cum > peak {
			peak = cum
		}
		if dd := cum/peak - 1; dd < worst {
			worst = dd
		}
	}
	return worst
}
