package backtest

import (
	"math"
	"testing"
)

func ledgerFromTotals(totals []float64) Ledger {
	ledger := make(Ledger, len(totals))
	prev := math.NaN()
	for i, total := range totals {
		ret := math.NaN()
		if !math.IsNaN(prev) {
			ret = total/prev - 1
		}
		prev = total
		ledger[i] = Row{Timestamp: day(i), Cash: total, Total: total, Return: ret}
	}
	return ledger
}

func TestAnalyzeMaxDrawdown(t *testing.T) {
	ledger := ledgerFromTotals([]float64{100, 120, 90, 95, 130})
	m, err := Analyze(ledger, nil)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	// Peak 120 to trough 90.
	if math.Abs(m.MaxDrawdown-(-0.25)) > 1e-9 {
		t.Errorf("MaxDrawdown = %v, want -0.25", m.MaxDrawdown)
	}
}

func TestAnalyzeFlatLedger(t *testing.T) {
	ledger := ledgerFromTotals([]float64{100000, 100000, 100000})
	m, err := Analyze(ledger, nil)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if m.TotalReturn != 0 {
		t.Errorf("TotalReturn = %v, want 0", m.TotalReturn)
	}
	if m.AnnualVolatility != 0 {
		t.Errorf("AnnualVolatility = %v, want 0", m.AnnualVolatility)
	}
	if m.SharpeRatio != 0 {
		t.Errorf("SharpeRatio = %v, want 0", m.SharpeRatio)
	}
	if m.MaxDrawdown != 0 {
		t.Errorf("MaxDrawdown = %v, want 0", m.MaxDrawdown)
	}
	if m.TradeCount != 0 {
		t.Errorf("TradeCount = %v, want 0", m.TradeCount)
	}
}

func TestAnalyzeEmptyLedger(t *testing.T) {
	if _, err := Analyze(nil, nil); err != ErrEmptyLedger {
		t.Errorf("err = %v, want ErrEmptyLedger", err)
	}
}

func TestAnalyzeAnnualization(t *testing.T) {
	// 10% over one calendar year should annualize close to 10%.
	ledger := Ledger{
		{Timestamp: day(0), Total: 100000, Return: math.NaN()},
		{Timestamp: day(365), Total: 110000, Return: 0.1},
	}
	m, err := Analyze(ledger, nil)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	want := math.Pow(1.1, 365.25/365) - 1
	if math.Abs(m.AnnualReturn-want) > 1e-12 {
		t.Errorf("AnnualReturn = %v, want %v", m.AnnualReturn, want)
	}
}

func TestAnalyzeSingleRow(t *testing.T) {
	ledger := ledgerFromTotals([]float64{100000})
	m, err := Analyze(ledger, nil)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if m.AnnualReturn != 0 || m.AnnualVolatility != 0 || m.SharpeRatio != 0 {
		t.Errorf("metrics = %+v, want zeroed annualized values", m)
	}
	if m.FinalEquity != 100000 {
		t.Errorf("FinalEquity = %v, want 100000", m.FinalEquity)
	}
}

func TestAnalyzeTradeCount(t *testing.T) {
	ledger := ledgerFromTotals([]float64{100, 110})
	trades := TradeList{{}, {}, {}}
	m, err := Analyze(ledger, trades)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if m.TradeCount != 3 {
		t.Errorf("TradeCount = %d, want 3", m.TradeCount)
	}
}

func TestStddevSample(t *testing.T) {
	// Sample stdev of [1,2,3,4] is sqrt(5/3).
	got := stddev([]float64{1, 2, 3, 4})
	want := math.Sqrt(5.0 / 3.0)
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("stddev = %v, want %v", got, want)
	}
	if stddev([]float64{5}) != 0 {
		t.Error("stddev of one value should be 0")
	}
}

func TestMetricsMapScaling(t *testing.T) {
	m := Metrics{TotalReturn: 0.12, MaxDrawdown: -0.25, SharpeRatio: 1.5, TradeCount: 4}
	got := m.Map()
	if got["total_return_pct"] != 12 {
		t.Errorf("total_return_pct = %v, want 12", got["total_return_pct"])
	}
	if got["max_drawdown_pct"] != -25 {
		t.Errorf("max_drawdown_pct = %v, want -25", got["max_drawdown_pct"])
	}
	if got["sharpe_ratio"] != 1.5 {
		t.Errorf("sharpe_ratio = %v, want 1.5", got["sharpe_ratio"])
	}
	if got["trade_count"] != 4 {
		t.Errorf("trade_count = %v, want 4", got["trade_count"])
	}
}
