package backtest

import (
	"math"
	"testing"
	"time"

	"finthrust/internal/domain"
)

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func seriesFromCloses(closes []float64) domain.Series {
	series := make(domain.Series, len(closes))
	for i, c := range closes {
		series[i] = domain.Bar{
			Symbol:    "TEST",
			Timestamp: day(i),
			Open:      c,
			High:      c,
			Low:       c,
			Close:     c,
			Volume:    1000,
		}
	}
	return series
}

func TestEngineRunRoundTrip(t *testing.T) {
	series := seriesFromCloses([]float64{100, 102, 101, 105, 110})
	signals := domain.SignalSeries{
		{Timestamp: day(0), Value: 1},
		{Timestamp: day(3), Value: -1},
	}

	engine := NewEngine(Options{})
	ledger, trades, err := engine.Run(series, signals)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(ledger) != len(series) {
		t.Fatalf("len(ledger) = %d, want %d", len(ledger), len(series))
	}

	wantCash := []float64{99900, 99900, 99900, 100005, 100005}
	wantHoldings := []float64{100, 102, 101, 0, 0}
	wantTotal := []float64{100000, 100002, 100001, 100005, 100005}
	for i, row := range ledger {
		if row.Cash != wantCash[i] {
			t.Errorf("row %d Cash = %v, want %v", i, row.Cash, wantCash[i])
		}
		if row.Holdings != wantHoldings[i] {
			t.Errorf("row %d Holdings = %v, want %v", i, row.Holdings, wantHoldings[i])
		}
		if row.Total != wantTotal[i] {
			t.Errorf("row %d Total = %v, want %v", i, row.Total, wantTotal[i])
		}
	}

	if len(trades) != 2 {
		t.Fatalf("len(trades) = %d, want 2", len(trades))
	}
	if trades[0].Side != domain.SideBuy || trades[0].Price != 100 {
		t.Errorf("trade 0 = %+v, want buy at 100", trades[0])
	}
	if trades[1].Side != domain.SideSell || trades[1].Price != 105 {
		t.Errorf("trade 1 = %+v, want sell at 105", trades[1])
	}
}

func TestEngineCashHoldingsIdentity(t *testing.T) {
	series := seriesFromCloses([]float64{100, 98, 103, 101, 107, 104})
	signals := domain.SignalSeries{
		{Timestamp: day(1), Value: 1},
		{Timestamp: day(2), Value: 1},
		{Timestamp: day(4), Value: -1},
	}

	ledger, _, err := NewEngine(Options{}).Run(series, signals)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for i, row := range ledger {
		if math.Abs(row.Total-(row.Cash+row.Holdings)) > 1e-9 {
			t.Errorf("row %d Total = %v, Cash+Holdings = %v", i, row.Total, row.Cash+row.Holdings)
		}
	}
}

func TestEngineFirstReturnUndefined(t *testing.T) {
	ledger, _, err := NewEngine(Options{}).Run(seriesFromCloses([]float64{100, 110}), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !math.IsNaN(ledger[0].Return) {
		t.Errorf("first Return = %v, want NaN", ledger[0].Return)
	}
	if math.IsNaN(ledger[1].Return) {
		t.Error("second Return is NaN, want defined")
	}
}

func TestEngineEmptySeries(t *testing.T) {
	_, _, err := NewEngine(Options{}).Run(nil, nil)
	if err != ErrEmptySeries {
		t.Errorf("err = %v, want ErrEmptySeries", err)
	}
}

func TestEngineNoSignalsFlatLedger(t *testing.T) {
	series := seriesFromCloses([]float64{100, 102, 101})
	ledger, trades, err := NewEngine(Options{}).Run(series, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(trades) != 0 {
		t.Errorf("len(trades) = %d, want 0", len(trades))
	}
	for i, row := range ledger {
		if row.Total != DefaultInitialCapital {
			t.Errorf("row %d Total = %v, want %v", i, row.Total, float64(DefaultInitialCapital))
		}
		if row.Holdings != 0 {
			t.Errorf("row %d Holdings = %v, want 0", i, row.Holdings)
		}
	}
}

func TestEngineIgnoresSignalsOutsideSeries(t *testing.T) {
	series := seriesFromCloses([]float64{100, 102})
	signals := domain.SignalSeries{
		{Timestamp: day(7), Value: 1}, // not a series timestamp
	}
	ledger, trades, err := NewEngine(Options{}).Run(series, signals)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(trades) != 0 {
		t.Errorf("len(trades) = %d, want 0", len(trades))
	}
	if ledger[1].Total != DefaultInitialCapital {
		t.Errorf("Total = %v, want flat", ledger[1].Total)
	}
}

func TestEngineSingleBar(t *testing.T) {
	ledger, _, err := NewEngine(Options{}).Run(seriesFromCloses([]float64{100}), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(ledger) != 1 {
		t.Fatalf("len(ledger) = %d, want 1", len(ledger))
	}
	if !math.IsNaN(ledger[0].Return) {
		t.Errorf("Return = %v, want NaN", ledger[0].Return)
	}
}

func TestEngineUnitSizeScalesTrades(t *testing.T) {
	series := seriesFromCloses([]float64{100, 110})
	signals := domain.SignalSeries{{Timestamp: day(0), Value: 1}}

	ledger, trades, err := NewEngine(Options{UnitSize: 10}).Run(series, signals)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if trades[0].Quantity != 10 {
		t.Errorf("Quantity = %v, want 10", trades[0].Quantity)
	}
	if ledger[0].Cash != 99000 {
		t.Errorf("Cash = %v, want 99000", ledger[0].Cash)
	}
	if ledger[1].Holdings != 1100 {
		t.Errorf("Holdings = %v, want 1100", ledger[1].Holdings)
	}
}

func TestEngineDeterministic(t *testing.T) {
	series := seriesFromCloses([]float64{100, 105, 95, 102})
	signals := domain.SignalSeries{
		{Timestamp: day(0), Value: 1},
		{Timestamp: day(2), Value: -1},
	}
	engine := NewEngine(Options{})

	first, _, err := engine.Run(series, signals)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	second, _, err := engine.Run(series, signals)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for i := range first {
		if first[i].Total != second[i].Total || first[i].Cash != second[i].Cash {
			t.Errorf("row %d differs between identical runs", i)
		}
	}
}
