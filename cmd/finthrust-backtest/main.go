// Command finthrust-backtest runs one backtest from the command line, from
// either a CSV of daily bars or the local parquet bar store, and prints the
// resulting metrics.
//
// Usage:
//
//	go build -o bin/finthrust-backtest ./cmd/finthrust-backtest/
//	bin/finthrust-backtest -csv data/AAPL.csv -symbol AAPL -params short_window=20,long_window=50
//	bin/finthrust-backtest -symbol AAPL -start 2023-01-01 -end 2024-01-01 -out ledger.csv
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"finthrust/internal/backtest"
	"finthrust/internal/config"
	"finthrust/internal/params"
	"finthrust/internal/store"
	"finthrust/internal/strategy"
	"finthrust/internal/strategy/builtins"
	"finthrust/internal/util"
)

func main() {
	strategyName := flag.String("strategy", "ma-cross", "strategy to run")
	symbol := flag.String("symbol", "", "symbol to backtest (required)")
	market := flag.String("market", "us", "bar store market")
	csvPath := flag.String("csv", "", "read bars from this CSV file instead of the bar store")
	startFlag := flag.String("start", "", "start date YYYY-MM-DD (bar store mode)")
	endFlag := flag.String("end", "", "end date YYYY-MM-DD (bar store mode, default today)")
	capital := flag.Float64("capital", 0, "initial capital (default 100000)")
	unit := flag.Float64("unit", 0, "units traded per signal (default 1)")
	paramsFlag := flag.String("params", "", "strategy parameters as k=v,k=v")
	outPath := flag.String("out", "", "write the ledger as CSV to this file")
	flag.Parse()

	if *symbol == "" {
		flag.Usage()
		os.Exit(2)
	}

	runParams, err := parseParams(*paramsFlag)
	if err != nil {
		log.Fatalf("parsing -params: %v", err)
	}

	registry := strategy.NewRegistry()
	builtins.Register(registry)

	opts := backtest.Options{InitialCapital: *capital, UnitSize: *unit}
	logger := util.NewLogger("info", "text")

	var result *backtest.Result
	if *csvPath != "" {
		f, err := os.Open(*csvPath)
		if err != nil {
			log.Fatalf("opening csv: %v", err)
		}
		series, err := store.ReadBarsCSV(f, strings.ToUpper(*symbol))
		f.Close()
		if err != nil {
			log.Fatalf("reading csv: %v", err)
		}

		runner := backtest.NewRunner(nil, registry, logger)
		result, err = runner.RunSeries(context.Background(), *strategyName, runParams, series, opts)
		if err != nil {
			log.Fatalf("running backtest: %v", err)
		}
	} else {
		cfgPath := "config/finthrust.yaml"
		if p := os.Getenv("FINTHRUST_CONFIG"); p != "" {
			cfgPath = p
		}
		cfg, err := config.Load(cfgPath)
		if err != nil {
			log.Fatalf("loading config: %v", err)
		}

		start, end, err := parseRange(*startFlag, *endFlag)
		if err != nil {
			log.Fatal(err)
		}

		// Stored parameter overrides apply under explicit -params values.
		if cfg.Storage.ParamsPath != "" {
			stored := params.NewStore(cfg.Storage.ParamsPath, logger).Get(*strategyName)
			for k, v := range stored {
				if _, ok := runParams[k]; !ok {
					runParams[k] = v
				}
			}
		}
		if opts.InitialCapital == 0 {
			opts.InitialCapital = cfg.Backtest.InitialCapital
		}
		if opts.UnitSize == 0 {
			opts.UnitSize = cfg.Backtest.UnitSize
		}

		runner := backtest.NewRunner(store.NewParquetStore(cfg.Storage.DataDir), registry, logger)
		result, err = runner.Run(context.Background(), backtest.Request{
			Strategy: *strategyName,
			Params:   runParams,
			Symbol:   strings.ToUpper(*symbol),
			Market:   *market,
			Start:    start,
			End:      end,
			Options:  opts,
		})
		if err != nil {
			log.Fatalf("running backtest: %v", err)
		}
	}

	printMetrics(result)

	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			log.Fatalf("creating %s: %v", *outPath, err)
		}
		if err := result.Ledger.WriteCSV(f); err != nil {
			f.Close()
			log.Fatalf("writing ledger: %v", err)
		}
		if err := f.Close(); err != nil {
			log.Fatalf("closing %s: %v", *outPath, err)
		}
		fmt.Printf("ledger written to %s\n", *outPath)
	}
}

func parseParams(raw string) (strategy.Params, error) {
	out := strategy.Params{}
	if raw == "" {
		return out, nil
	}
	for _, pair := range strings.Split(raw, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			return nil, fmt.Errorf("expected k=v, got %q", pair)
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing %q: %w", pair, err)
		}
		out[k] = f
	}
	return out, nil
}

func parseRange(startFlag, endFlag string) (time.Time, time.Time, error) {
	if startFlag == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("-start is required in bar store mode")
	}
	start, err := time.Parse("2006-01-02", startFlag)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parsing -start: %w", err)
	}
	end := time.Now().UTC()
	if endFlag != "" {
		end, err = time.Parse("2006-01-02", endFlag)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("parsing -end: %w", err)
		}
	}
	return start, end, nil
}

func printMetrics(result *backtest.Result) {
	fmt.Printf("%s / %s: %d bars, %d trades\n",
		result.Symbol, result.Strategy, len(result.Ledger), len(result.Trades))

	metrics := result.Metrics.Map()
	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %-22s %12.4f\n", name, metrics[name])
	}
}
