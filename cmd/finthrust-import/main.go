// Command finthrust-import fetches daily bars from Alpaca and stores them
// in the local parquet bar store, or imports them from a CSV file.
//
// Usage:
//
//	go build -o bin/finthrust-import ./cmd/finthrust-import/
//	bin/finthrust-import -symbols AAPL,MSFT -start 2023-01-01
//	bin/finthrust-import -csv data/AAPL.csv -symbols AAPL
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"finthrust/internal/config"
	"finthrust/internal/domain"
	"finthrust/internal/marketdata"
	"finthrust/internal/store"
	"finthrust/internal/util"
)

func main() {
	symbolsFlag := flag.String("symbols", "", "comma-separated symbols to import (required)")
	market := flag.String("market", "us", "bar store market")
	csvPath := flag.String("csv", "", "import bars from this CSV file instead of Alpaca")
	startFlag := flag.String("start", "", "start date YYYY-MM-DD (Alpaca mode)")
	endFlag := flag.String("end", "", "end date YYYY-MM-DD (Alpaca mode, default today)")
	flag.Parse()

	if *symbolsFlag == "" {
		flag.Usage()
		os.Exit(2)
	}

	_ = godotenv.Load()

	cfgPath := "config/finthrust.yaml"
	if p := os.Getenv("FINTHRUST_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, "text")
	util.SetDefault(logger)

	bars := store.NewParquetStore(cfg.Storage.DataDir)

	var symbols []string
	for _, s := range strings.Split(*symbolsFlag, ",") {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			symbols = append(symbols, s)
		}
	}

	if *csvPath != "" {
		if len(symbols) != 1 {
			log.Fatal("-csv mode imports exactly one symbol")
		}
		f, err := os.Open(*csvPath)
		if err != nil {
			log.Fatalf("opening csv: %v", err)
		}
		series, err := store.ReadBarsCSV(f, symbols[0])
		f.Close()
		if err != nil {
			log.Fatalf("reading csv: %v", err)
		}
		if err := bars.WriteBarsForMarket(series, *market); err != nil {
			log.Fatalf("writing bars: %v", err)
		}
		logger.Info("imported bars from csv", "symbol", symbols[0], "bars", len(series))
		return
	}

	if *startFlag == "" {
		log.Fatal("-start is required in Alpaca mode")
	}
	start, err := time.Parse("2006-01-02", *startFlag)
	if err != nil {
		log.Fatalf("parsing -start: %v", err)
	}
	end := time.Now().UTC()
	if *endFlag != "" {
		end, err = time.Parse("2006-01-02", *endFlag)
		if err != nil {
			log.Fatalf("parsing -end: %v", err)
		}
	}

	source := marketdata.NewAlpacaSource(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.DataURL)
	ctx := context.Background()

	for _, symbol := range symbols {
		var series domain.Series
		err := util.Retry(ctx, 3, 2*time.Second, func() error {
			var err error
			series, err = source.GetBars(ctx, symbol, start, end)
			return err
		})
		if err != nil {
			logger.Error("fetching bars", "symbol", symbol, "error", err)
			continue
		}
		if err := bars.WriteBarsForMarket(series, *market); err != nil {
			logger.Error("writing bars", "symbol", symbol, "error", err)
			continue
		}
		logger.Info("imported bars", "symbol", symbol, "bars", len(series))
	}
}
