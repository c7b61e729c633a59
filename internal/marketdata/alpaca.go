package marketdata

import (
	"context"
	"fmt"
	"time"

	alpacamd "github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"finthrust/internal/domain"
)

// Compile-time interface check.
var _ BarSource = (*AlpacaSource)(nil)

// AlpacaSource fetches daily OHLCV bars for US equities from the Alpaca
// market-data API.
type AlpacaSource struct {
	client *alpacamd.Client
	feed   string
}

// NewAlpacaSource creates an AlpacaSource with the given credentials.
// dataURL overrides the API endpoint when non-empty.
func NewAlpacaSource(apiKey, apiSecret, dataURL string) *AlpacaSource {
	opts := alpacamd.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if dataURL != "" {
		opts.BaseURL = dataURL
	}
	return &AlpacaSource{
		client: alpacamd.NewClient(opts),
		feed:   "iex",
	}
}

// GetBars fetches daily bars for the symbol within [start, end], sorted
// ascending. An empty response yields ErrNoData.
func (s *AlpacaSource) GetBars(ctx context.Context, symbol string, start, end time.Time) (domain.Series, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	alpacaBars, err := s.client.GetBars(symbol, alpacamd.GetBarsRequest{
		TimeFrame: alpacamd.OneDay,
		Start:     start,
		End:       end,
		Feed:      s.feed,
	})
	if err != nil {
		return nil, fmt.Errorf("GetBars %s: %w", symbol, err)
	}
	if len(alpacaBars) == 0 {
		return nil, fmt.Errorf("%s [%s, %s]: %w",
			symbol, start.Format("2006-01-02"), end.Format("2006-01-02"), ErrNoData)
	}

	series := make(domain.Series, 0, len(alpacaBars))
	for _, ab := range alpacaBars {
		series = append(series, domain.Bar{
			Symbol:    symbol,
			Timestamp: ab.Timestamp,
			Open:      ab.Open,
			High:      ab.High,
			Low:       ab.Low,
			Close:     ab.Close,
			Volume:    int64(ab.Volume),
		})
	}
	series.Sort()
	return series, nil
}
