package store

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"finthrust/internal/domain"
)

// csvDateLayouts are tried in order when parsing the Date column.
var csvDateLayouts = []string{"2006-01-02", "2006-01-02 15:04:05", time.RFC3339}

// ReadBarsCSV parses a CSV of daily bars into a sorted Series. The header
// must contain Date, Open, High, Low and Close columns (case-insensitive);
// Volume is optional and defaults to 0. Rows are returned ascending by
// date regardless of file order.
func ReadBarsCSV(r io.Reader, symbol string) (domain.Series, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading csv header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"date", "open", "high", "low", "close"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("csv is missing required column %q", required)
		}
	}
	volCol, hasVolume := cols["volume"]

	var series domain.Series
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv line %d: %w", line, err)
		}

		ts, err := parseCSVDate(record[cols["date"]])
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}

		bar := domain.Bar{Symbol: symbol, Timestamp: ts}
		for _, f := range []struct {
			name string
			dst  *float64
		}{
			{"open", &bar.Open},
			{"high", &bar.High},
			{"low", &bar.Low},
			{"close", &bar.Close},
		} {
			v, err := strconv.ParseFloat(strings.TrimSpace(record[cols[f.name]]), 64)
			if err != nil {
				return nil, fmt.Errorf("csv line %d: parsing %s: %w", line, f.name, err)
			}
			*f.dst = v
		}

		if hasVolume {
			if raw := strings.TrimSpace(record[volCol]); raw != "" {
				// Some feeds export volume as a float.
				v, err := strconv.ParseFloat(raw, 64)
				if err != nil {
					return nil, fmt.Errorf("csv line %d: parsing volume: %w", line, err)
				}
				bar.Volume = int64(v)
			}
		}

		series = append(series, bar)
	}

	series.Sort()
	return series, nil
}

func parseCSVDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range csvDateLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", raw)
}
