package fetch

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/dnldd/chartdesk/chart"
	"github.com/dnldd/chartdesk/shared"
	"github.com/tidwall/gjson"
)

//go:embed sampledata.json
var sampleData []byte

// ParseCandleFile parses the candles of an uploaded candle document. The candles
// are returned sorted with unique open times.
func ParseCandleFile(b []byte) ([]shared.Candlestick, error) {
	data, err := shared.CandlestickPayload(b)
	if err != nil {
		return nil, err
	}

	candles, err := shared.ParseCandlesticks(data)
	if err != nil {
		return nil, fmt.Errorf("parsing candlesticks: %w", err)
	}

	return chart.Normalize(candles), nil
}

// LoadCandleFile loads the candles of the candle document at the provided file path.
func LoadCandleFile(filepath string) ([]shared.Candlestick, error) {
	readb, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("reading candle file with path '%s': %w", filepath, err)
	}

	candles, err := ParseCandleFile(readb)
	if err != nil {
		return nil, fmt.Errorf("parsing candle file with path '%s': %w", filepath, err)
	}

	return candles, nil
}

// SampleCandles returns the default sample series the custom chart starts with.
func SampleCandles() ([]shared.Candlestick, error) {
	candles, err := ParseCandleFile(sampleData)
	if err != nil {
		return nil, fmt.Errorf("parsing sample data: %w", err)
	}

	return candles, nil
}

// parseOverlays parses the overlay records of the provided json array. Records
// without an "id" are assigned one.
func parseOverlays(data gjson.Result) ([]shared.Overlay, error) {
	var records []shared.Overlay
	for idx, entry := range data.Array() {
		payload, ok := entry.Value().(map[string]any)
		if !ok {
			return nil, fmt.Errorf("overlay at index %d is not an object: %s", idx, entry.Raw)
		}

		records = append(records, shared.Overlay{
			ID:      entry.Get("id").String(),
			Payload: payload,
		})
	}

	return chart.AppendOverlays(nil, records), nil
}

// ParseChartOverlays parses the onchart and offchart overlays of a chart document.
func ParseChartOverlays(b []byte) (shared.OverlaySet, error) {
	if !gjson.ValidBytes(b) {
		return shared.OverlaySet{}, fmt.Errorf("%w: invalid chart document", shared.ErrMalformedKline)
	}

	doc := gjson.ParseBytes(b)

	onSeries, err := parseOverlays(doc.Get("onchart"))
	if err != nil {
		return shared.OverlaySet{}, fmt.Errorf("parsing onchart overlays: %w", err)
	}

	offSeries, err := parseOverlays(doc.Get("offchart"))
	if err != nil {
		return shared.OverlaySet{}, fmt.Errorf("parsing offchart overlays: %w", err)
	}

	return shared.OverlaySet{OnSeries: onSeries, OffSeries: offSeries}, nil
}

// SampleOverlays returns the overlays of the default sample series.
func SampleOverlays() (shared.OverlaySet, error) {
	overlays, err := ParseChartOverlays(sampleData)
	if err != nil {
		return shared.OverlaySet{}, fmt.Errorf("parsing sample overlays: %w", err)
	}

	return overlays, nil
}
