package fetch

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"slices"

	"github.com/dnldd/chartdesk/shared"
	"github.com/tidwall/gjson"
)

// timeframes lists the timeframes looked up in historic data documents.
var timeframes = []shared.Timeframe{
	shared.OneMinute, shared.FiveMinute, shared.FifteenMinute, shared.ThirtyMinute,
	shared.OneHour, shared.FourHour, shared.OneDay,
}

// historicSeries represents the raw candles of a timeframe alongside their
// open times, sorted ascending.
type historicSeries struct {
	data      []gjson.Result
	openTimes []int64
}

// HistoricData represents a kline source backed by a historic data document of
// the form {"market": "BTCUSDT", "1m": [...], "1h": [...]}.
type HistoricData struct {
	market string
	series map[shared.Timeframe]*historicSeries
}

// Ensure HistoricData implements the KlineFetcher interface.
var _ shared.KlineFetcher = (*HistoricData)(nil)

// ParseHistoricData parses the provided historic data document.
func ParseHistoricData(b []byte) (*HistoricData, error) {
	if !gjson.ValidBytes(b) {
		return nil, fmt.Errorf("%w: invalid historic data document", shared.ErrMalformedKline)
	}

	doc := gjson.ParseBytes(b)
	market := doc.Get("market").String()
	if market == "" {
		return nil, fmt.Errorf("historic data market cannot be an empty string")
	}

	historicData := &HistoricData{
		market: market,
		series: make(map[shared.Timeframe]*historicSeries),
	}

	for _, timeframe := range timeframes {
		data := doc.Get(string(timeframe)).Array()
		if len(data) == 0 {
			continue
		}

		candles, err := shared.ParseCandlesticks(data)
		if err != nil {
			return nil, fmt.Errorf("parsing %s candlesticks: %w", timeframe.String(), err)
		}

		idx := make([]int, len(candles))
		for i := range idx {
			idx[i] = i
		}
		slices.SortStableFunc(idx, func(a, b int) int {
			return cmp.Compare(candles[a].OpenTime, candles[b].OpenTime)
		})

		series := &historicSeries{
			data:      make([]gjson.Result, len(idx)),
			openTimes: make([]int64, len(idx)),
		}
		for i, j := range idx {
			series.data[i] = data[j]
			series.openTimes[i] = candles[j].OpenTime
		}

		historicData.series[timeframe] = series
	}

	if len(historicData.series) == 0 {
		return nil, fmt.Errorf("no candles found in historic data for %s", market)
	}

	return historicData, nil
}

// NewHistoricData loads the historic data document at the provided file path.
func NewHistoricData(filepath string) (*HistoricData, error) {
	readb, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("reading historic data from file with path '%s': %w", filepath, err)
	}

	historicData, err := ParseHistoricData(readb)
	if err != nil {
		return nil, fmt.Errorf("loading historic data: %w", err)
	}

	return historicData, nil
}

// FetchMarket returns the market of the historic data.
func (h *HistoricData) FetchMarket() string {
	return h.market
}

// FetchKlines fetches at most limit candles of the provided identity opening
// before end (unix ms). A zero end fetches the most recent candles.
func (h *HistoricData) FetchKlines(ctx context.Context, identity shared.Identity, end int64, limit uint32) ([]gjson.Result, error) {
	err := ctx.Err()
	if err != nil {
		return nil, err
	}

	if identity.Asset != h.market {
		return nil, fmt.Errorf("no historic data for market %s", identity.Asset)
	}

	series, ok := h.series[identity.Timeframe]
	if !ok {
		return nil, fmt.Errorf("no %s historic data for market %s", identity.Timeframe.String(), h.market)
	}

	upper := len(series.openTimes)
	if end > 0 {
		upper, _ = slices.BinarySearch(series.openTimes, end)
	}

	lower := 0
	if limit > 0 && upper > int(limit) {
		lower = upper - int(limit)
	}

	return series.data[lower:upper], nil
}
