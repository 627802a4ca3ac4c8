package chart

import (
	"slices"

	"github.com/dnldd/chartdesk/shared"
)

// TickStatus represents the outcome of applying a tick to a series.
type TickStatus int

const (
	// TickAppended indicates the tick opened a new bucket.
	TickAppended TickStatus = iota
	// TickUpdated indicates the tick updated the open bucket.
	TickUpdated
	// TickRejected indicates the tick was older than the open bucket and was dropped.
	TickRejected
)

// String stringifies the provided tick status.
func (s TickStatus) String() string {
	switch s {
	case TickAppended:
		return "appended"
	case TickUpdated:
		return "updated"
	case TickRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Applied checks whether the tick status mutated the series.
func (s TickStatus) Applied() bool {
	return s == TickAppended || s == TickUpdated
}

// ApplyTick folds the provided tick into the open bucket of the series. A tick
// carries the running aggregate of its bucket: high and low are widened, close
// and volume are replaced and the bucket open is kept. Ticks older than the open
// bucket are rejected and the series is returned unchanged.
//
// The provided series is never mutated.
func ApplyTick(series []shared.Candlestick, tick shared.Candlestick) ([]shared.Candlestick, TickStatus) {
	if len(series) == 0 {
		return []shared.Candlestick{tick}, TickAppended
	}

	last := series[len(series)-1]
	switch {
	case tick.OpenTime == last.OpenTime:
		last.High = max(last.High, tick.High)
		last.Low = min(last.Low, tick.Low)
		last.Close = tick.Close
		last.Volume = tick.Volume

		updated := slices.Clone(series)
		updated[len(updated)-1] = last
		return updated, TickUpdated

	case tick.OpenTime > last.OpenTime:
		return appendCandle(series, tick), TickAppended

	default:
		return series, TickRejected
	}
}

// ApplyWholeCandle applies a complete candle to the series. A candle for the
// open bucket replaces it outright and a newer one is appended. An older candle
// is placed by scanning back from the tail: it overwrites the candle with the
// same open time or is inserted after the first older one, falling back to the
// front of the series.
//
// The provided series is never mutated.
func ApplyWholeCandle(series []shared.Candlestick, candle shared.Candlestick) []shared.Candlestick {
	if len(series) == 0 {
		return []shared.Candlestick{candle}
	}

	lastIdx := len(series) - 1
	last := series[lastIdx]
	switch {
	case candle.OpenTime == last.OpenTime:
		updated := slices.Clone(series)
		updated[lastIdx] = candle
		return updated

	case candle.OpenTime > last.OpenTime:
		return appendCandle(series, candle)
	}

	for idx := lastIdx; idx >= 0; idx-- {
		switch {
		case candle.OpenTime > series[idx].OpenTime:
			return slices.Insert(slices.Clone(series), idx+1, candle)

		case candle.OpenTime == series[idx].OpenTime:
			updated := slices.Clone(series)
			updated[idx] = candle
			return updated
		}
	}

	return slices.Insert(slices.Clone(series), 0, candle)
}

// appendCandle returns a new series with the candle appended. The backing array
// of the provided series is never shared with the result.
func appendCandle(series []shared.Candlestick, candle shared.Candlestick) []shared.Candlestick {
	updated := make([]shared.Candlestick, len(series), len(series)+1)
	copy(updated, series)
	return append(updated, candle)
}
