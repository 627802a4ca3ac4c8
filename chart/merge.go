package chart

import (
	"cmp"
	"slices"

	"github.com/dnldd/chartdesk/shared"
)

// compareOpenTime orders candlesticks by their open time.
func compareOpenTime(a, b shared.Candlestick) int {
	return cmp.Compare(a.OpenTime, b.OpenTime)
}

// dedupe removes all but the first candle for each open time of the provided
// sorted set, in place.
func dedupe(candles []shared.Candlestick) []shared.Candlestick {
	return slices.CompactFunc(candles, func(a, b shared.Candlestick) bool {
		return a.OpenTime == b.OpenTime
	})
}

// PrependHistorical merges older candles into the existing series. The older
// candles are placed first before a stable sort, so on an open time collision
// the historical candle is kept and the existing one dropped.
//
// The existing series is returned as is when there is nothing to merge.
func PrependHistorical(existing []shared.Candlestick, older []shared.Candlestick) []shared.Candlestick {
	if len(older) == 0 {
		return existing
	}

	merged := make([]shared.Candlestick, 0, len(older)+len(existing))
	merged = append(merged, older...)
	merged = append(merged, existing...)

	slices.SortStableFunc(merged, compareOpenTime)

	return dedupe(merged)
}

// Normalize returns a sorted copy of the provided candles with duplicate open
// times removed, keeping the first occurrence of each.
func Normalize(candles []shared.Candlestick) []shared.Candlestick {
	if len(candles) == 0 {
		return []shared.Candlestick{}
	}

	normalized := slices.Clone(candles)
	slices.SortStableFunc(normalized, compareOpenTime)

	return dedupe(normalized)
}
