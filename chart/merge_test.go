package chart

import (
	"testing"

	"github.com/dnldd/chartdesk/shared"
	"github.com/google/go-cmp/cmp"
	"github.com/peterldowns/testy/assert"
)

// candle is a test helper for building candlesticks from tuples.
func candle(t *testing.T, tuple ...float64) shared.Candlestick {
	t.Helper()

	c, err := shared.NewCandlestick(tuple)
	assert.NoError(t, err)
	return c
}

// openTimes returns the open times of the provided series.
func openTimes(series []shared.Candlestick) []int64 {
	times := make([]int64, len(series))
	for idx := range series {
		times[idx] = series[idx].OpenTime
	}
	return times
}

func TestPrependHistorical(t *testing.T) {
	existing := []shared.Candlestick{
		candle(t, 300, 1, 2, 0, 1, 10),
		candle(t, 400, 1, 2, 0, 1, 10),
		candle(t, 500, 1, 2, 0, 1, 10),
	}

	// Ensure merging an empty history returns the existing series unchanged.
	merged := PrependHistorical(existing, nil)
	assert.Equal(t, merged, existing)
	merged = PrependHistorical(existing, []shared.Candlestick{})
	assert.Equal(t, merged, existing)

	// Ensure older candles are placed before the existing ones.
	older := []shared.Candlestick{
		candle(t, 100, 1, 2, 0, 1, 10),
		candle(t, 200, 1, 2, 0, 1, 10),
	}
	merged = PrependHistorical(existing, older)
	assert.Equal(t, openTimes(merged), []int64{100, 200, 300, 400, 500})
	assert.NoError(t, shared.VerifyOrdering(merged))

	// Ensure the inputs are not mutated by the merge.
	assert.Equal(t, openTimes(existing), []int64{300, 400, 500})
	assert.Equal(t, openTimes(older), []int64{100, 200})

	// Ensure the historical candle wins on an open time collision.
	current := []shared.Candlestick{candle(t, 100, 1, 1, 1, 1, 1)}
	historical := []shared.Candlestick{candle(t, 100, 2, 2, 2, 2, 2)}
	merged = PrependHistorical(current, historical)
	assert.Equal(t, merged, historical)

	// Ensure unordered, overlapping history merges into a strictly ascending series
	// holding every distinct open time.
	overlapping := []shared.Candlestick{
		candle(t, 450, 9, 9, 9, 9, 9),
		candle(t, 50, 9, 9, 9, 9, 9),
		candle(t, 400, 7, 7, 7, 7, 7),
		candle(t, 50, 8, 8, 8, 8, 8),
	}
	merged = PrependHistorical(existing, overlapping)
	assert.Equal(t, openTimes(merged), []int64{50, 300, 400, 450, 500})
	assert.Equal(t, merged[0].Open, float64(9))
	assert.Equal(t, merged[2].Open, float64(7))
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		candles []shared.Candlestick
		want    []int64
	}{
		{
			name:    "empty upload",
			candles: nil,
			want:    []int64{},
		},
		{
			name: "ordered upload",
			candles: []shared.Candlestick{
				candle(t, 1, 1, 2, 0, 1, 10),
				candle(t, 2, 1, 2, 0, 1, 10),
			},
			want: []int64{1, 2},
		},
		{
			name: "unordered upload with duplicates",
			candles: []shared.Candlestick{
				candle(t, 3, 1, 2, 0, 1, 10),
				candle(t, 1, 1, 2, 0, 1, 10),
				candle(t, 3, 5, 6, 4, 5, 10),
				candle(t, 2, 1, 2, 0, 1, 10),
			},
			want: []int64{1, 2, 3},
		},
	}

	for _, test := range tests {
		normalized := Normalize(test.candles)
		if diff := cmp.Diff(test.want, openTimes(normalized)); diff != "" {
			t.Errorf("%s: unexpected open times (-want +got):\n%s", test.name, diff)
		}
	}

	// Ensure the first occurrence of a duplicated open time is kept.
	normalized := Normalize([]shared.Candlestick{
		candle(t, 3, 1, 2, 0, 1, 10),
		candle(t, 3, 5, 6, 4, 5, 10),
	})
	assert.Equal(t, len(normalized), 1)
	assert.Equal(t, normalized[0].Open, float64(1))
}
