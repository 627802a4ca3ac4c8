package shared

import (
	"fmt"
	"math"
	"time"
)

const (
	// CandlestickArity is the minimum number of fields of a candlestick tuple.
	CandlestickArity = 6
)

// Candlestick represents a unit candlestick (kline) for a series bucket.
type Candlestick struct {
	// OpenTime is the bucket open time in unix milliseconds. It is the unique
	// ordering key of a series.
	OpenTime int64
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   float64
}

// NewCandlestick initializes a candlestick from a numeric tuple of the form
// (openTime, open, high, low, close, volume). Fields past the sixth are ignored.
func NewCandlestick(tuple []float64) (Candlestick, error) {
	if len(tuple) < CandlestickArity {
		return Candlestick{}, fmt.Errorf("%w: expected at least %d fields, got %d",
			ErrMalformedKline, CandlestickArity, len(tuple))
	}

	for idx := range CandlestickArity {
		if math.IsNaN(tuple[idx]) || math.IsInf(tuple[idx], 0) {
			return Candlestick{}, fmt.Errorf("%w: field %d is not finite", ErrMalformedKline, idx)
		}
	}

	// -2^63 converts exactly, 2^63 is already out of range.
	openTime := tuple[0]
	if openTime != math.Trunc(openTime) || openTime < math.MinInt64 || openTime >= -math.MinInt64 {
		return Candlestick{}, fmt.Errorf("%w: open time %v is not a unix millisecond timestamp",
			ErrMalformedKline, openTime)
	}

	return Candlestick{
		OpenTime: int64(openTime),
		Open:     tuple[1],
		High:     tuple[2],
		Low:      tuple[3],
		Close:    tuple[4],
		Volume:   tuple[5],
	}, nil
}

// Tuple returns the candlestick as a six field numeric tuple.
func (c *Candlestick) Tuple() [CandlestickArity]float64 {
	return [CandlestickArity]float64{float64(c.OpenTime), c.Open, c.High, c.Low, c.Close, c.Volume}
}

// Date returns the candlestick open time in UTC.
func (c *Candlestick) Date() time.Time {
	return time.UnixMilli(c.OpenTime).UTC()
}

// VerifyOrdering asserts the provided series has strictly increasing, unique open times.
func VerifyOrdering(series []Candlestick) error {
	for idx := 1; idx < len(series); idx++ {
		prev := series[idx-1].OpenTime
		cur := series[idx].OpenTime
		if cur <= prev {
			return fmt.Errorf("candle at index %d (open time %d) does not follow %d",
				idx, cur, prev)
		}
	}

	return nil
}
