package shared

import (
	"fmt"
	"math"
	"strconv"

	"github.com/tidwall/gjson"
)

// candlestickFields lists the accepted record keys for each candlestick field,
// in tuple order. Stream records use the short exchange keys, rest payloads
// use the long ones.
var candlestickFields = [CandlestickArity][]string{
	{"open_time", "timestamp", "t"},
	{"open", "open_price", "o"},
	{"high", "high_price", "h"},
	{"low", "low_price", "l"},
	{"close", "close_price", "c"},
	{"volume", "v"},
}

// parseNumber coerces the provided json value to a finite float. Numeric
// strings are accepted, anything else is an error.
func parseNumber(value gjson.Result) (float64, error) {
	var n float64
	switch value.Type {
	case gjson.Number:
		n = value.Num
	case gjson.String:
		var err error
		n, err = strconv.ParseFloat(value.Str, 64)
		if err != nil {
			return 0, fmt.Errorf("parsing numeric string %q: %w", value.Str, err)
		}
	default:
		return 0, fmt.Errorf("unexpected %s value %q", value.Type.String(), value.Raw)
	}

	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, fmt.Errorf("non-finite value %q", value.Raw)
	}

	return n, nil
}

// lookupField fetches the first present key of the provided aliases.
func lookupField(record gjson.Result, aliases []string) (gjson.Result, bool) {
	for _, key := range aliases {
		value := record.Get(key)
		if value.Exists() {
			return value, true
		}
	}

	return gjson.Result{}, false
}

// ParseCandlestick parses a candlestick from the provided json value. The value
// can be a numeric tuple, a structured record or an exchange kline event which
// nests the record under "k".
func ParseCandlestick(data gjson.Result) (Candlestick, error) {
	var tuple [CandlestickArity]float64

	switch {
	case data.IsArray():
		values := data.Array()
		if len(values) < CandlestickArity {
			return Candlestick{}, fmt.Errorf("%w: expected at least %d fields, got %d",
				ErrMalformedKline, CandlestickArity, len(values))
		}
		for idx := range tuple {
			n, err := parseNumber(values[idx])
			if err != nil {
				return Candlestick{}, fmt.Errorf("%w: field %d: %v", ErrMalformedKline, idx, err)
			}
			tuple[idx] = n
		}

	case data.IsObject():
		record := data
		if event := data.Get("k"); event.IsObject() {
			record = event
		}
		for idx := range tuple {
			value, ok := lookupField(record, candlestickFields[idx])
			if !ok {
				return Candlestick{}, fmt.Errorf("%w: missing %s field",
					ErrMalformedKline, candlestickFields[idx][0])
			}
			n, err := parseNumber(value)
			if err != nil {
				return Candlestick{}, fmt.Errorf("%w: %s: %v",
					ErrMalformedKline, candlestickFields[idx][0], err)
			}
			tuple[idx] = n
		}

	default:
		return Candlestick{}, fmt.Errorf("%w: unexpected %s payload", ErrMalformedKline, data.Type.String())
	}

	return NewCandlestick(tuple[:])
}

// ParseCandlesticks parses candlesticks from the provided json data.
func ParseCandlesticks(data []gjson.Result) ([]Candlestick, error) {
	candles := make([]Candlestick, 0, len(data))
	for idx := range data {
		candle, err := ParseCandlestick(data[idx])
		if err != nil {
			return nil, fmt.Errorf("parsing candlestick at index %d: %w", idx, err)
		}

		candles = append(candles, candle)
	}

	return candles, nil
}

// klineIdentity returns the instrument an exchange kline event names. Fields
// the event does not carry are left empty.
func klineIdentity(data gjson.Result) Identity {
	if !data.IsObject() {
		return Identity{}
	}

	asset := data.Get("s").String()
	if asset == "" {
		asset = data.Get("k.s").String()
	}

	return Identity{
		Asset:     asset,
		Timeframe: Timeframe(data.Get("k.i").String()),
	}
}

// ParseKlineMessage parses a single streamed kline message, alongside the
// identity named by its exchange envelope if any.
func ParseKlineMessage(msg []byte) (Candlestick, Identity, error) {
	if !gjson.ValidBytes(msg) {
		return Candlestick{}, Identity{}, fmt.Errorf("%w: invalid json", ErrMalformedKline)
	}

	data := gjson.ParseBytes(msg)
	candle, err := ParseCandlestick(data)
	if err != nil {
		return Candlestick{}, Identity{}, err
	}

	return candle, klineIdentity(data), nil
}

// CandlestickPayload extracts the candle array from the provided payload. A bare
// array, a chart document ({"chart":{"data":[...]}}) and a kline response
// ({"klines":[...]}) are supported.
func CandlestickPayload(b []byte) ([]gjson.Result, error) {
	if !gjson.ValidBytes(b) {
		return nil, fmt.Errorf("%w: invalid json payload", ErrMalformedKline)
	}

	doc := gjson.ParseBytes(b)
	switch {
	case doc.IsArray():
		return doc.Array(), nil
	case doc.Get("chart.data").IsArray():
		return doc.Get("chart.data").Array(), nil
	case doc.Get("klines").IsArray():
		return doc.Get("klines").Array(), nil
	default:
		return nil, fmt.Errorf("%w: no candle array found in payload", ErrMalformedKline)
	}
}
