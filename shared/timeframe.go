package shared

import (
	"fmt"
	"time"
)

const (
	// DateLayout is the format layout for logging candle dates.
	DateLayout = "2006-01-02 15:04:05"
)

// Timeframe represents the candle bucket period of a series.
type Timeframe string

const (
	OneMinute      Timeframe = "1m"
	FiveMinute     Timeframe = "5m"
	FifteenMinute  Timeframe = "15m"
	ThirtyMinute   Timeframe = "30m"
	OneHour        Timeframe = "1h"
	FourHour       Timeframe = "4h"
	OneDay         Timeframe = "1d"
	UnsetTimeframe Timeframe = ""
)

// timeframeDurations maps supported timeframes to their bucket durations.
var timeframeDurations = map[Timeframe]time.Duration{
	OneMinute:     time.Minute,
	FiveMinute:    time.Minute * 5,
	FifteenMinute: time.Minute * 15,
	ThirtyMinute:  time.Minute * 30,
	OneHour:       time.Hour,
	FourHour:      time.Hour * 4,
	OneDay:        time.Hour * 24,
}

// String stringifies the provided timeframe.
func (t Timeframe) String() string {
	if t == UnsetTimeframe {
		return "unset"
	}

	return string(t)
}

// Duration returns the bucket duration of the timeframe.
func (t Timeframe) Duration() (time.Duration, error) {
	d, ok := timeframeDurations[t]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownTimeframe, t.String())
	}

	return d, nil
}

// ParseTimeframe parses the provided timeframe string.
func ParseTimeframe(s string) (Timeframe, error) {
	tf := Timeframe(s)
	_, ok := timeframeDurations[tf]
	if !ok {
		return UnsetTimeframe, fmt.Errorf("%w: %q", ErrUnknownTimeframe, s)
	}

	return tf, nil
}
