package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedKline is returned when a kline payload cannot be parsed.
	ErrMalformedKline = errors.New("malformed kline")
	// ErrUnknownMode is returned for unsupported chart modes.
	ErrUnknownMode = errors.New("unknown chart mode")
	// ErrUnknownTimeframe is returned for unsupported timeframes.
	ErrUnknownTimeframe = errors.New("unknown timeframe")
)

// Mode selects the series context that is authoritative for display.
type Mode int

const (
	Custom Mode = iota
	Live
)

// String stringifies the provided mode.
func (m Mode) String() string {
	switch m {
	case Custom:
		return "custom"
	case Live:
		return "live"
	default:
		return "unknown"
	}
}

// ParseMode parses the provided mode string.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "custom":
		return Custom, nil
	case "live":
		return Live, nil
	default:
		return Custom, fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// Identity represents the (asset, timeframe) pair a live series tracks.
type Identity struct {
	Asset     string
	Timeframe Timeframe
}

// String stringifies the provided identity.
func (i Identity) String() string {
	return fmt.Sprintf("%s/%s", i.Asset, i.Timeframe.String())
}

// Merge returns a copy of the identity with the non-empty fields of the
// provided partial identity applied.
func (i Identity) Merge(asset string, timeframe Timeframe) Identity {
	if asset != "" {
		i.Asset = asset
	}
	if timeframe != UnsetTimeframe {
		i.Timeframe = timeframe
	}

	return i
}

// Matches checks whether the non-empty fields of the provided partial identity
// agree with the identity.
func (i Identity) Matches(partial Identity) bool {
	if partial.Asset != "" && partial.Asset != i.Asset {
		return false
	}
	if partial.Timeframe != UnsetTimeframe && partial.Timeframe != i.Timeframe {
		return false
	}

	return true
}
