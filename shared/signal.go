package shared

// StatusCode represents a request or signal status code.
type StatusCode int

const (
	Processed StatusCode = iota
)

// TickSignal represents a streamed tick message for the open bucket of the live series.
type TickSignal struct {
	Message []byte
	Status  chan StatusCode
}

// NewTickSignal initializes a new tick signal.
func NewTickSignal(msg []byte) TickSignal {
	return TickSignal{
		Message: msg,
		Status:  make(chan StatusCode, 1),
	}
}

// KlineSignal represents a complete kline message for the live series.
type KlineSignal struct {
	Message []byte
	Status  chan StatusCode
}

// NewKlineSignal initializes a new kline signal.
func NewKlineSignal(msg []byte) KlineSignal {
	return KlineSignal{
		Message: msg,
		Status:  make(chan StatusCode, 1),
	}
}

// UploadSignal represents a wholesale replacement of the custom series, e.g.
// from an uploaded file.
type UploadSignal struct {
	Candles []Candlestick
	Status  chan StatusCode
}

// NewUploadSignal initializes a new upload signal.
func NewUploadSignal(candles []Candlestick) UploadSignal {
	return UploadSignal{
		Candles: candles,
		Status:  make(chan StatusCode, 1),
	}
}

// ResetSignal represents a restore of the custom series to the default sample.
type ResetSignal struct {
	Status chan StatusCode
}

// NewResetSignal initializes a new reset signal.
func NewResetSignal() ResetSignal {
	return ResetSignal{
		Status: make(chan StatusCode, 1),
	}
}

// OverlaySignal represents overlays to attach to the active series.
type OverlaySignal struct {
	Overlays []Overlay
	Status   chan StatusCode
}

// NewOverlaySignal initializes a new overlay signal.
func NewOverlaySignal(overlays []Overlay) OverlaySignal {
	return OverlaySignal{
		Overlays: overlays,
		Status:   make(chan StatusCode, 1),
	}
}

// ModeSignal represents a chart mode switch.
type ModeSignal struct {
	Mode   Mode
	Status chan StatusCode
}

// NewModeSignal initializes a new mode signal.
func NewModeSignal(mode Mode) ModeSignal {
	return ModeSignal{
		Mode:   mode,
		Status: make(chan StatusCode, 1),
	}
}

// IdentitySignal represents a change of the tracked (asset, timeframe) selection.
// Empty fields are left unchanged.
type IdentitySignal struct {
	Asset     string
	Timeframe Timeframe
	Status    chan StatusCode
}

// NewIdentitySignal initializes a new identity signal.
func NewIdentitySignal(asset string, timeframe Timeframe) IdentitySignal {
	return IdentitySignal{
		Asset:     asset,
		Timeframe: timeframe,
		Status:    make(chan StatusCode, 1),
	}
}

// BackfillSignal represents a fetched candle payload for the live series.
type BackfillSignal struct {
	Ticket  FetchTicket
	Candles []Candlestick
	// Initial marks the payload as the first load of the live series rather
	// than older history to prepend.
	Initial bool
	Status  chan StatusCode
}

// NewBackfillSignal initializes a new backfill signal.
func NewBackfillSignal(ticket FetchTicket, candles []Candlestick, initial bool) BackfillSignal {
	return BackfillSignal{
		Ticket:  ticket,
		Candles: candles,
		Initial: initial,
		Status:  make(chan StatusCode, 1),
	}
}
