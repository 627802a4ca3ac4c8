package chart

import (
	"slices"
	"sync"

	"github.com/dnldd/chartdesk/shared"
	"go.uber.org/atomic"
)

// Snapshot represents a read-only copy of a series context handed to the
// rendering layer. Its slices never alias store owned memory.
type Snapshot struct {
	Mode     shared.Mode
	Identity shared.Identity
	Revision uint64
	Series   []shared.Candlestick
	Overlays shared.OverlaySet
}

// Last returns the most recent candle of the snapshot.
func (s *Snapshot) Last() (shared.Candlestick, bool) {
	if len(s.Series) == 0 {
		return shared.Candlestick{}, false
	}

	return s.Series[len(s.Series)-1], true
}

// seriesContext pairs a series with its overlay sets.
type seriesContext struct {
	series   []shared.Candlestick
	overlays shared.OverlaySet
	mtx      sync.RWMutex
	revision atomic.Uint64
}

// newSeriesContext initializes a series context with the provided series and overlays.
func newSeriesContext(series []shared.Candlestick, overlays shared.OverlaySet) *seriesContext {
	if series == nil {
		series = []shared.Candlestick{}
	}

	return &seriesContext{series: series, overlays: overlays}
}

// mutate applies the provided function to the context under its lock and bumps
// the revision when the function reports a change.
func (c *seriesContext) mutate(fn func(series []shared.Candlestick, overlays shared.OverlaySet) ([]shared.Candlestick, shared.OverlaySet, bool)) uint64 {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	series, overlays, changed := fn(c.series, c.overlays)
	if !changed {
		return c.revision.Load()
	}

	if series == nil {
		series = []shared.Candlestick{}
	}

	c.series = series
	c.overlays = overlays
	return c.revision.Inc()
}

// snapshot returns a copy of the context.
func (c *seriesContext) snapshot(mode shared.Mode, identity shared.Identity) Snapshot {
	c.mtx.RLock()
	defer c.mtx.RUnlock()

	return Snapshot{
		Mode:     mode,
		Identity: identity,
		Revision: c.revision.Load(),
		Series:   slices.Clone(c.series),
		Overlays: c.overlays.Clone(),
	}
}

// len returns the number of candles of the context series.
func (c *seriesContext) len() int {
	c.mtx.RLock()
	defer c.mtx.RUnlock()

	return len(c.series)
}
