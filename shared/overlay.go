package shared

import "maps"

// Overlay represents an opaque rendering annotation (signal marker, indicator)
// attached to a series.
type Overlay struct {
	ID      string
	Payload map[string]any
}

// Clone returns a copy of the overlay that does not share its payload map.
func (o Overlay) Clone() Overlay {
	return Overlay{
		ID:      o.ID,
		Payload: maps.Clone(o.Payload),
	}
}

// OverlaySet represents the on-series and off-series overlays of a series context.
type OverlaySet struct {
	OnSeries  []Overlay
	OffSeries []Overlay
}

// Len returns the total number of overlays in the set.
func (s OverlaySet) Len() int {
	return len(s.OnSeries) + len(s.OffSeries)
}

// Clone returns a deep copy of the overlay set.
func (s OverlaySet) Clone() OverlaySet {
	clone := func(set []Overlay) []Overlay {
		if set == nil {
			return nil
		}
		out := make([]Overlay, len(set))
		for idx := range set {
			out[idx] = set[idx].Clone()
		}
		return out
	}

	return OverlaySet{
		OnSeries:  clone(s.OnSeries),
		OffSeries: clone(s.OffSeries),
	}
}
