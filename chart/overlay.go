package chart

import (
	"github.com/dnldd/chartdesk/shared"
	"github.com/google/uuid"
)

// AppendOverlays returns the provided overlay set with the new records
// concatenated. Records are never reordered, deduplicated or removed, and an
// empty input returns the set unchanged.
func AppendOverlays(set []shared.Overlay, records []shared.Overlay) []shared.Overlay {
	if len(records) == 0 {
		return set
	}

	appended := make([]shared.Overlay, 0, len(set)+len(records))
	appended = append(appended, set...)
	for idx := range records {
		record := records[idx].Clone()
		if record.ID == "" {
			record.ID = uuid.New().String()
		}
		appended = append(appended, record)
	}

	return appended
}
