package shared

import (
	"time"
)

const (
	// DefaultBackfillLimit is the default number of candles requested per backfill.
	DefaultBackfillLimit = 1000
	// TimeoutDuration is the maximum time to wait before timing out.
	TimeoutDuration = time.Second * 4
)

// FetchTicket tags an outbound fetch with the live identity at dispatch time.
// Responses carrying a ticket whose identity no longer matches are discarded.
type FetchTicket struct {
	ID       string
	Identity Identity
	IssuedAt time.Time
}

// BackfillRequest represents a request to fetch candles for the live series.
type BackfillRequest struct {
	Ticket FetchTicket
	// End is the exclusive upper bound (unix ms) of the requested candles, zero
	// for the most recent candles.
	End     int64
	Limit   uint32
	Initial bool
}

// NewBackfillRequest initializes a new backfill request.
func NewBackfillRequest(ticket FetchTicket, end int64, limit uint32, initial bool) BackfillRequest {
	if limit == 0 {
		limit = DefaultBackfillLimit
	}

	return BackfillRequest{
		Ticket:  ticket,
		End:     end,
		Limit:   limit,
		Initial: initial,
	}
}
