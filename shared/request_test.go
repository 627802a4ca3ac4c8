package shared

import (
	"testing"

	"github.com/peterldowns/testy/assert"
)

func TestNewBackfillRequest(t *testing.T) {
	ticket := FetchTicket{ID: "ticket", Identity: Identity{Asset: "BTCUSDT", Timeframe: OneMinute}}

	// Ensure an unset limit defaults.
	req := NewBackfillRequest(ticket, 1717200000000, 0, true)
	assert.Equal(t, req.Limit, uint32(DefaultBackfillLimit))
	assert.Equal(t, req.End, int64(1717200000000))
	assert.True(t, req.Initial)
	assert.Equal(t, req.Ticket, ticket)

	// Ensure a provided limit is kept.
	req = NewBackfillRequest(ticket, 0, 250, false)
	assert.Equal(t, req.Limit, uint32(250))
	assert.False(t, req.Initial)
}
