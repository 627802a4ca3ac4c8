package chart

import (
	"errors"
	"time"

	"github.com/dnldd/chartdesk/shared"
	"github.com/google/uuid"
)

var (
	// ErrStaleTicket is returned when a fetch response was requested for a live
	// identity that has since changed.
	ErrStaleTicket = errors.New("stale fetch ticket")
)

// IssueTicket tags an outbound fetch with the current live identity.
func (s *Store) IssueTicket() shared.FetchTicket {
	return shared.FetchTicket{
		ID:       uuid.New().String(),
		Identity: s.modes.LiveIdentity(),
		IssuedAt: time.Now(),
	}
}

// ValidTicket checks whether the provided ticket was issued for the current live identity.
func (s *Store) ValidTicket(ticket shared.FetchTicket) bool {
	return ticket.Identity == s.modes.LiveIdentity()
}

// checkTicket asserts the ticket is still valid, logging stale responses.
func (s *Store) checkTicket(ticket shared.FetchTicket) error {
	if s.ValidTicket(ticket) {
		return nil
	}

	s.cfg.Logger.Warn().Msgf("discarding response of fetch %s for %s issued %s ago, live identity is now %s",
		ticket.ID, ticket.Identity.String(), time.Since(ticket.IssuedAt).Round(time.Millisecond),
		s.modes.LiveIdentity().String())

	return ErrStaleTicket
}

// PrependHistoricalFor merges the older candles of a ticketed fetch into the
// live series, discarding them if the live identity changed since dispatch.
func (s *Store) PrependHistoricalFor(ticket shared.FetchTicket, older []shared.Candlestick) error {
	err := s.checkTicket(ticket)
	if err != nil {
		return err
	}

	return s.PrependHistorical(shared.Live, older)
}

// ReloadFor replaces the live series with the candles of a ticketed fetch while
// keeping its overlays, discarding them if the live identity changed since dispatch.
func (s *Store) ReloadFor(ticket shared.FetchTicket, candles []shared.Candlestick) error {
	err := s.checkTicket(ticket)
	if err != nil {
		return err
	}

	return s.Reload(shared.Live, candles)
}
