package chart

import (
	"sync"

	"github.com/dnldd/chartdesk/shared"
)

// ModeContext tracks the active chart mode and the identities of the live and
// displayed series. It never mutates series data.
type ModeContext struct {
	mode     shared.Mode
	live     shared.Identity
	display  shared.Identity
	stateMtx sync.RWMutex
}

// NewModeContext initializes a new mode context.
func NewModeContext(mode shared.Mode, live shared.Identity) *ModeContext {
	return &ModeContext{
		mode:    mode,
		live:    live,
		display: live,
	}
}

// SetMode sets the active mode, returning whether it changed.
func (m *ModeContext) SetMode(mode shared.Mode) bool {
	m.stateMtx.Lock()
	defer m.stateMtx.Unlock()

	if m.mode == mode {
		return false
	}

	m.mode = mode
	return true
}

// Mode returns the active mode.
func (m *ModeContext) Mode() shared.Mode {
	m.stateMtx.RLock()
	defer m.stateMtx.RUnlock()

	return m.mode
}

// SetLiveIdentity updates the tracked live identity. Either field can be
// updated alone, empty fields are left unchanged. It returns whether the
// identity changed.
func (m *ModeContext) SetLiveIdentity(asset string, timeframe shared.Timeframe) bool {
	m.stateMtx.Lock()
	defer m.stateMtx.Unlock()

	prev := m.live
	m.live = m.live.Merge(asset, timeframe)

	return prev != m.live
}

// LiveIdentity returns the tracked live identity.
func (m *ModeContext) LiveIdentity() shared.Identity {
	m.stateMtx.RLock()
	defer m.stateMtx.RUnlock()

	return m.live
}

// SetDisplayIdentity updates the displayed selection. While in live mode the
// selection is mirrored into the live identity. It returns whether the live
// identity changed.
func (m *ModeContext) SetDisplayIdentity(asset string, timeframe shared.Timeframe) bool {
	m.stateMtx.Lock()
	defer m.stateMtx.Unlock()

	m.display = m.display.Merge(asset, timeframe)
	if m.mode != shared.Live {
		return false
	}

	prev := m.live
	m.live = m.live.Merge(m.display.Asset, m.display.Timeframe)

	return prev != m.live
}

// DisplayIdentity returns the displayed selection.
func (m *ModeContext) DisplayIdentity() shared.Identity {
	m.stateMtx.RLock()
	defer m.stateMtx.RUnlock()

	return m.display
}
