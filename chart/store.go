package chart

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/davecgh/go-spew/spew"
	"github.com/dnldd/chartdesk/shared"
	"github.com/rs/zerolog"
)

// StoreConfig represents the candle series store configuration.
type StoreConfig struct {
	// DefaultCustom is the sample series the custom context starts with and is
	// reset to.
	DefaultCustom []shared.Candlestick
	// DefaultOverlays are the overlays the custom context starts with and is
	// reset to.
	DefaultOverlays shared.OverlaySet
	// Mode is the initially active mode.
	Mode shared.Mode
	// Identity is the initially tracked live identity.
	Identity shared.Identity
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Validate asserts the config sane inputs.
func (cfg *StoreConfig) Validate() error {
	var errs error

	if cfg.Mode != shared.Custom && cfg.Mode != shared.Live {
		errs = errors.Join(errs, fmt.Errorf("%w: %d", shared.ErrUnknownMode, cfg.Mode))
	}
	if err := shared.VerifyOrdering(cfg.DefaultCustom); err != nil {
		errs = errors.Join(errs, fmt.Errorf("default custom series is not ordered: %w", err))
	}
	if cfg.Logger == nil {
		errs = errors.Join(errs, fmt.Errorf("logger cannot be nil"))
	}

	return errs
}

// Store owns the custom and live series contexts and exposes the active one.
type Store struct {
	cfg        *StoreConfig
	modes      *ModeContext
	custom     *seriesContext
	live       *seriesContext
	contextMtx sync.Mutex
}

// NewStore initializes a new candle series store.
func NewStore(cfg *StoreConfig) (*Store, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	return &Store{
		cfg:    cfg,
		modes:  NewModeContext(cfg.Mode, cfg.Identity),
		custom: newSeriesContext(slices.Clone(cfg.DefaultCustom), cfg.DefaultOverlays.Clone()),
		live:   newSeriesContext(nil, shared.OverlaySet{}),
	}, nil
}

// Modes returns the mode context of the store.
func (s *Store) Modes() *ModeContext {
	return s.modes
}

// context returns the series context of the provided mode. A missing context is
// initialized empty.
func (s *Store) context(mode shared.Mode) (*seriesContext, error) {
	s.contextMtx.Lock()
	defer s.contextMtx.Unlock()

	var slot **seriesContext
	switch mode {
	case shared.Custom:
		slot = &s.custom
	case shared.Live:
		slot = &s.live
	default:
		return nil, fmt.Errorf("%w: %d", shared.ErrUnknownMode, mode)
	}

	if *slot == nil {
		s.cfg.Logger.Warn().Msgf("%s context missing, initializing it empty", mode.String())
		*slot = newSeriesContext(nil, shared.OverlaySet{})
	}

	return *slot, nil
}

// Replace replaces the series of the provided context wholesale and clears its
// overlays. The candles are expected to be sorted with unique open times.
func (s *Store) Replace(mode shared.Mode, candles []shared.Candlestick) error {
	sc, err := s.context(mode)
	if err != nil {
		return err
	}

	replacement := slices.Clone(candles)
	rev := sc.mutate(func(_ []shared.Candlestick, _ shared.OverlaySet) ([]shared.Candlestick, shared.OverlaySet, bool) {
		return replacement, shared.OverlaySet{}, true
	})

	s.cfg.Logger.Debug().Msgf("replaced %s series with %d candles (rev %d)",
		mode.String(), len(replacement), rev)

	return nil
}

// Reload replaces the series of the provided context wholesale while keeping
// its overlays.
func (s *Store) Reload(mode shared.Mode, candles []shared.Candlestick) error {
	sc, err := s.context(mode)
	if err != nil {
		return err
	}

	replacement := slices.Clone(candles)
	rev := sc.mutate(func(_ []shared.Candlestick, overlays shared.OverlaySet) ([]shared.Candlestick, shared.OverlaySet, bool) {
		return replacement, overlays, true
	})

	s.cfg.Logger.Debug().Msgf("reloaded %s series with %d candles (rev %d)",
		mode.String(), len(replacement), rev)

	return nil
}

// AppendOverlays adds the provided overlays to the on-series set of the
// provided context. An empty set of overlays is a no-op.
func (s *Store) AppendOverlays(mode shared.Mode, overlays []shared.Overlay) error {
	if len(overlays) == 0 {
		return nil
	}

	sc, err := s.context(mode)
	if err != nil {
		return err
	}

	sc.mutate(func(series []shared.Candlestick, set shared.OverlaySet) ([]shared.Candlestick, shared.OverlaySet, bool) {
		set.OnSeries = AppendOverlays(set.OnSeries, overlays)
		return series, set, true
	})

	return nil
}

// AppendActiveOverlays adds the provided overlays to the active context.
func (s *Store) AppendActiveOverlays(overlays []shared.Overlay) error {
	return s.AppendOverlays(s.modes.Mode(), overlays)
}

// Clear resets the series and overlays of the provided context.
func (s *Store) Clear(mode shared.Mode) error {
	sc, err := s.context(mode)
	if err != nil {
		return err
	}

	sc.mutate(func(_ []shared.Candlestick, _ shared.OverlaySet) ([]shared.Candlestick, shared.OverlaySet, bool) {
		return []shared.Candlestick{}, shared.OverlaySet{}, true
	})

	return nil
}

// ResetForNewIdentity clears both contexts. Custom uploads are scoped to the
// viewed identity as well.
func (s *Store) ResetForNewIdentity() {
	for _, mode := range []shared.Mode{shared.Live, shared.Custom} {
		// Both modes are known, clearing cannot fail.
		_ = s.Clear(mode)
	}

	s.cfg.Logger.Info().Msgf("cleared chart data for new identity %s",
		s.modes.LiveIdentity().String())
}

// ResetCustomToDefault restores the custom context to the default sample
// series and its overlays.
func (s *Store) ResetCustomToDefault() {
	// The custom mode is known, resolving its context cannot fail.
	sc, _ := s.context(shared.Custom)

	series := slices.Clone(s.cfg.DefaultCustom)
	overlays := s.cfg.DefaultOverlays.Clone()
	rev := sc.mutate(func(_ []shared.Candlestick, _ shared.OverlaySet) ([]shared.Candlestick, shared.OverlaySet, bool) {
		return series, overlays, true
	})

	s.cfg.Logger.Debug().Msgf("reset custom series to the default %d candles (rev %d)",
		len(series), rev)
}

// PrependHistorical merges older candles into the series of the provided
// context, keeping its overlays. An empty set of candles is a no-op.
func (s *Store) PrependHistorical(mode shared.Mode, older []shared.Candlestick) error {
	if len(older) == 0 {
		return nil
	}

	sc, err := s.context(mode)
	if err != nil {
		return err
	}

	var before, after int
	sc.mutate(func(series []shared.Candlestick, overlays shared.OverlaySet) ([]shared.Candlestick, shared.OverlaySet, bool) {
		before = len(series)
		merged := PrependHistorical(series, older)
		after = len(merged)
		return merged, overlays, true
	})

	if dropped := before + len(older) - after; dropped > 0 {
		s.cfg.Logger.Debug().Msgf("%d colliding candles resolved in favour of history while "+
			"merging %s series", dropped, mode.String())
	}

	return nil
}

// ApplyTick folds the provided tick into the live series and reports whether it
// was applied.
func (s *Store) ApplyTick(tick shared.Candlestick) TickStatus {
	// The live mode is known, resolving its context cannot fail.
	sc, _ := s.context(shared.Live)

	var status TickStatus
	var last shared.Candlestick
	sc.mutate(func(series []shared.Candlestick, overlays shared.OverlaySet) ([]shared.Candlestick, shared.OverlaySet, bool) {
		if len(series) > 0 {
			last = series[len(series)-1]
		}

		var updated []shared.Candlestick
		updated, status = ApplyTick(series, tick)
		return updated, overlays, status.Applied()
	})

	if status == TickRejected {
		s.cfg.Logger.Warn().Msgf("rejected tick opening %s, older than the open bucket %s: %s",
			tick.Date().Format(shared.DateLayout), last.Date().Format(shared.DateLayout), spew.Sdump(tick))
	}

	return status
}

// ApplyWholeCandle applies a complete candle to the live series.
func (s *Store) ApplyWholeCandle(candle shared.Candlestick) {
	// The live mode is known, resolving its context cannot fail.
	sc, _ := s.context(shared.Live)

	var outOfOrder bool
	sc.mutate(func(series []shared.Candlestick, overlays shared.OverlaySet) ([]shared.Candlestick, shared.OverlaySet, bool) {
		outOfOrder = len(series) > 0 && candle.OpenTime < series[len(series)-1].OpenTime
		return ApplyWholeCandle(series, candle), overlays, true
	})

	if outOfOrder {
		s.cfg.Logger.Warn().Msgf("received candle opening %s older than the open bucket, inserted in order",
			candle.Date().Format(shared.DateLayout))
	}
}

// SetMode sets the active mode. Series data is never touched.
func (s *Store) SetMode(mode shared.Mode) (bool, error) {
	if mode != shared.Custom && mode != shared.Live {
		return false, fmt.Errorf("%w: %d", shared.ErrUnknownMode, mode)
	}

	return s.modes.SetMode(mode), nil
}

// Context returns a snapshot of the context of the provided mode.
func (s *Store) Context(mode shared.Mode) (Snapshot, error) {
	sc, err := s.context(mode)
	if err != nil {
		return Snapshot{}, err
	}

	var identity shared.Identity
	if mode == shared.Live {
		identity = s.modes.LiveIdentity()
	}

	return sc.snapshot(mode, identity), nil
}

// ActiveContext returns a snapshot of the context selected by the active mode.
func (s *Store) ActiveContext() Snapshot {
	// The active mode is always known, resolving its snapshot cannot fail.
	snapshot, _ := s.Context(s.modes.Mode())
	return snapshot
}

// Len returns the number of candles of the provided context.
func (s *Store) Len(mode shared.Mode) int {
	sc, err := s.context(mode)
	if err != nil {
		return 0
	}

	return sc.len()
}
