package chart

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/dnldd/chartdesk/shared"
	"github.com/google/go-cmp/cmp"
	"github.com/peterldowns/testy/assert"
	"github.com/rs/zerolog"
)

// setupStore initializes a store with a two candle default custom series.
func setupStore(t *testing.T) *Store {
	t.Helper()

	logger := zerolog.Nop()
	store, err := NewStore(&StoreConfig{
		DefaultCustom: []shared.Candlestick{
			candle(t, 10, 1, 2, 0, 1, 10),
			candle(t, 20, 1, 2, 0, 1, 10),
		},
		Mode:     shared.Custom,
		Identity: shared.Identity{Asset: "BTCUSDT", Timeframe: shared.OneMinute},
		Logger:   &logger,
	})
	assert.NoError(t, err)

	return store
}

func TestStoreConfigValidate(t *testing.T) {
	logger := zerolog.Nop()

	tests := []struct {
		name        string
		cfg         StoreConfig
		errContains []string
	}{
		{
			name: "valid config",
			cfg:  StoreConfig{Mode: shared.Live, Logger: &logger},
		},
		{
			name:        "unknown mode",
			cfg:         StoreConfig{Mode: shared.Mode(7), Logger: &logger},
			errContains: []string{"unknown chart mode"},
		},
		{
			name: "unordered default series and no logger",
			cfg: StoreConfig{
				DefaultCustom: []shared.Candlestick{{OpenTime: 2}, {OpenTime: 1}},
			},
			errContains: []string{"default custom series is not ordered", "logger cannot be nil"},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.cfg.Validate()
			if len(test.errContains) == 0 {
				assert.NoError(t, err)
				return
			}

			assert.Error(t, err)
			for _, want := range test.errContains {
				assert.True(t, strings.Contains(err.Error(), want))
			}
		})
	}
}

func TestStoreScenario(t *testing.T) {
	store := setupStore(t)

	// Ensure replacing the custom series clears its overlays.
	assert.NoError(t, store.AppendOverlays(shared.Custom, []shared.Overlay{{ID: "stale"}}))
	err := store.Replace(shared.Custom, []shared.Candlestick{
		candle(t, 1, 1, 2, 0, 1, 10),
		candle(t, 2, 1, 2, 0, 1, 10),
	})
	assert.NoError(t, err)

	custom, err := store.Context(shared.Custom)
	assert.NoError(t, err)
	assert.Equal(t, len(custom.Series), 2)
	assert.Equal(t, custom.Overlays.Len(), 0)

	// Ensure overlays are appended to the on-series set.
	err = store.AppendOverlays(shared.Custom, []shared.Overlay{{ID: "x", Payload: map[string]any{"x": 1}}})
	assert.NoError(t, err)
	custom, err = store.Context(shared.Custom)
	assert.NoError(t, err)
	assert.Equal(t, len(custom.Overlays.OnSeries), 1)
	assert.Equal(t, len(custom.Overlays.OffSeries), 0)

	// Ensure an empty overlay append is a no-op.
	rev := custom.Revision
	assert.NoError(t, store.AppendOverlays(shared.Custom, nil))
	custom, err = store.Context(shared.Custom)
	assert.NoError(t, err)
	assert.Equal(t, custom.Revision, rev)

	// Ensure prepending history to the live series leaves the custom series untouched.
	err = store.PrependHistorical(shared.Live, []shared.Candlestick{candle(t, 100, 1, 2, 0, 1, 10)})
	assert.NoError(t, err)
	after, err := store.Context(shared.Custom)
	assert.NoError(t, err)
	if diff := cmp.Diff(custom, after); diff != "" {
		t.Fatalf("custom context changed (-want +got):\n%s", diff)
	}
	assert.Equal(t, store.Len(shared.Live), 1)
}

func TestStoreModeSwitchPurity(t *testing.T) {
	store := setupStore(t)
	assert.NoError(t, store.PrependHistorical(shared.Live, []shared.Candlestick{candle(t, 100, 1, 2, 0, 1, 10)}))
	assert.NoError(t, store.AppendOverlays(shared.Live, []shared.Overlay{{ID: "live"}}))

	custom, err := store.Context(shared.Custom)
	assert.NoError(t, err)
	live, err := store.Context(shared.Live)
	assert.NoError(t, err)

	// Ensure switching modes selects the active context without mutating either.
	changed, err := store.SetMode(shared.Live)
	assert.NoError(t, err)
	assert.True(t, changed)
	active := store.ActiveContext()
	assert.Equal(t, active.Mode, shared.Live)
	assert.Equal(t, active.Identity, shared.Identity{Asset: "BTCUSDT", Timeframe: shared.OneMinute})
	assert.Equal(t, active.Series, live.Series)

	changed, err = store.SetMode(shared.Live)
	assert.NoError(t, err)
	assert.False(t, changed)

	_, err = store.SetMode(shared.Custom)
	assert.NoError(t, err)
	assert.Equal(t, store.ActiveContext().Series, custom.Series)

	customAfter, err := store.Context(shared.Custom)
	assert.NoError(t, err)
	liveAfter, err := store.Context(shared.Live)
	assert.NoError(t, err)
	if diff := cmp.Diff(custom, customAfter); diff != "" {
		t.Errorf("custom context changed (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(live, liveAfter); diff != "" {
		t.Errorf("live context changed (-want +got):\n%s", diff)
	}

	// Ensure unknown modes are rejected.
	_, err = store.SetMode(shared.Mode(9))
	assert.True(t, errors.Is(err, shared.ErrUnknownMode))
	err = store.Replace(shared.Mode(9), nil)
	assert.True(t, errors.Is(err, shared.ErrUnknownMode))
}

func TestStoreLiveUpdates(t *testing.T) {
	store := setupStore(t)

	// Ensure ticks build up the live series.
	assert.Equal(t, store.ApplyTick(candle(t, 1000, 10, 12, 9, 11, 5)), TickAppended)
	assert.Equal(t, store.ApplyTick(candle(t, 1000, 10, 15, 8, 13, 7)), TickUpdated)
	assert.Equal(t, store.ApplyTick(candle(t, 2000, 13, 14, 12, 13, 1)), TickAppended)

	// Ensure stale ticks are rejected without bumping the revision.
	before, err := store.Context(shared.Live)
	assert.NoError(t, err)
	assert.Equal(t, store.ApplyTick(candle(t, 500, 1, 1, 1, 1, 1)), TickRejected)
	after, err := store.Context(shared.Live)
	assert.NoError(t, err)
	if diff := cmp.Diff(before, after); diff != "" {
		t.Fatalf("live context changed after rejected tick (-want +got):\n%s", diff)
	}
	assert.Equal(t, after.Series[0], candle(t, 1000, 10, 15, 8, 13, 7))

	// Ensure whole candles are inserted in order.
	store.ApplyWholeCandle(candle(t, 1500, 1, 1, 1, 1, 1))
	live, err := store.Context(shared.Live)
	assert.NoError(t, err)
	assert.Equal(t, openTimes(live.Series), []int64{1000, 1500, 2000})

	// Ensure reloading the live series keeps its overlays while replacing drops them.
	assert.NoError(t, store.AppendOverlays(shared.Live, []shared.Overlay{{ID: "signal"}}))
	assert.NoError(t, store.Reload(shared.Live, []shared.Candlestick{candle(t, 3000, 1, 1, 1, 1, 1)}))
	live, err = store.Context(shared.Live)
	assert.NoError(t, err)
	assert.Equal(t, len(live.Series), 1)
	assert.Equal(t, len(live.Overlays.OnSeries), 1)

	assert.NoError(t, store.Replace(shared.Live, []shared.Candlestick{candle(t, 3000, 1, 1, 1, 1, 1)}))
	live, err = store.Context(shared.Live)
	assert.NoError(t, err)
	assert.Equal(t, live.Overlays.Len(), 0)
}

func TestStoreResets(t *testing.T) {
	store := setupStore(t)
	assert.NoError(t, store.PrependHistorical(shared.Live, []shared.Candlestick{candle(t, 100, 1, 2, 0, 1, 10)}))
	assert.NoError(t, store.AppendOverlays(shared.Live, []shared.Overlay{{ID: "live"}}))
	assert.NoError(t, store.AppendOverlays(shared.Custom, []shared.Overlay{{ID: "custom"}}))

	// Ensure clearing a context empties its series and overlays.
	assert.NoError(t, store.Clear(shared.Live))
	live, err := store.Context(shared.Live)
	assert.NoError(t, err)
	assert.Equal(t, len(live.Series), 0)
	assert.Equal(t, live.Overlays.Len(), 0)

	// Ensure a new identity clears both contexts.
	store.ResetForNewIdentity()
	assert.Equal(t, store.Len(shared.Custom), 0)
	assert.Equal(t, store.Len(shared.Live), 0)

	// Ensure the custom context can be restored to the default sample.
	store.ResetCustomToDefault()
	custom, err := store.Context(shared.Custom)
	assert.NoError(t, err)
	assert.Equal(t, openTimes(custom.Series), []int64{10, 20})

	// Ensure a missing context is initialized rather than failing.
	store.live = nil
	assert.Equal(t, store.ApplyTick(candle(t, 1, 1, 1, 1, 1, 1)), TickAppended)
	assert.Equal(t, store.Len(shared.Live), 1)
}

func TestStoreDefaultOverlays(t *testing.T) {
	logger := zerolog.Nop()
	defaults := shared.OverlaySet{
		OnSeries:  []shared.Overlay{{ID: "ema", Payload: map[string]any{"length": 20}}},
		OffSeries: []shared.Overlay{{ID: "rsi", Payload: map[string]any{"length": 14}}},
	}
	store, err := NewStore(&StoreConfig{
		DefaultCustom:   []shared.Candlestick{candle(t, 10, 1, 2, 0, 1, 10)},
		DefaultOverlays: defaults,
		Mode:            shared.Custom,
		Identity:        shared.Identity{Asset: "BTCUSDT", Timeframe: shared.OneMinute},
		Logger:          &logger,
	})
	assert.NoError(t, err)

	// Ensure the custom context starts with the default overlays.
	custom, err := store.Context(shared.Custom)
	assert.NoError(t, err)
	assert.Equal(t, "", cmp.Diff(defaults, custom.Overlays))

	// Ensure an upload clears them and a reset restores them.
	assert.NoError(t, store.Replace(shared.Custom, []shared.Candlestick{candle(t, 30, 1, 2, 0, 1, 10)}))
	assert.Equal(t, store.ActiveContext().Overlays.Len(), 0)

	store.ResetCustomToDefault()
	custom, err = store.Context(shared.Custom)
	assert.NoError(t, err)
	assert.Equal(t, openTimes(custom.Series), []int64{10})
	assert.Equal(t, "", cmp.Diff(defaults, custom.Overlays))

	// Ensure the defaults are not aliased by the context.
	custom.Overlays.OnSeries[0].Payload["length"] = 50
	store.ResetCustomToDefault()
	assert.Equal(t, defaults.OnSeries[0].Payload["length"], any(20))
}

func TestStoreTickets(t *testing.T) {
	store := setupStore(t)

	// Ensure responses for the current identity are applied.
	ticket := store.IssueTicket()
	assert.NotEqual(t, ticket.ID, "")
	assert.True(t, store.ValidTicket(ticket))
	err := store.ReloadFor(ticket, []shared.Candlestick{candle(t, 200, 1, 2, 0, 1, 10)})
	assert.NoError(t, err)
	err = store.PrependHistoricalFor(ticket, []shared.Candlestick{candle(t, 100, 1, 2, 0, 1, 10)})
	assert.NoError(t, err)
	assert.Equal(t, store.Len(shared.Live), 2)

	// Ensure responses for a superseded identity are discarded.
	store.Modes().SetLiveIdentity("ETHUSDT", shared.UnsetTimeframe)
	assert.False(t, store.ValidTicket(ticket))
	err = store.PrependHistoricalFor(ticket, []shared.Candlestick{candle(t, 50, 1, 2, 0, 1, 10)})
	assert.True(t, errors.Is(err, ErrStaleTicket))
	err = store.ReloadFor(ticket, nil)
	assert.True(t, errors.Is(err, ErrStaleTicket))
	assert.Equal(t, store.Len(shared.Live), 2)
}

func TestStoreSnapshotIsolation(t *testing.T) {
	store := setupStore(t)
	assert.NoError(t, store.AppendOverlays(shared.Custom, []shared.Overlay{{ID: "a", Payload: map[string]any{"x": 1}}}))

	// Ensure mutating a snapshot does not leak into the store.
	snapshot := store.ActiveContext()
	snapshot.Series[0].Close = 1000
	snapshot.Overlays.OnSeries[0].Payload["x"] = 2

	fresh := store.ActiveContext()
	assert.Equal(t, fresh.Series[0].Close, float64(1))
	assert.Equal(t, fresh.Overlays.OnSeries[0].Payload["x"], any(1))

	// Ensure a caller mutating the slice it replaced the series with does not
	// leak into the store.
	upload := []shared.Candlestick{candle(t, 1, 1, 2, 0, 1, 10)}
	assert.NoError(t, store.Replace(shared.Custom, upload))
	upload[0].Close = 99
	custom, err := store.Context(shared.Custom)
	assert.NoError(t, err)
	assert.Equal(t, custom.Series[0].Close, float64(1))
}

func TestStoreConcurrentReads(t *testing.T) {
	store := setupStore(t)
	_, err := store.SetMode(shared.Live)
	assert.NoError(t, err)

	// Ensure snapshots taken while ticks are applied always hold an ordered series.
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for idx := range 200 {
			store.ApplyTick(shared.Candlestick{OpenTime: int64(idx / 2), Open: 1, High: 2, Low: 0, Close: 1})
		}
	}()

	for range 50 {
		snapshot := store.ActiveContext()
		assert.NoError(t, shared.VerifyOrdering(snapshot.Series))
	}

	wg.Wait()
	assert.Equal(t, store.Len(shared.Live), 100)
}
