package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/dnldd/chartdesk/chart"
	"github.com/dnldd/chartdesk/fetch"
	"github.com/dnldd/chartdesk/shared"
	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
)

const (
	// bufferSize is the default buffer size for channels.
	bufferSize = 64
)

// DashboardConfig represents the configuration struct for the dashboard service.
type DashboardConfig struct {
	// DefaultCustom is the sample series the custom chart starts with.
	DefaultCustom []shared.Candlestick
	// DefaultOverlays are the overlays of the sample series.
	DefaultOverlays shared.OverlaySet
	// Mode is the initially active mode.
	Mode shared.Mode
	// Identity is the initially tracked live identity.
	Identity shared.Identity
	// Fetcher is the kline source used to backfill the live series.
	Fetcher shared.KlineFetcher
	// BackfillLimit is the number of candles requested per backfill.
	BackfillLimit uint32
	// ReportInterval is the interval between chart state reports. A zero
	// interval disables reporting.
	ReportInterval time.Duration
}

// Validate asserts the config sane inputs.
func (cfg *DashboardConfig) Validate() error {
	var errs error

	if cfg.Identity.Asset == "" {
		errs = errors.Join(errs, fmt.Errorf("live asset cannot be an empty string"))
	}
	if _, err := cfg.Identity.Timeframe.Duration(); err != nil {
		errs = errors.Join(errs, fmt.Errorf("live timeframe: %w", err))
	}
	if cfg.Fetcher == nil {
		errs = errors.Join(errs, fmt.Errorf("kline fetcher cannot be nil"))
	}
	if cfg.ReportInterval < 0 {
		errs = errors.Join(errs, fmt.Errorf("report interval cannot be negative"))
	}

	return errs
}

// Dashboard represents the chart dashboard service. It owns the candle series
// store and applies every chart event serially.
type Dashboard struct {
	cfg          *DashboardConfig
	store        *chart.Store
	fetchManager *fetch.Manager
	jobScheduler *gocron.Scheduler
	ticks        chan shared.TickSignal
	klines       chan shared.KlineSignal
	uploads      chan shared.UploadSignal
	resets       chan shared.ResetSignal
	overlays     chan shared.OverlaySignal
	modes        chan shared.ModeSignal
	identities   chan shared.IdentitySignal
	backfills    chan shared.BackfillSignal
	logger       *zerolog.Logger
	wg           sync.WaitGroup
}

// NewDashboard initializes a new dashboard service.
func NewDashboard(cfg *DashboardConfig) (*Dashboard, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	var dashboard *Dashboard

	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	logger := log.With().Str("service", "dashboard").Logger()

	storeLogger := logger.With().Str("component", "store").Logger()
	store, err := chart.NewStore(&chart.StoreConfig{
		DefaultCustom:   cfg.DefaultCustom,
		DefaultOverlays: cfg.DefaultOverlays,
		Mode:            cfg.Mode,
		Identity:        cfg.Identity,
		Logger:          &storeLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating store: %w", err)
	}

	relayBackfillFunc := func(signal shared.BackfillSignal) {
		if dashboard != nil {
			dashboard.SendBackfill(signal)
		}
	}

	fetchMgrLogger := logger.With().Str("component", "fetchmanager").Logger()
	fetchMgr, err := fetch.NewManager(&fetch.ManagerConfig{
		Fetcher:       cfg.Fetcher,
		RelayBackfill: relayBackfillFunc,
		Logger:        &fetchMgrLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating fetch manager: %w", err)
	}

	dashboard = &Dashboard{
		cfg:          cfg,
		store:        store,
		fetchManager: fetchMgr,
		jobScheduler: gocron.NewScheduler(time.UTC),
		ticks:        make(chan shared.TickSignal, bufferSize),
		klines:       make(chan shared.KlineSignal, bufferSize),
		uploads:      make(chan shared.UploadSignal, bufferSize),
		resets:       make(chan shared.ResetSignal, bufferSize),
		overlays:     make(chan shared.OverlaySignal, bufferSize),
		modes:        make(chan shared.ModeSignal, bufferSize),
		identities:   make(chan shared.IdentitySignal, bufferSize),
		backfills:    make(chan shared.BackfillSignal, bufferSize),
		logger:       &logger,
	}

	return dashboard, nil
}

// ActiveContext returns a snapshot of the chart context selected by the active mode.
func (d *Dashboard) ActiveContext() chart.Snapshot {
	return d.store.ActiveContext()
}

// Context returns a snapshot of the chart context of the provided mode.
func (d *Dashboard) Context(mode shared.Mode) (chart.Snapshot, error) {
	return d.store.Context(mode)
}

// SendTick relays the provided streaming tick for processing.
func (d *Dashboard) SendTick(signal shared.TickSignal) {
	select {
	case d.ticks <- signal:
		// do nothing.
	default:
		d.logger.Error().Msgf("tick channel at capacity: %d/%d", len(d.ticks), bufferSize)
	}
}

// SendKline relays the provided complete kline for processing.
func (d *Dashboard) SendKline(signal shared.KlineSignal) {
	select {
	case d.klines <- signal:
		// do nothing.
	default:
		d.logger.Error().Msgf("kline channel at capacity: %d/%d", len(d.klines), bufferSize)
	}
}

// SendUpload relays the provided custom upload for processing.
func (d *Dashboard) SendUpload(signal shared.UploadSignal) {
	select {
	case d.uploads <- signal:
		// do nothing.
	default:
		d.logger.Error().Msgf("upload channel at capacity: %d/%d", len(d.uploads), bufferSize)
	}
}

// SendReset relays the provided custom chart reset for processing.
func (d *Dashboard) SendReset(signal shared.ResetSignal) {
	select {
	case d.resets <- signal:
		// do nothing.
	default:
		d.logger.Error().Msgf("reset channel at capacity: %d/%d", len(d.resets), bufferSize)
	}
}

// SendOverlays relays the provided overlays for processing.
func (d *Dashboard) SendOverlays(signal shared.OverlaySignal) {
	select {
	case d.overlays <- signal:
		// do nothing.
	default:
		d.logger.Error().Msgf("overlay channel at capacity: %d/%d", len(d.overlays), bufferSize)
	}
}

// SendMode relays the provided mode switch for processing.
func (d *Dashboard) SendMode(signal shared.ModeSignal) {
	select {
	case d.modes <- signal:
		// do nothing.
	default:
		d.logger.Error().Msgf("mode channel at capacity: %d/%d", len(d.modes), bufferSize)
	}
}

// SendIdentity relays the provided identity change for processing.
func (d *Dashboard) SendIdentity(signal shared.IdentitySignal) {
	select {
	case d.identities <- signal:
		// do nothing.
	default:
		d.logger.Error().Msgf("identity channel at capacity: %d/%d", len(d.identities), bufferSize)
	}
}

// SendBackfill relays the provided fetched candles for processing.
func (d *Dashboard) SendBackfill(signal shared.BackfillSignal) {
	select {
	case d.backfills <- signal:
		// do nothing.
	default:
		d.logger.Error().Msgf("backfill channel at capacity: %d/%d", len(d.backfills), bufferSize)
	}
}

// requestBackfill dispatches a ticketed backfill of the live series.
func (d *Dashboard) requestBackfill(initial bool) {
	var end int64
	if !initial {
		snapshot, err := d.store.Context(shared.Live)
		if err != nil {
			d.logger.Error().Msgf("fetching live context: %v", err)
			return
		}
		if len(snapshot.Series) > 0 {
			end = snapshot.Series[0].OpenTime
		}
	}

	ticket := d.store.IssueTicket()
	d.fetchManager.SendBackfillRequest(shared.NewBackfillRequest(ticket, end, d.cfg.BackfillLimit, initial))
}

// RequestHistory requests candles older than the oldest candle of the live series.
func (d *Dashboard) RequestHistory() {
	d.requestBackfill(false)
}

// streamedCandle parses the provided streamed message, dropping malformed
// messages and messages for an instrument other than the live identity.
func (d *Dashboard) streamedCandle(kind string, msg []byte) (shared.Candlestick, bool) {
	candle, identity, err := shared.ParseKlineMessage(msg)
	if err != nil {
		d.logger.Error().Msgf("dropping %s: %v: %s", kind, err, spew.Sdump(string(msg)))
		return shared.Candlestick{}, false
	}

	live := d.store.Modes().LiveIdentity()
	if !live.Matches(identity) {
		d.logger.Warn().Msgf("dropping %s for %s/%s, live identity is %s", kind,
			identity.Asset, identity.Timeframe.String(), live.String())
		return shared.Candlestick{}, false
	}

	return candle, true
}

// handleTick processes the provided streaming tick.
func (d *Dashboard) handleTick(signal shared.TickSignal) {
	defer func() { signal.Status <- shared.Processed }()

	tick, ok := d.streamedCandle("tick", signal.Message)
	if !ok {
		return
	}

	d.store.ApplyTick(tick)
}

// handleKline processes the provided complete kline.
func (d *Dashboard) handleKline(signal shared.KlineSignal) {
	defer func() { signal.Status <- shared.Processed }()

	candle, ok := d.streamedCandle("kline", signal.Message)
	if !ok {
		return
	}

	d.store.ApplyWholeCandle(candle)
}

// handleUpload replaces the custom series with the provided upload.
func (d *Dashboard) handleUpload(signal shared.UploadSignal) {
	defer func() { signal.Status <- shared.Processed }()

	err := d.store.Replace(shared.Custom, chart.Normalize(signal.Candles))
	if err != nil {
		d.logger.Error().Msgf("replacing custom series: %v", err)
	}
}

// handleReset restores the custom chart to the default sample.
func (d *Dashboard) handleReset(signal shared.ResetSignal) {
	defer func() { signal.Status <- shared.Processed }()

	d.store.ResetCustomToDefault()
}

// handleOverlays appends the provided overlays to the active chart context.
func (d *Dashboard) handleOverlays(signal shared.OverlaySignal) {
	defer func() { signal.Status <- shared.Processed }()

	err := d.store.AppendActiveOverlays(signal.Overlays)
	if err != nil {
		d.logger.Error().Msgf("appending overlays: %v", err)
	}
}

// handleMode switches the active mode, loading the live series when it is
// selected empty.
func (d *Dashboard) handleMode(signal shared.ModeSignal) {
	defer func() { signal.Status <- shared.Processed }()

	changed, err := d.store.SetMode(signal.Mode)
	if err != nil {
		d.logger.Error().Msgf("setting mode: %v", err)
		return
	}

	if changed && signal.Mode == shared.Live && d.store.Len(shared.Live) == 0 {
		d.requestBackfill(true)
	}
}

// handleIdentity updates the displayed selection. A change of the live identity
// resets the chart data and reloads the live series.
func (d *Dashboard) handleIdentity(signal shared.IdentitySignal) {
	defer func() { signal.Status <- shared.Processed }()

	if !d.store.Modes().SetDisplayIdentity(signal.Asset, signal.Timeframe) {
		return
	}

	d.store.ResetForNewIdentity()
	d.requestBackfill(true)
}

// handleBackfill applies the provided fetched candles to the live series.
func (d *Dashboard) handleBackfill(signal shared.BackfillSignal) {
	defer func() { signal.Status <- shared.Processed }()

	var err error
	switch signal.Initial {
	case true:
		err = d.store.ReloadFor(signal.Ticket, signal.Candles)
	case false:
		err = d.store.PrependHistoricalFor(signal.Ticket, signal.Candles)
	}

	if err != nil && !errors.Is(err, chart.ErrStaleTicket) {
		d.logger.Error().Msgf("applying backfill %s: %v", signal.Ticket.ID, err)
	}
}

// reportJob logs the state of the active chart context.
func (d *Dashboard) reportJob() {
	snapshot := d.store.ActiveContext()

	event := d.logger.Info().
		Str("mode", snapshot.Mode.String()).
		Uint64("revision", snapshot.Revision).
		Int("candles", len(snapshot.Series)).
		Int("overlays", snapshot.Overlays.Len())
	if snapshot.Mode == shared.Live {
		event = event.Str("identity", snapshot.Identity.String())
	}
	if last, ok := snapshot.Last(); ok {
		event = event.Float64("close", last.Close).
			Str("opened", last.Date().Format(shared.DateLayout))
	}

	event.Msg("chart state")
}

// Run handles the lifecycle processes of the dashboard service.
func (d *Dashboard) Run(ctx context.Context) {
	d.wg.Add(1)
	go func() {
		d.fetchManager.Run(ctx)
		d.wg.Done()
	}()

	if d.cfg.ReportInterval > 0 {
		_, err := d.jobScheduler.Every(d.cfg.ReportInterval).Do(d.reportJob)
		if err != nil {
			d.logger.Error().Msgf("scheduling report job: %v", err)
		}
		d.jobScheduler.StartAsync()
	}

	if d.store.Modes().Mode() == shared.Live {
		d.requestBackfill(true)
	}

	for {
		select {
		case <-ctx.Done():
			d.jobScheduler.Stop()
			d.wg.Wait()
			return
		case signal := <-d.ticks:
			d.handleTick(signal)
		case signal := <-d.klines:
			d.handleKline(signal)
		case signal := <-d.uploads:
			d.handleUpload(signal)
		case signal := <-d.resets:
			d.handleReset(signal)
		case signal := <-d.overlays:
			d.handleOverlays(signal)
		case signal := <-d.modes:
			d.handleMode(signal)
		case signal := <-d.identities:
			d.handleIdentity(signal)
		case signal := <-d.backfills:
			d.handleBackfill(signal)
		}
	}
}
