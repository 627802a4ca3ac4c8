package fetch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dnldd/chartdesk/chart"
	"github.com/dnldd/chartdesk/shared"
	"github.com/rs/zerolog"
)

const (
	// bufferSize is the default buffer size for channels.
	bufferSize = 64
	// maxWorkers is the maximum number of concurrent workers.
	maxWorkers = 8
)

// ManagerConfig represents the configuration for the fetch manager.
type ManagerConfig struct {
	// Fetcher represents the kline data source.
	Fetcher shared.KlineFetcher
	// RelayBackfill relays fetched candles for application to the live series.
	RelayBackfill func(signal shared.BackfillSignal)
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Validate asserts the config sane inputs.
func (cfg *ManagerConfig) Validate() error {
	var errs error

	if cfg.Fetcher == nil {
		errs = errors.Join(errs, fmt.Errorf("kline fetcher cannot be nil"))
	}
	if cfg.RelayBackfill == nil {
		errs = errors.Join(errs, fmt.Errorf("relay backfill function cannot be nil"))
	}
	if cfg.Logger == nil {
		errs = errors.Join(errs, fmt.Errorf("logger cannot be nil"))
	}

	return errs
}

// Manager dispatches backfill requests to the kline source and relays the
// fetched candles tagged with the ticket of their request.
type Manager struct {
	cfg              *ManagerConfig
	backfillRequests chan shared.BackfillRequest
	workers          chan struct{}
}

// NewManager initializes the fetch manager.
func NewManager(cfg *ManagerConfig) (*Manager, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	return &Manager{
		cfg:              cfg,
		backfillRequests: make(chan shared.BackfillRequest, bufferSize),
		workers:          make(chan struct{}, maxWorkers),
	}, nil
}

// SendBackfillRequest relays the provided backfill request for processing.
func (m *Manager) SendBackfillRequest(req shared.BackfillRequest) {
	select {
	case m.backfillRequests <- req:
		// do nothing.
	default:
		m.cfg.Logger.Error().Msgf("backfill request channel at capacity: %d/%d",
			len(m.backfillRequests), bufferSize)
	}
}

// handleBackfillRequest fetches the candles of the provided request and relays them.
func (m *Manager) handleBackfillRequest(ctx context.Context, req shared.BackfillRequest) error {
	data, err := m.cfg.Fetcher.FetchKlines(ctx, req.Ticket.Identity, req.End, req.Limit)
	if err != nil {
		return fmt.Errorf("fetching klines for %s: %w", req.Ticket.Identity.String(), err)
	}

	candles, err := shared.ParseCandlesticks(data)
	if err != nil {
		return fmt.Errorf("parsing klines for %s: %w", req.Ticket.Identity.String(), err)
	}

	if len(candles) == 0 && !req.Initial {
		m.cfg.Logger.Info().Msgf("no older klines available for %s", req.Ticket.Identity.String())
		return nil
	}

	signal := shared.NewBackfillSignal(req.Ticket, chart.Normalize(candles), req.Initial)
	m.cfg.RelayBackfill(signal)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-signal.Status:
		return nil
	case <-time.After(shared.TimeoutDuration):
		return fmt.Errorf("timed out waiting for backfill %s to be processed", req.Ticket.ID)
	}
}

// Run manages the lifecycle processes of the fetch manager.
func (m *Manager) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case req := <-m.backfillRequests:
			select {
			case <-ctx.Done():
				return
			case m.workers <- struct{}{}:
			}

			go func(req shared.BackfillRequest) {
				defer func() { <-m.workers }()

				err := m.handleBackfillRequest(ctx, req)
				if err != nil {
					m.cfg.Logger.Error().Msgf("handling backfill request %s: %v", req.Ticket.ID, err)
				}
			}(req)
		}
	}
}
