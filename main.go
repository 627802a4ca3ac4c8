package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/dnldd/chartdesk/fetch"
	"github.com/dnldd/chartdesk/service"
	"github.com/dnldd/chartdesk/shared"
	"github.com/rs/zerolog/log"
)

// handleTermination processes context cancellation signals or interrupt signals from the OS.
func handleTermination(ctx context.Context, cancel context.CancelFunc) {
	// Listen for interrupt signals.
	signals := []os.Signal{os.Interrupt}
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, signals...)

	// Wait for the context to be cancelled or an interrupt signal.
	for {
		select {
		case <-ctx.Done():
			return

		case <-interrupt:
			cancel()
		}
	}
}

func main() {
	var cfg Config
	err := loadConfig(&cfg, "")
	if err != nil {
		log.Error().Msgf("loading config: %v", err)
		return
	}

	// The config is validated, parsing cannot fail.
	mode, _ := shared.ParseMode(cfg.Mode)
	timeframe, _ := shared.ParseTimeframe(cfg.Timeframe)

	sample, err := fetch.SampleCandles()
	if err != nil {
		log.Error().Msgf("loading sample candles: %v", err)
		return
	}

	sampleOverlays, err := fetch.SampleOverlays()
	if err != nil {
		log.Error().Msgf("loading sample overlays: %v", err)
		return
	}

	historicData, err := fetch.NewHistoricData(cfg.HistoricDataFilepath)
	if err != nil {
		log.Error().Msgf("loading historic data: %v", err)
		return
	}

	dashboard, err := service.NewDashboard(&service.DashboardConfig{
		DefaultCustom:   sample,
		DefaultOverlays: sampleOverlays,
		Mode:            mode,
		Identity:        shared.Identity{Asset: cfg.Asset, Timeframe: timeframe},
		Fetcher:         historicData,
		BackfillLimit:   uint32(cfg.BackfillLimit),
		ReportInterval:  time.Second * time.Duration(cfg.ReportInterval),
	})
	if err != nil {
		log.Error().Msgf("creating dashboard service: %v", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go handleTermination(ctx, cancel)
	go func() {
		err := replay(ctx, dashboard, &cfg)
		if err != nil {
			log.Error().Msgf("replaying chart events: %v", err)
		}
	}()

	dashboard.Run(ctx)
}
