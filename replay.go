package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/dnldd/chartdesk/fetch"
	"github.com/dnldd/chartdesk/service"
	"github.com/dnldd/chartdesk/shared"
	"github.com/rs/zerolog/log"
)

// awaitStatus waits for a relayed signal to be processed.
func awaitStatus(ctx context.Context, status chan shared.StatusCode) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-status:
		return nil
	}
}

// replay feeds the configured upload and kline stream to the dashboard, then
// requests older history for the live chart.
func replay(ctx context.Context, dashboard *service.Dashboard, cfg *Config) error {
	if cfg.UploadFilepath != "" {
		candles, err := fetch.LoadCandleFile(cfg.UploadFilepath)
		if err != nil {
			return err
		}

		signal := shared.NewUploadSignal(candles)
		dashboard.SendUpload(signal)
		err = awaitStatus(ctx, signal.Status)
		if err != nil {
			return err
		}
	}

	if cfg.StreamFilepath != "" {
		f, err := os.Open(cfg.StreamFilepath)
		if err != nil {
			return fmt.Errorf("opening stream file with path '%s': %w", cfg.StreamFilepath, err)
		}
		defer f.Close()

		var count int
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}

			signal := shared.NewTickSignal(bytes.Clone(line))
			dashboard.SendTick(signal)
			err = awaitStatus(ctx, signal.Status)
			if err != nil {
				return err
			}
			count++
		}
		err = scanner.Err()
		if err != nil {
			return fmt.Errorf("reading stream file: %w", err)
		}

		log.Info().Msgf("replayed %d kline messages from %s", count, cfg.StreamFilepath)
	}

	dashboard.RequestHistory()

	return nil
}
