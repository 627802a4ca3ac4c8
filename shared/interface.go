package shared

import (
	"context"

	"github.com/tidwall/gjson"
)

// KlineFetcher defines the requirements for fetching kline data for a series identity.
type KlineFetcher interface {
	// FetchKlines fetches at most limit candles of the provided identity opening
	// before end (unix ms). A zero end fetches the most recent candles.
	FetchKlines(ctx context.Context, identity Identity, end int64, limit uint32) ([]gjson.Result, error)
}
