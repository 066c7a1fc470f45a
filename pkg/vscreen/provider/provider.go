// Package provider supplies fundamentals and daily price history per ticker.
package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/komsit37/vscreen/pkg/vscreen/types"
)

// DefaultLookbackDays is the trailing window of daily bars the screener asks for.
const DefaultLookbackDays = 365

// ErrNotFound is returned when the provider does not know the ticker.
var ErrNotFound = errors.New("ticker not found")

// Provider fetches market data for one ticker at a time.
type Provider interface {
	FetchFundamentals(ctx context.Context, ticker string) (types.RawFundamentals, error)
	// FetchPriceHistory returns daily bars, oldest first. An empty series is
	// not an error.
	FetchPriceHistory(ctx context.Context, ticker string, lookbackDays int) (types.PriceSeries, error)
}

// Stage names the fetch that failed.
type Stage string

const (
	StageFundamentals Stage = "fundamentals"
	StageHistory      Stage = "history"
)

// FetchError wraps a provider failure for one ticker.
type FetchError struct {
	Ticker string
	Stage  Stage
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s for %s: %v", e.Stage, e.Ticker, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
