package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/komsit37/vscreen/pkg/vscreen/cache"
	"github.com/komsit37/vscreen/pkg/vscreen/types"
)

// Cached decorates a Provider with TTL+LRU caches. Errors are not cached.
type Cached struct {
	next    Provider
	funds   *cache.Cache[types.RawFundamentals]
	history *cache.Cache[types.PriceSeries]
}

// NewCached wraps next.
func NewCached(next Provider, ttl time.Duration, size int) *Cached {
	return &Cached{
		next:    next,
		funds:   cache.New[types.RawFundamentals](ttl, size),
		history: cache.New[types.PriceSeries](ttl, size),
	}
}

func (c *Cached) FetchFundamentals(ctx context.Context, ticker string) (types.RawFundamentals, error) {
	if f, ok := c.funds.Get(ticker); ok {
		return f, nil
	}
	f, err := c.next.FetchFundamentals(ctx, ticker)
	if err != nil {
		return f, err
	}
	c.funds.Put(ticker, f)
	return f, nil
}

func (c *Cached) FetchPriceHistory(ctx context.Context, ticker string, lookbackDays int) (types.PriceSeries, error) {
	k := fmt.Sprintf("%s|%d", ticker, lookbackDays)
	if s, ok := c.history.Get(k); ok {
		return s, nil
	}
	s, err := c.next.FetchPriceHistory(ctx, ticker, lookbackDays)
	if err != nil {
		return s, err
	}
	c.history.Put(k, s)
	return s, nil
}
