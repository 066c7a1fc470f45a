// Package quotes fetches live price quotes for display alongside screening
// results.
package quotes

import (
	"cmp"
	"context"
	"fmt"
	"time"

	yfgo "github.com/komsit37/yf-go"

	"github.com/komsit37/vscreen/pkg/vscreen/cache"
	"github.com/komsit37/vscreen/pkg/vscreen/types"
)

// DefaultTimeout bounds a single quote request.
const DefaultTimeout = 5 * time.Second

// QuoteService fetches a quote for a symbol.
type QuoteService interface {
	Get(ctx context.Context, sym string) (types.Quote, error)
}

// YFService reads the price module of Yahoo's quoteSummary through yf-go.
type YFService struct {
	yf  *yfgo.Client
	ttl time.Duration // per-request deadline
}

// NewYFService returns a service whose requests give up after timeout;
// timeout <= 0 means DefaultTimeout.
func NewYFService(timeout time.Duration) *YFService {
	return &YFService{yf: yfgo.NewClient(), ttl: cmp.Or(max(timeout, 0), DefaultTimeout)}
}

func (s *YFService) Get(ctx context.Context, sym string) (types.Quote, error) {
	if sym == "" {
		return types.Quote{}, nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.ttl)
	defer cancel()
	sum, err := s.yf.QuoteSummaryTyped(ctx, sym, []yfgo.QuoteSummaryModule{yfgo.ModulePrice})
	if err != nil {
		return types.Quote{}, fmt.Errorf("quote %s: %w", sym, err)
	}
	pm := sum.Price
	if pm == nil {
		return types.Quote{}, fmt.Errorf("quote %s: response has no price module", sym)
	}

	chg := pm.RegularMarketChangePercent
	q := types.Quote{
		Name:   cmp.Or(pm.ShortName, pm.LongName),
		Price:  display(pm.RegularMarketPrice.Fmt, pm.RegularMarketPrice.Raw, func(v float64) string { return fmt.Sprintf("%.2f", v) }),
		ChgFmt: display(chg.Fmt, chg.Raw, FormatChange),
	}
	if chg.Raw != nil {
		q.ChgRaw = *chg.Raw
	}
	return q, nil
}

// display prefers Yahoo's own formatting and falls back to formatting raw.
func display(formatted string, raw *float64, format func(float64) string) string {
	if formatted != "" || raw == nil {
		return formatted
	}
	return format(*raw)
}

// FormatChange renders a percent change with two decimals.
func FormatChange(pct float64) string {
	return fmt.Sprintf("%.2f%%", pct)
}

// CacheService decorates a QuoteService with a TTL+LRU cache. Failed lookups
// are not cached.
type CacheService struct {
	next  QuoteService
	items *cache.Cache[types.Quote]
}

func NewCacheService(next QuoteService, ttl time.Duration, size int) *CacheService {
	return &CacheService{next: next, items: cache.New[types.Quote](ttl, size)}
}

func (c *CacheService) Get(ctx context.Context, sym string) (types.Quote, error) {
	if sym == "" {
		return types.Quote{}, nil
	}
	if q, ok := c.items.Get(sym); ok {
		return q, nil
	}
	q, err := c.next.Get(ctx, sym)
	if err != nil {
		return q, err
	}
	c.items.Put(sym, q)
	return q, nil
}

// Static serves quotes from a fixed map. Unknown symbols return a zero Quote.
type Static map[string]types.Quote

func (s Static) Get(_ context.Context, sym string) (types.Quote, error) {
	return s[sym], nil
}
