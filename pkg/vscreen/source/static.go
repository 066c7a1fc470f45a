package source

import (
	"context"
	"fmt"

	"github.com/komsit37/vscreen/pkg/vscreen/types"
)

// DefaultUniverseName names the built-in universe.
const DefaultUniverseName = "default"

// DefaultTickers is the built-in large-cap universe: tech and semis, banks and
// payments, pharma, then consumer staples.
var DefaultTickers = []string{
	"AAPL", "MSFT", "GOOGL", "AMZN", "META", "NVDA", "TSM", "ASML",
	"AVGO", "ORCL", "CSCO", "ADBE", "CRM", "QCOM", "INTC", "AMD",
	"JPM", "BAC", "WFC", "GS", "MS", "C", "BRK-B", "V", "MA",
	"JNJ", "PFE", "MRK", "ABBV", "LLY", "NVS", "PG", "KO", "PEP",
}

// StaticSource builds a single universe from a ticker list. An empty list
// yields the default universe.
type StaticSource struct{}

// Load expects spec to be a []string of tickers (nil allowed).
func (StaticSource) Load(_ context.Context, spec any) ([]types.Universe, error) {
	var tickers []string
	switch s := spec.(type) {
	case nil:
	case []string:
		tickers = s
	default:
		return nil, fmt.Errorf("static source expects []string spec, got %T", spec)
	}
	name := "args"
	if len(tickers) == 0 {
		name, tickers = DefaultUniverseName, DefaultTickers
	}
	u := types.Universe{Name: name, Items: make([]types.Item, 0, len(tickers))}
	for _, t := range tickers {
		u.Items = append(u.Items, types.Item{Sym: t})
	}
	return []types.Universe{u}, nil
}
