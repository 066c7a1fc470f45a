package source

import (
	"context"
	"strings"

	"github.com/komsit37/vscreen/pkg/vscreen/types"
)

// Source loads ticker universes from a specification (e.g., filepath, ticker list).
type Source interface {
	Load(ctx context.Context, spec any) ([]types.Universe, error)
}

// Tickers flattens universes into a ticker list. Symbols are trimmed and
// upper-cased; duplicates keep their first position.
func Tickers(lists []types.Universe) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0)
	for _, l := range lists {
		for _, it := range l.Items {
			sym := strings.ToUpper(strings.TrimSpace(it.Sym))
			if sym == "" {
				continue
			}
			if _, ok := seen[sym]; ok {
				continue
			}
			seen[sym] = struct{}{}
			out = append(out, sym)
		}
	}
	return out
}
