package columns

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Sets are named column groups selectable with --set.
var Sets = map[string][]string{
	"default":       Default,
	"id":            {"ticker", "company", "industry", "mcap_b", "criteria"},
	"valuation":     {"pe", "pb", "ev_ebitda", "peg", "graham"},
	"growth":        {"growth%", "div%"},
	"profitability": {"margin%", "opm%", "roe%", "roa%"},
	"health":        {"current_ratio", "de"},
	"technical":     {"price", "high52", "low52", "off_high%", "ma200", "vs_ma200%"},
	"quote":         {"last", "chg%"},
}

// ExpandSets concatenates the named sets in order, dropping columns already
// listed by an earlier set.
func ExpandSets(names []string) ([]string, error) {
	var out []string
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		cols, ok := Sets[name]
		if !ok {
			return nil, &UnknownSetError{Name: name, Available: slices.Sorted(maps.Keys(Sets))}
		}
		for _, c := range cols {
			if !slices.Contains(out, c) {
				out = append(out, c)
			}
		}
	}
	return out, nil
}

type UnknownSetError struct {
	Name      string
	Available []string
}

func (e *UnknownSetError) Error() string {
	return fmt.Sprintf("column set %q does not exist (have %s)", e.Name, strings.Join(e.Available, ", "))
}
