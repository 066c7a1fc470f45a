// Package filter selects universes by name.
package filter

import (
	"fmt"
	"path"
	"regexp"
	"slices"
	"strings"

	"github.com/komsit37/vscreen/pkg/vscreen/types"
)

// Filter matches a universe name.
type Filter interface {
	Match(name string) bool
}

// matcher is the Filter every expression compiles to; label names the kind
// for logs and tests.
type matcher struct {
	label string
	fn    func(string) bool
}

func (m matcher) Match(name string) bool { return m.fn(name) }
func (m matcher) String() string         { return m.label }

// Parse compiles a list expression. In order of precedence:
//
//	""            every list
//	"!expr"       negation
//	"/re/"        regular expression
//	"tech,banks"  exact names, case-insensitive
//	"us/*"        path.Match glob ("*" stops at "/")
//	anything else case-insensitive substring
func Parse(expr string) (Filter, error) {
	expr = strings.TrimSpace(expr)
	switch {
	case expr == "":
		return matcher{"always:true", func(string) bool { return true }}, nil

	case expr[0] == '!':
		inner, err := Parse(expr[1:])
		if err != nil {
			return nil, err
		}
		return matcher{fmt.Sprintf("not:%v", inner), func(n string) bool { return !inner.Match(n) }}, nil

	case len(expr) > 2 && expr[0] == '/' && expr[len(expr)-1] == '/':
		re, err := regexp.Compile(expr[1 : len(expr)-1])
		if err != nil {
			return nil, fmt.Errorf("list filter %q: %w", expr, err)
		}
		return matcher{"regex:" + re.String(), re.MatchString}, nil

	case strings.Contains(expr, ","):
		var names []string
		for _, p := range strings.Split(expr, ",") {
			if p = strings.ToLower(strings.TrimSpace(p)); p != "" && !slices.Contains(names, p) {
				names = append(names, p)
			}
		}
		slices.Sort(names)
		return matcher{"exact:" + strings.Join(names, ","), func(n string) bool {
			_, found := slices.BinarySearch(names, strings.ToLower(n))
			return found
		}}, nil

	case strings.ContainsAny(expr, "*?["):
		if _, err := path.Match(expr, ""); err != nil {
			return nil, fmt.Errorf("list filter %q: %w", expr, err)
		}
		return matcher{"glob:" + expr, func(n string) bool {
			ok, _ := path.Match(expr, n)
			return ok
		}}, nil
	}

	needle := strings.ToLower(expr)
	return matcher{"substr-ci:" + needle, func(n string) bool {
		return strings.Contains(strings.ToLower(n), needle)
	}}, nil
}

// Apply keeps the universes whose name matches f. A nil filter keeps all.
func Apply(f Filter, lists []types.Universe) []types.Universe {
	if f == nil {
		return lists
	}
	return slices.DeleteFunc(slices.Clone(lists), func(u types.Universe) bool {
		return !f.Match(u.Name)
	})
}
