// Package thresholds holds the named cutoffs the rule-sets compare against.
package thresholds

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Threshold keys.
const (
	MaxPE               = "max_pe"
	MaxPB               = "max_pb"
	MinProfitMargin     = "min_profit_margin"
	MinCurrentRatio     = "min_current_ratio"
	MaxDebtEquity       = "max_debt_equity"
	MinOperatingMargin  = "min_operating_margin"
	MaxPEG              = "max_peg"
	MinEarningsGrowth   = "min_earnings_growth"
	MinDivYield         = "min_div_yield"
	MinROA              = "min_roa"
	MinROE              = "min_roe"
	MinDistanceFromHigh = "min_distance_from_high"
	MaxPriceToMA200     = "max_price_to_ma200"
)

// Thresholds is an immutable set of cutoffs. Build it with Defaults and With;
// the zero value is not meaningful.
type Thresholds struct {
	values [count]float64
}

type entry struct {
	name string
	def  float64
	desc string
}

const count = 13

// entries is in documented order; the index is the slot in Thresholds.values.
var entries = [count]entry{
	{MaxPE, 15, "forward P/E below"},
	{MaxPB, 2, "price to book below"},
	{MinProfitMargin, 0.1, "profit margin (fraction) above"},
	{MinCurrentRatio, 1.5, "current ratio above"},
	{MaxDebtEquity, 100, "debt to equity below"},
	{MinOperatingMargin, 15, "operating margin % above"},
	{MaxPEG, 1.5, "PEG ratio below"},
	{MinEarningsGrowth, 10, "earnings growth % above"},
	{MinDivYield, 2.5, "dividend yield % above"},
	{MinROA, 10, "return on assets % above"},
	{MinROE, 15, "return on equity % above"},
	{MinDistanceFromHigh, 20, "% below 52-week high above"},
	{MaxPriceToMA200, -10, "% vs 200-day MA below"},
}

var index = func() map[string]int {
	m := make(map[string]int, count)
	for i, e := range entries {
		m[e.name] = i
	}
	return m
}()

// Defaults returns the stock cutoffs.
func Defaults() Thresholds {
	var t Thresholds
	for i, e := range entries {
		t.values[i] = e.def
	}
	return t
}

// Names lists every key in documented order.
func Names() []string {
	out := make([]string, count)
	for i, e := range entries {
		out[i] = e.name
	}
	return out
}

// Describe returns a one-line description of a key.
func Describe(name string) string {
	if i, ok := index[name]; ok {
		return entries[i].desc
	}
	return ""
}

// Default returns the stock value of a key.
func Default(name string) (float64, bool) {
	i, ok := index[name]
	if !ok {
		return 0, false
	}
	return entries[i].def, true
}

// With returns a copy of t with overrides applied key by key. Values are not
// range checked: a negative max_pe simply makes that rule unsatisfiable.
func (t Thresholds) With(overrides map[string]float64) (Thresholds, error) {
	out := t
	// Sorted so the reported unknown key is stable.
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		i, ok := index[k]
		if !ok {
			return t, &UnknownKeyError{Name: k, Available: Names()}
		}
		out.values[i] = overrides[k]
	}
	return out, nil
}

// Get returns the value of a key.
func (t Thresholds) Get(name string) (float64, bool) {
	i, ok := index[name]
	if !ok {
		return 0, false
	}
	return t.values[i], true
}

// Must returns the value of a known key and panics on an unknown one. Only
// use it with the constants of this package.
func (t Thresholds) Must(name string) float64 {
	v, ok := t.Get(name)
	if !ok {
		panic("thresholds: unknown key " + name)
	}
	return v
}

// Map returns the effective values keyed by name.
func (t Thresholds) Map() map[string]float64 {
	m := make(map[string]float64, count)
	for i, e := range entries {
		m[e.name] = t.values[i]
	}
	return m
}

// ParseOverrides converts textual key=value pairs (flags, env) to numbers.
func ParseOverrides(in map[string]string) (map[string]float64, error) {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		k = strings.TrimSpace(k)
		if _, ok := index[k]; !ok {
			return nil, &UnknownKeyError{Name: k, Available: Names()}
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("threshold %s: %w", k, err)
		}
		out[k] = f
	}
	return out, nil
}

// UnknownKeyError reports an override for a threshold that does not exist.
type UnknownKeyError struct {
	Name      string
	Available []string
}

func (e *UnknownKeyError) Error() string {
	return "unknown threshold: " + e.Name + "; available: " + strings.Join(e.Available, ", ")
}
