// Package rules evaluates the six valuation rule-sets.
//
// Each rule-set is a fixed conjunction of strict comparisons. The condition
// lists are data so the report and the rules command describe exactly what is
// evaluated.
package rules

import (
	"fmt"
	"strings"

	"github.com/komsit37/vscreen/pkg/vscreen/metrics"
	"github.com/komsit37/vscreen/pkg/vscreen/thresholds"
)

// RuleSet identifies one of the six rule-sets. The numeric order is the
// declaration order used everywhere results are listed.
type RuleSet int

const (
	TraditionalValue RuleSet = iota
	QualityMetrics
	GrowthAtReasonablePrice
	GrahamStyle
	Profitability
	TechnicalFactors
)

// Count is the number of rule-sets.
const Count = 6

// All lists the rule-sets in declaration order.
var All = [Count]RuleSet{
	TraditionalValue,
	QualityMetrics,
	GrowthAtReasonablePrice,
	GrahamStyle,
	Profitability,
	TechnicalFactors,
}

var names = [Count]string{
	"Traditional Value",
	"Quality Metrics",
	"Growth at Reasonable Price",
	"Graham Style",
	"Profitability",
	"Technical Factors",
}

func (r RuleSet) String() string {
	if r < 0 || int(r) >= Count {
		return fmt.Sprintf("RuleSet(%d)", int(r))
	}
	return names[r]
}

// MarshalText renders the display name, so JSON output carries names.
func (r RuleSet) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Parse resolves a display name, case-insensitively.
func Parse(name string) (RuleSet, error) {
	for i, n := range names {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return RuleSet(i), nil
		}
	}
	return 0, fmt.Errorf("unknown rule-set %q", name)
}

// Op is a strict comparison.
type Op int

const (
	Less Op = iota
	Greater
)

func (o Op) String() string {
	if o == Less {
		return "<"
	}
	return ">"
}

func (o Op) holds(left, right float64) bool {
	if o == Less {
		return left < right
	}
	return left > right
}

// Condition is one comparison of a metric against a threshold or another
// metric.
type Condition struct {
	Metric    string // metric label, e.g. "pe_ratio"
	Op        Op
	Threshold string // threshold key, empty when Against is set
	Against   string // metric label of the right-hand side, if not a threshold

	left  func(metrics.Metrics) float64
	right func(metrics.Metrics, thresholds.Thresholds) float64
}

// Holds evaluates the condition.
func (c Condition) Holds(m metrics.Metrics, t thresholds.Thresholds) bool {
	return c.Op.holds(c.left(m), c.right(m, t))
}

// Values returns both sides of the comparison.
func (c Condition) Values(m metrics.Metrics, t thresholds.Thresholds) (left, right float64) {
	return c.left(m), c.right(m, t)
}

func (c Condition) String() string {
	rhs := c.Threshold
	if c.Against != "" {
		rhs = c.Against
	}
	return c.Metric + " " + c.Op.String() + " " + rhs
}

func vsThreshold(metric string, get func(metrics.Metrics) float64, op Op, key string) Condition {
	return Condition{
		Metric:    metric,
		Op:        op,
		Threshold: key,
		left:      get,
		right:     func(_ metrics.Metrics, t thresholds.Thresholds) float64 { return t.Must(key) },
	}
}

func vsMetric(metric string, get func(metrics.Metrics) float64, op Op, other string, getOther func(metrics.Metrics) float64) Condition {
	return Condition{
		Metric:  metric,
		Op:      op,
		Against: other,
		left:    get,
		right:   func(m metrics.Metrics, _ thresholds.Thresholds) float64 { return getOther(m) },
	}
}

var conditions = [Count][]Condition{
	TraditionalValue: {
		vsThreshold("pe_ratio", func(m metrics.Metrics) float64 { return m.PE }, Less, thresholds.MaxPE),
		vsThreshold("pb_ratio", func(m metrics.Metrics) float64 { return m.PB }, Less, thresholds.MaxPB),
		vsThreshold("profit_margin", func(m metrics.Metrics) float64 { return m.ProfitMargin }, Greater, thresholds.MinProfitMargin),
	},
	QualityMetrics: {
		vsThreshold("current_ratio", func(m metrics.Metrics) float64 { return m.CurrentRatio }, Greater, thresholds.MinCurrentRatio),
		vsThreshold("debt_to_equity", func(m metrics.Metrics) float64 { return m.DebtToEquity }, Less, thresholds.MaxDebtEquity),
		vsThreshold("operating_margin", func(m metrics.Metrics) float64 { return m.OperatingMarginPct }, Greater, thresholds.MinOperatingMargin),
	},
	GrowthAtReasonablePrice: {
		vsThreshold("peg_ratio", func(m metrics.Metrics) float64 { return m.PEGRatio }, Less, thresholds.MaxPEG),
		vsThreshold("earnings_growth", func(m metrics.Metrics) float64 { return m.EarningsGrowthPct }, Greater, thresholds.MinEarningsGrowth),
	},
	GrahamStyle: {
		vsMetric("graham_number", func(m metrics.Metrics) float64 { return m.GrahamNumber }, Greater,
			"current_price", func(m metrics.Metrics) float64 { return m.CurrentPrice }),
		vsThreshold("dividend_yield", func(m metrics.Metrics) float64 { return m.DividendYieldPct }, Greater, thresholds.MinDivYield),
	},
	Profitability: {
		vsThreshold("roa", func(m metrics.Metrics) float64 { return m.ROAPct }, Greater, thresholds.MinROA),
		vsThreshold("roe", func(m metrics.Metrics) float64 { return m.ROEPct }, Greater, thresholds.MinROE),
	},
	TechnicalFactors: {
		vsThreshold("distance_from_high_pct", func(m metrics.Metrics) float64 { return m.DistanceFromHighPct }, Greater, thresholds.MinDistanceFromHigh),
		vsThreshold("price_to_ma200_pct", func(m metrics.Metrics) float64 { return m.PriceToMA200Pct }, Less, thresholds.MaxPriceToMA200),
	},
}

// Conditions returns the ordered conditions of r.
func (r RuleSet) Conditions() []Condition {
	if r < 0 || int(r) >= Count {
		return nil
	}
	return append([]Condition(nil), conditions[r]...)
}

// Holds reports whether every condition of r is met.
func (r RuleSet) Holds(m metrics.Metrics, t thresholds.Thresholds) bool {
	for _, c := range conditions[r] {
		if !c.Holds(m, t) {
			return false
		}
	}
	return true
}

// Result holds one boolean per rule-set, indexed by RuleSet.
type Result [Count]bool

// Evaluate tests every rule-set. It is pure.
func Evaluate(m metrics.Metrics, t thresholds.Thresholds) Result {
	var res Result
	for _, r := range All {
		res[r] = r.Holds(m, t)
	}
	return res
}

// Met reports whether r was satisfied.
func (res Result) Met(r RuleSet) bool { return res[r] }

// Count returns how many rule-sets were satisfied.
func (res Result) Count() int {
	n := 0
	for _, ok := range res {
		if ok {
			n++
		}
	}
	return n
}

// Satisfied lists the satisfied rule-sets in declaration order.
func (res Result) Satisfied() []RuleSet {
	out := make([]RuleSet, 0, Count)
	for _, r := range All {
		if res[r] {
			out = append(out, r)
		}
	}
	return out
}

// Map returns the result keyed by display name; always six entries.
func (res Result) Map() map[string]bool {
	m := make(map[string]bool, Count)
	for _, r := range All {
		m[r.String()] = res[r]
	}
	return m
}

// Names converts rule-sets to display names.
func Names(rs []RuleSet) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.String()
	}
	return out
}

// Names returns the display names of the satisfied rule-sets.
func (res Result) Names() []string { return Names(res.Satisfied()) }
