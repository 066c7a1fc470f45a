// Package columns maps column keys to the values shown for a screening record.
package columns

import (
	"context"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/komsit37/vscreen/pkg/vscreen/quotes"
	"github.com/komsit37/vscreen/pkg/vscreen/rules"
	"github.com/komsit37/vscreen/pkg/vscreen/screener"
)

// Services provides access to external services for resolvers.
type Services struct {
	Quotes quotes.QuoteService // may be nil
}

// Resolver converts a record into a display string for a given column.
type Resolver func(ctx context.Context, rec screener.Record, s Services) (string, error)

// Def describes a column.
type Def struct {
	Key     string
	Header  string
	Numeric bool // right aligned
	Resolve Resolver
}

// Registry maps column keys to definitions.
var Registry = map[string]Def{}

// Default is the full result table, in display order.
var Default = []string{
	"ticker", "company", "mcap_b", "criteria",
	"pe", "pb", "ev_ebitda", "peg",
	"growth%", "div%",
	"opm%", "roe%", "roa%",
	"current_ratio", "de",
	"off_high%", "vs_ma200%",
	"graham", "price", "industry",
}

func register(key, header string, numeric bool, r Resolver) {
	Registry[key] = Def{Key: key, Header: header, Numeric: numeric, Resolve: r}
}

// metric registers a numeric column rendered with two decimals.
func metric(key, header string, get func(screener.Record) float64) {
	register(key, header, true, func(_ context.Context, rec screener.Record, _ Services) (string, error) {
		return FormatFloat(get(rec), 2), nil
	})
}

func init() {
	register("ticker", "Ticker", false, func(_ context.Context, rec screener.Record, _ Services) (string, error) {
		return rec.Ticker, nil
	})
	register("company", "Company", false, func(_ context.Context, rec screener.Record, _ Services) (string, error) {
		return rec.Company, nil
	})
	register("industry", "Industry", false, func(_ context.Context, rec screener.Record, _ Services) (string, error) {
		return rec.Industry, nil
	})
	register("criteria", "Criteria Met", true, func(_ context.Context, rec screener.Record, _ Services) (string, error) {
		return strconv.Itoa(rec.CriteriaMet), nil
	})
	register("rules", "Rule-sets", false, func(_ context.Context, rec screener.Record, _ Services) (string, error) {
		return strings.Join(rules.Names(rec.Satisfied), ", "), nil
	})
	register("ma200", "MA200", true, func(_ context.Context, rec screener.Record, _ Services) (string, error) {
		if !rec.Metrics.HasMA200 {
			return "", nil
		}
		return FormatFloat(rec.Metrics.MA200, 2), nil
	})
	register("vs_ma200%", "Price to 200MA (%)", true, func(_ context.Context, rec screener.Record, _ Services) (string, error) {
		if !rec.Metrics.HasMA200 {
			return "", nil
		}
		return FormatFloat(rec.Metrics.PriceToMA200Pct, 2), nil
	})

	metric("mcap_b", "Market Cap (B)", func(r screener.Record) float64 { return r.MarketCapB })
	metric("pe", "P/E Ratio", func(r screener.Record) float64 { return r.Metrics.PE })
	metric("pb", "P/B Ratio", func(r screener.Record) float64 { return r.Metrics.PB })
	metric("ev_ebitda", "EV/EBITDA", func(r screener.Record) float64 { return r.Metrics.EVToEBITDA })
	metric("peg", "PEG Ratio", func(r screener.Record) float64 { return r.Metrics.PEGRatio })
	metric("growth%", "Earnings Growth (%)", func(r screener.Record) float64 { return r.Metrics.EarningsGrowthPct })
	metric("div%", "Dividend Yield (%)", func(r screener.Record) float64 { return r.Metrics.DividendYieldPct })
	metric("margin%", "Profit Margin (%)", func(r screener.Record) float64 { return r.Metrics.ProfitMargin * 100 })
	metric("opm%", "Operating Margin (%)", func(r screener.Record) float64 { return r.Metrics.OperatingMarginPct })
	metric("roe%", "ROE (%)", func(r screener.Record) float64 { return r.Metrics.ROEPct })
	metric("roa%", "ROA (%)", func(r screener.Record) float64 { return r.Metrics.ROAPct })
	metric("current_ratio", "Current Ratio", func(r screener.Record) float64 { return r.Metrics.CurrentRatio })
	metric("de", "Debt/Equity", func(r screener.Record) float64 { return r.Metrics.DebtToEquity })
	metric("off_high%", "Distance from 52w High (%)", func(r screener.Record) float64 { return r.Metrics.DistanceFromHighPct })
	metric("high52", "52w High", func(r screener.Record) float64 { return r.Metrics.FiftyTwoWeekHigh })
	metric("low52", "52w Low", func(r screener.Record) float64 { return r.Metrics.FiftyTwoWeekLow })
	metric("graham", "Graham Number", func(r screener.Record) float64 { return r.Metrics.GrahamNumber })
	metric("price", "Current Price", func(r screener.Record) float64 { return r.Metrics.CurrentPrice })

	// Live quote columns; empty when no quote service is wired or it fails.
	register("last", "Last", true, func(ctx context.Context, rec screener.Record, s Services) (string, error) {
		if s.Quotes == nil {
			return "", nil
		}
		q, err := s.Quotes.Get(ctx, rec.Ticker)
		if err != nil {
			return "", nil
		}
		return q.Price, nil
	})
	register("chg%", "Chg%", true, func(ctx context.Context, rec screener.Record, s Services) (string, error) {
		if s.Quotes == nil {
			return "", nil
		}
		q, err := s.Quotes.Get(ctx, rec.Ticker)
		if err != nil {
			return "", nil
		}
		return q.ChgFmt, nil
	})
}

// UnknownColumnError reports an unknown column key.
type UnknownColumnError struct {
	Name      string
	Available []string
}

func (e *UnknownColumnError) Error() string {
	return "unknown column: " + e.Name + "; available: " + strings.Join(e.Available, ", ")
}

// Keys lists every registered column, sorted.
func Keys() []string {
	out := make([]string, 0, len(Registry))
	for k := range Registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Compute determines the final column order. Explicit columns win over the
// universe file's, which win over Default. Duplicates keep their first
// position and unknown keys are an error.
func Compute(explicit, fromFile []string) ([]string, error) {
	cols := explicit
	if len(cols) == 0 {
		cols = fromFile
	}
	if len(cols) == 0 {
		cols = Default
	}
	seen := map[string]struct{}{}
	out := make([]string, 0, len(cols))
	for _, k := range cols {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		if _, ok := Registry[k]; !ok {
			return nil, &UnknownColumnError{Name: k, Available: Keys()}
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out, nil
}

// Header returns the display header for col.
func Header(col string) string {
	if d, ok := Registry[col]; ok {
		return d.Header
	}
	return strings.ToUpper(col)
}

// RenderValue calls the resolver for the given column.
func RenderValue(ctx context.Context, col string, rec screener.Record, s Services) (string, error) {
	if d, ok := Registry[col]; ok {
		return d.Resolve(ctx, rec, s)
	}
	return "", nil
}

// FormatFloat formats v with decimals and comma thousand separators.
// Infinities render as "inf" and "-inf".
func FormatFloat(v float64, decimals int) string {
	switch {
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	case math.IsNaN(v):
		return ""
	}
	s := strconv.FormatFloat(v, 'f', decimals, 64)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac := s, ""
	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		intPart, frac = s[:dot], s[dot:]
	}
	if len(intPart) <= 3 {
		return sign + intPart + frac
	}
	var b strings.Builder
	head := len(intPart) % 3
	if head == 0 {
		head = 3
	}
	b.WriteString(intPart[:head])
	for i := head; i < len(intPart); i += 3 {
		b.WriteByte(',')
		b.WriteString(intPart[i : i+3])
	}
	return sign + b.String() + frac
}
