// Package report turns a screening result into a written analysis of the top
// picks.
package report

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/komsit37/vscreen/pkg/vscreen/columns"
	"github.com/komsit37/vscreen/pkg/vscreen/rules"
	"github.com/komsit37/vscreen/pkg/vscreen/screener"
	"github.com/komsit37/vscreen/pkg/vscreen/thresholds"
)

// DefaultTop is how many records get a detailed analysis.
const DefaultTop = 5

// EmptyMessage is printed when nothing qualified.
const EmptyMessage = "No stocks meeting the undervalued criteria were found."

// Title heads every report.
const Title = "Potentially Undervalued Stocks"

// SummaryColumns is the table shown at the top of a report.
var SummaryColumns = []string{"ticker", "company", "mcap_b", "criteria", "pe", "pb", "peg", "div%", "roe%", "off_high%"}

// Recommendation is the written analysis of one record.
type Recommendation struct {
	Ticker      string   `json:"ticker"`
	Company     string   `json:"company"`
	CriteriaMet int      `json:"criteria_met"`
	Satisfied   []string `json:"satisfied"`
	Thesis      string   `json:"thesis"`
	Strengths   []string `json:"strengths"`
	Valuation   []string `json:"valuation"`
	Health      []string `json:"health"`
	Risks       []string `json:"risks"`
	Verdict     string   `json:"recommendation"`
}

// Build writes a Recommendation for each of the first top records; top <= 0
// means DefaultTop. Strengths are judged against the thresholds the run used.
func Build(res screener.Result, top int) []Recommendation {
	if top <= 0 {
		top = DefaultTop
	}
	recs := res.Top(top)
	out := make([]Recommendation, 0, len(recs))
	for _, rec := range recs {
		out = append(out, recommend(rec, res.Thresholds))
	}
	return out
}

func recommend(rec screener.Record, t thresholds.Thresholds) Recommendation {
	m := rec.Metrics
	names := rules.Names(rec.Satisfied)
	r := Recommendation{
		Ticker:      rec.Ticker,
		Company:     rec.Company,
		CriteriaMet: rec.CriteriaMet,
		Satisfied:   names,
		Thesis: fmt.Sprintf("%s shows strong value characteristics across %d major %s: %s.",
			rec.Company, len(names), plural(len(names), "criterion", "criteria"), strings.Join(names, ", ")),
	}

	if m.PE < t.Must(thresholds.MaxPE) {
		r.Strengths = append(r.Strengths, "Low P/E ratio of "+num(m.PE))
	}
	if m.EarningsGrowthPct > t.Must(thresholds.MinEarningsGrowth) {
		r.Strengths = append(r.Strengths, "Strong earnings growth of "+num(m.EarningsGrowthPct)+"%")
	}
	if m.DividendYieldPct > t.Must(thresholds.MinDivYield) {
		r.Strengths = append(r.Strengths, "Healthy dividend yield of "+num(m.DividendYieldPct)+"%")
	}
	if m.ROEPct > t.Must(thresholds.MinROE) {
		r.Strengths = append(r.Strengths, "Superior ROE of "+num(m.ROEPct)+"%")
	}

	r.Valuation = []string{
		"EV/EBITDA: " + num(m.EVToEBITDA),
		"PEG Ratio: " + num(m.PEGRatio),
		"Trading at " + num(m.DistanceFromHighPct) + "% below 52-week high",
		maTrend(rec),
	}
	r.Health = []string{
		"Operating Margin: " + num(m.OperatingMarginPct) + "%",
		"Current Ratio: " + num(m.CurrentRatio),
		"Debt/Equity: " + num(m.DebtToEquity),
	}
	r.Risks = []string{
		"Industry cyclicality: " + rec.Industry,
		"Market cap size: $" + num(rec.MarketCapB) + "B",
		"Technical momentum: " + momentum(rec),
	}

	r.Verdict = "Consider for value investment portfolio with appropriate position sizing. " +
		"The stock meets multiple value criteria suggesting a potential margin of safety."
	return r
}

func maTrend(rec screener.Record) string {
	if !rec.Metrics.HasMA200 {
		return "Not enough history for a 200-day moving average"
	}
	pct := rec.Metrics.PriceToMA200Pct
	dir := "above"
	if pct < 0 {
		dir = "below"
	}
	return fmt.Sprintf("Price is %.1f%% %s 200-day moving average", math.Abs(pct), dir)
}

func momentum(rec screener.Record) string {
	switch {
	case !rec.Metrics.HasMA200:
		return "unknown"
	case rec.Rules.Met(rules.TechnicalFactors):
		return "weak, price well below trend and off its high"
	case rec.Metrics.PriceToMA200Pct < 0:
		return "below trend"
	default:
		return "above trend"
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func num(v float64) string { return columns.FormatFloat(v, 2) }

// Options controls WriteMarkdown.
type Options struct {
	Top      int
	Columns  []string // summary table; nil means SummaryColumns
	Services columns.Services
}

// WriteMarkdown writes the full report: a run summary, the ranked table and
// the detailed analysis of the top records.
func WriteMarkdown(ctx context.Context, w io.Writer, res screener.Result, opts Options) error {
	b := &strings.Builder{}
	fmt.Fprintf(b, "# %s\n\n", Title)
	fmt.Fprintf(b, "%s\n\n", Summary(res))
	if len(res.Records) == 0 {
		fmt.Fprintf(b, "%s\n", EmptyMessage)
		_, err := io.WriteString(w, b.String())
		return err
	}

	cols := opts.Columns
	if len(cols) == 0 {
		cols = SummaryColumns
	}
	headers := make([]string, len(cols))
	align := make([]string, len(cols))
	for i, c := range cols {
		headers[i] = columns.Header(c)
		align[i] = "---"
		if columns.Registry[c].Numeric {
			align[i] = "--:"
		}
	}
	fmt.Fprintf(b, "| %s |\n", strings.Join(headers, " | "))
	fmt.Fprintf(b, "|%s|\n", strings.Join(align, "|"))
	for _, rec := range res.Records {
		cells := make([]string, len(cols))
		for i, c := range cols {
			v, err := columns.RenderValue(ctx, c, rec, opts.Services)
			if err != nil {
				return err
			}
			cells[i] = strings.ReplaceAll(v, "|", `\|`)
		}
		fmt.Fprintf(b, "| %s |\n", strings.Join(cells, " | "))
	}

	b.WriteString("\n## Detailed Analysis of Top Picks\n")
	for _, r := range Build(res, opts.Top) {
		fmt.Fprintf(b, "\n### %s - %s\n\n", r.Ticker, r.Company)
		fmt.Fprintf(b, "**Investment Thesis**\n\n%s\n\n", r.Thesis)
		section(b, "Key Strengths", r.Strengths, "No single metric stands out beyond the rule-sets met")
		section(b, "Valuation Metrics", r.Valuation, "")
		section(b, "Financial Health", r.Health, "")
		section(b, "Risk Factors", r.Risks, "")
		fmt.Fprintf(b, "**Recommendation**\n\n%s\n", r.Verdict)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func section(b *strings.Builder, title string, lines []string, empty string) {
	fmt.Fprintf(b, "**%s**\n\n", title)
	if len(lines) == 0 {
		lines = []string{empty}
	}
	for _, l := range lines {
		fmt.Fprintf(b, "- %s\n", l)
	}
	b.WriteString("\n")
}

// Summary is a one-line account of the run.
func Summary(res screener.Result) string {
	s := res.Stats
	if res.AllFailed() {
		return fmt.Sprintf("No tickers could be evaluated: all %d data fetches failed.", s.Failed+s.EmptyHistory)
	}
	line := fmt.Sprintf("Screened %d %s: %d met at least %d of %d rule-sets (market cap at least $%sB).",
		s.Requested, plural(s.Requested, "ticker", "tickers"), s.Qualified, res.MinCriteria, rules.Count, num(res.MinMarketCap/1e9))
	var skipped []string
	if s.BelowMarketCap > 0 {
		skipped = append(skipped, fmt.Sprintf("%d below market cap", s.BelowMarketCap))
	}
	if s.EmptyHistory > 0 {
		skipped = append(skipped, fmt.Sprintf("%d without price history", s.EmptyHistory))
	}
	if s.Failed > 0 {
		skipped = append(skipped, fmt.Sprintf("%d failed", s.Failed))
	}
	if len(skipped) > 0 {
		line += " Skipped: " + strings.Join(skipped, ", ") + "."
	}
	return line
}
