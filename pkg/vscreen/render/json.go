package render

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"strconv"

	"github.com/komsit37/vscreen/pkg/vscreen/metrics"
	"github.com/komsit37/vscreen/pkg/vscreen/report"
	"github.com/komsit37/vscreen/pkg/vscreen/rules"
	"github.com/komsit37/vscreen/pkg/vscreen/screener"
)

// number encodes non-finite values, which JSON cannot carry, as null.
type number float64

func (n number) MarshalJSON() ([]byte, error) {
	f := float64(n)
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, f, 'f', -1, 64), nil
}

// jsonModel is the output shape for JSONRenderer.
type jsonModel struct {
	Summary         string                  `json:"summary"`
	Stats           screener.Stats          `json:"stats"`
	AllFailed       bool                    `json:"all_failed"`
	MinCriteria     int                     `json:"min_criteria"`
	MinMarketCap    number                  `json:"min_market_cap"`
	Thresholds      map[string]number       `json:"thresholds"`
	Records         []jsonRecord            `json:"records"`
	Recommendations []report.Recommendation `json:"recommendations"`
}

type jsonRecord struct {
	Ticker      string            `json:"ticker"`
	Company     string            `json:"company"`
	Industry    string            `json:"industry"`
	MarketCap   number            `json:"market_cap"`
	MarketCapB  number            `json:"market_cap_b"`
	CriteriaMet int               `json:"criteria_met"`
	Satisfied   []rules.RuleSet   `json:"satisfied"`
	Rules       map[string]bool   `json:"rules"`
	Metrics     map[string]number `json:"metrics"`
}

type JSONRenderer struct{}

func NewJSONRenderer() *JSONRenderer { return &JSONRenderer{} }

func (r *JSONRenderer) Render(_ context.Context, w io.Writer, res screener.Result, opts RenderOptions) error {
	out := jsonModel{
		Summary:         report.Summary(res),
		Stats:           res.Stats,
		AllFailed:       res.AllFailed(),
		MinCriteria:     res.MinCriteria,
		MinMarketCap:    number(res.MinMarketCap),
		Thresholds:      map[string]number{},
		Records:         make([]jsonRecord, 0, len(res.Records)),
		Recommendations: report.Build(res, opts.Top),
	}
	for k, v := range res.Thresholds.Map() {
		out.Thresholds[k] = number(v)
	}
	for _, rec := range res.Records {
		out.Records = append(out.Records, jsonRecord{
			Ticker:      rec.Ticker,
			Company:     rec.Company,
			Industry:    rec.Industry,
			MarketCap:   number(rec.MarketCap),
			MarketCapB:  number(rec.MarketCapB),
			CriteriaMet: rec.CriteriaMet,
			Satisfied:   rec.Satisfied,
			Rules:       rec.Rules.Map(),
			Metrics:     metricsJSON(rec.Metrics),
		})
	}
	enc := json.NewEncoder(w)
	if opts.PrettyJSON {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(out)
}

func metricsJSON(m metrics.Metrics) map[string]number {
	out := map[string]number{
		"pe_ratio":               number(m.PE),
		"pb_ratio":               number(m.PB),
		"profit_margin":          number(m.ProfitMargin),
		"current_ratio":          number(m.CurrentRatio),
		"debt_to_equity":         number(m.DebtToEquity),
		"operating_margin_pct":   number(m.OperatingMarginPct),
		"earnings_growth_pct":    number(m.EarningsGrowthPct),
		"dividend_yield_pct":     number(m.DividendYieldPct),
		"roa_pct":                number(m.ROAPct),
		"roe_pct":                number(m.ROEPct),
		"graham_number":          number(m.GrahamNumber),
		"peg_ratio":              number(m.PEGRatio),
		"ev_to_ebitda":           number(m.EVToEBITDA),
		"current_price":          number(m.CurrentPrice),
		"fifty_two_week_high":    number(m.FiftyTwoWeekHigh),
		"fifty_two_week_low":     number(m.FiftyTwoWeekLow),
		"distance_from_high_pct": number(m.DistanceFromHighPct),
		"price_to_ma200_pct":     number(m.PriceToMA200Pct), // 0 without an MA
	}
	if m.HasMA200 {
		out["ma200"] = number(m.MA200)
	}
	return out
}
