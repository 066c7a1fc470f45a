package report

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komsit37/vscreen/pkg/vscreen/metrics"
	"github.com/komsit37/vscreen/pkg/vscreen/rules"
	"github.com/komsit37/vscreen/pkg/vscreen/screener"
	"github.com/komsit37/vscreen/pkg/vscreen/thresholds"
)

func sampleResult(n int) screener.Result {
	res := screener.Result{
		Thresholds:   thresholds.Defaults(),
		MinCriteria:  3,
		MinMarketCap: 1e9,
	}
	for i := 0; i < n; i++ {
		var rr rules.Result
		rr[rules.TraditionalValue] = true
		rr[rules.GrahamStyle] = true
		rr[rules.Profitability] = true
		res.Records = append(res.Records, screener.Record{
			Ticker:      string(rune('A' + i)),
			Company:     "Company " + string(rune('A'+i)),
			Industry:    "Beverages",
			MarketCap:   float64(100-i) * 1e9,
			MarketCapB:  float64(100 - i),
			CriteriaMet: 3,
			Satisfied:   rr.Satisfied(),
			Rules:       rr,
			Metrics: metrics.Metrics{
				PE:                  12.5,
				EarningsGrowthPct:   4,
				DividendYieldPct:    3.1,
				ROEPct:              40,
				EVToEBITDA:          14.2,
				PEGRatio:            3.13,
				DistanceFromHighPct: 8.5,
				HasMA200:            true,
				PriceToMA200Pct:     -4.26,
				OperatingMarginPct:  29,
				CurrentRatio:        1.1,
				DebtToEquity:        160,
			},
		})
	}
	res.Stats = screener.Stats{Requested: n + 2, Evaluated: n + 1, Qualified: n, Failed: 1}
	return res
}

func TestBuild(t *testing.T) {
	recs := Build(sampleResult(7), 0)
	require.Len(t, recs, DefaultTop)

	r := recs[0]
	assert.Equal(t, "A", r.Ticker)
	assert.Equal(t, "Company A shows strong value characteristics across 3 major criteria: Traditional Value, Graham Style, Profitability.", r.Thesis)
	assert.Equal(t, []string{"Low P/E ratio of 12.50", "Healthy dividend yield of 3.10%", "Superior ROE of 40.00%"}, r.Strengths)
	assert.Contains(t, r.Valuation, "Price is 4.3% below 200-day moving average")
	assert.Contains(t, r.Risks, "Market cap size: $100.00B")
	assert.Contains(t, r.Verdict, "margin of safety")

	assert.Len(t, Build(sampleResult(2), 10), 2)
}

func TestBuild_StrengthsFollowThresholds(t *testing.T) {
	res := sampleResult(1)
	var err error
	res.Thresholds, err = res.Thresholds.With(map[string]float64{thresholds.MaxPE: 10, thresholds.MinEarningsGrowth: 2})
	require.NoError(t, err)

	r := Build(res, 1)[0]
	assert.NotContains(t, r.Strengths, "Low P/E ratio of 12.50")
	assert.Contains(t, r.Strengths, "Strong earnings growth of 4.00%")
}

func TestBuild_ShortHistory(t *testing.T) {
	res := sampleResult(1)
	res.Records[0].Metrics.HasMA200 = false
	res.Records[0].CriteriaMet = 1
	r := Build(res, 1)[0]
	assert.Contains(t, r.Valuation, "Not enough history for a 200-day moving average")
	assert.Contains(t, r.Risks, "Technical momentum: unknown")
	assert.Equal(t, Build(sampleResult(1), 1)[0].Verdict, r.Verdict, "verdict does not depend on criteria met")
}

func TestWriteMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMarkdown(context.Background(), &buf, sampleResult(6), Options{Top: 2}))
	out := buf.String()

	assert.Contains(t, out, "# "+Title)
	assert.Contains(t, out, "| Ticker | Company |")
	assert.Contains(t, out, "| A | Company A | 100.00 | 3 |")
	assert.Contains(t, out, "### A - Company A")
	assert.Contains(t, out, "### B - Company B")
	assert.NotContains(t, out, "### C - Company C")
	assert.Contains(t, out, "Skipped: 1 failed.")
}

func TestWriteMarkdown_Empty(t *testing.T) {
	var buf bytes.Buffer
	res := sampleResult(0)
	res.Stats = screener.Stats{Requested: 3, Evaluated: 3}
	require.NoError(t, WriteMarkdown(context.Background(), &buf, res, Options{}))
	assert.Contains(t, buf.String(), EmptyMessage)
	assert.NotContains(t, buf.String(), "Detailed Analysis")
}

func TestSummary_AllFailed(t *testing.T) {
	res := screener.Result{Stats: screener.Stats{Requested: 2, Failed: 2}}
	assert.Equal(t, "No tickers could be evaluated: all 2 data fetches failed.", Summary(res))

	res = screener.Result{Stats: screener.Stats{Requested: 3, Failed: 1, EmptyHistory: 2}}
	assert.Equal(t, "No tickers could be evaluated: all 3 data fetches failed.", Summary(res))
}
