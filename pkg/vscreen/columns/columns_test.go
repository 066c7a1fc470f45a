package columns

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komsit37/vscreen/pkg/vscreen/metrics"
	"github.com/komsit37/vscreen/pkg/vscreen/quotes"
	"github.com/komsit37/vscreen/pkg/vscreen/rules"
	"github.com/komsit37/vscreen/pkg/vscreen/screener"
	"github.com/komsit37/vscreen/pkg/vscreen/types"
)

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		v    float64
		want string
	}{
		{0, "0.00"},
		{12.346, "12.35"},
		{-1234.5, "-1,234.50"},
		{1234567.891, "1,234,567.89"},
		{math.Inf(1), "inf"},
		{math.Inf(-1), "-inf"},
		{math.NaN(), ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatFloat(tt.v, 2))
	}
	assert.Equal(t, "100", FormatFloat(100, 0))
}

func TestCompute(t *testing.T) {
	cols, err := Compute(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, Default, cols)

	cols, err = Compute(nil, []string{"ticker", "pe"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ticker", "pe"}, cols)

	cols, err = Compute([]string{"Ticker", "roe%", "ticker", " "}, []string{"pe"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ticker", "roe%"}, cols)

	_, err = Compute([]string{"nope"}, nil)
	var uce *UnknownColumnError
	require.True(t, errors.As(err, &uce))
	assert.Equal(t, "nope", uce.Name)
}

func TestExpandSets(t *testing.T) {
	cols, err := ExpandSets([]string{"id", "valuation", "id"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ticker", "company", "industry", "mcap_b", "criteria", "pe", "pb", "ev_ebitda", "peg", "graham"}, cols)

	_, err = ExpandSets([]string{"nope"})
	var use *UnknownSetError
	require.True(t, errors.As(err, &use))
	assert.Contains(t, use.Available, "technical")

	for name, cols := range Sets {
		for _, c := range cols {
			_, ok := Registry[c]
			assert.True(t, ok, "set %s references unknown column %s", name, c)
		}
	}
}

func TestRenderValue(t *testing.T) {
	rec := screener.Record{
		Ticker:      "KO",
		Company:     "Coca-Cola",
		MarketCapB:  260.5,
		CriteriaMet: 3,
		Satisfied:   []rules.RuleSet{rules.TraditionalValue, rules.Profitability},
		Metrics: metrics.Metrics{
			PE:         math.Inf(1),
			ROEPct:     40.123,
			HasMA200:   false,
			PEGRatio:   2,
			EVToEBITDA: 20,
		},
	}
	ctx := context.Background()
	svc := Services{Quotes: quotes.Static{"KO": types.Quote{Price: "61.20", ChgFmt: "0.45%"}}}

	want := map[string]string{
		"ticker":    "KO",
		"company":   "Coca-Cola",
		"mcap_b":    "260.50",
		"criteria":  "3",
		"pe":        "inf",
		"roe%":      "40.12",
		"vs_ma200%": "",
		"rules":     "Traditional Value, Profitability",
		"last":      "61.20",
		"chg%":      "0.45%",
		"unknown":   "",
	}
	for col, w := range want {
		got, err := RenderValue(ctx, col, rec, svc)
		require.NoError(t, err)
		assert.Equal(t, w, got, col)
	}

	got, err := RenderValue(ctx, "last", rec, Services{})
	require.NoError(t, err)
	assert.Empty(t, got)
}
