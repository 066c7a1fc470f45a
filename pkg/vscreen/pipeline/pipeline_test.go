package pipeline

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komsit37/vscreen/pkg/vscreen/columns"
	"github.com/komsit37/vscreen/pkg/vscreen/filter"
	"github.com/komsit37/vscreen/pkg/vscreen/provider"
	"github.com/komsit37/vscreen/pkg/vscreen/render"
	"github.com/komsit37/vscreen/pkg/vscreen/screener"
	"github.com/komsit37/vscreen/pkg/vscreen/source"
	"github.com/komsit37/vscreen/pkg/vscreen/types"
)

type listSource []types.Universe

func (s listSource) Load(context.Context, any) ([]types.Universe, error) { return s, nil }

func snapshot() *provider.Snapshot {
	snap := provider.NewSnapshot(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	hist := types.PriceSeries{{Date: time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC), High: 60, Low: 50, Close: 55}}
	snap.Put("KO", provider.Entry{
		Fundamentals: types.RawFundamentals{
			CompanyName:     "Coca-Cola",
			MarketCap:       types.Float(260e9),
			ForwardPE:       types.Float(12),
			PriceToBook:     types.Float(1.8),
			ProfitMargin:    types.Float(0.22),
			ReturnOnAssets:  types.Float(0.11),
			ReturnOnEquity:  types.Float(0.4),
			CurrentRatio:    types.Float(1.6),
			DebtToEquity:    types.Float(90),
			OperatingMargin: types.Float(0.29),
		},
		History: hist,
	})
	snap.Put("TINY", provider.Entry{Fundamentals: types.RawFundamentals{MarketCap: types.Float(1e6)}, History: hist})
	return snap
}

func runner(src source.Source, r render.Renderer, out *bytes.Buffer) *Runner {
	return &Runner{
		Source:   src,
		Screener: screener.New(snapshot(), zerolog.Nop()),
		Renderer: r,
		Writer:   out,
		Log:      zerolog.Nop(),
	}
}

func TestExecute(t *testing.T) {
	src := listSource{
		{Name: "staples", Items: []types.Item{{Sym: "ko"}, {Sym: "TINY"}}},
		{Name: "dupes", Items: []types.Item{{Sym: "KO"}}},
	}
	var out bytes.Buffer
	res, err := runner(src, render.NewSymsRenderer(), &out).Execute(context.Background(), nil, ExecuteOptions{Screen: screener.DefaultOptions()})
	require.NoError(t, err)
	assert.Equal(t, "KO\n", out.String())
	assert.Equal(t, 2, res.Stats.Requested)
	assert.Equal(t, 1, res.Stats.BelowMarketCap)
}

func TestExecute_FilterAndColumns(t *testing.T) {
	src := listSource{
		{Name: "staples", Columns: []string{"ticker", "roe%"}, Items: []types.Item{{Sym: "KO"}}},
		{Name: "other", Items: []types.Item{{Sym: "NOPE"}}},
	}
	f, err := filter.Parse("staples")
	require.NoError(t, err)

	var out bytes.Buffer
	res, err := runner(src, render.NewTableRenderer(), &out).Execute(context.Background(), nil, ExecuteOptions{
		Filter: f,
		Screen: screener.DefaultOptions(),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Stats.Failed)
	assert.Contains(t, out.String(), "ROE (%)")
	assert.NotContains(t, out.String(), "P/E Ratio")

	out.Reset()
	_, err = runner(src, render.NewTableRenderer(), &out).Execute(context.Background(), nil, ExecuteOptions{
		Filter: f,
		Sets:   []string{"valuation"},
		Screen: screener.DefaultOptions(),
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "P/E Ratio")

	_, err = runner(src, render.NewTableRenderer(), &out).Execute(context.Background(), nil, ExecuteOptions{
		Columns: []string{"bogus"},
		Screen:  screener.DefaultOptions(),
	})
	var uce *columns.UnknownColumnError
	assert.True(t, errors.As(err, &uce))
}

func TestExecute_AllFailed(t *testing.T) {
	src := listSource{{Name: "x", Items: []types.Item{{Sym: "NOPE1"}, {Sym: "NOPE2"}}}}
	var out bytes.Buffer
	res, err := runner(src, render.NewTableRenderer(), &out).Execute(context.Background(), nil, ExecuteOptions{Screen: screener.DefaultOptions()})
	assert.ErrorIs(t, err, ErrAllFailed)
	assert.Equal(t, 2, res.Stats.Failed)
	assert.Contains(t, out.String(), "all 2 data fetches failed")
}

func TestExecute_NoTickers(t *testing.T) {
	var out bytes.Buffer
	_, err := runner(listSource{}, render.NewTableRenderer(), &out).Execute(context.Background(), nil, ExecuteOptions{})
	assert.ErrorIs(t, err, ErrNoTickers)
}
