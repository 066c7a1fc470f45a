package screener

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komsit37/vscreen/pkg/vscreen/provider"
	"github.com/komsit37/vscreen/pkg/vscreen/rules"
	"github.com/komsit37/vscreen/pkg/vscreen/thresholds"
	"github.com/komsit37/vscreen/pkg/vscreen/types"
)

type fakeTicker struct {
	funds      types.RawFundamentals
	history    types.PriceSeries
	fundsErr   error
	historyErr error
	hang       bool
}

type fakeProvider map[string]fakeTicker

func (p fakeProvider) FetchFundamentals(ctx context.Context, ticker string) (types.RawFundamentals, error) {
	ft, ok := p[ticker]
	if !ok {
		return types.RawFundamentals{}, provider.ErrNotFound
	}
	if ft.hang {
		<-ctx.Done()
		return types.RawFundamentals{}, ctx.Err()
	}
	return ft.funds, ft.fundsErr
}

func (p fakeProvider) FetchPriceHistory(_ context.Context, ticker string, _ int) (types.PriceSeries, error) {
	ft := p[ticker]
	return ft.history, ft.historyErr
}

func flatHistory(n int, price float64) types.PriceSeries {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make(types.PriceSeries, n)
	for i := range out {
		out[i] = types.PriceBar{Date: start.AddDate(0, 0, i), High: price + 1, Low: price - 1, Close: price}
	}
	return out
}

// traditionalOnly meets Traditional Value and nothing else.
func traditionalOnly(marketCap float64) fakeTicker {
	return fakeTicker{
		funds: types.RawFundamentals{
			CompanyName:  "Trad Co",
			MarketCap:    types.Float(marketCap),
			ForwardPE:    types.Float(10),
			PriceToBook:  types.Float(1.5),
			ProfitMargin: types.Float(0.2),
		},
		history: flatHistory(250, 100),
	}
}

// threeSets meets Traditional Value, Quality Metrics and Profitability.
func threeSets(marketCap float64) fakeTicker {
	ft := traditionalOnly(marketCap)
	ft.funds.CompanyName = "Three Co"
	ft.funds.Industry = "Widgets"
	ft.funds.CurrentRatio = types.Float(2)
	ft.funds.DebtToEquity = types.Float(50)
	ft.funds.OperatingMargin = types.Float(0.2)
	ft.funds.ReturnOnAssets = types.Float(0.12)
	ft.funds.ReturnOnEquity = types.Float(0.2)
	return ft
}

func newScreener(p provider.Provider) *Screener {
	return New(p, zerolog.Nop())
}

func optsWith(minCriteria int) Options {
	o := DefaultOptions()
	o.MinCriteria = minCriteria
	return o
}

func TestRun_TraditionalValueOnly(t *testing.T) {
	s := newScreener(fakeProvider{"TRAD": traditionalOnly(5e9)})

	res := s.Run(context.Background(), []string{"TRAD"}, optsWith(3))
	assert.Empty(t, res.Records)
	assert.Equal(t, 1, res.Stats.Evaluated)
	assert.False(t, res.AllFailed())

	res = s.Run(context.Background(), []string{"TRAD"}, optsWith(1))
	require.Len(t, res.Records, 1)
	rec := res.Records[0]
	assert.Equal(t, 1, rec.CriteriaMet)
	assert.Equal(t, []rules.RuleSet{rules.TraditionalValue}, rec.Satisfied)
	assert.Equal(t, 5.0, rec.MarketCapB)
}

func TestRun_EmptyHistoryIsExcluded(t *testing.T) {
	ft := threeSets(5e9)
	ft.history = nil
	s := newScreener(fakeProvider{"EMPTY": ft})

	res := s.Run(context.Background(), []string{"EMPTY"}, optsWith(1))
	assert.Empty(t, res.Records)
	assert.Equal(t, 1, res.Stats.EmptyHistory)
	assert.Equal(t, 0, res.Stats.Failed)
}

func TestRun_ThreeSetsWithDefaultThreshold(t *testing.T) {
	s := newScreener(fakeProvider{"THREE": threeSets(5e9)})

	res := s.Run(context.Background(), []string{"THREE"}, DefaultOptions())
	require.Len(t, res.Records, 1)
	rec := res.Records[0]
	assert.Equal(t, 3, rec.CriteriaMet)
	assert.Equal(t, []string{"Traditional Value", "Quality Metrics", "Profitability"}, rules.Names(rec.Satisfied))
	assert.Equal(t, "Three Co", rec.Company)
	assert.Equal(t, "Widgets", rec.Industry)
}

func TestRun_OverrideDropsTicker(t *testing.T) {
	s := newScreener(fakeProvider{"THREE": threeSets(5e9)})

	opts := DefaultOptions()
	var err error
	opts.Thresholds, err = thresholds.Defaults().With(map[string]float64{thresholds.MaxPE: 5})
	require.NoError(t, err)

	res := s.Run(context.Background(), []string{"THREE"}, opts)
	assert.Empty(t, res.Records)

	opts.MinCriteria = 2
	res = s.Run(context.Background(), []string{"THREE"}, opts)
	require.Len(t, res.Records, 1)
	assert.Equal(t, 2, res.Records[0].CriteriaMet)
	assert.False(t, res.Records[0].Rules.Met(rules.TraditionalValue))
}

func TestRun_EqualCriteriaSortsByMarketCap(t *testing.T) {
	s := newScreener(fakeProvider{
		"SMALL": threeSets(10e9),
		"BIG":   threeSets(50e9),
	})

	res := s.Run(context.Background(), []string{"SMALL", "BIG"}, DefaultOptions())
	require.Len(t, res.Records, 2)
	assert.Equal(t, "BIG", res.Records[0].Ticker)
	assert.Equal(t, "SMALL", res.Records[1].Ticker)
}

func TestRun_MarketCapFloor(t *testing.T) {
	s := newScreener(fakeProvider{
		"TINY":  threeSets(5e8),
		"EXACT": threeSets(1e9),
		"NOCAP": {funds: types.RawFundamentals{ForwardPE: types.Float(1)}, history: flatHistory(10, 1)},
	})

	res := s.Run(context.Background(), []string{"TINY", "EXACT", "NOCAP"}, DefaultOptions())
	require.Len(t, res.Records, 1)
	assert.Equal(t, "EXACT", res.Records[0].Ticker)
	assert.Equal(t, 2, res.Stats.BelowMarketCap)
}

func TestRun_FailuresDoNotAbortBatch(t *testing.T) {
	hist := threeSets(5e9)
	hist.historyErr = errors.New("chart: 500")
	s := newScreener(fakeProvider{
		"GOOD":  threeSets(5e9),
		"FUNDS": {fundsErr: errors.New("parse error")},
		"HIST":  hist,
	})

	res := s.Run(context.Background(), []string{"FUNDS", "GOOD", "MISSING", "HIST"}, DefaultOptions())
	require.Len(t, res.Records, 1)
	assert.Equal(t, "GOOD", res.Records[0].Ticker)
	assert.Equal(t, 3, res.Stats.Failed)
	assert.Equal(t, 4, res.Stats.Requested)
	assert.False(t, res.AllFailed())
}

func TestRun_AllFailedIsDistinguishable(t *testing.T) {
	s := newScreener(fakeProvider{"FUNDS": {fundsErr: errors.New("down")}})

	res := s.Run(context.Background(), []string{"FUNDS", "MISSING"}, DefaultOptions())
	assert.Empty(t, res.Records)
	assert.True(t, res.AllFailed())

	res = s.Run(context.Background(), nil, DefaultOptions())
	assert.Empty(t, res.Records)
	assert.False(t, res.AllFailed())
}

func TestRun_AllEmptyHistoryCountsAsAllFailed(t *testing.T) {
	a, b := threeSets(5e9), threeSets(8e9)
	a.history, b.history = nil, nil
	s := newScreener(fakeProvider{"A": a, "B": b, "C": threeSets(5e9)})

	res := s.Run(context.Background(), []string{"A", "B"}, DefaultOptions())
	assert.Empty(t, res.Records)
	assert.Equal(t, 0, res.Stats.Evaluated)
	assert.Equal(t, 2, res.Stats.EmptyHistory)
	assert.True(t, res.AllFailed())

	res = s.Run(context.Background(), []string{"A", "C"}, DefaultOptions())
	assert.Equal(t, 1, res.Stats.Evaluated)
	assert.False(t, res.AllFailed())
}

func TestRun_TickerTimeout(t *testing.T) {
	s := newScreener(fakeProvider{
		"SLOW": {hang: true},
		"GOOD": threeSets(5e9),
	})
	opts := DefaultOptions()
	opts.TickerTimeout = 20 * time.Millisecond

	start := time.Now()
	res := s.Run(context.Background(), []string{"SLOW", "GOOD"}, opts)
	assert.Less(t, time.Since(start), 5*time.Second)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "GOOD", res.Records[0].Ticker)
	assert.Equal(t, 1, res.Stats.Failed)
}

// universe builds tickers with varied criteria counts and market caps,
// including exact ties.
func universe() (fakeProvider, []string) {
	p := fakeProvider{}
	var tickers []string
	for i := 0; i < 24; i++ {
		var ft fakeTicker
		if i%2 == 0 {
			ft = threeSets(float64(1+i%4) * 1e10)
		} else {
			ft = traditionalOnly(float64(1+i%3) * 1e10)
		}
		if i%5 == 0 {
			ft.funds.DividendYield = types.Float(0.04)
			ft.funds.TrailingEPS = types.Float(20)
			ft.funds.BookValuePerShare = types.Float(50)
		}
		name := fmt.Sprintf("T%02d", i)
		p[name] = ft
		tickers = append(tickers, name)
	}
	return p, tickers
}

func TestRun_Idempotent(t *testing.T) {
	p, tickers := universe()
	s := newScreener(p)
	opts := optsWith(1)

	first := s.Run(context.Background(), tickers, opts)
	for i := 0; i < 5; i++ {
		again := s.Run(context.Background(), tickers, opts)
		assert.Equal(t, first, again)
	}
}

func TestRun_MonotoneInMinCriteria(t *testing.T) {
	p, tickers := universe()
	s := newScreener(p)

	prev := map[string]bool{}
	for _, rec := range s.Run(context.Background(), tickers, optsWith(0)).Records {
		prev[rec.Ticker] = true
	}
	assert.Len(t, prev, len(tickers))

	for k := 1; k <= 7; k++ {
		cur := map[string]bool{}
		for _, rec := range s.Run(context.Background(), tickers, optsWith(k)).Records {
			assert.True(t, prev[rec.Ticker], "k=%d added %s", k, rec.Ticker)
			assert.GreaterOrEqual(t, rec.CriteriaMet, k)
			cur[rec.Ticker] = true
		}
		prev = cur
	}
	assert.Empty(t, prev)
}

func TestRun_SortProperty(t *testing.T) {
	p, tickers := universe()
	res := newScreener(p).Run(context.Background(), tickers, optsWith(1))
	require.NotEmpty(t, res.Records)

	for i := 1; i < len(res.Records); i++ {
		a, b := res.Records[i-1], res.Records[i]
		ok := a.CriteriaMet > b.CriteriaMet ||
			(a.CriteriaMet == b.CriteriaMet && a.MarketCap >= b.MarketCap)
		assert.True(t, ok, "%s before %s", a.Ticker, b.Ticker)
		if a.CriteriaMet == b.CriteriaMet && a.MarketCap == b.MarketCap {
			assert.Less(t, a.index, b.index, "ties keep input order")
		}
	}
}

func TestResult_Top(t *testing.T) {
	res := Result{Records: make([]Record, 7)}
	assert.Len(t, res.Top(5), 5)
	assert.Len(t, res.Top(0), 7)
	assert.Len(t, res.Top(10), 7)
}
