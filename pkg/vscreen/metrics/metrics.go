// Package metrics derives the valuation and technical figures the rules are
// evaluated against.
package metrics

import (
	"errors"
	"math"

	"github.com/markcheno/go-talib"
	"gonum.org/v1/gonum/floats"

	"github.com/komsit37/vscreen/pkg/vscreen/types"
)

// MAWindow is the moving average length used for the trend test.
const MAWindow = 200

// grahamMultiplier is 15 (max P/E) times 1.5 (max P/B).
const grahamMultiplier = 22.5

// ErrEmptyPriceSeries means the ticker has no bars and cannot be scored.
var ErrEmptyPriceSeries = errors.New("empty price series")

// Metrics holds the resolved fundamentals and everything derived from them
// and the price series. Percent fields are already scaled (12.3 == 12.3%).
type Metrics struct {
	PE                 float64 `json:"pe_ratio"`
	PB                 float64 `json:"pb_ratio"`
	ProfitMargin       float64 `json:"profit_margin"`
	CurrentRatio       float64 `json:"current_ratio"`
	DebtToEquity       float64 `json:"debt_to_equity"`
	OperatingMarginPct float64 `json:"operating_margin_pct"`
	EarningsGrowthPct  float64 `json:"earnings_growth_pct"`
	DividendYieldPct   float64 `json:"dividend_yield_pct"`
	ROAPct             float64 `json:"roa_pct"`
	ROEPct             float64 `json:"roe_pct"`

	GrahamNumber        float64 `json:"graham_number"`
	PEGRatio            float64 `json:"peg_ratio"`
	EVToEBITDA          float64 `json:"ev_to_ebitda"`
	CurrentPrice        float64 `json:"current_price"`
	FiftyTwoWeekHigh    float64 `json:"fifty_two_week_high"`
	FiftyTwoWeekLow     float64 `json:"fifty_two_week_low"`
	DistanceFromHighPct float64 `json:"distance_from_high_pct"`
	MA200               float64 `json:"ma200"`
	HasMA200            bool    `json:"has_ma200"`
	PriceToMA200Pct     float64 `json:"price_to_ma200_pct"`
}

// Derive computes Metrics for one ticker. The current price is taken from the
// last close so the technical figures agree with the moving average.
func Derive(f types.Fundamentals, s types.PriceSeries) (Metrics, error) {
	if len(s) == 0 {
		return Metrics{}, ErrEmptyPriceSeries
	}

	m := Metrics{
		PE:                 f.ForwardPE,
		PB:                 f.PriceToBook,
		ProfitMargin:       f.ProfitMargin,
		CurrentRatio:       f.CurrentRatio,
		DebtToEquity:       f.DebtToEquity,
		OperatingMarginPct: f.OperatingMarginPct,
		EarningsGrowthPct:  f.EarningsGrowthPct,
		DividendYieldPct:   f.DividendYieldPct,
		ROAPct:             f.ROAPct,
		ROEPct:             f.ROEPct,
		GrahamNumber:       GrahamNumber(f.TrailingEPS, f.BookValuePerShare),
		PEGRatio:           PEGRatio(f.ForwardPE, f.EarningsGrowthPct),
		EVToEBITDA:         EVToEBITDA(f.EnterpriseValue, f.EBITDA),
	}

	closes := s.Closes()
	m.CurrentPrice = closes[len(closes)-1]
	m.FiftyTwoWeekHigh = floats.Max(s.Highs())
	m.FiftyTwoWeekLow = floats.Min(s.Lows())
	m.DistanceFromHighPct = DistanceFromHigh(m.FiftyTwoWeekHigh, m.CurrentPrice)

	if ma, ok := MovingAverage(closes, MAWindow); ok {
		m.MA200 = ma
		m.HasMA200 = true
		m.PriceToMA200Pct = PriceToMA(m.CurrentPrice, ma)
	}
	return m, nil
}

// GrahamNumber returns sqrt(22.5 * eps * bvps), or 0 unless both are positive.
func GrahamNumber(eps, bvps float64) float64 {
	if eps > 0 && bvps > 0 {
		return math.Sqrt(grahamMultiplier * eps * bvps)
	}
	return 0
}

// PEGRatio returns pe / growthPct, or +Inf for non-growing companies.
func PEGRatio(pe, growthPct float64) float64 {
	if growthPct > 0 {
		return pe / growthPct
	}
	return math.Inf(1)
}

// EVToEBITDA returns ev / ebitda, or +Inf when ebitda is zero.
func EVToEBITDA(ev, ebitda float64) float64 {
	if ebitda != 0 {
		return ev / ebitda
	}
	return math.Inf(1)
}

// DistanceFromHigh is how far price sits below high, in percent of high.
func DistanceFromHigh(high, price float64) float64 {
	if high <= 0 {
		return 0
	}
	return (high - price) / high * 100
}

// PriceToMA is the percent premium (negative: discount) of price over ma.
func PriceToMA(price, ma float64) float64 {
	if ma == 0 || math.IsNaN(ma) {
		return 0
	}
	return (price/ma - 1) * 100
}

// MovingAverage returns the simple moving average of the last window closes.
// ok is false when there are fewer than window closes or the mean is NaN.
func MovingAverage(closes []float64, window int) (float64, bool) {
	if window <= 0 || len(closes) < window {
		return 0, false
	}
	sma := talib.Sma(closes, window)
	if len(sma) == 0 {
		return 0, false
	}
	last := sma[len(sma)-1]
	if math.IsNaN(last) || math.IsInf(last, 0) {
		return 0, false
	}
	return last, true
}
