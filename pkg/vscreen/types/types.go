package types

import (
	"math"
	"time"
)

// Universe is a named list of tickers with an optional explicit column order.
type Universe struct {
	Name    string
	Columns []string
	Items   []Item
}

// Item represents a ticker entry and arbitrary fields from the universe file.
type Item struct {
	Sym    string
	Name   string
	Fields map[string]any
}

// Quote contains formatted and raw change values for rendering.
type Quote struct {
	Price  string
	ChgFmt string
	ChgRaw float64
	Name   string
}

// RawFundamentals is the provider's view of a ticker. Nil means the provider
// did not report the field.
type RawFundamentals struct {
	CompanyName string `json:"company_name,omitempty" yaml:"company_name,omitempty"`
	Industry    string `json:"industry,omitempty" yaml:"industry,omitempty"`
	Sector      string `json:"sector,omitempty" yaml:"sector,omitempty"`

	MarketCap         *float64 `json:"market_cap,omitempty" yaml:"market_cap,omitempty"`
	ForwardPE         *float64 `json:"forward_pe,omitempty" yaml:"forward_pe,omitempty"`
	PriceToBook       *float64 `json:"price_to_book,omitempty" yaml:"price_to_book,omitempty"`
	ProfitMargin      *float64 `json:"profit_margin,omitempty" yaml:"profit_margin,omitempty"`
	CurrentRatio      *float64 `json:"current_ratio,omitempty" yaml:"current_ratio,omitempty"`
	DebtToEquity      *float64 `json:"debt_to_equity,omitempty" yaml:"debt_to_equity,omitempty"`
	TrailingEPS       *float64 `json:"trailing_eps,omitempty" yaml:"trailing_eps,omitempty"`
	BookValuePerShare *float64 `json:"book_value,omitempty" yaml:"book_value,omitempty"`
	CurrentPrice      *float64 `json:"current_price,omitempty" yaml:"current_price,omitempty"`
	EnterpriseValue   *float64 `json:"enterprise_value,omitempty" yaml:"enterprise_value,omitempty"`
	EBITDA            *float64 `json:"ebitda,omitempty" yaml:"ebitda,omitempty"`

	// Fractions, e.g. 0.123 for 12.3%.
	DividendYield   *float64 `json:"dividend_yield,omitempty" yaml:"dividend_yield,omitempty"`
	EarningsGrowth  *float64 `json:"earnings_growth,omitempty" yaml:"earnings_growth,omitempty"`
	OperatingMargin *float64 `json:"operating_margin,omitempty" yaml:"operating_margin,omitempty"`
	ReturnOnAssets  *float64 `json:"return_on_assets,omitempty" yaml:"return_on_assets,omitempty"`
	ReturnOnEquity  *float64 `json:"return_on_equity,omitempty" yaml:"return_on_equity,omitempty"`
}

// Fundamentals is RawFundamentals with every absent field replaced by its
// neutral default and percentage fields scaled to percent.
type Fundamentals struct {
	CompanyName string
	Industry    string
	Sector      string

	MarketCap         float64
	ForwardPE         float64
	PriceToBook       float64
	ProfitMargin      float64 // fraction
	CurrentRatio      float64
	DebtToEquity      float64
	TrailingEPS       float64
	BookValuePerShare float64
	CurrentPrice      float64
	EnterpriseValue   float64
	EBITDA            float64

	DividendYieldPct   float64
	EarningsGrowthPct  float64
	OperatingMarginPct float64
	ROAPct             float64
	ROEPct             float64
}

// NotAvailable is shown for missing company name and industry.
const NotAvailable = "N/A"

// Resolve applies the defaults. Ratios where lower is better default to +Inf
// so a missing value can never pass a "below threshold" test.
func (r RawFundamentals) Resolve() Fundamentals {
	inf := math.Inf(1)
	return Fundamentals{
		CompanyName: stringOr(r.CompanyName, NotAvailable),
		Industry:    stringOr(r.Industry, NotAvailable),
		Sector:      r.Sector,

		MarketCap:         valueOr(r.MarketCap, 0),
		ForwardPE:         valueOr(r.ForwardPE, inf),
		PriceToBook:       valueOr(r.PriceToBook, inf),
		ProfitMargin:      valueOr(r.ProfitMargin, 0),
		CurrentRatio:      valueOr(r.CurrentRatio, 0),
		DebtToEquity:      valueOr(r.DebtToEquity, inf),
		TrailingEPS:       valueOr(r.TrailingEPS, 0),
		BookValuePerShare: valueOr(r.BookValuePerShare, 0),
		CurrentPrice:      valueOr(r.CurrentPrice, 0),
		EnterpriseValue:   valueOr(r.EnterpriseValue, 0),
		EBITDA:            valueOr(r.EBITDA, 0),

		DividendYieldPct:   valueOr(r.DividendYield, 0) * 100,
		EarningsGrowthPct:  valueOr(r.EarningsGrowth, 0) * 100,
		OperatingMarginPct: valueOr(r.OperatingMargin, 0) * 100,
		ROAPct:             valueOr(r.ReturnOnAssets, 0) * 100,
		ROEPct:             valueOr(r.ReturnOnEquity, 0) * 100,
	}
}

func valueOr(p *float64, def float64) float64 {
	if p == nil || math.IsNaN(*p) {
		return def
	}
	return *p
}

func stringOr(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// Float returns a pointer to v. Handy for building RawFundamentals literals.
func Float(v float64) *float64 { return &v }

// PriceBar is one daily bar.
type PriceBar struct {
	Date  time.Time `json:"date" yaml:"date"`
	High  float64   `json:"high" yaml:"high"`
	Low   float64   `json:"low" yaml:"low"`
	Close float64   `json:"close" yaml:"close"`
}

// PriceSeries is ordered oldest first.
type PriceSeries []PriceBar

// Closes returns the close column.
func (s PriceSeries) Closes() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Close
	}
	return out
}

// Highs returns the high column.
func (s PriceSeries) Highs() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.High
	}
	return out
}

// Lows returns the low column.
func (s PriceSeries) Lows() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Low
	}
	return out
}
