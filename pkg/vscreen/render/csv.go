package render

import (
	"context"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/komsit37/vscreen/pkg/vscreen/rules"
	"github.com/komsit37/vscreen/pkg/vscreen/screener"
)

// csvRow is one exported record. Every metric is included regardless of the
// selected columns so the file is complete for spreadsheets.
type csvRow struct {
	Ticker       string `csv:"ticker"`
	Company      string `csv:"company"`
	Industry     string `csv:"industry"`
	MarketCapB   string `csv:"market_cap_b"`
	CriteriaMet  int    `csv:"criteria_met"`
	Satisfied    string `csv:"satisfied"`
	PE           string `csv:"pe_ratio"`
	PB           string `csv:"pb_ratio"`
	EVToEBITDA   string `csv:"ev_to_ebitda"`
	PEG          string `csv:"peg_ratio"`
	Growth       string `csv:"earnings_growth_pct"`
	DivYield     string `csv:"dividend_yield_pct"`
	ProfitMargin string `csv:"profit_margin"`
	OpMargin     string `csv:"operating_margin_pct"`
	ROE          string `csv:"roe_pct"`
	ROA          string `csv:"roa_pct"`
	CurrentRatio string `csv:"current_ratio"`
	DebtEquity   string `csv:"debt_to_equity"`
	OffHigh      string `csv:"distance_from_high_pct"`
	VsMA200      string `csv:"price_to_ma200_pct"`
	Graham       string `csv:"graham_number"`
	Price        string `csv:"current_price"`
}

type CSVRenderer struct{}

func NewCSVRenderer() *CSVRenderer { return &CSVRenderer{} }

func (r *CSVRenderer) Render(_ context.Context, w io.Writer, res screener.Result, _ RenderOptions) error {
	rows := make([]*csvRow, 0, len(res.Records))
	for _, rec := range res.Records {
		m := rec.Metrics
		row := &csvRow{
			Ticker:       rec.Ticker,
			Company:      rec.Company,
			Industry:     rec.Industry,
			MarketCapB:   csvNum(rec.MarketCapB),
			CriteriaMet:  rec.CriteriaMet,
			Satisfied:    strings.Join(rules.Names(rec.Satisfied), ";"),
			PE:           csvNum(m.PE),
			PB:           csvNum(m.PB),
			EVToEBITDA:   csvNum(m.EVToEBITDA),
			PEG:          csvNum(m.PEGRatio),
			Growth:       csvNum(m.EarningsGrowthPct),
			DivYield:     csvNum(m.DividendYieldPct),
			ProfitMargin: csvNum(m.ProfitMargin),
			OpMargin:     csvNum(m.OperatingMarginPct),
			ROE:          csvNum(m.ROEPct),
			ROA:          csvNum(m.ROAPct),
			CurrentRatio: csvNum(m.CurrentRatio),
			DebtEquity:   csvNum(m.DebtToEquity),
			OffHigh:      csvNum(m.DistanceFromHighPct),
			Graham:       csvNum(m.GrahamNumber),
			Price:        csvNum(m.CurrentPrice),
			VsMA200:      csvNum(m.PriceToMA200Pct),
		}
		rows = append(rows, row)
	}
	return gocsv.Marshal(rows, w)
}

// csvNum rounds to 2 decimals; infinities become "inf".
func csvNum(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	case math.IsNaN(v):
		return ""
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
