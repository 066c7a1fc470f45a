// Package screener runs the valuation rules over a list of tickers and ranks
// the ones that qualify.
package screener

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/komsit37/vscreen/pkg/vscreen/metrics"
	"github.com/komsit37/vscreen/pkg/vscreen/provider"
	"github.com/komsit37/vscreen/pkg/vscreen/rules"
	"github.com/komsit37/vscreen/pkg/vscreen/thresholds"
	"github.com/komsit37/vscreen/pkg/vscreen/trace"
)

// Defaults.
const (
	DefaultMinMarketCap  = 1e9
	DefaultMinCriteria   = 3
	DefaultConcurrency   = 8
	DefaultTickerTimeout = 30 * time.Second
)

// Options controls one screening run.
type Options struct {
	// MinMarketCap drops tickers below this market cap, in dollars.
	MinMarketCap float64
	// MinCriteria is the number of rule-sets a ticker must satisfy. Values
	// outside 1..6 are accepted and simply keep everything or nothing.
	MinCriteria int
	Thresholds  thresholds.Thresholds
	// Concurrency bounds in-flight tickers.
	Concurrency int
	// TickerTimeout bounds both fetches of one ticker; zero disables it.
	TickerTimeout time.Duration
	LookbackDays  int
}

// DefaultOptions returns the stock run options.
func DefaultOptions() Options {
	return Options{
		MinMarketCap:  DefaultMinMarketCap,
		MinCriteria:   DefaultMinCriteria,
		Thresholds:    thresholds.Defaults(),
		Concurrency:   DefaultConcurrency,
		TickerTimeout: DefaultTickerTimeout,
		LookbackDays:  provider.DefaultLookbackDays,
	}
}

// Record is one qualifying ticker. Treat it as read-only.
type Record struct {
	Ticker      string
	Company     string
	Industry    string
	MarketCap   float64
	MarketCapB  float64 // billions, 2 decimals
	CriteriaMet int
	Satisfied   []rules.RuleSet // declaration order
	Rules       rules.Result
	Metrics     metrics.Metrics

	index int // position in the input, for stable tie breaks
}

// Stats counts what happened to every requested ticker.
type Stats struct {
	Requested      int `json:"requested"`
	Evaluated      int `json:"evaluated"` // scored, whether or not they qualified
	Qualified      int `json:"qualified"`
	BelowMarketCap int `json:"below_market_cap"`
	EmptyHistory   int `json:"empty_history"`
	Failed         int `json:"failed"`
}

// Result is the ranked output of a run.
type Result struct {
	Records      []Record
	Stats        Stats
	Thresholds   thresholds.Thresholds
	MinCriteria  int
	MinMarketCap float64
}

// AllFailed reports a run where nothing could be evaluated because fetches
// failed or came back without price history, as opposed to a run that found
// no matches.
func (r Result) AllFailed() bool {
	return r.Stats.Evaluated == 0 && r.Stats.Failed+r.Stats.EmptyHistory > 0
}

// Top returns at most n leading records; n <= 0 returns all.
func (r Result) Top(n int) []Record {
	if n <= 0 || n >= len(r.Records) {
		return r.Records
	}
	return r.Records[:n]
}

// Screener evaluates tickers against a Provider.
type Screener struct {
	provider provider.Provider
	log      zerolog.Logger
}

// New returns a Screener.
func New(p provider.Provider, log zerolog.Logger) *Screener {
	return &Screener{provider: p, log: log.With().Str("component", "screener").Logger()}
}

type outcomeKind int

const (
	kindQualified outcomeKind = iota
	kindBelowCriteria
	kindBelowMarketCap
	kindEmptyHistory
	kindFailed
)

type outcome struct {
	kind   outcomeKind
	record Record
}

// Run screens tickers. Failures of single tickers are logged and counted,
// never returned; the result is ranked once every ticker has settled.
func (s *Screener) Run(ctx context.Context, tickers []string, opts Options) Result {
	conc := opts.Concurrency
	if conc <= 0 {
		conc = 1
	}
	ctx, span := trace.StartSpan(ctx, "screener.Run")
	defer span.End()
	span.SetAttributes(attribute.Int("tickers", len(tickers)), attribute.Int("min_criteria", opts.MinCriteria))

	p := pool.NewWithResults[outcome]().WithMaxGoroutines(conc)
	for i, ticker := range tickers {
		i, ticker := i, ticker
		p.Go(func() outcome {
			return s.screenOne(ctx, i, ticker, opts)
		})
	}
	outcomes := p.Wait()

	res := Result{
		Thresholds:   opts.Thresholds,
		MinCriteria:  opts.MinCriteria,
		MinMarketCap: opts.MinMarketCap,
	}
	res.Stats.Requested = len(tickers)
	for _, o := range outcomes {
		switch o.kind {
		case kindQualified:
			res.Stats.Evaluated++
			res.Records = append(res.Records, o.record)
		case kindBelowCriteria:
			res.Stats.Evaluated++
		case kindBelowMarketCap:
			res.Stats.BelowMarketCap++
		case kindEmptyHistory:
			res.Stats.EmptyHistory++
		case kindFailed:
			res.Stats.Failed++
		}
	}
	Rank(res.Records)
	res.Stats.Qualified = len(res.Records)

	s.log.Info().
		Int("requested", res.Stats.Requested).
		Int("evaluated", res.Stats.Evaluated).
		Int("qualified", res.Stats.Qualified).
		Int("below_market_cap", res.Stats.BelowMarketCap).
		Int("empty_history", res.Stats.EmptyHistory).
		Int("failed", res.Stats.Failed).
		Msg("Screening complete")
	return res
}

func (s *Screener) screenOne(ctx context.Context, index int, ticker string, opts Options) outcome {
	ctx, span := trace.StartSpan(ctx, "screener.ticker")
	defer span.End()
	span.SetAttributes(attribute.String("ticker", ticker))
	log := s.log.With().Str("ticker", ticker).Logger()

	if opts.TickerTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.TickerTimeout)
		defer cancel()
	}

	raw, err := s.provider.FetchFundamentals(ctx, ticker)
	if err != nil {
		err = &provider.FetchError{Ticker: ticker, Stage: provider.StageFundamentals, Err: err}
		logFailure(log, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return outcome{kind: kindFailed}
	}
	f := raw.Resolve()
	if f.MarketCap < opts.MinMarketCap {
		log.Debug().Float64("market_cap", f.MarketCap).Msg("Below market cap floor")
		return outcome{kind: kindBelowMarketCap}
	}

	hist, err := s.provider.FetchPriceHistory(ctx, ticker, opts.LookbackDays)
	if err != nil {
		err = &provider.FetchError{Ticker: ticker, Stage: provider.StageHistory, Err: err}
		logFailure(log, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return outcome{kind: kindFailed}
	}

	m, err := metrics.Derive(f, hist)
	if errors.Is(err, metrics.ErrEmptyPriceSeries) {
		log.Warn().Msg("No price history, skipping")
		return outcome{kind: kindEmptyHistory}
	}
	if err != nil {
		logFailure(log, err)
		return outcome{kind: kindFailed}
	}

	res := rules.Evaluate(m, opts.Thresholds)
	met := res.Count()
	span.SetAttributes(attribute.Int("criteria_met", met))
	log.Debug().Int("criteria_met", met).Strs("satisfied", rules.Names(res.Satisfied())).Msg("Evaluated")
	if met < opts.MinCriteria {
		return outcome{kind: kindBelowCriteria}
	}
	return outcome{kind: kindQualified, record: Record{
		Ticker:      ticker,
		Company:     f.CompanyName,
		Industry:    f.Industry,
		MarketCap:   f.MarketCap,
		MarketCapB:  round2(f.MarketCap / 1e9),
		CriteriaMet: met,
		Satisfied:   res.Satisfied(),
		Rules:       res,
		Metrics:     m,
		index:       index,
	}}
}

func logFailure(log zerolog.Logger, err error) {
	if errors.Is(err, context.DeadlineExceeded) {
		log.Warn().Err(err).Msg("Timed out, skipping")
		return
	}
	if errors.Is(err, provider.ErrNotFound) {
		log.Warn().Err(err).Msg("Unknown ticker, skipping")
		return
	}
	log.Error().Err(err).Msg("Error analyzing ticker, skipping")
}

// Rank sorts records by criteria met, then market cap, both descending; ties
// keep input order.
func Rank(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.CriteriaMet != b.CriteriaMet {
			return a.CriteriaMet > b.CriteriaMet
		}
		if a.MarketCap != b.MarketCap {
			return a.MarketCap > b.MarketCap
		}
		return a.index < b.index
	})
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
