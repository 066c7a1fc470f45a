package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/komsit37/vscreen/pkg/vscreen/types"
)

const (
	// DefaultYahooBaseURL serves quoteSummary and the crumb endpoint.
	DefaultYahooBaseURL = "https://query2.finance.yahoo.com"
	// DefaultYahooHomeURL hands out the session cookie the crumb is bound to.
	DefaultYahooHomeURL = "https://fc.yahoo.com"
	// DefaultRateLimit is requests per second against Yahoo.
	DefaultRateLimit = 4

	userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

var summaryModules = []string{"price", "summaryDetail", "defaultKeyStatistics", "financialData", "assetProfile"}

// HistoryFunc fetches daily bars for [start, end].
type HistoryFunc func(ctx context.Context, ticker string, start, end time.Time) (types.PriceSeries, error)

// Yahoo reads fundamentals from Yahoo Finance quoteSummary and daily bars from
// the chart API.
type Yahoo struct {
	baseURL    string
	homeURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        zerolog.Logger
	history    HistoryFunc
	now        func() time.Time

	mu    sync.Mutex
	crumb string
}

// YahooOption configures Yahoo.
type YahooOption func(*Yahoo)

// WithBaseURL points quoteSummary and crumb requests at another host.
func WithBaseURL(u string) YahooOption {
	return func(y *Yahoo) { y.baseURL = strings.TrimRight(u, "/") }
}

// WithHomeURL sets the page visited for the session cookie.
func WithHomeURL(u string) YahooOption {
	return func(y *Yahoo) { y.homeURL = u }
}

// WithHTTPClient sets the HTTP client. It should carry a cookie jar.
func WithHTTPClient(c *http.Client) YahooOption {
	return func(y *Yahoo) { y.httpClient = c }
}

// WithRateLimit sets requests per second; zero or less disables limiting.
func WithRateLimit(rps float64) YahooOption {
	return func(y *Yahoo) {
		if rps <= 0 {
			y.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		y.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) YahooOption {
	return func(y *Yahoo) { y.log = log.With().Str("provider", "yahoo").Logger() }
}

// WithHistoryFunc replaces the chart fetcher.
func WithHistoryFunc(fn HistoryFunc) YahooOption {
	return func(y *Yahoo) { y.history = fn }
}

// NewYahoo returns a Yahoo provider.
func NewYahoo(opts ...YahooOption) *Yahoo {
	jar, _ := cookiejar.New(nil)
	y := &Yahoo{
		baseURL:    DefaultYahooBaseURL,
		homeURL:    DefaultYahooHomeURL,
		httpClient: &http.Client{Jar: jar, Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		log:        zerolog.Nop(),
		history:    chartHistory,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(y)
	}
	return y
}

func (y *Yahoo) FetchFundamentals(ctx context.Context, ticker string) (types.RawFundamentals, error) {
	body, err := y.quoteSummary(ctx, ticker)
	if err != nil {
		return types.RawFundamentals{}, err
	}
	res := gjson.GetBytes(body, "quoteSummary.result.0")
	if !res.Exists() {
		if code := gjson.GetBytes(body, "quoteSummary.error.code").String(); code != "" {
			if strings.EqualFold(code, "Not Found") {
				return types.RawFundamentals{}, ErrNotFound
			}
			return types.RawFundamentals{}, fmt.Errorf("yahoo: %s: %s", code, gjson.GetBytes(body, "quoteSummary.error.description").String())
		}
		return types.RawFundamentals{}, ErrNotFound
	}
	return parseSummary(res), nil
}

// parseSummary maps quoteSummary modules onto RawFundamentals. Yahoo sends {}
// for values it does not have, which leaves the field nil.
func parseSummary(res gjson.Result) types.RawFundamentals {
	return types.RawFundamentals{
		CompanyName: firstString(res, "price.longName", "price.shortName"),
		Industry:    firstString(res, "assetProfile.industry"),
		Sector:      firstString(res, "assetProfile.sector"),

		MarketCap:         firstFloat(res, "price.marketCap.raw", "summaryDetail.marketCap.raw"),
		ForwardPE:         firstFloat(res, "summaryDetail.forwardPE.raw", "defaultKeyStatistics.forwardPE.raw"),
		PriceToBook:       firstFloat(res, "defaultKeyStatistics.priceToBook.raw"),
		ProfitMargin:      firstFloat(res, "financialData.profitMargins.raw", "defaultKeyStatistics.profitMargins.raw"),
		CurrentRatio:      firstFloat(res, "financialData.currentRatio.raw"),
		DebtToEquity:      firstFloat(res, "financialData.debtToEquity.raw"),
		TrailingEPS:       firstFloat(res, "defaultKeyStatistics.trailingEps.raw"),
		BookValuePerShare: firstFloat(res, "defaultKeyStatistics.bookValue.raw"),
		CurrentPrice:      firstFloat(res, "financialData.currentPrice.raw", "price.regularMarketPrice.raw"),
		EnterpriseValue:   firstFloat(res, "defaultKeyStatistics.enterpriseValue.raw"),
		EBITDA:            firstFloat(res, "financialData.ebitda.raw"),

		DividendYield:   firstFloat(res, "summaryDetail.dividendYield.raw"),
		EarningsGrowth:  firstFloat(res, "financialData.earningsGrowth.raw"),
		OperatingMargin: firstFloat(res, "financialData.operatingMargins.raw"),
		ReturnOnAssets:  firstFloat(res, "financialData.returnOnAssets.raw"),
		ReturnOnEquity:  firstFloat(res, "financialData.returnOnEquity.raw"),
	}
}

func firstFloat(res gjson.Result, paths ...string) *float64 {
	for _, p := range paths {
		v := res.Get(p)
		if v.Exists() && v.Type == gjson.Number {
			f := v.Float()
			return &f
		}
	}
	return nil
}

func firstString(res gjson.Result, paths ...string) string {
	for _, p := range paths {
		if v := res.Get(p); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return ""
}

func (y *Yahoo) quoteSummary(ctx context.Context, ticker string) ([]byte, error) {
	for attempt := 0; attempt < 2; attempt++ {
		crumb, err := y.getCrumb(ctx)
		if err != nil {
			// Some regions serve quoteSummary without a crumb.
			y.log.Warn().Err(err).Msg("Crumb unavailable, continuing without")
		}
		params := url.Values{}
		params.Set("modules", strings.Join(summaryModules, ","))
		if crumb != "" {
			params.Set("crumb", crumb)
		}
		reqURL := y.baseURL + "/v10/finance/quoteSummary/" + url.PathEscape(ticker) + "?" + params.Encode()

		status, body, err := y.get(ctx, reqURL)
		if err != nil {
			return nil, err
		}
		switch {
		case status == http.StatusOK:
			return body, nil
		case status == http.StatusNotFound:
			return nil, ErrNotFound
		case status == http.StatusUnauthorized && attempt == 0:
			y.log.Debug().Str("ticker", ticker).Msg("Crumb rejected, refreshing")
			y.resetCrumb()
			continue
		default:
			return nil, fmt.Errorf("yahoo quoteSummary returned status %d: %s", status, truncate(string(body), 200))
		}
	}
	return nil, errors.New("yahoo quoteSummary: unauthorized")
}

func (y *Yahoo) getCrumb(ctx context.Context) (string, error) {
	y.mu.Lock()
	defer y.mu.Unlock()
	if y.crumb != "" {
		return y.crumb, nil
	}
	// The home page sets the cookie; its status does not matter.
	if _, _, err := y.get(ctx, y.homeURL); err != nil {
		return "", fmt.Errorf("session cookie: %w", err)
	}
	status, body, err := y.get(ctx, y.baseURL+"/v1/test/getcrumb")
	if err != nil {
		return "", fmt.Errorf("crumb: %w", err)
	}
	crumb := strings.TrimSpace(string(body))
	if status != http.StatusOK || crumb == "" || strings.Contains(crumb, "<") {
		return "", fmt.Errorf("crumb: status %d", status)
	}
	y.crumb = crumb
	return crumb, nil
}

func (y *Yahoo) resetCrumb() {
	y.mu.Lock()
	y.crumb = ""
	y.mu.Unlock()
}

func (y *Yahoo) get(ctx context.Context, reqURL string) (int, []byte, error) {
	if err := y.limiter.Wait(ctx); err != nil {
		return 0, nil, fmt.Errorf("rate limit: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json,text/html;q=0.9,*/*;q=0.8")

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read body: %w", err)
	}
	y.log.Debug().Str("url", req.URL.Path).Int("status", resp.StatusCode).Msg("Yahoo request")
	return resp.StatusCode, body, nil
}

// FetchPriceHistory returns daily bars for the trailing lookbackDays.
func (y *Yahoo) FetchPriceHistory(ctx context.Context, ticker string, lookbackDays int) (types.PriceSeries, error) {
	if lookbackDays <= 0 {
		lookbackDays = DefaultLookbackDays
	}
	if err := y.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	end := y.now()
	start := end.AddDate(0, 0, -lookbackDays)
	return y.history(ctx, ticker, start, end)
}

// chartHistory uses finance-go, which has no context support; the fetch runs
// in its own goroutine so ctx still bounds the caller.
func chartHistory(ctx context.Context, ticker string, start, end time.Time) (types.PriceSeries, error) {
	type result struct {
		s   types.PriceSeries
		err error
	}
	done := make(chan result, 1)
	go func() {
		s, err := readChart(ticker, start, end)
		done <- result{s, err}
	}()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		return r.s, r.err
	}
}

func readChart(ticker string, start, end time.Time) (types.PriceSeries, error) {
	iter := chart.Get(&chart.Params{
		Symbol:   ticker,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.OneDay,
	})
	var out types.PriceSeries
	for iter.Next() {
		b := iter.Bar()
		high, _ := b.High.Float64()
		low, _ := b.Low.Float64()
		closePx, _ := b.Close.Float64()
		// Yahoo pads holidays with empty bars.
		if high == 0 && low == 0 && closePx == 0 {
			continue
		}
		out = append(out, types.PriceBar{
			Date:  time.Unix(int64(b.Timestamp), 0).UTC(),
			High:  high,
			Low:   low,
			Close: closePx,
		})
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
