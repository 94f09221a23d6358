package datasource

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"fundamentals-ranker/internal/api"
	"fundamentals-ranker/internal/logger"
	"fundamentals-ranker/internal/research/fundamentals"

	"github.com/tidwall/gjson"
)

const (
	DefaultYahooBaseURL   = "https://query2.finance.yahoo.com"
	DefaultYahooCookieURL = "https://fc.yahoo.com"
)

// Line items requested from the timeseries endpoint, without the
// annual/quarterly prefix.
const (
	itemGrossProfit             = "GrossProfit"
	itemBasicEPS                = "BasicEPS"
	itemDilutedEPS              = "DilutedEPS"
	itemCurrentLiabilities      = "CurrentLiabilities"
	itemOtherCurrentLiabilities = "OtherCurrentLiabilities"
	itemTotalAssets             = "TotalAssets"
)

var (
	incomeItems  = []string{itemGrossProfit, itemBasicEPS, itemDilutedEPS}
	balanceItems = []string{itemCurrentLiabilities, itemOtherCurrentLiabilities, itemTotalAssets}
)

// YahooClient reads statements and institutional holders from Yahoo Finance.
type YahooClient struct {
	client    *api.Client
	baseURL   string
	cookieURL string
	now       func() time.Time

	crumbMu sync.Mutex
	crumb   string
}

// YahooOption configures a YahooClient.
type YahooOption func(*YahooClient)

// WithYahooBaseURL overrides the API host.
func WithYahooBaseURL(baseURL string) YahooOption {
	return func(y *YahooClient) {
		y.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithCookieURL overrides the page visited to obtain a session cookie.
func WithCookieURL(cookieURL string) YahooOption {
	return func(y *YahooClient) {
		y.cookieURL = cookieURL
	}
}

// WithClock sets the clock used to bound the requested history.
func WithClock(now func() time.Time) YahooOption {
	return func(y *YahooClient) {
		y.now = now
	}
}

// NewYahooClient creates a client. client should carry a cookie jar for
// the holders endpoint to authenticate.
func NewYahooClient(client *api.Client, opts ...YahooOption) *YahooClient {
	y := &YahooClient{
		client:    client,
		baseURL:   DefaultYahooBaseURL,
		cookieURL: DefaultYahooCookieURL,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(y)
	}
	return y
}

// ProviderSymbol maps an index symbol to Yahoo's form, e.g. BRK.B to BRK-B.
func ProviderSymbol(symbol string) string {
	return strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(symbol)), ".", "-")
}

func historyYears(g fundamentals.Granularity) int {
	if g == fundamentals.Quarterly {
		return 3
	}
	return 6
}

func itemPrefix(g fundamentals.Granularity) string {
	if g == fundamentals.Quarterly {
		return "quarterly"
	}
	return "annual"
}

// FetchStatements implements fundamentals.StatementFetcher.
func (y *YahooClient) FetchStatements(ctx context.Context, symbol string, g fundamentals.Granularity) (fundamentals.Statements, error) {
	sym := ProviderSymbol(symbol)
	prefix := itemPrefix(g)

	types := make([]string, 0, len(incomeItems)+len(balanceItems))
	for _, item := range append(append([]string{}, incomeItems...), balanceItems...) {
		types = append(types, prefix+item)
	}

	now := y.now()
	q := url.Values{}
	q.Set("symbol", sym)
	q.Set("type", strings.Join(types, ","))
	q.Set("period1", strconv.FormatInt(now.AddDate(-historyYears(g), 0, 0).Unix(), 10))
	q.Set("period2", strconv.FormatInt(now.Unix(), 10))

	op := logger.StartOperation(ctx, "yahoo.FetchStatements", "symbol", symbol, "granularity", g.String())
	resp, err := y.client.Fetch(op.GetContext(), y.baseURL+"/ws/fundamentals-timeseries/v1/finance/timeseries/"+url.PathEscape(sym), q)
	if err != nil {
		err = fmt.Errorf("fetch %s statements: %w", symbol, err)
		op.EndWithError(err)
		return fundamentals.Statements{}, err
	}

	st, err := ParseTimeseries(resp.Body, symbol, g)
	if err != nil {
		op.EndWithError(err)
		return fundamentals.Statements{}, err
	}
	op.End("income_periods", len(st.Income), "balance_periods", len(st.Balance))
	return st, nil
}

// observationSet collects line items per period. A period reported twice
// for the same item opens a second observation so the merger can reject it.
type observationSet[T any] struct {
	order []fundamentals.Period
	obs   map[fundamentals.Period][]*T
	set   map[fundamentals.Period][]map[string]bool
}

func newObservationSet[T any]() *observationSet[T] {
	return &observationSet[T]{
		obs: make(map[fundamentals.Period][]*T),
		set: make(map[fundamentals.Period][]map[string]bool),
	}
}

func (s *observationSet[T]) slot(p fundamentals.Period, item string, init func(fundamentals.Period) *T) *T {
	for i, seen := range s.set[p] {
		if !seen[item] {
			seen[item] = true
			return s.obs[p][i]
		}
	}
	if _, ok := s.obs[p]; !ok {
		s.order = append(s.order, p)
	}
	o := init(p)
	s.obs[p] = append(s.obs[p], o)
	s.set[p] = append(s.set[p], map[string]bool{item: true})
	return o
}

func (s *observationSet[T]) all() []T {
	out := make([]T, 0, len(s.order))
	for _, p := range s.order {
		for _, o := range s.obs[p] {
			out = append(out, *o)
		}
	}
	return out
}

// ParseTimeseries converts a fundamentals-timeseries response into
// statements. Items Yahoo did not report stay NA.
func ParseTimeseries(body []byte, symbol string, g fundamentals.Granularity) (fundamentals.Statements, error) {
	if !gjson.ValidBytes(body) {
		return fundamentals.Statements{}, fmt.Errorf("parse %s statements: invalid JSON", symbol)
	}
	root := gjson.ParseBytes(body)
	if e := root.Get("timeseries.error"); e.Exists() && e.Type != gjson.Null {
		return fundamentals.Statements{}, fmt.Errorf("provider error for %s: %s", symbol, e.Get("description").String())
	}

	prefix := itemPrefix(g)
	income := newObservationSet[fundamentals.IncomeObservation]()
	balance := newObservationSet[fundamentals.BalanceObservation]()
	newIncome := func(p fundamentals.Period) *fundamentals.IncomeObservation {
		return &fundamentals.IncomeObservation{Period: p}
	}
	newBalance := func(p fundamentals.Period) *fundamentals.BalanceObservation {
		return &fundamentals.BalanceObservation{Period: p}
	}

	for _, result := range root.Get("timeseries.result").Array() {
		typ := result.Get("meta.type.0").String()
		item, ok := strings.CutPrefix(typ, prefix)
		if !ok {
			continue
		}
		for _, point := range result.Get(typ).Array() {
			if point.Type == gjson.Null {
				continue
			}
			date, err := time.Parse("2006-01-02", point.Get("asOfDate").String())
			if err != nil {
				return fundamentals.Statements{}, fmt.Errorf("parse %s %s date: %w", symbol, typ, err)
			}
			p := fundamentals.PeriodFromDate(g, date)
			v := rawValue(point.Get("reportedValue"))

			switch item {
			case itemGrossProfit:
				income.slot(p, item, newIncome).GrossProfit = v
			case itemBasicEPS:
				income.slot(p, item, newIncome).BasicEPS = v
			case itemDilutedEPS:
				income.slot(p, item, newIncome).DilutedEPS = v
			case itemCurrentLiabilities:
				balance.slot(p, item, newBalance).CurrentLiabilities = v
			case itemOtherCurrentLiabilities:
				balance.slot(p, item, newBalance).OtherCurrentLiabilities = v
			case itemTotalAssets:
				balance.slot(p, item, newBalance).TotalAssets = v
			}
		}
	}

	return fundamentals.Statements{
		Symbol:  symbol,
		Income:  income.all(),
		Balance: balance.all(),
	}, nil
}

// rawValue reads a {"raw": x, "fmt": "..."} pair, or a bare number.
func rawValue(r gjson.Result) fundamentals.Value {
	if raw := r.Get("raw"); raw.Exists() {
		r = raw
	}
	if r.Type != gjson.Number {
		return fundamentals.NA
	}
	return fundamentals.Of(r.Float())
}

// ensureCrumb obtains a session cookie and the matching crumb once.
func (y *YahooClient) ensureCrumb(ctx context.Context) (string, error) {
	y.crumbMu.Lock()
	defer y.crumbMu.Unlock()
	if y.crumb != "" {
		return y.crumb, nil
	}

	// the cookie page answers 404 but still sets the session cookie
	_, _ = y.client.GET(ctx, y.cookieURL, nil)

	resp, err := y.client.Fetch(ctx, y.baseURL+"/v1/test/getcrumb", nil)
	if err != nil {
		return "", fmt.Errorf("get crumb: %w", err)
	}
	crumb := strings.TrimSpace(resp.String())
	if crumb == "" {
		return "", fmt.Errorf("get crumb: empty response")
	}
	y.crumb = crumb
	return crumb, nil
}

// FetchHolders implements fundamentals.HoldingsFetcher.
func (y *YahooClient) FetchHolders(ctx context.Context, symbol string) ([]fundamentals.Holder, error) {
	crumb, err := y.ensureCrumb(ctx)
	if err != nil {
		return nil, err
	}

	sym := ProviderSymbol(symbol)
	q := url.Values{}
	q.Set("modules", "institutionOwnership")
	q.Set("crumb", crumb)

	resp, err := y.client.Fetch(ctx, y.baseURL+"/v10/finance/quoteSummary/"+url.PathEscape(sym), q)
	if err != nil {
		return nil, fmt.Errorf("fetch %s holders: %w", symbol, err)
	}
	return ParseHolders(resp.Body, symbol)
}

// ParseHolders converts a quoteSummary institutionOwnership response.
func ParseHolders(body []byte, symbol string) ([]fundamentals.Holder, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("parse %s holders: invalid JSON", symbol)
	}
	root := gjson.ParseBytes(body)
	if e := root.Get("quoteSummary.error"); e.Exists() && e.Type != gjson.Null {
		return nil, fmt.Errorf("provider error for %s: %s", symbol, e.Get("description").String())
	}

	list := root.Get("quoteSummary.result.0.institutionOwnership.ownershipList").Array()
	holders := make([]fundamentals.Holder, 0, len(list))
	for _, h := range list {
		holders = append(holders, fundamentals.Holder{
			Name:      strings.TrimSpace(h.Get("organization").String()),
			PctHeld:   rawValue(h.Get("pctHeld")),
			PctChange: rawValue(h.Get("pctChange")),
		})
	}
	return holders, nil
}
