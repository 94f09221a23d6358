package datasource

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fundamentals-ranker/internal/api"
	"fundamentals-ranker/internal/research/fundamentals"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const timeseriesBody = `{"timeseries":{"result":[
 {"meta":{"symbol":["AAPL"],"type":["annualGrossProfit"]},"timestamp":[1,2],
  "annualGrossProfit":[
   {"asOfDate":"2023-09-30","periodType":"12M","reportedValue":{"raw":169148000000,"fmt":"169.15B"}},
   null,
   {"asOfDate":"2024-09-30","periodType":"12M","reportedValue":{"raw":180683000000,"fmt":"180.68B"}}]},
 {"meta":{"symbol":["AAPL"],"type":["annualDilutedEPS"]},
  "annualDilutedEPS":[{"asOfDate":"2024-09-30","reportedValue":{"raw":6.08}}]},
 {"meta":{"symbol":["AAPL"],"type":["annualBasicEPS"]}},
 {"meta":{"symbol":["AAPL"],"type":["annualTotalAssets"]},
  "annualTotalAssets":[{"asOfDate":"2024-09-30","reportedValue":{"raw":364980000000}}]},
 {"meta":{"symbol":["AAPL"],"type":["annualCurrentLiabilities"]},
  "annualCurrentLiabilities":[{"asOfDate":"2024-09-30","reportedValue":{"raw":176392000000}}]}
],"error":null}}`

func TestParseTimeseries(t *testing.T) {
	st, err := ParseTimeseries([]byte(timeseriesBody), "AAPL", fundamentals.Annual)
	require.NoError(t, err)
	assert.Equal(t, "AAPL", st.Symbol)

	require.Len(t, st.Income, 2)
	assert.Equal(t, fundamentals.AnnualPeriod(2023), st.Income[0].Period)
	assert.Equal(t, fundamentals.Of(169148000000), st.Income[0].GrossProfit)
	assert.False(t, st.Income[0].DilutedEPS.Valid())

	fy24 := st.Income[1]
	assert.Equal(t, fundamentals.AnnualPeriod(2024), fy24.Period)
	assert.Equal(t, fundamentals.Of(6.08), fy24.DilutedEPS)
	assert.False(t, fy24.BasicEPS.Valid())

	require.Len(t, st.Balance, 1)
	assert.Equal(t, fundamentals.Of(364980000000), st.Balance[0].TotalAssets)
	assert.False(t, st.Balance[0].OtherCurrentLiabilities.Valid())

	records, err := fundamentals.MergeStatements(st, nil)
	require.NoError(t, err)
	assert.Equal(t, fundamentals.Of(6.08), records[1].EPS)
}

func TestParseTimeseries_RepeatedPeriodRejectedByMerge(t *testing.T) {
	body := `{"timeseries":{"result":[
	 {"meta":{"type":["quarterlyTotalAssets"]},"quarterlyTotalAssets":[
	  {"asOfDate":"2024-03-31","reportedValue":{"raw":1}},
	  {"asOfDate":"2024-02-29","reportedValue":{"raw":2}}]}]}}`
	st, err := ParseTimeseries([]byte(body), "X", fundamentals.Quarterly)
	require.NoError(t, err)
	require.Len(t, st.Balance, 2)

	_, err = fundamentals.MergeStatements(st, nil)
	assert.ErrorIs(t, err, fundamentals.ErrDuplicatePeriod)
}

func TestParseTimeseries_Errors(t *testing.T) {
	_, err := ParseTimeseries([]byte(`not json`), "X", fundamentals.Annual)
	assert.Error(t, err)

	_, err = ParseTimeseries([]byte(`{"timeseries":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`), "X", fundamentals.Annual)
	assert.ErrorContains(t, err, "No data found")
}

func newTestYahoo(t *testing.T, handler http.HandlerFunc) *YahooClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := api.NewClient(api.WithRateLimit(0), api.WithCookieJar(),
		api.WithRetry(&api.RetryConfig{MaxAttempts: 1}))
	return NewYahooClient(client,
		WithYahooBaseURL(srv.URL),
		WithCookieURL(srv.URL+"/cookie"),
		WithClock(func() time.Time { return time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC) }),
	)
}

func TestYahooClient_FetchStatements(t *testing.T) {
	y := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ws/fundamentals-timeseries/v1/finance/timeseries/BRK-B", r.URL.Path)
		types := r.URL.Query().Get("type")
		assert.True(t, strings.HasPrefix(types, "quarterlyGrossProfit,"))
		assert.Contains(t, types, "quarterlyOtherCurrentLiabilities")
		_, _ = w.Write([]byte(`{"timeseries":{"result":[{"meta":{"type":["quarterlyGrossProfit"]},
			"quarterlyGrossProfit":[{"asOfDate":"2024-06-30","reportedValue":{"raw":5}}]}],"error":null}}`))
	})

	st, err := y.FetchStatements(context.Background(), "BRK.B", fundamentals.Quarterly)
	require.NoError(t, err)
	assert.Equal(t, "BRK.B", st.Symbol)
	require.Len(t, st.Income, 1)
	assert.Equal(t, fundamentals.QuarterPeriod(2024, 2), st.Income[0].Period)
}

func TestYahooClient_FetchStatementsHTTPError(t *testing.T) {
	y := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	})
	_, err := y.FetchStatements(context.Background(), "ZZZZ", fundamentals.Annual)
	assert.Error(t, err)
}

func TestYahooClient_FetchHolders(t *testing.T) {
	crumbCalls := 0
	y := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/cookie":
			http.SetCookie(w, &http.Cookie{Name: "A3", Value: "session", Path: "/"})
			w.WriteHeader(http.StatusNotFound)
		case "/v1/test/getcrumb":
			crumbCalls++
			_, _ = w.Write([]byte("abc123"))
		case "/v10/finance/quoteSummary/MSFT":
			assert.Equal(t, "abc123", r.URL.Query().Get("crumb"))
			assert.Equal(t, "institutionOwnership", r.URL.Query().Get("modules"))
			_, err := r.Cookie("A3")
			assert.NoError(t, err)
			_, _ = w.Write([]byte(`{"quoteSummary":{"result":[{"institutionOwnership":{"ownershipList":[
				{"organization":"Vanguard Group Inc","pctHeld":{"raw":0.0912,"fmt":"9.12%"},"pctChange":{"raw":0.0105}},
				{"organization":"Blackrock Inc.","pctHeld":{"raw":0.0731},"pctChange":{}}]}}],"error":null}}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	holders, err := y.FetchHolders(context.Background(), "MSFT")
	require.NoError(t, err)
	require.Len(t, holders, 2)
	assert.Equal(t, "Vanguard Group Inc", holders[0].Name)
	assert.Equal(t, fundamentals.Of(0.0912), holders[0].PctHeld)
	assert.False(t, holders[1].PctChange.Valid())

	_, err = y.FetchHolders(context.Background(), "MSFT")
	require.NoError(t, err)
	assert.Equal(t, 1, crumbCalls, "crumb is cached")
}

func TestProviderSymbol(t *testing.T) {
	assert.Equal(t, "BRK-B", ProviderSymbol("brk.b"))
	assert.Equal(t, "AAPL", ProviderSymbol(" AAPL "))
}
