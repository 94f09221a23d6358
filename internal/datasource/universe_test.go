package datasource

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const constituentsPage = `<html><body>
<table class="table">
  <thead><tr><th>#</th><th>Company</th><th>Symbol</th><th>Weight</th></tr></thead>
  <tbody>
    <tr><td>1</td><td>NVIDIA Corp</td><td><a href="/symbol/NVDA">NVDA</a></td><td>9.1%</td></tr>
    <tr><td>2</td><td>Microsoft Corp</td><td><a href="/symbol/MSFT">MSFT</a></td><td>8.2%</td></tr>
    <tr><td>3</td><td>Apple Inc.</td><td> AAPL </td><td>7.5%</td></tr>
  </tbody>
</table>
<table><tr><th>Symbol</th></tr><tr><td>IGNORED</td></tr></table>
</body></html>`

func TestParseSymbols(t *testing.T) {
	symbols, err := ParseSymbols(strings.NewReader(constituentsPage))
	require.NoError(t, err)
	assert.Equal(t, []string{"NVDA", "MSFT", "AAPL"}, symbols)
}

func TestParseSymbols_Errors(t *testing.T) {
	_, err := ParseSymbols(strings.NewReader(`<table><tr><th>Ticker</th></tr><tr><td>X</td></tr></table>`))
	assert.ErrorIs(t, err, ErrNoSymbolColumn)

	_, err = ParseSymbols(strings.NewReader(`<p>maintenance</p>`))
	assert.ErrorIs(t, err, ErrNoTable)
}

func TestUniverseScraper_Symbols(t *testing.T) {
	var userAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(constituentsPage))
	}))
	defer srv.Close()

	s := NewUniverseScraper(srv.URL, "ranker-test", time.Second)
	symbols, err := s.Symbols(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"NVDA", "MSFT", "AAPL"}, symbols)
	assert.Equal(t, "ranker-test", userAgent)
}

func TestUniverseScraper_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewUniverseScraper(srv.URL, "", time.Second).Symbols(context.Background())
	assert.Error(t, err)
}
