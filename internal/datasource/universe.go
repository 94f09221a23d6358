package datasource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"fundamentals-ranker/internal/api"
	"fundamentals-ranker/internal/logger"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
)

// DefaultUniverseURL lists the Nasdaq-100 constituents.
const DefaultUniverseURL = "https://www.slickcharts.com/nasdaq100"

var (
	// ErrNoSymbolColumn is returned when the first table has no Symbol header.
	ErrNoSymbolColumn = errors.New("no Symbol column in constituents table")
	// ErrNoTable is returned when the page contains no table at all.
	ErrNoTable = errors.New("no table on constituents page")
)

// UniverseScraper reads the symbol universe from the first table of an
// index constituents page.
type UniverseScraper struct {
	url       string
	userAgent string
	timeout   time.Duration
}

// NewUniverseScraper creates a scraper for pageURL. An empty URL uses the
// Nasdaq-100 page.
func NewUniverseScraper(pageURL, userAgent string, timeout time.Duration) *UniverseScraper {
	if pageURL == "" {
		pageURL = DefaultUniverseURL
	}
	if userAgent == "" {
		userAgent = api.BrowserUserAgent
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &UniverseScraper{url: pageURL, userAgent: userAgent, timeout: timeout}
}

// Symbols fetches the page and returns its symbols in table order. Any
// failure is returned; there is no universe to fall back to.
func (s *UniverseScraper) Symbols(ctx context.Context) ([]string, error) {
	c := colly.NewCollector(
		colly.MaxDepth(1),
		colly.Async(false),
		colly.StdlibContext(ctx),
	)
	c.SetRequestTimeout(s.timeout)

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", s.userAgent)
	})

	var (
		symbols  []string
		parseErr = ErrNoTable
		seen     bool
	)
	c.OnHTML("table", func(e *colly.HTMLElement) {
		if seen {
			return
		}
		seen = true
		symbols, parseErr = symbolsFromTable(e.DOM)
	})

	var fetchErr error
	c.OnError(func(r *colly.Response, err error) {
		fetchErr = fmt.Errorf("fetch %s (status %d): %w", s.url, r.StatusCode, err)
	})

	if err := c.Visit(s.url); err != nil && fetchErr == nil {
		fetchErr = fmt.Errorf("fetch %s: %w", s.url, err)
	}
	c.Wait()

	if fetchErr != nil {
		return nil, fetchErr
	}
	if parseErr != nil {
		return nil, parseErr
	}

	logger.Info(ctx, "Universe loaded", "url", s.url, "symbols", len(symbols))
	return symbols, nil
}

// ParseSymbols reads the first table of an HTML document.
func ParseSymbols(r io.Reader) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse constituents page: %w", err)
	}
	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, ErrNoTable
	}
	return symbolsFromTable(table)
}

func symbolsFromTable(table *goquery.Selection) ([]string, error) {
	col := -1
	table.Find("tr").First().Find("th, td").EachWithBreak(func(i int, cell *goquery.Selection) bool {
		if strings.EqualFold(strings.TrimSpace(cell.Text()), "Symbol") {
			col = i
			return false
		}
		return true
	})
	if col < 0 {
		return nil, ErrNoSymbolColumn
	}

	symbols := make([]string, 0)
	table.Find("tr").Slice(1, goquery.ToEnd).Each(func(_ int, row *goquery.Selection) {
		cell := row.Find("th, td").Eq(col)
		if sym := strings.TrimSpace(cell.Text()); sym != "" {
			symbols = append(symbols, sym)
		}
	})
	return symbols, nil
}
