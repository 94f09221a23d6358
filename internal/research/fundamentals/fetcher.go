package fundamentals

import (
	"context"
	"math/rand"
	"time"
)

// StatementFetcher retrieves raw income and balance-sheet observations for
// one symbol. Missing line items are NA; only retrieval failures are errors.
type StatementFetcher interface {
	FetchStatements(ctx context.Context, symbol string, g Granularity) (Statements, error)
}

// Holder is one row of a symbol's institutional holders table. Percentages
// are fractions as reported by the provider (0.0912 is 9.12%).
type Holder struct {
	Name      string `json:"name"`
	PctHeld   Value  `json:"pct_held"`
	PctChange Value  `json:"pct_change"`
}

// HoldingsFetcher retrieves institutional holders for one symbol.
type HoldingsFetcher interface {
	FetchHolders(ctx context.Context, symbol string) ([]Holder, error)
}

// MockStatementFetcher generates deterministic synthetic statements. The
// same symbol always yields the same data.
type MockStatementFetcher struct {
	// Periods is the number of periods generated per symbol
	Periods int
	Now     func() time.Time
}

// NewMockStatementFetcher creates a mock fetcher generating five periods
// ending before now.
func NewMockStatementFetcher() *MockStatementFetcher {
	return &MockStatementFetcher{Periods: 5, Now: time.Now}
}

func symbolSeed(symbol string) int64 {
	var seed int64
	for _, c := range symbol {
		seed = seed*31 + int64(c)
	}
	return seed
}

// FetchStatements generates mock statements for symbol.
func (m *MockStatementFetcher) FetchStatements(ctx context.Context, symbol string, g Granularity) (Statements, error) {
	if err := ctx.Err(); err != nil {
		return Statements{}, err
	}
	r := rand.New(rand.NewSource(symbolSeed(symbol)))
	now := m.Now
	if now == nil {
		now = time.Now
	}

	last := AnnualPeriod(now().Year() - 1)
	if g == Quarterly {
		last = PeriodFromDate(Quarterly, now().AddDate(0, -3, 0))
	}

	st := Statements{Symbol: symbol}
	grossProfit := 1e9 + r.Float64()*9e9
	eps := 0.5 + r.Float64()*5
	liabilities := 5e8 + r.Float64()*5e9
	assets := liabilities * (2 + r.Float64()*3)

	p := last
	periods := make([]Period, m.Periods)
	for i := m.Periods - 1; i >= 0; i-- {
		periods[i] = p
		p = p.Prev()
	}

	for i, p := range periods {
		grossProfit *= 0.9 + r.Float64()*0.3
		eps *= 0.85 + r.Float64()*0.35
		liabilities *= 0.9 + r.Float64()*0.25
		assets *= 0.95 + r.Float64()*0.15

		income := IncomeObservation{Period: p, GrossProfit: Of(grossProfit), DilutedEPS: Of(eps * 0.98)}
		// every third period reports diluted EPS only
		if i%3 != 2 {
			income.BasicEPS = Of(eps)
		}
		st.Income = append(st.Income, income)

		balance := BalanceObservation{Period: p, CurrentLiabilities: Of(liabilities), TotalAssets: Of(assets)}
		if r.Float64() < 0.7 {
			balance.OtherCurrentLiabilities = Of(liabilities * r.Float64() * 0.2)
		}
		st.Balance = append(st.Balance, balance)
	}
	return st, nil
}

var mockHolderNames = []string{
	"Vanguard Group Inc",
	"Blackrock Inc.",
	"State Street Corporation",
	"FMR, LLC",
	"Morgan Stanley",
	"Geode Capital Management, LLC",
}

// MockHoldingsFetcher generates deterministic synthetic holders.
type MockHoldingsFetcher struct{}

func (MockHoldingsFetcher) FetchHolders(ctx context.Context, symbol string) ([]Holder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r := rand.New(rand.NewSource(symbolSeed(symbol) + 7))
	holders := make([]Holder, 0, len(mockHolderNames))
	for _, name := range mockHolderNames {
		holders = append(holders, Holder{
			Name:      name,
			PctHeld:   Of(0.01 + r.Float64()*0.08),
			PctChange: Of(r.Float64()*0.1 - 0.05),
		})
	}
	return holders, nil
}
