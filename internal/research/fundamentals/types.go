package fundamentals

import (
	"time"
)

// IncomeObservation is one income-statement column for a period as returned
// by the market-data provider. Line items the provider did not report are NA.
type IncomeObservation struct {
	Period      Period `json:"period"`
	GrossProfit Value  `json:"gross_profit"`
	BasicEPS    Value  `json:"basic_eps"`
	DilutedEPS  Value  `json:"diluted_eps"`
}

// BalanceObservation is one balance-sheet column for a period.
type BalanceObservation struct {
	Period                  Period `json:"period"`
	CurrentLiabilities      Value  `json:"current_liabilities"`
	OtherCurrentLiabilities Value  `json:"other_current_liabilities"`
	TotalAssets             Value  `json:"total_assets"`
}

// Statements is everything the provider returned for one symbol.
type Statements struct {
	Symbol  string               `json:"symbol"`
	Income  []IncomeObservation  `json:"income"`
	Balance []BalanceObservation `json:"balance"`
}

// StatementRecord is the merged income and balance data of one
// (symbol, period), plus the series derived from it.
type StatementRecord struct {
	Symbol string `json:"symbol"`
	Period Period `json:"period"`

	GrossProfit             Value `json:"gross_profit"`
	EPS                     Value `json:"eps"`
	CurrentLiabilities      Value `json:"current_liabilities"`
	OtherCurrentLiabilities Value `json:"other_current_liabilities"`
	TotalAssets             Value `json:"total_assets"`

	// Derived by DeriveSeries
	GrossProfitChange     Value `json:"gross_profit_change"`
	EPSChange             Value `json:"eps_change"`
	LiabilityChange       Value `json:"liability_change"`
	LiabilityToAssetRatio Value `json:"liability_to_asset_ratio"`
}

// Metric identifies one of the three percentage-change series.
type Metric int

const (
	GrossProfitMetric Metric = iota
	LiabilityMetric
	EPSMetric
)

// Metrics lists the series in output column-group order.
var Metrics = []Metric{GrossProfitMetric, LiabilityMetric, EPSMetric}

// change returns the record's percentage change for m.
func (r StatementRecord) change(m Metric) Value {
	switch m {
	case LiabilityMetric:
		return r.LiabilityChange
	case EPSMetric:
		return r.EPSChange
	default:
		return r.GrossProfitChange
	}
}

// MetricTags are the column suffixes appended to period labels.
type MetricTags struct {
	GrossProfit string
	Liability   string
	EPS         string
}

func (t MetricTags) For(m Metric) string {
	switch m {
	case LiabilityMetric:
		return t.Liability
	case EPSMetric:
		return t.EPS
	default:
		return t.GrossProfit
	}
}

// WideRow is one symbol's windowed series. Periods holds the column order;
// each series slice is aligned with it.
type WideRow struct {
	Symbol                string   `json:"symbol"`
	Periods               []Period `json:"periods"`
	GrossProfitChange     []Value  `json:"gross_profit_change"`
	LiabilityChange       []Value  `json:"liability_change"`
	EPSChange             []Value  `json:"eps_change"`
	LiabilityToAssetRatio Value    `json:"liability_to_asset_ratio"`
	InstitutionalHoldings string   `json:"institutional_holdings"`
}

func (w WideRow) series(m Metric) []Value {
	switch m {
	case LiabilityMetric:
		return w.LiabilityChange
	case EPSMetric:
		return w.EPSChange
	default:
		return w.GrossProfitChange
	}
}

// Cell returns the value stored for (m, p), NA when p is not a column.
func (w WideRow) Cell(m Metric, p Period) Value {
	vals := w.series(m)
	for i, col := range w.Periods {
		if col == p && i < len(vals) {
			return vals[i]
		}
	}
	return NA
}

// ScoredRow is a WideRow with its component and final scores. Rows are built
// once per run and never mutated after ranking.
type ScoredRow struct {
	WideRow
	GPTrendScore          float64 `json:"gp_trend_score"`
	LiabilityTrendScore   float64 `json:"liability_trend_score"`
	EPSTrendScore         float64 `json:"eps_trend_score"`
	LiabilityToAssetScore Value   `json:"liability_to_asset_score"`
	FinalScore            float64 `json:"final_score"`
	Rank                  int     `json:"rank"`
}

// Diagnostic records a symbol whose data could not be collected.
type Diagnostic struct {
	Symbol string `json:"symbol"`
	Stage  string `json:"stage"` // "fetch" or "merge"
	Error  string `json:"error"`
}

// Table is the ranked output of one engine run.
type Table struct {
	RunID       string       `json:"run_id"`
	Granularity string       `json:"granularity"`
	GeneratedAt time.Time    `json:"generated_at"`
	Periods     []Period     `json:"periods"`
	Tags        MetricTags   `json:"-"`
	Rows        []ScoredRow  `json:"rows"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// Top returns the first n ranked rows.
func (t *Table) Top(n int) []ScoredRow {
	if n < 0 || n >= len(t.Rows) {
		return t.Rows
	}
	return t.Rows[:n]
}

// Config holds engine configuration.
type Config struct {
	Granularity Granularity
	// WindowSize is the number of period columns per metric
	WindowSize int
	// TrendDivisor scales a regression slope before tanh saturation
	TrendDivisor float64
	// Workers bounds concurrent per-symbol retrieval
	Workers int
	// Now anchors the annual window; defaults to time.Now
	Now func() time.Time
}

// GetDefaultConfig returns the standard window and scoring settings for g.
func GetDefaultConfig(g Granularity) Config {
	return Config{
		Granularity:  g,
		WindowSize:   4,
		TrendDivisor: 50,
		Workers:      4,
		Now:          time.Now,
	}
}
