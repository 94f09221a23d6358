package fundamentals

import (
	"sort"

	"fundamentals-ranker/internal/ta"
)

// WindowPolicy decides which periods enter the merge and which become
// output columns, and in what order.
type WindowPolicy interface {
	// Include pre-filters periods before merging
	Include(p Period) bool
	// Columns returns the target periods in stored column order
	Columns(all [][]StatementRecord) []Period
	// Tags returns the column suffix for each metric
	Tags() MetricTags
}

// AnnualWindow keeps the CurrentYear and the Size-1 fiscal years before it,
// stored most-recent-first.
type AnnualWindow struct {
	CurrentYear int
	Size        int
}

func (w AnnualWindow) Include(p Period) bool {
	return p.Year <= w.CurrentYear && p.Year > w.CurrentYear-w.Size
}

func (w AnnualWindow) Columns([][]StatementRecord) []Period {
	cols := make([]Period, 0, w.Size)
	for i := 0; i < w.Size; i++ {
		cols = append(cols, AnnualPeriod(w.CurrentYear-i))
	}
	return cols
}

func (w AnnualWindow) Tags() MetricTags {
	return MetricTags{GrossProfit: "(GP%)", Liability: "(LiabilityYOY%)", EPS: "(EPS%)"}
}

// QuarterlyWindow merges every quarter and keeps the Size most recent quarters
// present anywhere in the dataset, stored oldest-to-newest.
type QuarterlyWindow struct {
	Size int
}

func (w QuarterlyWindow) Include(Period) bool { return true }

func (w QuarterlyWindow) Columns(all [][]StatementRecord) []Period {
	seen := make(map[Period]bool)
	periods := make([]Period, 0)
	for _, records := range all {
		for _, rec := range records {
			if !seen[rec.Period] {
				seen[rec.Period] = true
				periods = append(periods, rec.Period)
			}
		}
	}
	sort.Slice(periods, func(i, j int) bool { return periods[i].Before(periods[j]) })
	if len(periods) > w.Size {
		periods = periods[len(periods)-w.Size:]
	}
	return periods
}

func (w QuarterlyWindow) Tags() MetricTags {
	return MetricTags{GrossProfit: "(GP%)", Liability: "(Liability%)", EPS: "(EPS%)"}
}

// NewWindowPolicy builds the policy for cfg. The annual window ends at the
// last completed calendar year.
func NewWindowPolicy(cfg Config) WindowPolicy {
	if cfg.Granularity == Quarterly {
		return QuarterlyWindow{Size: cfg.WindowSize}
	}
	now := cfg.Now
	if now == nil {
		now = GetDefaultConfig(Annual).Now
	}
	return AnnualWindow{CurrentYear: now().Year() - 1, Size: cfg.WindowSize}
}

// ColumnName is the output column for metric m in period p.
func ColumnName(tags MetricTags, m Metric, p Period) string {
	return p.Label() + tags.For(m)
}

// Reshape pivots derived records into one WideRow per universe symbol, in
// universe order. Symbols with no records still get a row of NA cells.
func Reshape(universe []string, records map[string][]StatementRecord, columns []Period) []WideRow {
	rows := make([]WideRow, 0, len(universe))
	for _, symbol := range universe {
		recs := records[symbol]
		byPeriod := make(map[Period]StatementRecord, len(recs))
		for _, rec := range recs {
			byPeriod[rec.Period] = rec
		}

		row := WideRow{
			Symbol:                symbol,
			Periods:               append([]Period(nil), columns...),
			GrossProfitChange:     make([]Value, len(columns)),
			LiabilityChange:       make([]Value, len(columns)),
			EPSChange:             make([]Value, len(columns)),
			LiabilityToAssetRatio: MeanRatio(recs),
		}
		for i, p := range columns {
			rec, ok := byPeriod[p]
			if !ok {
				continue
			}
			row.GrossProfitChange[i] = rec.change(GrossProfitMetric)
			row.LiabilityChange[i] = rec.change(LiabilityMetric)
			row.EPSChange[i] = rec.change(EPSMetric)
		}
		rows = append(rows, row)
	}
	return rows
}

// MeanRatio averages the available liability-to-asset ratios over all of a
// symbol's periods.
func MeanRatio(records []StatementRecord) Value {
	vals := make([]float64, 0, len(records))
	for _, rec := range records {
		if v, ok := rec.LiabilityToAssetRatio.Float64(); ok {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return NA
	}
	return Of(ta.Mean(vals))
}
