package fundamentals

import (
	"sort"

	"fundamentals-ranker/internal/ta"
)

// DefaultTrendDivisor scales slopes before saturation.
const DefaultTrendDivisor = 50.0

// TrendScore converts a chronological series of percentage changes into a
// score in (-1, 1). NA entries are dropped; fewer than two remaining values
// score exactly 0.
func TrendScore(values []Value, divisor float64) float64 {
	if divisor == 0 {
		divisor = DefaultTrendDivisor
	}
	vals := make([]float64, 0, len(values))
	for _, v := range values {
		if f, ok := v.Float64(); ok {
			vals = append(vals, f)
		}
	}
	if len(vals) < 2 {
		return 0
	}
	return ta.Saturate(ta.Slope(vals), divisor)
}

// ChronologicalValues returns row's cells for m oldest-to-newest, whatever
// order the columns are stored in.
func ChronologicalValues(row WideRow, m Metric) []Value {
	idx := make([]int, len(row.Periods))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return row.Periods[idx[a]].Before(row.Periods[idx[b]]) })

	series := row.series(m)
	out := make([]Value, 0, len(idx))
	for _, i := range idx {
		if i < len(series) {
			out = append(out, series[i])
		}
	}
	return out
}

// scoreTrends fills the three trend scores. Shrinking liabilities are
// favourable, so that score is negated.
func scoreTrends(row WideRow, divisor float64) ScoredRow {
	scored := ScoredRow{WideRow: row}
	scored.GPTrendScore = TrendScore(ChronologicalValues(row, GrossProfitMetric), divisor)
	scored.EPSTrendScore = TrendScore(ChronologicalValues(row, EPSMetric), divisor)
	if s := TrendScore(ChronologicalValues(row, LiabilityMetric), divisor); s != 0 {
		scored.LiabilityTrendScore = -s
	}
	return scored
}
