package fundamentals

import (
	"sort"

	"fundamentals-ranker/internal/ta"
)

// NormalizeRatios min-max scales each row's mean liability-to-asset ratio
// across the universe. Rows without a ratio stay NA. When every available
// ratio is equal there is no spread to scale and all of them score 0.
func NormalizeRatios(rows []ScoredRow) {
	vals := make([]float64, 0, len(rows))
	for _, r := range rows {
		if v, ok := r.LiabilityToAssetRatio.Float64(); ok {
			vals = append(vals, v)
		}
	}
	lo, hi, ok := ta.MinMax(vals)

	for i := range rows {
		v, valid := rows[i].LiabilityToAssetRatio.Float64()
		switch {
		case !ok || !valid:
			rows[i].LiabilityToAssetScore = NA
		case hi == lo:
			rows[i].LiabilityToAssetScore = Of(0)
		default:
			rows[i].LiabilityToAssetScore = Of((v - lo) / (hi - lo))
		}
	}
}

// Rank scores trends, normalizes ratios, computes final scores and sorts
// rows by final score descending. Ties keep their input order.
func Rank(rows []WideRow, divisor float64) []ScoredRow {
	scored := make([]ScoredRow, len(rows))
	for i, row := range rows {
		scored[i] = scoreTrends(row, divisor)
	}

	NormalizeRatios(scored)

	for i := range scored {
		s := &scored[i]
		s.FinalScore = s.GPTrendScore + s.LiabilityTrendScore + s.EPSTrendScore + s.LiabilityToAssetScore.OrZero()
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].FinalScore > scored[j].FinalScore })
	for i := range scored {
		scored[i].Rank = i + 1
	}
	return scored
}
