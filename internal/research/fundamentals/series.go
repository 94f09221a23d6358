package fundamentals

import "sort"

// DeriveSeries sorts one symbol's records by period and fills the derived
// fields. Changes are taken against the previous available record, not the
// previous calendar period; the first record has no base and stays NA.
func DeriveSeries(records []StatementRecord) []StatementRecord {
	out := make([]StatementRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Period.Before(out[j].Period) })

	for i := range out {
		rec := &out[i]
		rec.LiabilityToAssetRatio = LiabilityToAssetRatio(rec.CurrentLiabilities, rec.OtherCurrentLiabilities, rec.TotalAssets)

		if i == 0 {
			rec.GrossProfitChange, rec.EPSChange, rec.LiabilityChange = NA, NA, NA
			continue
		}
		prev := out[i-1]
		rec.GrossProfitChange = PercentChange(prev.GrossProfit, rec.GrossProfit)
		rec.EPSChange = PercentChange(prev.EPS, rec.EPS)
		rec.LiabilityChange = PercentChange(prev.CurrentLiabilities, rec.CurrentLiabilities)
	}
	return out
}

// LiabilityToAssetRatio is (current + other current liabilities) / total
// assets * 100, with absent liabilities counted as 0. NA when total assets
// is absent or zero.
func LiabilityToAssetRatio(current, other, totalAssets Value) Value {
	liabilities := Of(current.OrZero() + other.OrZero())
	return liabilities.Div(totalAssets).Mul(Of(100))
}
