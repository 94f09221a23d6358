package fundamentals

// Fixed output column names.
const (
	ColSymbol                = "Symbol"
	ColLiabilityToAssetRatio = "Liability_to_Asset_Ratio"
	ColHoldings              = "Institutional_Holdings"
	ColGPTrendScore          = "GP_Trend_Score"
	ColLiabilityTrendScore   = "Liability_Trend_Score"
	ColEPSTrendScore         = "EPS_Trend_Score"
	ColLiabilityToAssetScore = "Liability_to_Asset_Score"
	ColFinalScore            = "Final_Score"
)

// Header returns the output column names in order: symbol, the period
// columns grouped by metric, the mean ratio, holdings, then the scores.
func (t *Table) Header() []string {
	header := []string{ColSymbol}
	for _, m := range Metrics {
		for _, p := range t.Periods {
			header = append(header, ColumnName(t.Tags, m, p))
		}
	}
	return append(header,
		ColLiabilityToAssetRatio,
		ColHoldings,
		ColGPTrendScore,
		ColLiabilityTrendScore,
		ColEPSTrendScore,
		ColLiabilityToAssetScore,
		ColFinalScore,
	)
}

// Record returns row's cells aligned with Header. Cells are string, float64,
// or nil for not-available.
func (t *Table) Record(row ScoredRow) []any {
	rec := []any{row.Symbol}
	for _, m := range Metrics {
		for _, p := range t.Periods {
			rec = append(rec, cell(row.Cell(m, p)))
		}
	}
	return append(rec,
		cell(row.LiabilityToAssetRatio),
		row.InstitutionalHoldings,
		row.GPTrendScore,
		row.LiabilityTrendScore,
		row.EPSTrendScore,
		cell(row.LiabilityToAssetScore),
		row.FinalScore,
	)
}

func cell(v Value) any {
	if f, ok := v.Float64(); ok {
		return f
	}
	return nil
}
