package fundamentals

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func values(fs ...float64) []Value {
	out := make([]Value, len(fs))
	for i, f := range fs {
		out[i] = Of(f)
	}
	return out
}

func TestTrendScore(t *testing.T) {
	assert.Equal(t, 0.0, TrendScore(nil, 50))
	assert.Equal(t, 0.0, TrendScore(values(12), 50))
	assert.Equal(t, 0.0, TrendScore([]Value{NA, Of(3), NA}, 50), "one value left after dropping NA")
	assert.Equal(t, 0.0, TrendScore(values(5, 5, 5, 5), 50))

	up := TrendScore(values(1, 2, 3, 4), 50)
	assert.InDelta(t, math.Tanh(1.0/50), up, 1e-12)
	assert.Greater(t, TrendScore(values(-10, 0, 10, 20), 50), 0.0)
	assert.Less(t, TrendScore(values(40, 30, 20, 10), 50), 0.0)

	steep := TrendScore(values(0, 1e6, 2e6, 3e6), 50)
	assert.Greater(t, steep, 0.0)
	assert.Less(t, steep, 1.0)

	// EPS from 0.01 to 0.5 is a 4900% change; tanh alone rounds that to ±1
	jump := TrendScore(values(-50, 4900), 50)
	drop := TrendScore(values(4900, -50), 50)
	assert.Less(t, jump, 1.0)
	assert.Greater(t, jump, 0.99)
	assert.Greater(t, drop, -1.0)
	assert.Less(t, drop, -0.99)

	// NA entries are dropped, not treated as zero
	assert.InDelta(t, TrendScore(values(10, 20), 50), TrendScore([]Value{Of(10), NA, Of(20)}, 50), 1e-12)
}

func TestChronologicalValues_ReordersNewestFirst(t *testing.T) {
	row := WideRow{
		Periods:           []Period{AnnualPeriod(2024), AnnualPeriod(2023), AnnualPeriod(2022)},
		GrossProfitChange: values(30, 20, 10),
	}
	assert.Equal(t, values(10, 20, 30), ChronologicalValues(row, GrossProfitMetric))
	assert.Greater(t, scoreTrends(row, 50).GPTrendScore, 0.0)
}

func TestScoreTrends_NegatesLiability(t *testing.T) {
	row := WideRow{
		Periods:         []Period{QuarterPeriod(2024, 1), QuarterPeriod(2024, 2), QuarterPeriod(2024, 3)},
		LiabilityChange: values(10, 0, -10),
	}
	scored := scoreTrends(row, 50)
	assert.InDelta(t, -TrendScore(row.LiabilityChange, 50), scored.LiabilityTrendScore, 1e-12)
	assert.Greater(t, scored.LiabilityTrendScore, 0.0)

	flat := scoreTrends(WideRow{Periods: row.Periods, LiabilityChange: values(1, 1, 1)}, 50)
	assert.False(t, math.Signbit(flat.LiabilityTrendScore), "no negative zero")

	surge := scoreTrends(WideRow{Periods: row.Periods[:2], LiabilityChange: values(-50, 4900)}, 50)
	assert.Greater(t, surge.LiabilityTrendScore, -1.0)
	assert.Less(t, surge.LiabilityTrendScore, -0.99)
}

func TestNormalizeRatios(t *testing.T) {
	rows := []ScoredRow{
		{WideRow: WideRow{Symbol: "A", LiabilityToAssetRatio: Of(10)}},
		{WideRow: WideRow{Symbol: "B", LiabilityToAssetRatio: Of(20)}},
		{WideRow: WideRow{Symbol: "C", LiabilityToAssetRatio: Of(30)}},
		{WideRow: WideRow{Symbol: "D", LiabilityToAssetRatio: NA}},
	}
	NormalizeRatios(rows)

	assert.Equal(t, Of(0), rows[0].LiabilityToAssetScore)
	assert.Equal(t, Of(0.5), rows[1].LiabilityToAssetScore)
	assert.Equal(t, Of(1), rows[2].LiabilityToAssetScore)
	assert.False(t, rows[3].LiabilityToAssetScore.Valid())
}

func TestNormalizeRatios_Degenerate(t *testing.T) {
	rows := []ScoredRow{
		{WideRow: WideRow{Symbol: "A", LiabilityToAssetRatio: Of(25)}},
		{WideRow: WideRow{Symbol: "B", LiabilityToAssetRatio: Of(25)}},
	}
	NormalizeRatios(rows)
	for _, r := range rows {
		assert.Equal(t, Of(0), r.LiabilityToAssetScore)
	}

	single := []ScoredRow{{WideRow: WideRow{Symbol: "A", LiabilityToAssetRatio: Of(40)}}}
	NormalizeRatios(single)
	assert.Equal(t, Of(0), single[0].LiabilityToAssetScore)
}

func TestRank_OrderAndTies(t *testing.T) {
	periods := []Period{AnnualPeriod(2023), AnnualPeriod(2022)}
	rows := []WideRow{
		{Symbol: "LOW", Periods: periods, LiabilityToAssetRatio: Of(10)},
		{Symbol: "EMPTY", Periods: periods, LiabilityToAssetRatio: NA},
		{Symbol: "HIGH", Periods: periods, LiabilityToAssetRatio: Of(50)},
		{Symbol: "TIE", Periods: periods, LiabilityToAssetRatio: Of(10)},
	}

	ranked := Rank(rows, 50)
	require.Len(t, ranked, 4)

	symbols := make([]string, len(ranked))
	for i, r := range ranked {
		symbols[i] = r.Symbol
		assert.Equal(t, i+1, r.Rank)
	}
	// LOW, EMPTY and TIE all score 0 and keep input order
	assert.Equal(t, []string{"HIGH", "LOW", "EMPTY", "TIE"}, symbols)
	assert.Equal(t, 1.0, ranked[0].FinalScore)
	assert.Equal(t, 0.0, ranked[2].FinalScore)
}

func TestRank_FinalScoreSumsComponents(t *testing.T) {
	periods := []Period{AnnualPeriod(2024), AnnualPeriod(2023), AnnualPeriod(2022)}
	rows := []WideRow{
		{
			Symbol:                "A",
			Periods:               periods,
			GrossProfitChange:     values(30, 20, 10),
			LiabilityChange:       values(-5, 0, 5),
			EPSChange:             []Value{Of(8), NA, Of(4)},
			LiabilityToAssetRatio: Of(40),
		},
		{Symbol: "B", Periods: periods, LiabilityToAssetRatio: Of(20)},
	}

	ranked := Rank(rows, 50)
	a := ranked[0]
	require.Equal(t, "A", a.Symbol)
	assert.Greater(t, a.GPTrendScore, 0.0)
	assert.Greater(t, a.LiabilityTrendScore, 0.0)
	assert.Greater(t, a.EPSTrendScore, 0.0)
	assert.Equal(t, Of(1), a.LiabilityToAssetScore)
	assert.InDelta(t, a.GPTrendScore+a.LiabilityTrendScore+a.EPSTrendScore+1, a.FinalScore, 1e-12)
	assert.Equal(t, 0.0, ranked[1].FinalScore)
}
