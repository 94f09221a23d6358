// Package holdings renders institutional ownership for a fixed allowlist of
// organizations into the free-text column of the ranked table.
package holdings

import (
	"context"
	"fmt"
	"strings"

	"fundamentals-ranker/internal/research/fundamentals"
)

const (
	NoMatch = "No match"
	NoData  = "No institutional holders data"
)

// DefaultOrganizations is the allowlist matched against holder names.
var DefaultOrganizations = []string{
	"Vanguard", "Charles Schwab", "BlackRock", "Morgan Stanley",
	"BNY Mellon", "Fidelity", "Goldman Sachs", "Standard Chartered",
	"UBS Group", "Wells Fargo", "Berkshire Hathaway", "JPMorgan Chase & Co",
}

// Summarize renders the first holder matching each organization, in
// allowlist order. Matching is a case-insensitive substring test.
func Summarize(holders []fundamentals.Holder, err error, organizations []string) string {
	if err != nil {
		return "Error: " + err.Error()
	}
	if len(holders) == 0 {
		return NoData
	}

	parts := make([]string, 0, len(organizations))
	for _, org := range organizations {
		needle := strings.ToLower(org)
		for _, h := range holders {
			if strings.Contains(strings.ToLower(h.Name), needle) {
				parts = append(parts, fmt.Sprintf("%s: Held %s%% | Change %s%%", h.Name, percent(h.PctHeld), percent(h.PctChange)))
				break
			}
		}
	}
	if len(parts) == 0 {
		return NoMatch
	}
	return strings.Join(parts, "; ")
}

// percent formats a fraction as a two-decimal percentage.
func percent(v fundamentals.Value) string {
	f, ok := v.Mul(fundamentals.Of(100)).Float64()
	if !ok {
		return "NA"
	}
	return fmt.Sprintf("%.2f", f)
}

// Reporter fetches holders and summarizes them per symbol.
type Reporter struct {
	fetcher       fundamentals.HoldingsFetcher
	organizations []string
}

// NewReporter creates a reporter. An empty allowlist uses DefaultOrganizations.
func NewReporter(fetcher fundamentals.HoldingsFetcher, organizations []string) *Reporter {
	if len(organizations) == 0 {
		organizations = DefaultOrganizations
	}
	return &Reporter{fetcher: fetcher, organizations: organizations}
}

// Summary implements fundamentals.HoldingsSummarizer.
func (r *Reporter) Summary(ctx context.Context, symbol string) string {
	holders, err := r.fetcher.FetchHolders(ctx, symbol)
	return Summarize(holders, err, r.organizations)
}
