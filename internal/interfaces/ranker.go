package interfaces

import (
	"context"

	"fundamentals-ranker/internal/research/fundamentals"
)

// Ranker runs the fundamentals ranking pipeline for one granularity.
type Ranker interface {
	// Rank fetches statements for symbols and returns the ranked table
	Rank(ctx context.Context, symbols []string) (*fundamentals.Table, error)

	// Config returns the effective engine configuration
	Config() fundamentals.Config
}
