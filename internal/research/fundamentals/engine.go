package fundamentals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fundamentals-ranker/internal/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ErrEmptyUniverse is returned when there is nothing to rank.
var ErrEmptyUniverse = errors.New("empty symbol universe")

// Diagnostic stages
const (
	StageFetch = "fetch"
	StageMerge = "merge"
)

// HoldingsSummarizer renders a symbol's institutional holdings as free text.
// It never fails; errors are part of the text.
type HoldingsSummarizer interface {
	Summary(ctx context.Context, symbol string) string
}

// Engine runs the merge, derive, reshape, score and rank pipeline for one
// granularity.
type Engine struct {
	config     Config
	statements StatementFetcher
	holdings   HoldingsSummarizer
}

// Option configures an Engine.
type Option func(*Engine)

// WithHoldings attaches an institutional holdings column source.
func WithHoldings(h HoldingsSummarizer) Option {
	return func(e *Engine) {
		e.holdings = h
	}
}

// NewEngine creates an engine. Zero config fields take their defaults.
func NewEngine(config Config, statements StatementFetcher, opts ...Option) *Engine {
	def := GetDefaultConfig(config.Granularity)
	if config.WindowSize <= 0 {
		config.WindowSize = def.WindowSize
	}
	if config.TrendDivisor == 0 {
		config.TrendDivisor = def.TrendDivisor
	}
	if config.Workers <= 0 {
		config.Workers = def.Workers
	}
	if config.Now == nil {
		config.Now = def.Now
	}

	e := &Engine{config: config, statements: statements}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns the effective engine configuration.
func (e *Engine) Config() Config { return e.config }

type symbolResult struct {
	records  []StatementRecord
	holdings string
	diag     *Diagnostic
}

// Rank fetches and ranks the universe. A symbol that cannot be fetched or
// merged is reported as a diagnostic and kept with all cells NA. Only an
// empty universe or a cancelled context fails the run.
func (e *Engine) Rank(ctx context.Context, symbols []string) (*Table, error) {
	if len(symbols) == 0 {
		return nil, ErrEmptyUniverse
	}
	policy := NewWindowPolicy(e.config)

	// each goroutine owns one slot; nothing is read until Wait returns
	results := make([]symbolResult, len(symbols))
	g := new(errgroup.Group)
	g.SetLimit(e.config.Workers)

	for i, symbol := range symbols {
		i, symbol := i, symbol
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = e.collect(ctx, symbol, policy)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("rank %s universe: %w", e.config.Granularity, err)
	}

	records := make(map[string][]StatementRecord, len(symbols))
	holdings := make(map[string]string, len(symbols))
	diags := make([]Diagnostic, 0)
	for i, symbol := range symbols {
		res := results[i]
		if res.diag != nil {
			diags = append(diags, *res.diag)
		}
		records[symbol] = res.records
		holdings[symbol] = res.holdings
	}

	table := assemble(e.config, policy, symbols, records, holdings)
	table.Diagnostics = diags

	for _, row := range table.Rows {
		logger.Score(ctx, row.Symbol, row.Rank, row.FinalScore,
			"granularity", table.Granularity,
			"gp_trend", row.GPTrendScore,
			"liability_trend", row.LiabilityTrendScore,
			"eps_trend", row.EPSTrendScore,
		)
	}
	return table, nil
}

func (e *Engine) collect(ctx context.Context, symbol string, policy WindowPolicy) symbolResult {
	var res symbolResult
	if e.holdings != nil {
		res.holdings = e.holdings.Summary(ctx, symbol)
	}

	st, err := e.statements.FetchStatements(ctx, symbol, e.config.Granularity)
	if err != nil {
		logger.Skip(ctx, symbol, StageFetch, err, "granularity", e.config.Granularity.String())
		res.diag = &Diagnostic{Symbol: symbol, Stage: StageFetch, Error: err.Error()}
		return res
	}
	st.Symbol = symbol

	records, err := deriveSymbol(st, policy)
	if err != nil {
		logger.Skip(ctx, symbol, StageMerge, err, "granularity", e.config.Granularity.String())
		res.diag = &Diagnostic{Symbol: symbol, Stage: StageMerge, Error: err.Error()}
		return res
	}
	res.records = records
	return res
}

// deriveSymbol merges one symbol's statements within the window's pre-filter
// and derives its series.
func deriveSymbol(st Statements, policy WindowPolicy) ([]StatementRecord, error) {
	records, err := MergeStatements(st, policy.Include)
	if err != nil {
		return nil, err
	}
	return DeriveSeries(records), nil
}

// BuildTable ranks already-retrieved statements without any I/O. Symbols
// missing from statements get empty rows; merge failures become diagnostics.
func BuildTable(config Config, universe []string, statements map[string]Statements, holdings map[string]string) (*Table, error) {
	if len(universe) == 0 {
		return nil, ErrEmptyUniverse
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if config.WindowSize <= 0 {
		config.WindowSize = GetDefaultConfig(config.Granularity).WindowSize
	}
	policy := NewWindowPolicy(config)

	records := make(map[string][]StatementRecord, len(universe))
	diags := make([]Diagnostic, 0)
	for _, symbol := range universe {
		st, ok := statements[symbol]
		if !ok {
			continue
		}
		st.Symbol = symbol
		recs, err := deriveSymbol(st, policy)
		if err != nil {
			diags = append(diags, Diagnostic{Symbol: symbol, Stage: StageMerge, Error: err.Error()})
			continue
		}
		records[symbol] = recs
	}

	table := assemble(config, policy, universe, records, holdings)
	table.Diagnostics = diags
	return table, nil
}

// assemble is the barrier stage: everything below needs the whole universe.
func assemble(config Config, policy WindowPolicy, universe []string, records map[string][]StatementRecord, holdings map[string]string) *Table {
	all := make([][]StatementRecord, 0, len(records))
	for _, symbol := range universe {
		all = append(all, records[symbol])
	}
	columns := policy.Columns(all)

	rows := Reshape(universe, records, columns)
	for i := range rows {
		rows[i].InstitutionalHoldings = holdings[rows[i].Symbol]
	}

	return &Table{
		RunID:       uuid.NewString(),
		Granularity: config.Granularity.String(),
		GeneratedAt: config.Now(),
		Periods:     columns,
		Tags:        policy.Tags(),
		Rows:        Rank(rows, config.TrendDivisor),
	}
}
