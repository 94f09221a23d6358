package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"fundamentals-ranker/internal/export"
	"fundamentals-ranker/internal/logger"
	"fundamentals-ranker/internal/research/fundamentals"
	"fundamentals-ranker/internal/runlog"
	"fundamentals-ranker/internal/trace"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	granularity := flag.String("granularity", "", "annual, quarterly or both (default: from config)")
	outDir := flag.String("out-dir", "", "directory for output tables (overrides output.dir)")
	top := flag.Int("top", 0, "number of ranked symbols to print (overrides output.top)")
	flag.Parse()

	if err := initializeSystem(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer func() {
		_ = trace.Shutdown(context.Background())
	}()

	if err := run(ctx, *configPath, *granularity, *outDir, *top); err != nil {
		logger.ErrorWithErr(ctx, "Run failed", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath, granularity, outDir string, top int) error {
	cfg, err := loadConfig(ctx, configPath)
	if err != nil {
		return err
	}
	if granularity != "" {
		cfg.Engine.Granularities = expandGranularity(granularity)
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("-granularity: %w", err)
		}
	}
	if outDir != "" {
		cfg.Output.Dir = outDir
	}
	if top > 0 {
		cfg.Output.Top = top
	}

	audit := runlog.New(runlog.DirFromEnv())
	compressOldLogs(ctx, audit, cfg.Log.RetentionDays)

	symbols, err := loadUniverse(ctx, cfg)
	if err != nil {
		return fmt.Errorf("load universe: %w", err)
	}
	if len(symbols) == 0 {
		return fundamentals.ErrEmptyUniverse
	}
	fmt.Printf("Ranking %d symbols (%s data)\n\n", len(symbols), cfg.DataSource)

	src := initializeSources(ctx, cfg)
	for _, g := range cfg.Granularities() {
		ranker := initializeRanker(cfg, g, src)

		start := time.Now()
		table, err := ranker.Rank(ctx, symbols)
		if err != nil {
			return err
		}
		elapsed := time.Since(start)

		path := cfg.OutputPath(g)
		if err := export.Write(path, table); err != nil {
			return fmt.Errorf("export %s table: %w", g, err)
		}
		if err := audit.Record(table, elapsed, path); err != nil {
			logger.Warn(ctx, "Failed to write run log", "error", err)
		}

		printSummary(table, cfg.Output.Top, path, elapsed)
	}
	return nil
}

func expandGranularity(s string) []string {
	if strings.EqualFold(strings.TrimSpace(s), "both") {
		return []string{"annual", "quarterly"}
	}
	return []string{s}
}

func printSummary(table *fundamentals.Table, top int, path string, elapsed time.Duration) {
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Printf("  %s ranking  (run %s)\n", strings.ToUpper(table.Granularity), table.RunID)
	fmt.Println("═══════════════════════════════════════════════════════════════")

	labels := make([]string, len(table.Periods))
	for i, p := range table.Periods {
		labels[i] = p.Label()
	}
	fmt.Printf("Periods:     %s\n", strings.Join(labels, ", "))
	fmt.Printf("Symbols:     %d (%d skipped)\n", len(table.Rows), len(table.Diagnostics))
	fmt.Printf("Duration:    %s\n", elapsed.Round(time.Millisecond))
	fmt.Printf("Saved to:    %s\n\n", path)

	fmt.Printf("%4s  %-8s %8s %8s %8s %8s %8s\n", "Rank", "Symbol", "GP", "Liab", "EPS", "L/A", "Final")
	for _, row := range table.Top(top) {
		fmt.Printf("%4d  %-8s %8.3f %8.3f %8.3f %8s %8.3f\n",
			row.Rank, row.Symbol,
			row.GPTrendScore, row.LiabilityTrendScore, row.EPSTrendScore,
			formatScore(row.LiabilityToAssetScore), row.FinalScore)
	}

	if len(table.Diagnostics) > 0 {
		fmt.Println()
		fmt.Println("Skipped:")
		for _, d := range table.Diagnostics {
			fmt.Printf("  %-8s %-6s %s\n", d.Symbol, d.Stage, d.Error)
		}
	}
	fmt.Println()
}

func formatScore(v fundamentals.Value) string {
	f, ok := v.Float64()
	if !ok {
		return "NA"
	}
	return fmt.Sprintf("%.3f", f)
}
