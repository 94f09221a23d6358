// Package runlog keeps an append-only JSONL audit trail of ranking runs.
// Nothing in it is read back by later runs.
package runlog

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"fundamentals-ranker/internal/research/fundamentals"
)

type RunEntry struct {
	Time        string  `json:"time"`
	RunID       string  `json:"run_id"`
	Granularity string  `json:"granularity"`
	Symbols     int     `json:"symbols"`
	Diagnostics int     `json:"diagnostics"`
	TopSymbol   string  `json:"top_symbol,omitempty"`
	TopScore    float64 `json:"top_score,omitempty"`
	DurationMS  int64   `json:"duration_ms"`
	Output      string  `json:"output,omitempty"`
}

type DiagnosticEntry struct {
	Time        string `json:"time"`
	RunID       string `json:"run_id"`
	Granularity string `json:"granularity"`
	Symbol      string `json:"symbol"`
	Stage       string `json:"stage"`
	Error       string `json:"error"`
}

// Log writes daily files under dir: runs/<date>.jsonl and
// diagnostics/<date>.jsonl.
type Log struct {
	mu  sync.Mutex
	dir string
	now func() time.Time
}

// DirFromEnv returns RANKER_LOG_DIR, defaulting to "logs".
func DirFromEnv() string {
	if v := os.Getenv("RANKER_LOG_DIR"); v != "" {
		return v
	}
	return "logs"
}

func New(dir string) *Log {
	return &Log{dir: dir, now: time.Now}
}

func (l *Log) Dir() string { return l.dir }

func (l *Log) dailyFilepath(kind string, t time.Time) string {
	return filepath.Join(l.dir, kind, t.UTC().Format("2006-01-02")+".jsonl")
}

func (l *Log) appendLines(kind string, entries []any) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	p := l.dailyFilepath(kind, l.now())
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	for _, e := range entries {
		b, err := json.Marshal(e)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(f, string(b)); err != nil {
			return err
		}
	}
	return f.Close()
}

// Record appends the run summary and one line per diagnostic of table.
func (l *Log) Record(table *fundamentals.Table, duration time.Duration, output string) error {
	ts := l.now().UTC().Format(time.RFC3339)

	run := RunEntry{
		Time:        ts,
		RunID:       table.RunID,
		Granularity: table.Granularity,
		Symbols:     len(table.Rows),
		Diagnostics: len(table.Diagnostics),
		DurationMS:  duration.Milliseconds(),
		Output:      output,
	}
	if len(table.Rows) > 0 {
		run.TopSymbol = table.Rows[0].Symbol
		run.TopScore = table.Rows[0].FinalScore
	}
	if err := l.appendLines("runs", []any{run}); err != nil {
		return fmt.Errorf("append run entry: %w", err)
	}

	if len(table.Diagnostics) == 0 {
		return nil
	}
	diags := make([]any, 0, len(table.Diagnostics))
	for _, d := range table.Diagnostics {
		diags = append(diags, DiagnosticEntry{
			Time:        ts,
			RunID:       table.RunID,
			Granularity: table.Granularity,
			Symbol:      d.Symbol,
			Stage:       d.Stage,
			Error:       d.Error,
		})
	}
	if err := l.appendLines("diagnostics", diags); err != nil {
		return fmt.Errorf("append diagnostics: %w", err)
	}
	return nil
}

// CompressOlder gzips log files last modified more than retentionDays ago.
// Zero or less disables compression.
func (l *Log) CompressOlder(retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	cutoff := l.now().AddDate(0, 0, -retentionDays)
	return filepath.WalkDir(l.dir, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(p) != ".jsonl" {
			return nil
		}
		info, err := d.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			return nil
		}
		gz := p + ".gz"
		// already compressed by an earlier pass
		if _, err := os.Stat(gz); err == nil {
			_ = os.Remove(p)
			return nil
		}
		if err := compressFile(p, gz); err != nil {
			return fmt.Errorf("compress %s: %w", p, err)
		}
		return os.Remove(p)
	})
}

func compressFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	gw := gzip.NewWriter(out)
	if _, err := io.Copy(gw, in); err != nil {
		_ = gw.Close()
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	if err := gw.Close(); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
