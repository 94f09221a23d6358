// Package export writes ranked tables to disk.
package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"fundamentals-ranker/internal/research/fundamentals"

	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet holding the table in xlsx output.
const SheetName = "All_Data"

// ErrUnsupportedFormat is returned for file extensions with no writer.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Write saves table to path, choosing the format from the extension:
// .xlsx, .csv or .json. Parent directories are created.
func Write(path string, table *fundamentals.Table) error {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".xlsx", ".csv", ".json":
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	if ext == ".xlsx" {
		return WriteXLSX(path, table)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if ext == ".csv" {
		err = WriteCSV(f, table)
	} else {
		err = WriteJSON(f, table)
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// WriteXLSX saves table as a single-sheet workbook. Not-available cells are
// left empty.
func WriteXLSX(path string, table *fundamentals.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	if err := writeRow(f, 1, toAny(table.Header())); err != nil {
		return err
	}
	for i, row := range table.Rows {
		if err := writeRow(f, i+2, table.Record(row)); err != nil {
			return err
		}
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		XSplit:      1,
		YSplit:      1,
		TopLeftCell: "B2",
		ActivePane:  "bottomRight",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func writeRow(f *excelize.File, row int, cells []any) error {
	for col, v := range cells {
		if v == nil {
			continue
		}
		name, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(SheetName, name, v); err != nil {
			return fmt.Errorf("set %s: %w", name, err)
		}
	}
	return nil
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// WriteCSV writes the header and one line per row. Not-available cells are
// empty.
func WriteCSV(w io.Writer, table *fundamentals.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(table.Header()); err != nil {
		return err
	}
	for _, row := range table.Rows {
		rec := table.Record(row)
		line := make([]string, len(rec))
		for i, v := range rec {
			line[i] = formatCell(v)
		}
		if err := cw.Write(line); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

// jsonTable is the JSON document layout: the header once, then each row as
// an array aligned with it.
type jsonTable struct {
	RunID       string                    `json:"run_id"`
	Granularity string                    `json:"granularity"`
	GeneratedAt string                    `json:"generated_at"`
	Columns     []string                  `json:"columns"`
	Rows        [][]any                   `json:"rows"`
	Diagnostics []fundamentals.Diagnostic `json:"diagnostics"`
}

// WriteJSON writes the table as one JSON document. Not-available cells are
// null.
func WriteJSON(w io.Writer, table *fundamentals.Table) error {
	doc := jsonTable{
		RunID:       table.RunID,
		Granularity: table.Granularity,
		GeneratedAt: table.GeneratedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		Columns:     table.Header(),
		Rows:        make([][]any, 0, len(table.Rows)),
		Diagnostics: table.Diagnostics,
	}
	if doc.Diagnostics == nil {
		doc.Diagnostics = []fundamentals.Diagnostic{}
	}
	for _, row := range table.Rows {
		doc.Rows = append(doc.Rows, table.Record(row))
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
