package sheet

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"depara/internal/config"
	"depara/internal/match"
)

// Result sheet columns.
var resultHeader = []string{"DE", "PARA", "SCORE_OVERALL"}

// Report is everything written for one run.
type Report struct {
	Selections   []match.Selection
	Summary      match.RunSummary
	RunID        string
	GeneratedAt  time.Time
	NoMatchLabel string
}

// FormatPercent renders a [0,1] score as a percentage with one decimal.
func FormatPercent(score float64) string {
	return strconv.FormatFloat(score*100, 'f', 1, 64) + "%"
}

// formatThreshold renders a threshold as a percentage with at most two
// decimals and no trailing zeros: 0.8 -> "80%", 0.575 -> "57.5%".
func formatThreshold(t float64) string {
	s := strconv.FormatFloat(t*100, 'f', 2, 64)
	s = strings.TrimRight(strings.TrimRight(s, "0"), ".")

	return s + "%"
}

func (r Report) noMatchLabel() string {
	if r.NoMatchLabel == "" {
		return config.DefaultNoMatchLabel
	}

	return r.NoMatchLabel
}

// ResultRows returns the result table, header first.
func (r Report) ResultRows() [][]string {
	rows := make([][]string, 0, len(r.Selections)+1)
	rows = append(rows, resultHeader)

	for _, sel := range r.Selections {
		rows = append(rows, []string{
			sel.Source.URL,
			sel.URL(r.noMatchLabel()),
			FormatPercent(sel.Score()),
		})
	}

	return rows
}

// SummaryRows returns the summary table, header first.
func (r Report) SummaryRows() [][]string {
	s := r.Summary
	pct := formatThreshold(s.Threshold)

	return [][]string{
		{"Metric", "Value"},
		{"Total DE URLs", strconv.Itoa(s.Total)},
		{"Matches with score >= " + pct, strconv.Itoa(s.AboveThresholdCount)},
		{"Matches found (total)", strconv.Itoa(s.AnyMatchCount)},
		{"Match rate >= " + pct, FormatPercent(s.AboveThresholdRate)},
		{"Total match rate", FormatPercent(s.AnyMatchRate)},
		{"Average score", FormatPercent(s.AverageScore)},
		{"Configured minimum score", pct},
		{"Processed at", r.GeneratedAt.Format("02/01/2006 15:04:05")},
		{"Run ID", r.RunID},
		{"System version", config.Version},
	}
}

// WriteWorkbook writes the report as an .xlsx stream with the result sheet
// first and the summary sheet second.
func WriteWorkbook(w io.Writer, rep Report, names config.Sheets) error {
	f := excelize.NewFile()
	defer f.Close()

	first := f.GetSheetName(0)
	if err := f.SetSheetName(first, names.Result); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", names.Result, err)
	}

	if err := writeTable(f, names.Result, rep.ResultRows()); err != nil {
		return err
	}

	if err := f.SetColWidth(names.Result, "A", "B", 50); err != nil {
		return fmt.Errorf("failed to format sheet %s: %w", names.Result, err)
	}

	if _, err := f.NewSheet(names.Summary); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", names.Summary, err)
	}

	if err := writeTable(f, names.Summary, rep.SummaryRows()); err != nil {
		return err
	}

	if err := f.SetColWidth(names.Summary, "A", "A", 32); err != nil {
		return fmt.Errorf("failed to format sheet %s: %w", names.Summary, err)
	}

	f.SetActiveSheet(0)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	return nil
}

// WorkbookBytes renders the report as an in-memory .xlsx file.
func WorkbookBytes(rep Report, names config.Sheets) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteWorkbook(&buf, rep, names); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func writeTable(f *excelize.File, sheet string, rows [][]string) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}

		values := make([]any, len(row))
		for j, v := range row {
			values[j] = v
		}

		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write sheet %s: %w", sheet, err)
		}
	}

	return nil
}

// WriteCSV writes rows as comma-separated values.
func WriteCSV(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}

	return nil
}

// WriteReportFile writes the report to path and returns the files written.
// An .xlsx path produces one workbook. Any other path produces two CSV
// files: the result table at path and the summary beside it with a
// "_summary" suffix.
func WriteReportFile(path string, rep Report, names config.Sheets) ([]string, error) {
	ext := filepath.Ext(path)
	if strings.EqualFold(ext, ".xlsx") {
		data, err := WorkbookBytes(rep, names)
		if err != nil {
			return nil, err
		}

		if err := os.WriteFile(path, data, 0o644); err != nil {
			return nil, fmt.Errorf("failed to write report %s: %w", path, err)
		}

		return []string{path}, nil
	}

	if ext == "" {
		ext = ".csv"
		path += ext
	}

	summaryPath := strings.TrimSuffix(path, ext) + "_summary" + ext

	if err := writeCSVFile(path, rep.ResultRows()); err != nil {
		return nil, err
	}

	if err := writeCSVFile(summaryPath, rep.SummaryRows()); err != nil {
		return nil, err
	}

	return []string{path, summaryPath}, nil
}

func writeCSVFile(path string, rows [][]string) error {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, rows); err != nil {
		return err
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write report %s: %w", path, err)
	}

	return nil
}
