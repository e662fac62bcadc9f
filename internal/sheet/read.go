package sheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"depara/internal/config"
	"depara/internal/record"
)

// ErrMissingSheet is returned when a workbook lacks the DE or RASTREIO sheet.
var ErrMissingSheet = errors.New("missing sheet")

// Workbook holds the raw rows of both record lists.
type Workbook struct {
	Source     []record.Row
	Candidates []record.Row
}

// ReadWorkbookFile opens an .xlsx file and reads both lists.
func ReadWorkbookFile(path string, names config.Sheets) (Workbook, error) {
	f, err := os.Open(path)
	if err != nil {
		return Workbook{}, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()

	return ReadWorkbook(f, names)
}

// ReadWorkbook reads both lists from an .xlsx stream.
func ReadWorkbook(r io.Reader, names config.Sheets) (Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Workbook{}, fmt.Errorf("failed to read workbook: %w", err)
	}
	defer f.Close()

	if err := requireSheets(f, names.Source, names.Candidates); err != nil {
		return Workbook{}, err
	}

	src, err := sheetRows(f, names.Source)
	if err != nil {
		return Workbook{}, err
	}

	cand, err := sheetRows(f, names.Candidates)
	if err != nil {
		return Workbook{}, err
	}

	return Workbook{Source: src, Candidates: cand}, nil
}

func requireSheets(f *excelize.File, names ...string) error {
	present := make(map[string]struct{})
	for _, name := range f.GetSheetList() {
		present[name] = struct{}{}
	}

	for _, name := range names {
		if _, ok := present[name]; !ok {
			return fmt.Errorf("%w: workbook must contain sheets %q and %q", ErrMissingSheet, names[0], names[len(names)-1])
		}
	}

	return nil
}

func sheetRows(f *excelize.File, name string) ([]record.Row, error) {
	rows, err := f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", name, err)
	}

	return tableToRows(rows), nil
}

// ReadCSVFile reads a header-first CSV file. Files ending in .tsv are read
// tab-separated.
func ReadCSVFile(path string) ([]record.Row, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}

	delim := ','
	if strings.EqualFold(filepath.Ext(path), ".tsv") {
		delim = '\t'
	}

	rows, err := ReadCSV(bytes.NewReader(data), delim)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}

	return rows, nil
}

// ReadCSV reads a header-first delimited stream.
func ReadCSV(r io.Reader, delim rune) ([]record.Row, error) {
	reader := csv.NewReader(r)
	reader.Comma = delim
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	table, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	if len(table) > 0 && len(table[0]) > 0 {
		table[0][0] = strings.TrimPrefix(table[0][0], "\ufeff")
	}

	return tableToRows(table), nil
}

// tableToRows keys every data row by the header row. Blank rows and
// columns without a header are dropped.
func tableToRows(table [][]string) []record.Row {
	if len(table) == 0 {
		return nil
	}

	header := make([]string, len(table[0]))
	for i, h := range table[0] {
		header[i] = strings.TrimSpace(h)
	}

	rows := make([]record.Row, 0, len(table)-1)

	for _, cells := range table[1:] {
		row := make(record.Row, len(header))
		blank := true

		for i, h := range header {
			if h == "" || i >= len(cells) {
				continue
			}

			v := strings.TrimSpace(cells[i])
			if v != "" {
				blank = false
			}

			row[h] = v
		}

		if blank {
			continue
		}

		rows = append(rows, row)
	}

	return rows
}
