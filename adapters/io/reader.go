package io

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"gobias/domain/core"
	"gobias/domain/table"
)

// TableReader loads a CSV or Excel file into a Frame.
type TableReader struct {
	filePath string
	fileType string // "csv" or "xlsx"
}

// NewTableReader picks the reader from the file extension.
func NewTableReader(filePath string) (*TableReader, error) {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".csv":
		return &TableReader{filePath: filePath, fileType: "csv"}, nil
	case ".xlsx", ".xls":
		return &TableReader{filePath: filePath, fileType: "xlsx"}, nil
	}
	return nil, core.NewInvalidOptionError("table file", filePath)
}

// ReadTable is the one-call convenience wrapper.
func ReadTable(filePath string) (*table.Frame, error) {
	r, err := NewTableReader(filePath)
	if err != nil {
		return nil, err
	}
	return r.Read()
}

// Read materializes the whole file. The first row is the header.
func (r *TableReader) Read() (*table.Frame, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath)
	}

	start := time.Now()
	var rows [][]string
	var err error
	switch r.fileType {
	case "csv":
		rows, err = r.readCSVRows()
	default:
		rows, err = r.readExcelRows()
	}
	if err != nil {
		return nil, err
	}
	log.Printf("[TableReader] %s read in %.2fms (%d rows)",
		r.filePath, float64(time.Since(start).Nanoseconds())/1e6, len(rows))

	if len(rows) < 2 {
		return nil, fmt.Errorf("table must have a header row and at least one data row: %s", r.filePath)
	}
	return framify(rows)
}

func (r *TableReader) readCSVRows() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // ragged rows are padded in framify
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	return rows, nil
}

func (r *TableReader) readExcelRows() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("Excel file has no sheets: %s", r.filePath)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

// framify turns a header row plus data rows into a typed Frame. Short
// rows are padded with missing cells.
func framify(rows [][]string) (*table.Frame, error) {
	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
	}

	f, err := table.NewFrame(header)
	if err != nil {
		return nil, err
	}
	for _, raw := range rows[1:] {
		row := make([]table.Value, len(header))
		for i := range header {
			if i < len(raw) {
				row[i] = table.Parse(raw[i])
			} else {
				row[i] = table.Missing()
			}
		}
		if err := f.AppendRow(row); err != nil {
			return nil, err
		}
	}
	return f, nil
}
