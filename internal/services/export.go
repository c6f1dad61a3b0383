package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	ExportFormatXLSX = "xlsx"
	ExportFormatCSV  = "csv"

	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeCSV  = "text/csv"
)

// table is a header plus rows of cells, rendered as xlsx or CSV
type table struct {
	sheet  string
	header []string
	rows   [][]string
}

func normalizeExportFormat(format string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", ExportFormatXLSX, "excel":
		return ExportFormatXLSX, nil
	case ExportFormatCSV:
		return ExportFormatCSV, nil
	}
	return "", fieldError("format", "must be xlsx or csv", "oneof")
}

func renderExport(t table, basename, format string) (*ExportFile, error) {
	format, err := normalizeExportFormat(format)
	if err != nil {
		return nil, err
	}

	var data []byte
	contentType := contentTypeXLSX
	if format == ExportFormatCSV {
		data, err = t.csv()
		contentType = contentTypeCSV
	} else {
		data, err = t.xlsx()
	}
	if err != nil {
		return nil, err
	}

	return &ExportFile{
		Filename:    basename + "." + format,
		ContentType: contentType,
		Data:        data,
	}, nil
}

func (t table) csv() ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(t.header); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}
	if err := w.WriteAll(t.rows); err != nil {
		return nil, fmt.Errorf("failed to write csv rows: %w", err)
	}
	return buf.Bytes(), nil
}

func (t table) xlsx() ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := t.sheet
	if sheet == "" {
		sheet = "Sheet1"
	}
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := f.SetSheetRow(sheet, "A1", &t.header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
		return nil, fmt.Errorf("failed to style header: %w", err)
	}

	for i, row := range t.rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if len(t.header) > 0 {
		last, err := excelize.ColumnNumberToName(len(t.header))
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(sheet, "A", last, 20); err != nil {
			return nil, fmt.Errorf("failed to size columns: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// exportName builds a filesystem-friendly file stem
func exportName(parts ...string) string {
	var kept []string
	for _, part := range parts {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		kept = append(kept, strings.Join(strings.FieldsFunc(part, func(r rune) bool {
			return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
		}), "-"))
	}
	return strings.Join(kept, "_")
}
