package excel

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gotercih/domain/school"

	"github.com/xuri/excelize/v2"
)

const resultSheet = "Tercih Listesi"

// CSVWriter writes result sets as UTF-8 CSV with a BOM so spreadsheet tools
// keep Turkish characters intact
type CSVWriter struct {
	Delimiter rune
}

// NewCSVWriter returns a comma-delimited writer
func NewCSVWriter() *CSVWriter {
	return &CSVWriter{Delimiter: ','}
}

func (w *CSVWriter) ContentType() string { return "text/csv; charset=utf-8" }
func (w *CSVWriter) Extension() string   { return "csv" }

// Write serializes the result set
func (w *CSVWriter) Write(out io.Writer, schema school.Schema, results *school.ResultSet) error {
	if _, err := out.Write(utf8BOM); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}
	cw := csv.NewWriter(out)
	if w.Delimiter != 0 {
		cw.Comma = w.Delimiter
	}

	if err := cw.Write(schema.OutputColumns()); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if results != nil {
		for _, m := range results.Matches {
			if err := cw.Write(Record(schema, m.School)); err != nil {
				return fmt.Errorf("failed to write row %d: %w", m.Row, err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// Record renders one school in OutputColumns order
func Record(schema school.Schema, s school.School) []string {
	rec := make([]string, 0, len(schema.OutputColumns()))
	if schema.NameField != "" {
		rec = append(rec, s.Name)
	}
	for _, f := range schema.CategoryFields {
		rec = append(rec, s.Attribute(f))
	}
	for _, f := range schema.DisplayFields {
		rec = append(rec, s.Attribute(f))
	}
	for _, r := range s.Readings {
		rec = append(rec, FormatReading(r))
	}
	return append(rec, FormatEstimate(s.Estimate))
}

// FormatReading prints a valid reading as-is and an absent one as empty
func FormatReading(r school.Reading) string {
	if !r.Valid {
		return ""
	}
	return strconv.FormatFloat(r.Value, 'f', -1, 64)
}

// FormatEstimate prints a defined estimate with two decimals
func FormatEstimate(e school.Estimate) string {
	if !e.Defined {
		return ""
	}
	return strconv.FormatFloat(e.Value, 'f', 2, 64)
}

// XLSXWriter writes result sets as a single-sheet workbook
type XLSXWriter struct{}

// NewXLSXWriter creates an XLSX writer
func NewXLSXWriter() *XLSXWriter {
	return &XLSXWriter{}
}

func (w *XLSXWriter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}
func (w *XLSXWriter) Extension() string { return "xlsx" }

// Write serializes the result set; numeric cells stay numeric
func (w *XLSXWriter) Write(out io.Writer, schema school.Schema, results *school.ResultSet) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", resultSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	for i, h := range schema.OutputColumns() {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(resultSheet, cell, h); err != nil {
			return fmt.Errorf("failed to write header %s: %w", h, err)
		}
	}

	if results != nil {
		for r, m := range results.Matches {
			values := xlsxRow(schema, m.School)
			cell, _ := excelize.CoordinatesToCellName(1, r+2)
			if err := f.SetSheetRow(resultSheet, cell, &values); err != nil {
				return fmt.Errorf("failed to write row %d: %w", m.Row, err)
			}
		}
	}

	if _, err := f.WriteTo(out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func xlsxRow(schema school.Schema, s school.School) []interface{} {
	values := make([]interface{}, 0, len(schema.OutputColumns()))
	if schema.NameField != "" {
		values = append(values, s.Name)
	}
	for _, f := range schema.CategoryFields {
		values = append(values, s.Attribute(f))
	}
	for _, f := range schema.DisplayFields {
		values = append(values, s.Attribute(f))
	}
	for _, r := range s.Readings {
		if r.Valid {
			values = append(values, r.Value)
		} else {
			values = append(values, nil)
		}
	}
	if s.Estimate.Defined {
		values = append(values, s.Estimate.Value)
	} else {
		values = append(values, nil)
	}
	return values
}

// FileName builds the download name from the estimate label, e.g. tercih_listesi_2025.csv
func FileName(schema school.Schema, ext string) string {
	label := strings.Fields(schema.EstimateLabel)
	suffix := "tahmin"
	if len(label) > 0 {
		if _, err := strconv.Atoi(label[0]); err == nil {
			suffix = label[0]
		}
	}
	return fmt.Sprintf("tercih_listesi_%s.%s", suffix, ext)
}
