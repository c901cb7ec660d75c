package testkit

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gotercih/domain/dataset"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

// ScenarioTable is the two-school fixture used across tests: the first school
// extrapolates to exactly 56.00, the second carries only its 2022 value.
func ScenarioTable() *dataset.Table {
	return &dataset.Table{
		Source:  "scenario",
		Headers: []string{ColumnName, ColumnDistrict, ColumnProgram, "2022", "2023", "2024"},
		Rows: []dataset.Row{
			{ColumnName: "Birinci Lisesi", ColumnDistrict: "A", ColumnProgram: "X", "2022": "50", "2023": "52", "2024": "54"},
			{ColumnName: "İkinci Lisesi", ColumnDistrict: "A", ColumnProgram: "X", "2022": "60", "2023": "", "2024": ""},
		},
	}
}

// MixedTable covers the data-quality cases of real files: comma decimals,
// blanks, text and zero cells, and a school with no data at all.
func MixedTable() *dataset.Table {
	return &dataset.Table{
		Source:  "mixed",
		Headers: []string{ColumnName, ColumnDistrict, ColumnProgram, ColumnSchoolType, "2022", "2023", "2024"},
		Rows: []dataset.Row{
			{ColumnName: "Kadıköy Anadolu", ColumnDistrict: "Kadıköy", ColumnProgram: "Anadolu", ColumnSchoolType: "Devlet", "2022": "3,1", "2023": "3,3", "2024": "3,5"},
			{ColumnName: "Üsküdar Fen", ColumnDistrict: "Üsküdar", ColumnProgram: "Fen", ColumnSchoolType: "Devlet", "2022": "0,9", "2023": "-", "2024": "1,1"},
			{ColumnName: "Şişli Meslek", ColumnDistrict: "Şişli", ColumnProgram: "Meslek", ColumnSchoolType: "Özel", "2022": "", "2023": "0", "2024": "42"},
			{ColumnName: "Yeni Okul", ColumnDistrict: "Kadıköy", ColumnProgram: "Fen", ColumnSchoolType: "Özel", "2022": "", "2023": "", "2024": ""},
			{ColumnName: "Beşiktaş Sosyal", ColumnDistrict: "Beşiktaş", ColumnProgram: "Sosyal Bilimler", ColumnSchoolType: "Devlet", "2022": "5", "2023": "4", "2024": "4,5"},
		},
	}
}

// FileOptions controls how WriteCSV encodes a table
type FileOptions struct {
	Delimiter rune
	Encoding  string // "utf-8-bom", "utf-8" or "iso-8859-9"
}

// WriteCSV writes table to dir/name and returns the path
func WriteCSV(dir, name string, table *dataset.Table, opts FileOptions) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if opts.Delimiter != 0 {
		w.Comma = opts.Delimiter
	}
	if err := w.Write(table.Headers); err != nil {
		return "", err
	}
	for _, row := range table.Rows {
		rec := make([]string, len(table.Headers))
		for i, h := range table.Headers {
			rec[i] = row[h]
		}
		if err := w.Write(rec); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	content := buf.Bytes()
	switch strings.ToLower(opts.Encoding) {
	case "", "utf-8":
	case "utf-8-bom":
		content = append([]byte{0xEF, 0xBB, 0xBF}, content...)
	case "iso-8859-9":
		encoded, err := charmap.ISO8859_9.NewEncoder().Bytes(content)
		if err != nil {
			return "", fmt.Errorf("failed to encode fixture: %w", err)
		}
		content = encoded
	default:
		return "", fmt.Errorf("unsupported fixture encoding: %s", opts.Encoding)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// WriteXLSX writes table to the first sheet of dir/name and returns the path
func WriteXLSX(dir, name string, table *dataset.Table) (string, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"
	for i, h := range table.Headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return "", err
		}
	}
	for r, row := range table.Rows {
		for i, h := range table.Headers {
			cell, _ := excelize.CoordinatesToCellName(i+1, r+2)
			if err := f.SetCellValue(sheet, cell, row[h]); err != nil {
				return "", err
			}
		}
	}

	path := filepath.Join(dir, name)
	if err := f.SaveAs(path); err != nil {
		return "", err
	}
	return path, nil
}
