package excel

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gotercih/domain/core"
	"gotercih/domain/dataset"
	"gotercih/internal"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DataReader handles reading Excel and delimited text files
type DataReader struct {
	config   ExcelConfig
	fileType string // "xlsx" or "csv"
	log      *internal.Logger
}

// NewDataReader creates a data reader; the file type follows the extension
func NewDataReader(config ExcelConfig) *DataReader {
	ext := strings.ToLower(filepath.Ext(config.FilePath))
	fileType := "csv"
	if ext == ".xlsx" || ext == ".xlsm" {
		fileType = "xlsx"
	}
	if config.Encoding == "" {
		config.Encoding = EncodingUTF8
	}
	if config.Delimiter == "" {
		config.Delimiter = DelimiterAuto
	}
	return &DataReader{config: config, fileType: fileType, log: internal.Log()}
}

// Name identifies the source
func (r *DataReader) Name() string {
	return r.config.FilePath
}

// Path returns the file being read
func (r *DataReader) Path() string {
	return r.config.FilePath
}

// ReadTable reads the whole file into a raw table
func (r *DataReader) ReadTable(ctx context.Context) (*dataset.Table, error) {
	r.log.Debug("[DataReader] Starting to read %s file: %s", r.fileType, r.config.FilePath)

	if _, err := os.Stat(r.config.FilePath); err != nil {
		return nil, core.NewSourceError(r.config.FilePath, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		rows [][]string
		err  error
	)
	readStart := time.Now()
	switch r.fileType {
	case "csv":
		rows, err = r.readCSVData()
	case "xlsx":
		rows, err = r.readExcelData()
	default:
		return nil, fmt.Errorf("unsupported file type: %s", r.fileType)
	}
	if err != nil {
		return nil, core.NewSourceError(r.config.FilePath, err)
	}
	r.log.Debug("[DataReader] %s read in %.2fms (%d rows)",
		strings.ToUpper(r.fileType), float64(time.Since(readStart).Nanoseconds())/1e6, len(rows))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	table, err := processRows(rows)
	if err != nil {
		return nil, err
	}
	table.Source = r.config.FilePath
	return table, nil
}

// readExcelData reads the configured sheet, or the first one
func (r *DataReader) readExcelData() ([][]string, error) {
	f, err := excelize.OpenFile(r.config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := r.config.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	return rows, nil
}

// readCSVData decodes and parses a delimited file
func (r *DataReader) readCSVData() ([][]string, error) {
	file, err := os.Open(r.config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	decoded, err := decodeReader(file, r.config.Encoding)
	if err != nil {
		return nil, err
	}
	content, err := io.ReadAll(decoded)
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	content = bytes.TrimPrefix(content, utf8BOM)

	delimiter, err := resolveDelimiter(r.config.Delimiter, content)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(bytes.NewReader(content))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV file: %w", err)
	}
	return rows, nil
}

// decodeReader wraps src with a decoder for the configured encoding
func decodeReader(src io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", EncodingUTF8, "utf8", "utf-8-sig":
		return src, nil
	case EncodingISO88599, "latin5", "iso8859-9":
		return charmap.ISO8859_9.NewDecoder().Reader(src), nil
	case EncodingWindows1254, "cp1254":
		return charmap.Windows1254.NewDecoder().Reader(src), nil
	default:
		return nil, fmt.Errorf("unsupported encoding: %s", encoding)
	}
}

// resolveDelimiter maps the configured delimiter to a rune, sniffing when "auto"
func resolveDelimiter(configured string, content []byte) (rune, error) {
	switch configured {
	case "", DelimiterAuto:
		return sniffDelimiter(content), nil
	case ",", ";", "|":
		return rune(configured[0]), nil
	case "\t", `\t`, "tab":
		return '\t', nil
	default:
		return 0, fmt.Errorf("unsupported delimiter: %q", configured)
	}
}

// sniffDelimiter picks the most frequent candidate outside quotes on the header line
func sniffDelimiter(content []byte) rune {
	line := content
	if i := bytes.IndexByte(content, '\n'); i >= 0 {
		line = content[:i]
	}

	counts := map[rune]int{}
	inQuotes := false
	for _, ch := range string(line) {
		switch {
		case ch == '"':
			inQuotes = !inQuotes
		case !inQuotes && (ch == ',' || ch == ';' || ch == '\t'):
			counts[ch]++
		}
	}

	best := ','
	for _, candidate := range []rune{';', '\t'} {
		if counts[candidate] > counts[best] {
			best = candidate
		}
	}
	return best
}

// processRows converts raw string rows into a table, dropping blank rows
func processRows(rows [][]string) (*dataset.Table, error) {
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: file must have a header row and at least one data row", core.ErrEmptySource)
	}

	headerRow := rows[0]
	headers := make([]string, len(headerRow))
	seen := make(map[string]int, len(headerRow))
	for i, header := range headerRow {
		name := strings.TrimSpace(strings.TrimPrefix(header, string(utf8BOM)))
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		if n := seen[name]; n > 0 {
			seen[name] = n + 1
			name = fmt.Sprintf("%s_%d", name, n+1)
		} else {
			seen[name] = 1
		}
		headers[i] = name
	}

	dataRows := make([]dataset.Row, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		rowData := make(dataset.Row, len(headers))
		for j, header := range headers {
			if j < len(row) {
				rowData[header] = strings.TrimSpace(row[j])
			} else {
				rowData[header] = ""
			}
		}
		dataRows = append(dataRows, rowData)
	}

	if len(dataRows) == 0 {
		return nil, core.ErrEmptySource
	}

	return &dataset.Table{
		Headers: headers,
		Rows:    dataRows,
		ReadAt:  time.Now(),
	}, nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
