package excel

import (
	"gotercih/adapters/datareadiness/coercer"
)

// Supported encodings of delimited files
const (
	EncodingUTF8        = "utf-8"
	EncodingISO88599    = "iso-8859-9"
	EncodingWindows1254 = "windows-1254"
)

// DelimiterAuto sniffs the delimiter from the header line
const DelimiterAuto = "auto"

// ExcelConfig holds configuration for a file data source
type ExcelConfig struct {
	FilePath       string                 `json:"file_path" yaml:"file_path"`
	Encoding       string                 `json:"encoding" yaml:"encoding"`   // delimited files only
	Delimiter      string                 `json:"delimiter" yaml:"delimiter"` // ",", ";", "\t" or "auto"
	Sheet          string                 `json:"sheet" yaml:"sheet"`         // xlsx only; first sheet when empty
	CoercionConfig coercer.CoercionConfig `json:"coercion_config" yaml:"coercion_config"`
}

// DefaultExcelConfig returns sensible defaults for file processing
func DefaultExcelConfig() ExcelConfig {
	return ExcelConfig{
		Encoding:       EncodingUTF8,
		Delimiter:      DelimiterAuto,
		CoercionConfig: coercer.DefaultCoercionConfig(),
	}
}
