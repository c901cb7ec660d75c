package ingestion

import (
	"fmt"
)

// LoadReport summarizes the normalization of a source table into schools
type LoadReport struct {
	SourceName    string           `json:"source_name"`
	RowsRead      int              `json:"rows_read"`
	RowsSkipped   int              `json:"rows_skipped"`  // blank rows
	NoValidData   int              `json:"no_valid_data"` // rows with zero valid readings
	AbsentByField map[string]int   `json:"absent_by_field"`
	Errors        []IngestionError `json:"errors"`
	DurationMs    int64            `json:"duration_ms"`
}

// NewLoadReport creates an empty report for a source
func NewLoadReport(source string) LoadReport {
	return LoadReport{
		SourceName:    source,
		AbsentByField: make(map[string]int),
	}
}

// IngestionError represents a cell that could not be coerced. It is recorded,
// never returned: the cell is treated as absent.
type IngestionError struct {
	RowIndex  int    `json:"row_index"`
	Field     string `json:"field"`
	Value     string `json:"value"`
	ErrorType string `json:"error_type"`
	Message   string `json:"message"`
}

// Error type labels
const (
	ErrorTypeNonNumeric  = "non_numeric"
	ErrorTypeNonPositive = "non_positive"
)

// maxRecordedErrors caps the per-cell detail kept in a report
const maxRecordedErrors = 200

// Record adds a coercion failure, keeping at most maxRecordedErrors entries
func (r *LoadReport) Record(e IngestionError) {
	if len(r.Errors) < maxRecordedErrors {
		r.Errors = append(r.Errors, e)
	}
}

// String returns a one-line summary for logs
func (r LoadReport) String() string {
	return fmt.Sprintf("%s: %d rows read, %d skipped, %d without valid data, %d coercion issues",
		r.SourceName, r.RowsRead, r.RowsSkipped, r.NoValidData, len(r.Errors))
}
