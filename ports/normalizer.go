package ports

import (
	"gotercih/domain/datareadiness/ingestion"
	"gotercih/domain/dataset"
	"gotercih/domain/school"
)

// Normalizer turns a raw table into schools under a schema. The returned
// schema is the configured one resolved against the table headers.
type Normalizer interface {
	Normalize(table *dataset.Table, schema school.Schema) ([]school.School, school.Schema, ingestion.LoadReport, error)
}

// CellCoercer converts one raw period cell to a reading
type CellCoercer interface {
	CoercePercentile(raw string) school.Reading
}
