package excel

import (
	"fmt"
	"time"

	"gotercih/adapters/datareadiness/coercer"
	"gotercih/domain/core"
	"gotercih/domain/datareadiness/ingestion"
	"gotercih/domain/dataset"
	"gotercih/domain/school"
	"gotercih/internal"
)

// TableNormalizer adapts Normalize to the ports.Normalizer interface
type TableNormalizer struct {
	coercer *coercer.TypeCoercer
}

// NewTableNormalizer creates a normalizer with its own coercer
func NewTableNormalizer(config coercer.CoercionConfig) *TableNormalizer {
	return &TableNormalizer{coercer: coercer.NewTypeCoercer(config)}
}

// Normalize converts table to schools
func (n *TableNormalizer) Normalize(table *dataset.Table, schema school.Schema) ([]school.School, school.Schema, ingestion.LoadReport, error) {
	return Normalize(table, schema, n.coercer)
}

// CoercePercentile coerces a single period cell
func (n *TableNormalizer) CoercePercentile(raw string) school.Reading {
	return n.coercer.CoercePercentile(raw)
}

// Normalize resolves the schema against the table and converts every row to a
// school. Cells that are not positive numbers become absent readings and are
// counted in the report; they never fail the load.
func Normalize(table *dataset.Table, schema school.Schema, c *coercer.TypeCoercer) ([]school.School, school.Schema, ingestion.LoadReport, error) {
	start := time.Now()
	if table == nil || len(table.Rows) == 0 {
		return nil, schema, ingestion.LoadReport{}, core.ErrEmptySource
	}
	report := ingestion.NewLoadReport(table.Source)

	resolved, err := schema.Resolve(table.Headers)
	if err != nil {
		return nil, schema, report, err
	}

	for _, col := range resolved.PeriodColumns {
		analysis := c.AnalyzeTypeDistribution(table.Column(col))
		if analysis.ValidCount > 0 && !analysis.MostlyNumeric {
			internal.Log().Warn("[Normalizer] Period column %q is mostly non-numeric (%.0f%% numeric)",
				col, analysis.NumericRatio*100)
		}
	}

	schools := make([]school.School, 0, len(table.Rows))
	for i, row := range table.Rows {
		report.RowsRead++

		s := school.School{
			Row:        len(schools),
			Name:       c.CoerceCategory(row[resolved.NameField]),
			Attributes: make(map[string]string, len(table.Headers)),
		}
		for _, h := range table.Headers {
			if resolved.IsCategory(h) {
				s.Attributes[h] = c.CoerceCategory(row[h])
			} else {
				s.Attributes[h] = row[h]
			}
		}

		for p, col := range resolved.PeriodColumns {
			raw := row[col]
			reading, outcome := c.Classify(raw)
			s.Readings[p] = reading
			if !reading.Valid {
				report.AbsentByField[col]++
			}
			switch outcome {
			case coercer.OutcomeNonNumeric:
				report.Record(ingestion.IngestionError{
					RowIndex: i, Field: col, Value: raw,
					ErrorType: ingestion.ErrorTypeNonNumeric,
					Message:   "not a number, treated as absent",
				})
			case coercer.OutcomeNonPositive:
				report.Record(ingestion.IngestionError{
					RowIndex: i, Field: col, Value: raw,
					ErrorType: ingestion.ErrorTypeNonPositive,
					Message:   fmt.Sprintf("%s is not positive, treated as absent", raw),
				})
			}
		}

		if s.Name == "" && !hasCategory(s, resolved) && s.ValidReadings() == 0 {
			report.RowsSkipped++
			continue
		}
		if s.ValidReadings() == 0 {
			report.NoValidData++
		}
		schools = append(schools, s)
	}

	report.DurationMs = time.Since(start).Milliseconds()
	return schools, resolved, report, nil
}

func hasCategory(s school.School, schema school.Schema) bool {
	for _, f := range schema.CategoryFields {
		if s.Attribute(f) != "" {
			return true
		}
	}
	return false
}
