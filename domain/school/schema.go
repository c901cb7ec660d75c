package school

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"gotercih/domain/core"
)

var yearHeader = regexp.MustCompile(`^\d{4}$`)

// Schema maps dataset columns to school attributes. Category fields are the
// filterable ones; display fields are carried to the output only.
type Schema struct {
	NameField      string              `json:"name_field" yaml:"name_field"`
	CategoryFields []string            `json:"category_fields" yaml:"category_fields"`
	PeriodColumns  [PeriodCount]string `json:"period_columns" yaml:"period_columns"`
	DisplayFields  []string            `json:"display_fields" yaml:"display_fields"`
	EstimateLabel  string              `json:"estimate_label" yaml:"estimate_label"`
}

// DefaultSchema returns the column layout of the LGS cutoff dataset
func DefaultSchema() Schema {
	return Schema{
		NameField:      "OKUL ADI",
		CategoryFields: []string{"İLÇE", "ALAN"},
	}
}

// HasPeriods reports whether all period columns are set
func (s Schema) HasPeriods() bool {
	for _, c := range s.PeriodColumns {
		if c == "" {
			return false
		}
	}
	return true
}

// IsCategory reports whether field is one of the filterable fields
func (s Schema) IsCategory(field string) bool {
	for _, f := range s.CategoryFields {
		if f == field {
			return true
		}
	}
	return false
}

// Resolve checks the schema against the table headers, detecting period
// columns and the estimate label when they are not configured.
func (s Schema) Resolve(headers []string) (Schema, error) {
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[h] = true
	}

	resolved := s
	resolved.CategoryFields = append([]string(nil), s.CategoryFields...)
	resolved.DisplayFields = append([]string(nil), s.DisplayFields...)

	if !resolved.HasPeriods() {
		cols, err := DetectPeriodColumns(headers)
		if err != nil {
			return Schema{}, err
		}
		resolved.PeriodColumns = cols
	}

	if resolved.NameField != "" && !present[resolved.NameField] {
		return Schema{}, core.NewMissingColumnError(resolved.NameField, "name")
	}
	for _, f := range resolved.CategoryFields {
		if !present[f] {
			return Schema{}, core.NewMissingColumnError(f, "category")
		}
	}
	for _, c := range resolved.PeriodColumns {
		if !present[c] {
			return Schema{}, core.NewMissingColumnError(c, "period")
		}
	}

	// Display fields are optional decoration; drop the ones the file lacks.
	display := resolved.DisplayFields[:0]
	for _, f := range resolved.DisplayFields {
		if present[f] {
			display = append(display, f)
		}
	}
	resolved.DisplayFields = display

	if resolved.EstimateLabel == "" {
		resolved.EstimateLabel = DefaultEstimateLabel(resolved.PeriodColumns)
	}
	return resolved, nil
}

// DetectPeriodColumns picks the three latest 4-digit year headers in ascending order
func DetectPeriodColumns(headers []string) ([PeriodCount]string, error) {
	var years []string
	for _, h := range headers {
		if yearHeader.MatchString(strings.TrimSpace(h)) {
			years = append(years, h)
		}
	}
	var cols [PeriodCount]string
	if len(years) < PeriodCount {
		return cols, fmt.Errorf("%w: need %d year columns, found %d", core.ErrSchemaInvalid, PeriodCount, len(years))
	}
	sort.Strings(years)
	copy(cols[:], years[len(years)-PeriodCount:])
	return cols, nil
}

// DefaultEstimateLabel names the estimate column after the year following the last period
func DefaultEstimateLabel(periods [PeriodCount]string) string {
	last := strings.TrimSpace(periods[PeriodCount-1])
	if year, err := strconv.Atoi(last); err == nil {
		return fmt.Sprintf("%d Tahmin", year+1)
	}
	return "Tahmin"
}

// OutputColumns lists the columns of an exported result row, estimate last
func (s Schema) OutputColumns() []string {
	cols := make([]string, 0, 2+len(s.CategoryFields)+len(s.DisplayFields)+PeriodCount)
	if s.NameField != "" {
		cols = append(cols, s.NameField)
	}
	cols = append(cols, s.CategoryFields...)
	cols = append(cols, s.DisplayFields...)
	cols = append(cols, s.PeriodColumns[:]...)
	cols = append(cols, s.EstimateLabel)
	return cols
}
