package coercer

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"gotercih/domain/school"
)

var (
	whitespace = regexp.MustCompile(`\s+`)
	// plain decimal notation; rejects Go literals such as 1_0 or 0x1p-2
	decimalLiteral = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)
)

// TypeCoercer handles deterministic coercion of raw cells
type TypeCoercer struct {
	config CoercionConfig
}

// CoercionConfig defines the coercion thresholds and rules
type CoercionConfig struct {
	NumericThreshold float64 `json:"numeric_threshold" yaml:"numeric_threshold"` // share of non-empty cells that must parse as numbers
	NormalizeStrings bool    `json:"normalize_strings" yaml:"normalize_strings"` // trim and collapse whitespace in category values
}

// DefaultCoercionConfig returns sensible defaults
func DefaultCoercionConfig() CoercionConfig {
	return CoercionConfig{
		NumericThreshold: 0.8,
		NormalizeStrings: true,
	}
}

// NewTypeCoercer creates a coercer with the given config
func NewTypeCoercer(config CoercionConfig) *TypeCoercer {
	return &TypeCoercer{config: config}
}

// Outcome tells why a cell was or was not accepted
type Outcome int

const (
	OutcomeValid Outcome = iota
	OutcomeEmpty
	OutcomeNonNumeric
	OutcomeNonPositive
)

// CoercePercentile converts a raw cell to a reading. Anything that is not a
// positive finite number becomes absent.
func (c *TypeCoercer) CoercePercentile(raw string) school.Reading {
	r, _ := c.Classify(raw)
	return r
}

// Classify is CoercePercentile with the reason for an absent reading
func (c *TypeCoercer) Classify(raw string) (school.Reading, Outcome) {
	if strings.TrimSpace(raw) == "" {
		return school.Absent(), OutcomeEmpty
	}
	v, ok := c.tryParseNumeric(raw)
	if !ok {
		return school.Absent(), OutcomeNonNumeric
	}
	if v <= 0 {
		return school.Absent(), OutcomeNonPositive
	}
	return school.Present(v), OutcomeValid
}

// CoerceCategory returns the normalized form of a category cell
func (c *TypeCoercer) CoerceCategory(raw string) string {
	if c.config.NormalizeStrings {
		return c.normalizeString(raw)
	}
	return raw
}

// AnalyzeTypeDistribution reports how many non-empty values parse as numbers
func (c *TypeCoercer) AnalyzeTypeDistribution(values []string) TypeAnalysis {
	analysis := TypeAnalysis{
		TotalCount: len(values),
	}

	for _, val := range values {
		if strings.TrimSpace(val) == "" {
			continue
		}
		analysis.ValidCount++
		if _, ok := c.tryParseNumeric(val); ok {
			analysis.NumericCount++
		}
	}

	if analysis.ValidCount > 0 {
		analysis.NumericRatio = float64(analysis.NumericCount) / float64(analysis.ValidCount)
	}
	analysis.MostlyNumeric = analysis.ValidCount > 0 && analysis.NumericRatio >= c.config.NumericThreshold

	return analysis
}

// tryParseNumeric attempts to parse as numeric with strict rules
// Handles comma decimals (12,5), thousands separators and a trailing % sign
func (c *TypeCoercer) tryParseNumeric(strVal string) (float64, bool) {
	cleanVal := strings.TrimSpace(strVal)
	cleanVal = strings.ReplaceAll(cleanVal, " ", "")
	cleanVal = strings.TrimSuffix(cleanVal, "%")
	cleanVal = strings.TrimPrefix(cleanVal, "%")
	cleanVal = strings.TrimSpace(cleanVal)
	if cleanVal == "" {
		return 0, false
	}

	hasComma := strings.Contains(cleanVal, ",")
	hasPeriod := strings.Contains(cleanVal, ".")

	switch {
	case hasComma && hasPeriod:
		// The separator that comes last is the decimal one: 1.234,56 or 1,234.56
		if strings.LastIndex(cleanVal, ",") > strings.LastIndex(cleanVal, ".") {
			cleanVal = strings.ReplaceAll(cleanVal, ".", "")
			cleanVal = strings.ReplaceAll(cleanVal, ",", ".")
		} else {
			cleanVal = strings.ReplaceAll(cleanVal, ",", "")
		}
	case hasComma:
		// Percentile cells never carry thousands separators
		if strings.Count(cleanVal, ",") > 1 {
			return 0, false
		}
		cleanVal = strings.ReplaceAll(cleanVal, ",", ".")
	}

	if !decimalLiteral.MatchString(cleanVal) {
		return 0, false
	}
	val, err := strconv.ParseFloat(cleanVal, 64)
	if err != nil {
		return 0, false
	}
	if math.IsInf(val, 0) || math.IsNaN(val) {
		return 0, false
	}
	return val, true
}

// normalizeString applies deterministic string normalization. Case is kept:
// district and program names are compared exactly.
func (c *TypeCoercer) normalizeString(s string) string {
	s = strings.TrimSpace(s)
	s = whitespace.ReplaceAllString(s, " ")

	// Remove control characters
	return strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, s)
}

// TypeAnalysis contains the results of type distribution analysis
type TypeAnalysis struct {
	TotalCount    int     `json:"total_count"`
	ValidCount    int     `json:"valid_count"`
	NumericCount  int     `json:"numeric_count"`
	NumericRatio  float64 `json:"numeric_ratio"`
	MostlyNumeric bool    `json:"mostly_numeric"`
}
