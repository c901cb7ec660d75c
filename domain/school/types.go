package school

import (
	"math"
)

// PeriodCount is the number of yearly observations carried by every school.
const PeriodCount = 3

// TargetPeriod is the period index the trend line is evaluated at.
const TargetPeriod = PeriodCount + 1

// Reading is one coerced cell of a period column. Valid is false when the raw
// cell was empty, non-numeric, non-finite or not positive.
type Reading struct {
	Value float64 `json:"value"`
	Valid bool    `json:"valid"`
}

// Absent returns the reading used for a cell without usable data
func Absent() Reading {
	return Reading{}
}

// Present returns a valid reading when v is a positive finite number, Absent otherwise
func Present(v float64) Reading {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return Absent()
	}
	return Reading{Value: v, Valid: true}
}

// Observation is a valid (period, value) pair handed to the trend estimator.
// Periods are 1-based in column order.
type Observation struct {
	Period int     `json:"period"`
	Value  float64 `json:"value"`
}

// Estimate is the extrapolated next-period value. Defined is false when the
// school had no valid observation.
type Estimate struct {
	Value   float64 `json:"value"`
	Defined bool    `json:"defined"`
}

// Undefined returns the estimate used when no observation is available
func Undefined() Estimate {
	return Estimate{}
}

// Defined wraps v as a defined estimate
func Defined(v float64) Estimate {
	return Estimate{Value: v, Defined: true}
}

// School is one row of the dataset.
type School struct {
	Row        int                  `json:"row"` // 0-based input order
	Name       string               `json:"name"`
	Attributes map[string]string    `json:"attributes"`
	Readings   [PeriodCount]Reading `json:"readings"`
	Estimate   Estimate             `json:"estimate"`
}

// Attribute returns the value of a categorical or display column
func (s *School) Attribute(field string) string {
	if s.Attributes == nil {
		return ""
	}
	return s.Attributes[field]
}

// Observations returns the valid readings as estimator input, omitting absent periods
func (s *School) Observations() []Observation {
	return ObservationsFrom(s.Readings)
}

// ObservationsFrom converts period readings to observations, omitting absent ones
func ObservationsFrom(readings [PeriodCount]Reading) []Observation {
	obs := make([]Observation, 0, PeriodCount)
	for i, r := range readings {
		if !r.Valid || math.IsNaN(r.Value) || math.IsInf(r.Value, 0) || r.Value <= 0 {
			continue
		}
		obs = append(obs, Observation{Period: i + 1, Value: r.Value})
	}
	return obs
}

// ValidReadings counts the usable period readings
func (s *School) ValidReadings() int {
	return len(s.Observations())
}
