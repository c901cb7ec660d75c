package ports

import (
	"gotercih/domain/school"
)

// Estimator extrapolates the next-period value from a school's observations.
// Implementations must be pure and deterministic.
type Estimator interface {
	Estimate(observations []school.Observation) school.Estimate
}
