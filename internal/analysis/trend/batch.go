package trend

import (
	"gotercih/domain/school"
	"gotercih/ports"
)

// Apply returns a copy of schools with every Estimate recomputed from its readings
func Apply(est ports.Estimator, schools []school.School) []school.School {
	out := make([]school.School, len(schools))
	for i, s := range schools {
		s.Estimate = est.Estimate(s.Observations())
		out[i] = s
	}
	return out
}

// Defined counts the schools carrying a defined estimate
func Defined(schools []school.School) int {
	n := 0
	for i := range schools {
		if schools[i].Estimate.Defined {
			n++
		}
	}
	return n
}
