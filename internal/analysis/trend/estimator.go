package trend

import (
	"math"

	"gotercih/domain/school"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// DefaultPlaces is the rounding precision of an estimate
const DefaultPlaces = 2

// LinearEstimator fits an ordinary least-squares line through the valid
// observations and evaluates it one period past the last column.
//
//	0 observations  -> undefined
//	1 observation   -> the value itself
//	2-3 points      -> line at the target period
//
// When every observation shares one period the slope is undefined and the
// mean of the values is returned instead.
type LinearEstimator struct {
	target float64
	places int
}

// NewLinearEstimator creates an estimator for school.TargetPeriod
func NewLinearEstimator() *LinearEstimator {
	return &LinearEstimator{target: school.TargetPeriod, places: DefaultPlaces}
}

// Estimate extrapolates the observations. It never fails: missing data
// yields an undefined estimate.
func (e *LinearEstimator) Estimate(observations []school.Observation) school.Estimate {
	x := make([]float64, 0, len(observations))
	y := make([]float64, 0, len(observations))
	for _, o := range observations {
		if !finite(o.Value) || o.Value <= 0 {
			continue
		}
		x = append(x, float64(o.Period))
		y = append(y, o.Value)
	}

	switch len(y) {
	case 0:
		return school.Undefined()
	case 1:
		return e.round(y[0])
	}

	if !varies(x) {
		mean, err := stats.Mean(y)
		if err != nil {
			return school.Undefined()
		}
		return e.round(mean)
	}

	// y = alpha + beta*x
	alpha, beta := stat.LinearRegression(x, y, nil, false)
	return e.round(alpha + beta*e.target)
}

func (e *LinearEstimator) round(v float64) school.Estimate {
	if !finite(v) {
		return school.Undefined()
	}
	rounded, err := stats.Round(v, e.places)
	if err != nil {
		return school.Undefined()
	}
	return school.Defined(rounded)
}

func varies(x []float64) bool {
	for _, v := range x[1:] {
		if v != x[0] {
			return true
		}
	}
	return false
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
