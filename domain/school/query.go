package school

import (
	"math"
	"sort"
	"time"

	"gotercih/domain/core"
)

const (
	// MinPercentile and MaxPercentile clamp the query bounds
	MinPercentile = 0.0
	MaxPercentile = 100.0

	boundPrecision = 1e6
)

// Restriction is the allowed-value set for one categorical field.
// The zero value is not universal; use AllValues or OneOf.
type Restriction struct {
	universal bool
	allowed   map[string]struct{}
}

// AllValues returns a restriction that imposes no constraint
func AllValues() Restriction {
	return Restriction{universal: true}
}

// OneOf returns a restriction that keeps only the given values.
// OneOf() with no values excludes every school.
func OneOf(values ...string) Restriction {
	allowed := make(map[string]struct{}, len(values))
	for _, v := range values {
		allowed[v] = struct{}{}
	}
	return Restriction{allowed: allowed}
}

// IsUniversal reports whether the restriction is a no-op
func (r Restriction) IsUniversal() bool {
	return r.universal
}

// Allows reports whether value passes the restriction
func (r Restriction) Allows(value string) bool {
	if r.universal {
		return true
	}
	_, ok := r.allowed[value]
	return ok
}

// Values returns the allowed values in sorted order, nil when universal
func (r Restriction) Values() []string {
	if r.universal {
		return nil
	}
	out := make([]string, 0, len(r.allowed))
	for v := range r.allowed {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Query selects schools by estimate range and category membership.
// Fields missing from Restrictions are unrestricted.
type Query struct {
	Center       float64
	Tolerance    float64
	Restrictions map[string]Restriction
}

// Bounds is the inclusive estimate range of a query
type Bounds struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Contains reports whether v lies within the inclusive bounds
func (b Bounds) Contains(v float64) bool {
	return v >= b.Low && v <= b.High
}

// Validate fails fast on a malformed query
func (q Query) Validate() error {
	if math.IsNaN(q.Center) || math.IsInf(q.Center, 0) || q.Center < MinPercentile || q.Center > MaxPercentile {
		return core.ErrInvalidCenter
	}
	if math.IsNaN(q.Tolerance) || math.IsInf(q.Tolerance, 0) || q.Tolerance < 0 {
		return core.ErrInvalidTolerance
	}
	return nil
}

// Bounds computes [max(0, center-tolerance), min(100, center+tolerance)]
func (q Query) Bounds() Bounds {
	low := math.Max(MinPercentile, q.Center-q.Tolerance)
	high := math.Min(MaxPercentile, q.Center+q.Tolerance)
	return Bounds{Low: snap(low), High: snap(high)}
}

// Restriction returns the restriction for field, universal when unset
func (q Query) Restriction(field string) Restriction {
	if r, ok := q.Restrictions[field]; ok {
		return r
	}
	return AllValues()
}

// snap removes binary noise such as 5.1+0.3 = 5.3999999999999995
func snap(v float64) float64 {
	return math.Round(v*boundPrecision) / boundPrecision
}

// Match is one school of a result set
type Match struct {
	School
}

// ResultSet is the ordered outcome of a query
type ResultSet struct {
	Revision  string    `json:"revision"`
	Schema    Schema    `json:"-"` // resolved schema of the snapshot queried
	Bounds    Bounds    `json:"bounds"`
	Matches   []Match   `json:"matches"`
	Total     int       `json:"total"` // schools considered
	CreatedAt time.Time `json:"created_at"`
}

// Len returns the number of matches
func (r *ResultSet) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Matches)
}
