package matching

import (
	"sort"

	"gotercih/domain/school"
)

type fieldCheck struct {
	field string
	r     school.Restriction
}

// Filter returns the schools whose estimate lies inside the query bounds and
// whose category values pass every restriction, ordered by estimate ascending.
// Ties keep input order. An empty match is not an error.
func Filter(schools []school.School, q school.Query) ([]school.Match, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	bounds := q.Bounds()

	// universal restrictions impose nothing
	var checks []fieldCheck
	for field, r := range q.Restrictions {
		if !r.IsUniversal() {
			checks = append(checks, fieldCheck{field: field, r: r})
		}
	}

	matches := make([]school.Match, 0)
	for i := range schools {
		s := &schools[i]
		if !passes(s, checks) {
			continue
		}
		if !s.Estimate.Defined || !bounds.Contains(s.Estimate.Value) {
			continue
		}
		matches = append(matches, school.Match{School: *s})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Estimate.Value < matches[j].Estimate.Value
	})
	return matches, nil
}

func passes(s *school.School, checks []fieldCheck) bool {
	for _, c := range checks {
		if !c.r.Allows(s.Attribute(c.field)) {
			return false
		}
	}
	return true
}
