package app

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gotercih/domain/core"
	"gotercih/domain/school"
	"gotercih/internal/analysis/matching"
	"gotercih/internal/metrics"

	"github.com/go-playground/validator/v10"
)

// QueryDefaults are the form defaults: center 5, tolerance 1, slider max 10.
// MaxTolerance only bounds the slider; queries accept any non-negative tolerance.
type QueryDefaults struct {
	Center       float64 `json:"center"`
	Tolerance    float64 `json:"tolerance"`
	MaxTolerance float64 `json:"max_tolerance"`
}

// DefaultQueryDefaults returns the browse page defaults
func DefaultQueryDefaults() QueryDefaults {
	return QueryDefaults{Center: 5.0, Tolerance: 1.0, MaxTolerance: 10.0}
}

// RestrictParam lists the category fields whose restriction is explicit even
// without values (an empty multiselect)
const RestrictParam = "restrict"

// QueryRequest is the transport form of a range query. A nil restriction
// slice leaves the field unrestricted; an empty one excludes every school.
type QueryRequest struct {
	Center       float64             `json:"center" validate:"gte=0,lte=100"`
	Tolerance    float64             `json:"tolerance" validate:"gte=0"`
	Restrictions map[string][]string `json:"restrictions,omitempty"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// BuildQuery validates req against schema and converts it to a domain query
func (s *CatalogService) BuildQuery(req QueryRequest, schema school.Schema) (school.Query, error) {
	if err := s.validate.Struct(req); err != nil {
		return school.Query{}, translateValidation(err)
	}

	q := school.Query{
		Center:       req.Center,
		Tolerance:    req.Tolerance,
		Restrictions: make(map[string]school.Restriction, len(req.Restrictions)),
	}
	for field, values := range req.Restrictions {
		if !schema.IsCategory(field) {
			return school.Query{}, fmt.Errorf("%w: %s", core.ErrUnknownField, field)
		}
		if values == nil {
			q.Restrictions[field] = school.AllValues()
			continue
		}
		q.Restrictions[field] = school.OneOf(values...)
	}

	if err := q.Validate(); err != nil {
		return school.Query{}, err
	}
	return q, nil
}

func translateValidation(err error) error {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("%w: %v", core.ErrInvalidQuery, err)
	}
	fe := verrs[0]
	base := core.ErrInvalidQuery
	switch fe.StructField() {
	case "Center":
		base = core.ErrInvalidCenter
	case "Tolerance":
		base = core.ErrInvalidTolerance
	}
	return fmt.Errorf("%w: %s failed %s=%s", base, fe.Field(), fe.Tag(), fe.Param())
}

// Match runs a range query against the current snapshot
func (s *CatalogService) Match(ctx context.Context, req QueryRequest) (*school.ResultSet, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snap, err := s.Snapshot()
	if err != nil {
		metrics.ObserveQuery(metrics.OutcomeError, 0, time.Since(start))
		return nil, err
	}

	q, err := s.BuildQuery(req, snap.Schema)
	if err != nil {
		metrics.ObserveQuery(metrics.OutcomeInvalid, 0, time.Since(start))
		return nil, err
	}

	matches, err := matching.Filter(snap.Schools, q)
	if err != nil {
		metrics.ObserveQuery(metrics.OutcomeInvalid, 0, time.Since(start))
		return nil, err
	}

	outcome := metrics.OutcomeOK
	if len(matches) == 0 {
		outcome = metrics.OutcomeEmpty
	}
	metrics.ObserveQuery(outcome, len(matches), time.Since(start))
	s.log.Debug("[CatalogService] Query %.2f±%.2f matched %d of %d", q.Center, q.Tolerance, len(matches), len(snap.Schools))

	return &school.ResultSet{
		Revision:  snap.Revision,
		Schema:    snap.Schema,
		Bounds:    q.Bounds(),
		Matches:   matches,
		Total:     len(snap.Schools),
		CreatedAt: time.Now(),
	}, nil
}

// ParseQueryValues reads center, tolerance and one repeated parameter per
// category field from a query string. Missing numbers take the defaults.
func ParseQueryValues(values url.Values, schema school.Schema, defaults QueryDefaults) (QueryRequest, error) {
	req := QueryRequest{Center: defaults.Center, Tolerance: defaults.Tolerance}

	var err error
	if raw := strings.TrimSpace(values.Get("center")); raw != "" {
		if req.Center, err = parseNumber(raw); err != nil {
			return QueryRequest{}, fmt.Errorf("%w: %q is not a number", core.ErrInvalidCenter, raw)
		}
	}
	if raw := strings.TrimSpace(values.Get("tolerance")); raw != "" {
		if req.Tolerance, err = parseNumber(raw); err != nil {
			return QueryRequest{}, fmt.Errorf("%w: %q is not a number", core.ErrInvalidTolerance, raw)
		}
	}

	explicit := make(map[string]bool)
	for _, f := range values[RestrictParam] {
		if !schema.IsCategory(f) {
			return QueryRequest{}, fmt.Errorf("%w: %s", core.ErrUnknownField, f)
		}
		explicit[f] = true
	}

	for _, field := range schema.CategoryFields {
		raw, present := values[field]
		if !present && !explicit[field] {
			continue
		}
		selected := make([]string, 0, len(raw))
		for _, v := range raw {
			if v = strings.TrimSpace(v); v != "" {
				selected = append(selected, v)
			}
		}
		if req.Restrictions == nil {
			req.Restrictions = make(map[string][]string)
		}
		req.Restrictions[field] = selected
	}
	return req, nil
}

// EncodeQueryValues is the inverse of ParseQueryValues, used for export links
func EncodeQueryValues(req QueryRequest, schema school.Schema) url.Values {
	values := url.Values{}
	values.Set("center", strconv.FormatFloat(req.Center, 'f', -1, 64))
	values.Set("tolerance", strconv.FormatFloat(req.Tolerance, 'f', -1, 64))
	for _, field := range schema.CategoryFields {
		selected, ok := req.Restrictions[field]
		if !ok || selected == nil {
			continue
		}
		values.Add(RestrictParam, field)
		for _, v := range selected {
			values.Add(field, v)
		}
	}
	return values
}

// parseNumber accepts both 5.5 and 5,5
func parseNumber(raw string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
}

// EstimateResult is an ad-hoc estimate for three raw cells
type EstimateResult struct {
	Readings [school.PeriodCount]school.Reading `json:"readings"`
	Estimate school.Estimate                   `json:"estimate"`
}

// EstimateReadings coerces raw period cells the way a loaded file would be
// and extrapolates them
func (s *CatalogService) EstimateReadings(values [school.PeriodCount]string) EstimateResult {
	var res EstimateResult
	for i, raw := range values {
		res.Readings[i] = s.deps.Coercer.CoercePercentile(raw)
	}
	res.Estimate = s.deps.Estimator.Estimate(school.ObservationsFrom(res.Readings))
	return res
}

// BoundsCaption is the heading shown above a result table
func BoundsCaption(b school.Bounds) string {
	return fmt.Sprintf("%.2f–%.2f arası uygun okullar", b.Low, b.High)
}
