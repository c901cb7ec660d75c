package app

import (
	"math"
	"net/url"
	"testing"

	"gotercih/domain/core"
	"gotercih/domain/school"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildQuery_Invalid(t *testing.T) {
	svc := newTestCatalog(&memorySource{})
	schema := school.DefaultSchema()

	cases := []struct {
		name string
		req  QueryRequest
		want error
	}{
		{"center above 100", QueryRequest{Center: 101, Tolerance: 1}, core.ErrInvalidCenter},
		{"negative center", QueryRequest{Center: -0.5, Tolerance: 1}, core.ErrInvalidCenter},
		{"NaN center", QueryRequest{Center: math.NaN(), Tolerance: 1}, core.ErrInvalidCenter},
		{"negative tolerance", QueryRequest{Center: 5, Tolerance: -1}, core.ErrInvalidTolerance},
		{"unknown field", QueryRequest{Center: 5, Tolerance: 1, Restrictions: map[string][]string{"TÜR": {"x"}}}, core.ErrUnknownField},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.BuildQuery(tc.req, schema)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)
			assert.True(t, core.IsQueryError(err))
		})
	}
}

func TestBuildQuery_ToleranceAboveSliderMax(t *testing.T) {
	svc := newTestCatalog(&memorySource{})

	q, err := svc.BuildQuery(QueryRequest{Center: 50, Tolerance: 15}, school.DefaultSchema())
	require.NoError(t, err)
	assert.Equal(t, school.Bounds{Low: 35, High: 65}, q.Bounds())
}

func TestBuildQuery_Restrictions(t *testing.T) {
	svc := newTestCatalog(&memorySource{})

	q, err := svc.BuildQuery(QueryRequest{
		Center:    5,
		Tolerance: 0,
		Restrictions: map[string][]string{
			"İLÇE": {"Kadıköy", "Şişli"},
			"ALAN": {},
		},
	}, school.DefaultSchema())
	require.NoError(t, err)

	assert.Equal(t, []string{"Kadıköy", "Şişli"}, q.Restriction("İLÇE").Values())
	assert.False(t, q.Restriction("ALAN").IsUniversal())
	assert.False(t, q.Restriction("ALAN").Allows("Fen"))
	assert.True(t, q.Restriction("OKUL TÜRÜ").IsUniversal())
	assert.Equal(t, school.Bounds{Low: 5, High: 5}, q.Bounds())
}

func TestParseQueryValues(t *testing.T) {
	schema := school.DefaultSchema()
	defaults := DefaultQueryDefaults()

	t.Run("defaults", func(t *testing.T) {
		req, err := ParseQueryValues(url.Values{}, schema, defaults)
		require.NoError(t, err)
		assert.Equal(t, 5.0, req.Center)
		assert.Equal(t, 1.0, req.Tolerance)
		assert.Nil(t, req.Restrictions)
	})

	t.Run("comma decimals and selections", func(t *testing.T) {
		values := url.Values{
			"center":    {"12,5"},
			"tolerance": {"0.75"},
			"İLÇE":      {"Kadıköy", " ", "Şişli"},
			"sort":      {"ignored"},
		}
		req, err := ParseQueryValues(values, schema, defaults)
		require.NoError(t, err)
		assert.Equal(t, 12.5, req.Center)
		assert.Equal(t, 0.75, req.Tolerance)
		assert.Equal(t, map[string][]string{"İLÇE": {"Kadıköy", "Şişli"}}, req.Restrictions)
	})

	t.Run("explicit empty selection", func(t *testing.T) {
		values := url.Values{RestrictParam: {"ALAN"}}
		req, err := ParseQueryValues(values, schema, defaults)
		require.NoError(t, err)
		require.Contains(t, req.Restrictions, "ALAN")
		assert.NotNil(t, req.Restrictions["ALAN"])
		assert.Empty(t, req.Restrictions["ALAN"])
	})

	t.Run("errors", func(t *testing.T) {
		_, err := ParseQueryValues(url.Values{"center": {"abc"}}, schema, defaults)
		assert.ErrorIs(t, err, core.ErrInvalidCenter)
		_, err = ParseQueryValues(url.Values{"tolerance": {"x"}}, schema, defaults)
		assert.ErrorIs(t, err, core.ErrInvalidTolerance)
		_, err = ParseQueryValues(url.Values{RestrictParam: {"BÖLGE"}}, schema, defaults)
		assert.ErrorIs(t, err, core.ErrUnknownField)
	})
}

func TestEncodeQueryValues_RoundTrip(t *testing.T) {
	schema := school.DefaultSchema()
	req := QueryRequest{
		Center:       7.25,
		Tolerance:    2,
		Restrictions: map[string][]string{"İLÇE": {"Üsküdar"}, "ALAN": {}},
	}

	back, err := ParseQueryValues(EncodeQueryValues(req, schema), schema, DefaultQueryDefaults())
	require.NoError(t, err)
	assert.Equal(t, req.Center, back.Center)
	assert.Equal(t, req.Tolerance, back.Tolerance)
	assert.Equal(t, []string{"Üsküdar"}, back.Restrictions["İLÇE"])
	assert.NotNil(t, back.Restrictions["ALAN"])
	assert.Empty(t, back.Restrictions["ALAN"])
}

func TestBoundsCaption(t *testing.T) {
	assert.Equal(t, "4.00–6.00 arası uygun okullar", BoundsCaption(school.Bounds{Low: 4, High: 6}))
	assert.Equal(t, "0.00–1.50 arası uygun okullar", BoundsCaption(school.Query{Center: 0.5, Tolerance: 1}.Bounds()))
}
