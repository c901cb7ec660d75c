package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"gotercih/adapters/datareadiness/coercer"
	"gotercih/adapters/excel"
	"gotercih/app"
	"gotercih/domain/dataset"
	"gotercih/domain/school"
	"gotercih/internal/analysis/trend"
	"gotercih/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource struct{ table *dataset.Table }

func (s staticSource) Name() string { return "static" }
func (s staticSource) ReadTable(context.Context) (*dataset.Table, error) {
	return s.table, nil
}

func newTestServer(t *testing.T, load bool) *httptest.Server {
	t.Helper()
	normalizer := excel.NewTableNormalizer(coercer.DefaultCoercionConfig())
	catalog := app.NewCatalogService(app.CatalogDeps{
		Source:     staticSource{table: testkit.ScenarioTable()},
		Normalizer: normalizer,
		Coercer:    normalizer,
		Estimator:  trend.NewLinearEstimator(),
	}, school.DefaultSchema(), app.DefaultQueryDefaults())
	if load {
		_, err := catalog.Reload(context.Background())
		require.NoError(t, err)
	}
	srv := httptest.NewServer(NewHandler(catalog).Routes())
	t.Cleanup(srv.Close)
	return srv
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestMatch_Post(t *testing.T) {
	srv := newTestServer(t, true)

	body := `{"center": 56, "tolerance": 1, "restrictions": {"İLÇE": ["A"], "ALAN": ["X"]}}`
	resp, err := http.Post(srv.URL+"/api/v1/match", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got MatchResponse
	decode(t, resp, &got)
	assert.Equal(t, school.Bounds{Low: 55, High: 57}, got.Bounds)
	assert.Equal(t, "55.00–57.00 arası uygun okullar", got.Caption)
	require.Len(t, got.Results, 1)
	assert.Equal(t, 0, got.Results[0].Row)
	assert.Equal(t, 56.0, got.Results[0].Estimate)
	assert.Equal(t, "2025 Tahmin", got.Columns[len(got.Columns)-1])
}

func TestMatch_QueryString(t *testing.T) {
	srv := newTestServer(t, true)

	q := url.Values{"center": {"58"}, "tolerance": {"2"}}
	resp, err := http.Get(srv.URL + "/api/v1/match?" + q.Encode())
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got MatchResponse
	decode(t, resp, &got)
	require.Equal(t, 2, got.Count)
	assert.Equal(t, 0, got.Results[0].Row)
	assert.Equal(t, 1, got.Results[1].Row)
	assert.Nil(t, got.Results[1].Readings[1], "absent readings are null")
}

func TestMatch_ToleranceAboveSliderMax(t *testing.T) {
	srv := newTestServer(t, true)

	resp, err := http.Post(srv.URL+"/api/v1/match", "application/json", strings.NewReader(`{"center": 50, "tolerance": 15}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got MatchResponse
	decode(t, resp, &got)
	assert.Equal(t, 2, got.Count)
}

func TestMatch_EmptySelection(t *testing.T) {
	srv := newTestServer(t, true)

	body := `{"center": 56, "tolerance": 5, "restrictions": {"İLÇE": []}}`
	resp, err := http.Post(srv.URL+"/api/v1/match", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got MatchResponse
	decode(t, resp, &got)
	assert.Equal(t, 0, got.Count)
	assert.NotNil(t, got.Results)
}

func TestMatch_Errors(t *testing.T) {
	srv := newTestServer(t, true)

	cases := []struct {
		body   string
		status int
		code   string
	}{
		{`{"center": 5, "tolerance": -1}`, http.StatusBadRequest, "INVALID_QUERY"},
		{`{"center": 150, "tolerance": 1}`, http.StatusBadRequest, "INVALID_QUERY"},
		{`{"center": 5, "tolerance": 1, "restrictions": {"BÖLGE": ["x"]}}`, http.StatusBadRequest, "INVALID_QUERY"},
		{`{"center": "beş"}`, http.StatusBadRequest, "INVALID_INPUT"},
	}
	for _, tc := range cases {
		resp, err := http.Post(srv.URL+"/api/v1/match", "application/json", strings.NewReader(tc.body))
		require.NoError(t, err)
		assert.Equal(t, tc.status, resp.StatusCode, tc.body)

		var e ErrorResponse
		decode(t, resp, &e)
		assert.Equal(t, tc.code, e.Code, tc.body)
		assert.NotEmpty(t, e.Error)
	}
}

func TestNotLoaded(t *testing.T) {
	srv := newTestServer(t, false)

	resp, err := http.Get(srv.URL + "/api/v1/summary")
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	var e ErrorResponse
	decode(t, resp, &e)
	assert.Equal(t, "NOT_LOADED", e.Code)

	resp, err = http.Post(srv.URL+"/api/v1/reload", "application/json", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/api/v1/summary")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var sum app.Summary
	decode(t, resp, &sum)
	assert.Equal(t, 2, sum.Total)
}

func TestEstimate(t *testing.T) {
	srv := newTestServer(t, false)

	cases := []struct {
		body    string
		defined bool
		value   float64
	}{
		{`{"values": [50, 52, 54]}`, true, 56},
		{`{"values": ["10", null, "14"]}`, true, 16},
		{`{"values": ["-", "", null]}`, false, 0},
	}
	for _, tc := range cases {
		resp, err := http.Post(srv.URL+"/api/v1/estimate", "application/json", strings.NewReader(tc.body))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode, tc.body)

		var got struct {
			Defined  bool     `json:"defined"`
			Estimate *float64 `json:"estimate"`
		}
		decode(t, resp, &got)
		assert.Equal(t, tc.defined, got.Defined, tc.body)
		if tc.defined {
			require.NotNil(t, got.Estimate)
			assert.Equal(t, tc.value, *got.Estimate, tc.body)
		} else {
			assert.Nil(t, got.Estimate)
		}
	}

	resp, err := http.Post(srv.URL+"/api/v1/estimate", "application/json", strings.NewReader(`{"values": [1, 2]}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestOptionsAndHealth(t *testing.T) {
	srv := newTestServer(t, true)

	resp, err := http.Get(srv.URL + "/api/v1/options")
	require.NoError(t, err)
	var opts map[string][]string
	decode(t, resp, &opts)
	assert.Equal(t, []string{"A"}, opts["İLÇE"])

	resp, err = http.Get(srv.URL + "/api/v1/options/" + url.PathEscape("ALAN"))
	require.NoError(t, err)
	var alan []string
	decode(t, resp, &alan)
	assert.Equal(t, []string{"X"}, alan)

	resp, err = http.Get(srv.URL + "/api/v1/options/TÜR")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	var health map[string]interface{}
	decode(t, resp, &health)
	assert.Equal(t, "ok", health["status"])
}
