package ui

import (
	"bytes"
	"context"
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
	"github.com/xuri/excelize/v2"
)

type staticSource struct{ table *dataset.Table }

func (s staticSource) Name() string { return "static" }
func (s staticSource) ReadTable(context.Context) (*dataset.Table, error) {
	return s.table, nil
}

func newTestServer(t *testing.T, load bool) *Server {
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
	s, err := NewServer(catalog, "test")
	require.NoError(t, err)
	return s
}

func get(s *Server, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestIndex_Defaults(t *testing.T) {
	s := newTestServer(t, true)

	rec := get(s, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	assert.Contains(t, body, "4.00–6.00 arası uygun okullar")
	assert.Contains(t, body, "Bu aralıkta okul bulunamadı.")
	assert.Contains(t, body, `<option value="A" selected>A</option>`)
	assert.Contains(t, body, "<strong>2025</strong>", "note is rendered from markdown")
	assert.Contains(t, body, "</html>")
}

func TestIndex_Matches(t *testing.T) {
	s := newTestServer(t, true)

	q := url.Values{"center": {"56"}, "tolerance": {"1"}, "İLÇE": {"A"}, "restrict": {"İLÇE"}}
	rec := get(s, "/?"+q.Encode())
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	assert.Contains(t, body, "55.00–57.00 arası uygun okullar")
	assert.Contains(t, body, "<td>Birinci Lisesi</td>")
	assert.Contains(t, body, "<td>56.00</td>")
	assert.NotContains(t, body, "İkinci Lisesi")
	assert.Contains(t, body, "1 / 2 okul")
	assert.Contains(t, body, "/export.csv?center=56")
}

func TestIndex_EmptySelectionDeselectsAll(t *testing.T) {
	s := newTestServer(t, true)

	q := url.Values{"center": {"58"}, "tolerance": {"5"}, "restrict": {"ALAN"}}
	rec := get(s, "/?"+q.Encode())
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	assert.Contains(t, body, `<option value="X">X</option>`)
	assert.Contains(t, body, "0 / 2 okul")
}

func TestIndex_Errors(t *testing.T) {
	s := newTestServer(t, true)
	rec := get(s, "/?center=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `class="error"`)

	rec = get(s, "/?center=5&tolerance=-1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = get(s, "/?center=50&tolerance=25")
	assert.Equal(t, http.StatusOK, rec.Code, "tolerance above the slider max is still a valid query")

	notLoaded := newTestServer(t, false)
	rec = get(notLoaded, "/")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "Veri henüz yüklenmedi.")
}

func TestExportCSV(t *testing.T) {
	s := newTestServer(t, true)

	rec := get(s, "/export.csv?center=58&tolerance=2")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="tercih_listesi_2025.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")

	out := rec.Body.Bytes()
	require.True(t, bytes.HasPrefix(out, []byte{0xEF, 0xBB, 0xBF}))
	lines := strings.Split(strings.TrimSpace(string(out[3:])), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "OKUL ADI,İLÇE,ALAN,2022,2023,2024,2025 Tahmin", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "Birinci Lisesi"))
	assert.True(t, strings.HasSuffix(lines[2], "60,,,60.00"))
}

func TestExportXLSX(t *testing.T) {
	s := newTestServer(t, true)

	rec := get(s, "/export.xlsx?center=56&tolerance=0")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="tercih_listesi_2025.xlsx"`, rec.Header().Get("Content-Disposition"))

	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetList()[0])
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Birinci Lisesi", rows[1][0])
}

func TestExport_Errors(t *testing.T) {
	s := newTestServer(t, true)
	rec := get(s, "/export.csv?tolerance=-2")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_QUERY")

	rec = get(newTestServer(t, false), "/export.xlsx")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, true)
	assert.Equal(t, http.StatusOK, get(s, "/healthz").Code)

	get(s, "/?center=56")
	rec := get(s, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "tercih_queries_total")

	assert.Equal(t, http.StatusOK, get(s, "/static/style.css").Code)
}
