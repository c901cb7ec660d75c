package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"gotercih/adapters/datareadiness/coercer"
	"gotercih/adapters/excel"
	"gotercih/domain/core"
	"gotercih/domain/school"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const schoolsJSON = `{
  "meta": {"count": 3},
  "data": {"schools": [
    {"OKUL ADI": "Kadıköy Anadolu", "İLÇE": "Kadıköy", "ALAN": "Anadolu", "2022": 3.10, "2023": "3,3", "2024": 3.5},
    {"OKUL ADI": "Üsküdar Fen", "İLÇE": "Üsküdar", "ALAN": "Fen", "2022": 0.9, "2023": null, "2024": "1,1", "KONTENJAN": 120},
    {"OKUL ADI": " ", "İLÇE": null, "ALAN": "", "2022": null, "2023": null, "2024": null}
  ]}
}`

func TestAPIReader_ReadTable(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(schoolsJSON))
	}))
	defer srv.Close()

	config := DefaultAPIDataSource(srv.URL + "/okullar?token=secret")
	config.DataPath = "data.schools"
	config.AuthMethod = AuthBearer
	config.AuthToken = "t0k"
	reader := NewAPIReader(config)

	table, err := reader.ReadTable(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Bearer t0k", gotAuth)
	assert.Equal(t, srv.URL+"/okullar", reader.Name())
	assert.Equal(t, []string{"OKUL ADI", "İLÇE", "ALAN", "2022", "2023", "2024", "KONTENJAN"}, table.Headers)
	require.Len(t, table.Rows, 2, "blank record is dropped")
	assert.Equal(t, "3.10", table.Rows[0]["2022"])
	assert.Equal(t, "3,3", table.Rows[0]["2023"])
	assert.Equal(t, "", table.Rows[0]["KONTENJAN"])
	assert.Equal(t, "", table.Rows[1]["2023"])
	assert.Equal(t, "120", table.Rows[1]["KONTENJAN"])

	schools, _, _, err := excel.Normalize(table, school.DefaultSchema(), coercer.NewTypeCoercer(coercer.DefaultCoercionConfig()))
	require.NoError(t, err)
	require.Len(t, schools, 2)
	assert.Equal(t, school.Present(3.3), schools[0].Readings[1])
	assert.False(t, schools[1].Readings[1].Valid)
}

func TestAPIReader_PagePagination(t *testing.T) {
	pages := map[string]string{
		"1": `[{"OKUL ADI": "A", "2024": 1}, {"OKUL ADI": "B", "2024": 2}]`,
		"2": `[{"OKUL ADI": "C", "2024": 3}]`,
	}
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		assert.Equal(t, "2", r.URL.Query().Get("per_page"))
		w.Write([]byte(pages[r.URL.Query().Get("page")]))
	}))
	defer srv.Close()

	config := DefaultAPIDataSource(srv.URL)
	config.PaginationType = PaginationPage
	config.PageSize = 2
	table, err := NewAPIReader(config).ReadTable(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, requests)
	require.Len(t, table.Rows, 3)
	assert.Equal(t, "C", table.Rows[2]["OKUL ADI"])
}

func TestAPIReader_OffsetPaginationStopsAtMaxPages(t *testing.T) {
	var offsets []int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		off, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		offsets = append(offsets, off)
		w.Write([]byte(`[{"OKUL ADI": "x"}]`))
	}))
	defer srv.Close()

	config := DefaultAPIDataSource(srv.URL)
	config.PaginationType = PaginationOffset
	config.PageSize = 1
	config.MaxPages = 3
	config.AuthMethod = AuthAPIKey
	table, err := NewAPIReader(config).ReadTable(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1, 2}, offsets)
	assert.Len(t, table.Rows, 3)
}

func TestAPIReader_Errors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		dataPath string
		target   error
	}{
		{"server error", http.StatusInternalServerError, `{}`, "", core.ErrSourceUnavailable},
		{"invalid json", http.StatusOK, `{"data": [`, "", core.ErrSourceUnavailable},
		{"missing path", http.StatusOK, `{"rows": []}`, "data", core.ErrSourceUnavailable},
		{"scalar at path", http.StatusOK, `{"data": 5}`, "data", core.ErrSourceUnavailable},
		{"non-object record", http.StatusOK, `[1, 2]`, "", core.ErrSourceUnavailable},
		{"no records", http.StatusOK, `[]`, "", core.ErrEmptySource},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			config := DefaultAPIDataSource(srv.URL)
			config.DataPath = tt.dataPath
			_, err := NewAPIReader(config).ReadTable(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestAPIReader_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := NewAPIReader(DefaultAPIDataSource(srv.URL)).ReadTable(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
