package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"gotercih/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"DATA_FILE", "DATABASE_URL", "SCHEMA_FILE", "CATEGORY_FIELDS", "DISPLAY_FIELDS",
		"PERIOD_COLUMNS", "DEFAULT_CENTER", "DEFAULT_TOLERANCE", "MAX_TOLERANCE", "WATCH_DATA", "SOURCE_URL"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5.0, cfg.Query.DefaultCenter)
	assert.Equal(t, 1.0, cfg.Query.DefaultTolerance)
	assert.Equal(t, 10.0, cfg.Query.MaxTolerance)
	assert.Equal(t, "OKUL ADI", cfg.Schema.NameField)
	assert.Equal(t, []string{"İLÇE", "ALAN"}, cfg.Schema.CategoryFields)
	assert.False(t, cfg.Source.UsesFile())
	assert.False(t, cfg.Source.UsesDatabase())
	assert.False(t, cfg.Source.UsesAPI())
	assert.True(t, cfg.Watch.Enabled)
	assert.Equal(t, 500*time.Millisecond, cfg.Watch.Debounce)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DATA_FILE", "okullar.csv")
	t.Setenv("DATA_ENCODING", "iso-8859-9")
	t.Setenv("CATEGORY_FIELDS", "İLÇE, OKUL TÜRÜ")
	t.Setenv("PERIOD_COLUMNS", "2021,2022,2023")
	t.Setenv("DEFAULT_CENTER", "12.5")
	t.Setenv("MAX_TOLERANCE", "20")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.Source.UsesFile())
	assert.Equal(t, "iso-8859-9", cfg.Source.Encoding)
	assert.Equal(t, []string{"İLÇE", "OKUL TÜRÜ"}, cfg.Schema.CategoryFields)
	assert.Equal(t, [3]string{"2021", "2022", "2023"}, cfg.Schema.PeriodColumns)
	assert.Equal(t, 12.5, cfg.Query.DefaultCenter)
}

func TestLoad_SchemaFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.yaml")
	content := "name_field: OKUL\ncategory_fields: [BÖLGE]\ndisplay_fields: [TÜR]\nestimate_label: Gelecek Yıl\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("SCHEMA_FILE", path)
	t.Setenv("NAME_FIELD", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "OKUL", cfg.Schema.NameField)
	assert.Equal(t, []string{"BÖLGE"}, cfg.Schema.CategoryFields)
	assert.Equal(t, []string{"TÜR"}, cfg.Schema.DisplayFields)
	assert.Equal(t, "Gelecek Yıl", cfg.Schema.EstimateLabel)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"tolerance above max": {"DEFAULT_TOLERANCE": "15", "MAX_TOLERANCE": "10"},
		"center out of range": {"DEFAULT_CENTER": "101"},
		"two period columns":  {"PERIOD_COLUMNS": "2023,2024"},
		"missing schema file": {"SCHEMA_FILE": "/nonexistent/schema.yaml"},
		"cursor pagination":   {"SOURCE_URL": "http://okul.example/api", "SOURCE_PAGINATION": "cursor"},
		"auth without token":  {"SOURCE_URL": "http://okul.example/api", "SOURCE_AUTH": "bearer"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
		})
	}
}

func TestLoad_SourcePrecedence(t *testing.T) {
	t.Setenv("DATA_FILE", "")
	t.Setenv("SOURCE_URL", "https://okul.example/api/v2/okullar")
	t.Setenv("SOURCE_DATA_PATH", "data.items")
	t.Setenv("SOURCE_PAGINATION", "page")
	t.Setenv("SOURCE_PAGE_SIZE", "100")
	t.Setenv("DATABASE_URL", "postgres://localhost/tercih")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Source.UsesAPI())
	assert.False(t, cfg.Source.UsesDatabase(), "endpoint wins over database")
	assert.Equal(t, "data.items", cfg.Source.API.DataPath)
	assert.Equal(t, 100, cfg.Source.API.PageSize)
	assert.Equal(t, 20, cfg.Source.API.MaxPages)
	assert.Equal(t, 30*time.Second, cfg.Source.API.Timeout)

	t.Setenv("DATA_FILE", "okullar.xlsx")
	cfg, err = Load()
	require.NoError(t, err)
	assert.True(t, cfg.Source.UsesFile())
	assert.False(t, cfg.Source.UsesAPI())
}
