package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gotercih/domain/school"
	"gotercih/internal/errors"

	"gopkg.in/yaml.v3"
)

// Config represents the complete application configuration
type Config struct {
	Source SourceConfig
	Schema school.Schema
	Query  QueryConfig
	Server ServerConfig
	Watch  WatchConfig
}

// SourceConfig selects where the school table comes from. Precedence is
// data file, then JSON endpoint, then database; with none, synthetic demo
// data is served.
type SourceConfig struct {
	DataFile    string
	Encoding    string
	Delimiter   string
	Sheet       string
	DatabaseURL string
	Table       string
	OrderBy     string
	API         APISourceConfig
}

// APISourceConfig describes a JSON endpoint serving the school table
type APISourceConfig struct {
	URL        string
	DataPath   string
	AuthMethod string
	AuthToken  string
	Pagination string
	PageSize   int
	MaxPages   int
	Timeout    time.Duration
}

// UsesFile reports whether a data file is configured
func (s SourceConfig) UsesFile() bool { return s.DataFile != "" }

// UsesAPI reports whether the JSON endpoint source is configured
func (s SourceConfig) UsesAPI() bool { return s.DataFile == "" && s.API.URL != "" }

// UsesDatabase reports whether the database source is configured
func (s SourceConfig) UsesDatabase() bool {
	return s.DataFile == "" && s.API.URL == "" && s.DatabaseURL != ""
}

// QueryConfig holds the form defaults of the browse page
type QueryConfig struct {
	DefaultCenter    float64
	DefaultTolerance float64
	MaxTolerance     float64
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	APIPort string
	GinMode string
}

// WatchConfig controls reloading on data file changes
type WatchConfig struct {
	Enabled  bool
	Debounce time.Duration
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Source: loadSourceConfig(),
		Query:  loadQueryConfig(),
		Server: loadServerConfig(),
		Watch:  loadWatchConfig(),
	}

	schema, err := loadSchema()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load schema configuration")
	}
	config.Schema = schema

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadSourceConfig() SourceConfig {
	return SourceConfig{
		DataFile:    getEnvOrDefault("DATA_FILE", ""),
		Encoding:    getEnvOrDefault("DATA_ENCODING", "utf-8"),
		Delimiter:   getEnvOrDefault("DATA_DELIMITER", "auto"),
		Sheet:       getEnvOrDefault("DATA_SHEET", ""),
		DatabaseURL: getEnvOrDefault("DATABASE_URL", ""),
		Table:       getEnvOrDefault("SOURCE_TABLE", "okullar"),
		OrderBy:     getEnvOrDefault("SOURCE_ORDER_BY", ""),
		API: APISourceConfig{
			URL:        getEnvOrDefault("SOURCE_URL", ""),
			DataPath:   getEnvOrDefault("SOURCE_DATA_PATH", ""),
			AuthMethod: getEnvOrDefault("SOURCE_AUTH", "none"),
			AuthToken:  getEnvOrDefault("SOURCE_TOKEN", ""),
			Pagination: getEnvOrDefault("SOURCE_PAGINATION", "none"),
			PageSize:   getEnvIntOrDefault("SOURCE_PAGE_SIZE", 500),
			MaxPages:   getEnvIntOrDefault("SOURCE_MAX_PAGES", 20),
			Timeout:    getEnvDurationOrDefault("SOURCE_TIMEOUT", 30*time.Second),
		},
	}
}

func loadQueryConfig() QueryConfig {
	return QueryConfig{
		DefaultCenter:    getEnvFloatOrDefault("DEFAULT_CENTER", 5.0),
		DefaultTolerance: getEnvFloatOrDefault("DEFAULT_TOLERANCE", 1.0),
		MaxTolerance:     getEnvFloatOrDefault("MAX_TOLERANCE", 10.0),
	}
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Port:    getEnvOrDefault("PORT", "8080"),
		APIPort: getEnvOrDefault("API_PORT", "8081"),
		GinMode: getEnvOrDefault("GIN_MODE", "debug"),
	}
}

func loadWatchConfig() WatchConfig {
	return WatchConfig{
		Enabled:  getEnvBoolOrDefault("WATCH_DATA", true),
		Debounce: getEnvDurationOrDefault("WATCH_DEBOUNCE", 500*time.Millisecond),
	}
}

// loadSchema starts from the default layout, applies SCHEMA_FILE and then
// the individual env overrides
func loadSchema() (school.Schema, error) {
	schema := school.DefaultSchema()

	if path := os.Getenv("SCHEMA_FILE"); path != "" {
		fromFile, err := LoadSchemaFile(path)
		if err != nil {
			return school.Schema{}, err
		}
		schema = fromFile
	}

	if v := os.Getenv("NAME_FIELD"); v != "" {
		schema.NameField = v
	}
	if v, ok := os.LookupEnv("CATEGORY_FIELDS"); ok {
		schema.CategoryFields = splitList(v)
	}
	if v := os.Getenv("PERIOD_COLUMNS"); v != "" {
		cols := splitList(v)
		if len(cols) != school.PeriodCount {
			return school.Schema{}, errors.ConfigInvalid(
				fmt.Sprintf("PERIOD_COLUMNS needs %d columns, got %d", school.PeriodCount, len(cols)))
		}
		copy(schema.PeriodColumns[:], cols)
	}
	if v, ok := os.LookupEnv("DISPLAY_FIELDS"); ok {
		schema.DisplayFields = splitList(v)
	}
	if v := os.Getenv("ESTIMATE_LABEL"); v != "" {
		schema.EstimateLabel = v
	}
	return schema, nil
}

// LoadSchemaFile reads a YAML schema such as:
//
//	name_field: OKUL ADI
//	category_fields: [İLÇE, ALAN]
//	period_columns: ["2022", "2023", "2024"]
//	display_fields: [OKUL TÜRÜ, TÜR]
func LoadSchemaFile(path string) (school.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return school.Schema{}, errors.Wrapf(errors.ConfigInvalid(err.Error()), "failed to read schema file %s", path)
	}
	schema := school.DefaultSchema()
	if err := yaml.Unmarshal(data, &schema); err != nil {
		return school.Schema{}, errors.Wrapf(errors.ConfigInvalid(err.Error()), "failed to parse schema file %s", path)
	}
	return schema, nil
}

func validateConfig(config *Config) error {
	q := config.Query
	if q.MaxTolerance <= 0 {
		return errors.ConfigInvalid("MAX_TOLERANCE must be positive")
	}
	if q.DefaultTolerance < 0 || q.DefaultTolerance > q.MaxTolerance {
		return errors.ConfigInvalid("DEFAULT_TOLERANCE must be within [0, MAX_TOLERANCE]")
	}
	if q.DefaultCenter < school.MinPercentile || q.DefaultCenter > school.MaxPercentile {
		return errors.ConfigInvalid("DEFAULT_CENTER must be within [0, 100]")
	}
	if config.Source.UsesDatabase() && config.Source.Table == "" {
		return errors.ConfigInvalid("SOURCE_TABLE is required with DATABASE_URL")
	}
	if api := config.Source.API; config.Source.UsesAPI() {
		switch api.Pagination {
		case "none", "page", "offset":
		default:
			return errors.ConfigInvalid("SOURCE_PAGINATION must be none, page or offset")
		}
		switch api.AuthMethod {
		case "none", "bearer", "api_key":
		default:
			return errors.ConfigInvalid("SOURCE_AUTH must be none, bearer or api_key")
		}
		if api.AuthMethod != "none" && api.AuthToken == "" {
			return errors.ConfigInvalid("SOURCE_TOKEN is required with SOURCE_AUTH")
		}
	}
	if config.Schema.NameField == "" {
		return errors.ConfigInvalid("NAME_FIELD is required")
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
