package api

import "time"

// Pagination styles understood by APIReader
const (
	PaginationNone   = "none"
	PaginationPage   = "page"   // page=N&per_page=SIZE, 1-based
	PaginationOffset = "offset" // offset=N&limit=SIZE
)

// Authentication methods understood by APIReader
const (
	AuthNone   = "none"
	AuthBearer = "bearer"
	AuthAPIKey = "api_key"
)

// APIDataSource describes a JSON endpoint that serves the school table as an
// array of flat objects, one object per school
type APIDataSource struct {
	URL            string            `json:"url" yaml:"url"`
	DataPath       string            `json:"data_path" yaml:"data_path"` // gjson path to the record array; whole body when empty
	Headers        map[string]string `json:"headers" yaml:"headers"`
	AuthMethod     string            `json:"auth_method" yaml:"auth_method"`
	AuthToken      string            `json:"-" yaml:"auth_token"`
	PaginationType string            `json:"pagination_type" yaml:"pagination_type"`
	PageSize       int               `json:"page_size" yaml:"page_size"`
	MaxPages       int               `json:"max_pages" yaml:"max_pages"`
	Timeout        time.Duration     `json:"timeout" yaml:"timeout"`
}

// DefaultAPIDataSource returns a single-request source for url
func DefaultAPIDataSource(url string) APIDataSource {
	return APIDataSource{
		URL:            url,
		AuthMethod:     AuthNone,
		PaginationType: PaginationNone,
		PageSize:       500,
		MaxPages:       20,
		Timeout:        30 * time.Second,
	}
}
