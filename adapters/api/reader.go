package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"gotercih/domain/core"
	"gotercih/domain/dataset"
	"gotercih/internal"

	"github.com/tidwall/gjson"
)

// maxBodySize bounds a single response page
const maxBodySize = 32 << 20

// APIReader reads the school table from a REST endpoint returning JSON
type APIReader struct {
	config     APIDataSource
	httpClient *http.Client
	log        *internal.Logger
}

// NewAPIReader creates a new API reader for a data source
func NewAPIReader(config APIDataSource) *APIReader {
	if config.PageSize <= 0 {
		config.PageSize = 500
	}
	if config.MaxPages <= 0 {
		config.MaxPages = 1
	}
	if config.PaginationType == "" {
		config.PaginationType = PaginationNone
	}
	return &APIReader{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		log:        internal.Log(),
	}
}

// Name identifies the source; query strings are dropped so tokens do not leak into logs
func (r *APIReader) Name() string {
	if u, err := url.Parse(r.config.URL); err == nil {
		u.RawQuery = ""
		return u.String()
	}
	return r.config.URL
}

// ReadTable fetches every page and flattens the records into a table. Headers
// follow the order keys are first seen in; records lacking a key get an empty cell.
func (r *APIReader) ReadTable(ctx context.Context) (*dataset.Table, error) {
	startTime := time.Now()

	var (
		headers []string
		rows    []dataset.Row
	)
	seen := make(map[string]bool)

	for page := 0; page < r.config.MaxPages; page++ {
		requestURL, err := r.buildURL(page)
		if err != nil {
			return nil, core.NewSourceError(r.Name(), err)
		}

		body, err := r.fetch(ctx, requestURL)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, core.NewSourceError(r.Name(), err)
		}

		records, err := r.parseRecords(body)
		if err != nil {
			return nil, core.NewSourceError(r.Name(), err)
		}

		for _, rec := range records {
			row := make(dataset.Row)
			blank := true
			rec.ForEach(func(key, value gjson.Result) bool {
				name := strings.TrimSpace(key.String())
				if name == "" {
					return true
				}
				if !seen[name] {
					seen[name] = true
					headers = append(headers, name)
				}
				cell := strings.TrimSpace(cellText(value))
				if cell != "" {
					blank = false
				}
				row[name] = cell
				return true
			})
			if !blank {
				rows = append(rows, row)
			}
		}
		r.log.Debug("[APIReader] Page %d of %s: %d records", page+1, r.Name(), len(records))

		if !r.hasMorePages(len(records)) {
			break
		}
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s returned no records", core.ErrEmptySource, r.Name())
	}
	for _, row := range rows {
		for _, h := range headers {
			if _, ok := row[h]; !ok {
				row[h] = ""
			}
		}
	}

	r.log.Debug("[APIReader] Read %d rows from %s in %v", len(rows), r.Name(), time.Since(startTime))
	return &dataset.Table{
		Source:  r.Name(),
		Headers: headers,
		Rows:    rows,
		ReadAt:  time.Now(),
	}, nil
}

// buildURL adds pagination parameters to the configured URL
func (r *APIReader) buildURL(page int) (string, error) {
	u, err := url.Parse(r.config.URL)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	q := u.Query()
	switch r.config.PaginationType {
	case PaginationPage:
		q.Set("page", strconv.Itoa(page+1))
		q.Set("per_page", strconv.Itoa(r.config.PageSize))
	case PaginationOffset:
		q.Set("offset", strconv.Itoa(page*r.config.PageSize))
		q.Set("limit", strconv.Itoa(r.config.PageSize))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// fetch performs one authenticated GET
func (r *APIReader) fetch(ctx context.Context, requestURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range r.config.Headers {
		req.Header.Set(k, v)
	}
	switch r.config.AuthMethod {
	case AuthBearer:
		req.Header.Set("Authorization", "Bearer "+r.config.AuthToken)
	case AuthAPIKey:
		req.Header.Set("X-API-Key", r.config.AuthToken)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}
	return body, nil
}

// parseRecords extracts the record objects at DataPath
func (r *APIReader) parseRecords(body []byte) ([]gjson.Result, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("response is not valid JSON")
	}

	var data gjson.Result
	if r.config.DataPath == "" {
		data = gjson.ParseBytes(body)
	} else {
		data = gjson.GetBytes(body, r.config.DataPath)
	}
	if !data.Exists() {
		return nil, fmt.Errorf("data path '%s' not found in response", r.config.DataPath)
	}

	switch {
	case data.IsArray():
		records := data.Array()
		for i, rec := range records {
			if !rec.IsObject() {
				return nil, fmt.Errorf("record %d is not an object", i)
			}
		}
		return records, nil
	case data.IsObject():
		return []gjson.Result{data}, nil
	default:
		return nil, fmt.Errorf("data path '%s' is not an array or object", r.config.DataPath)
	}
}

// hasMorePages stops on the last page, detected by a short page
func (r *APIReader) hasMorePages(records int) bool {
	if r.config.PaginationType == PaginationNone {
		return false
	}
	return records >= r.config.PageSize
}

// cellText renders a JSON value the way it would appear in a CSV cell.
// Numbers keep their literal form so 3.10 stays 3.10.
func cellText(v gjson.Result) string {
	switch v.Type {
	case gjson.Null:
		return ""
	case gjson.String:
		return v.Str
	case gjson.Number, gjson.JSON:
		return v.Raw
	default:
		return v.String()
	}
}
