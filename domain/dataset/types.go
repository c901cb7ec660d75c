package dataset

import (
	"time"

	"gotercih/domain/core"
)

// Row is one data row keyed by header
type Row map[string]string

// Table is a raw dataset as read from a source, before coercion
type Table struct {
	Source  string    `json:"source"`
	Headers []string  `json:"headers"`
	Rows    []Row     `json:"rows"`
	ReadAt  time.Time `json:"read_at"`
}

// HasColumn reports whether the table has the named header
func (t *Table) HasColumn(name string) bool {
	for _, h := range t.Headers {
		if h == name {
			return true
		}
	}
	return false
}

// Column returns the values of one column in row order
func (t *Table) Column(name string) []string {
	values := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		values[i] = row[name]
	}
	return values
}

// Len returns the number of data rows
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Fingerprint hashes headers and cells in order, ignoring Source and ReadAt
func (t *Table) Fingerprint() core.Hash {
	records := make([][]string, 0, len(t.Rows)+1)
	records = append(records, t.Headers)
	for _, row := range t.Rows {
		rec := make([]string, len(t.Headers))
		for i, h := range t.Headers {
			rec[i] = row[h]
		}
		records = append(records, rec)
	}
	return core.HashFields(records)
}
