package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gotercih/domain/core"
	"gotercih/domain/dataset"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// TableRepository reads a school table from PostgreSQL. Every column is
// returned as text; coercion happens in the normalizer like for files.
type TableRepository struct {
	db      *sqlx.DB
	table   string
	orderBy string
}

// NewTableRepository creates a repository for table, optionally schema-qualified
// ("public.okullar"). orderBy may be empty.
func NewTableRepository(db *sqlx.DB, table, orderBy string) (*TableRepository, error) {
	if strings.TrimSpace(table) == "" {
		return nil, fmt.Errorf("%w: table name is required", core.ErrSourceUnavailable)
	}
	return &TableRepository{db: db, table: table, orderBy: orderBy}, nil
}

// Name identifies the source in logs and reports
func (r *TableRepository) Name() string {
	return "postgres:" + r.table
}

// query builds the SELECT with quoted identifiers
func (r *TableRepository) query() string {
	parts := strings.Split(r.table, ".")
	for i, p := range parts {
		parts[i] = pq.QuoteIdentifier(p)
	}
	q := "SELECT * FROM " + strings.Join(parts, ".")
	if r.orderBy != "" {
		q += " ORDER BY " + pq.QuoteIdentifier(r.orderBy)
	}
	return q
}

// ReadTable loads every row of the table
func (r *TableRepository) ReadTable(ctx context.Context) (*dataset.Table, error) {
	rows, err := r.db.QueryxContext(ctx, r.query())
	if err != nil {
		return nil, core.NewSourceError(r.Name(), err)
	}
	defer rows.Close()

	headers, err := rows.Columns()
	if err != nil {
		return nil, core.NewSourceError(r.Name(), err)
	}

	table := &dataset.Table{
		Source:  r.Name(),
		Headers: headers,
		Rows:    make([]dataset.Row, 0),
	}
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return nil, core.NewSourceError(r.Name(), fmt.Errorf("failed to scan row %d: %w", len(table.Rows), err))
		}
		row := make(dataset.Row, len(headers))
		for i, h := range headers {
			row[h] = textValue(values[i])
		}
		table.Rows = append(table.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, core.NewSourceError(r.Name(), err)
	}

	if len(table.Rows) == 0 {
		return nil, core.ErrEmptySource
	}
	table.ReadAt = time.Now()
	return table, nil
}

// textValue renders a scanned driver value; NULL becomes the empty string
func textValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case []byte:
		return strings.TrimSpace(string(val))
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int64:
		return strconv.FormatInt(val, 10)
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}
