package ports

import (
	"context"

	"gotercih/domain/dataset"
)

// TableSource reads the raw school table from an external store
type TableSource interface {
	// ReadTable returns every row of the source with trimmed headers
	ReadTable(ctx context.Context) (*dataset.Table, error)

	// Name identifies the source in logs and load reports
	Name() string
}
