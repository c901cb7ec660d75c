package app

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"gotercih/domain/core"
	"gotercih/domain/datareadiness/ingestion"
	"gotercih/domain/school"
	"gotercih/internal"
	"gotercih/internal/analysis/trend"
	"gotercih/internal/metrics"
	"gotercih/ports"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Snapshot is an immutable, fully estimated view of the catalog. Readers
// share it without locking; Reload publishes a new one.
type Snapshot struct {
	Revision    string               `json:"revision"`
	Fingerprint core.Hash            `json:"fingerprint"` // hash of the raw table
	LoadedAt    time.Time            `json:"loaded_at"`
	Source      string               `json:"source"`
	Schema      school.Schema        `json:"schema"`
	Schools     []school.School      `json:"-"`
	Options     map[string][]string  `json:"options"`
	Report      ingestion.LoadReport `json:"report"`
}

// CatalogDeps are the ports the catalog is built from
type CatalogDeps struct {
	Source     ports.TableSource
	Normalizer ports.Normalizer
	Coercer    ports.CellCoercer
	Estimator  ports.Estimator
}

// CatalogService owns the loaded school list and answers range queries
type CatalogService struct {
	deps     CatalogDeps
	schema   school.Schema
	defaults QueryDefaults
	current  atomic.Pointer[Snapshot]
	group    singleflight.Group
	validate *validator.Validate
	log      *internal.Logger
}

// NewCatalogService creates a service; nothing is loaded until Reload
func NewCatalogService(deps CatalogDeps, schema school.Schema, defaults QueryDefaults) *CatalogService {
	return &CatalogService{
		deps:     deps,
		schema:   schema,
		defaults: defaults,
		validate: newValidator(),
		log:      internal.Log(),
	}
}

// Defaults returns the configured query defaults
func (s *CatalogService) Defaults() QueryDefaults {
	return s.defaults
}

// Snapshot returns the current snapshot or ErrNotLoaded
func (s *CatalogService) Snapshot() (*Snapshot, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, core.ErrNotLoaded
	}
	return snap, nil
}

// Reload reads the source again and publishes a new snapshot. Concurrent
// calls share one load. On failure the previous snapshot stays in place.
func (s *CatalogService) Reload(ctx context.Context) (*Snapshot, error) {
	v, err, shared := s.group.Do("reload", func() (interface{}, error) {
		return s.load(ctx)
	})
	if shared {
		s.log.Debug("[CatalogService] Joined an in-flight reload")
	}
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

func (s *CatalogService) load(ctx context.Context) (snap *Snapshot, err error) {
	start := time.Now()
	defer func() {
		schools, estimated := 0, 0
		if snap != nil {
			schools, estimated = len(snap.Schools), trend.Defined(snap.Schools)
		}
		metrics.ObserveReload(err, schools, estimated, time.Since(start))
	}()

	name := s.deps.Source.Name()
	s.log.Debug("[CatalogService] Reloading from %s", name)

	table, err := s.deps.Source.ReadTable(ctx)
	if err != nil {
		s.log.Error("[CatalogService] Read from %s failed, keeping previous snapshot: %v", name, err)
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}

	schools, schema, report, err := s.deps.Normalizer.Normalize(table, s.schema)
	if err != nil {
		s.log.Error("[CatalogService] Normalizing %s failed, keeping previous snapshot: %v", name, err)
		return nil, fmt.Errorf("failed to normalize %s: %w", name, err)
	}

	schools = trend.Apply(s.deps.Estimator, schools)

	snap = &Snapshot{
		Revision:    core.NewRevision().String(),
		Fingerprint: table.Fingerprint(),
		LoadedAt:    time.Now(),
		Source:      name,
		Schema:      schema,
		Schools:     schools,
		Options:     collectOptions(schools, schema.CategoryFields),
		Report:      report,
	}
	if prev := s.current.Swap(snap); prev != nil && prev.Fingerprint == snap.Fingerprint {
		s.log.Debug("[CatalogService] Content of %s unchanged (%s)", name, snap.Fingerprint.Short())
	}

	s.log.Info("[CatalogService] Loaded %d schools (%d estimated) revision %s", len(schools), trend.Defined(schools), snap.Revision)
	if len(report.Errors) > 0 || report.RowsSkipped > 0 {
		s.log.Warn("[CatalogService] %s", report.String())
	}
	return snap, nil
}

// Options returns the sorted distinct values of one category field
func (s *CatalogService) Options(field string) ([]string, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	opts, ok := snap.Options[field]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrUnknownField, field)
	}
	return opts, nil
}

// AllOptions returns the options of every category field
func (s *CatalogService) AllOptions() (map[string][]string, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	return snap.Options, nil
}

// collectOptions lists distinct non-empty values per field in Turkish collation order
func collectOptions(schools []school.School, fields []string) map[string][]string {
	col := collate.New(language.Turkish)
	out := make(map[string][]string, len(fields))
	for _, f := range fields {
		seen := make(map[string]struct{})
		values := make([]string, 0)
		for i := range schools {
			v := schools[i].Attribute(f)
			if v == "" {
				continue
			}
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			values = append(values, v)
		}
		col.SortStrings(values)
		out[f] = values
	}
	return out
}
