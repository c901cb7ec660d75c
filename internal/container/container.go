package container

import (
	"context"
	"fmt"

	"gotercih/adapters/api"
	"gotercih/adapters/excel"
	"gotercih/adapters/postgres"
	"gotercih/app"
	"gotercih/internal"
	"gotercih/internal/analysis/trend"
	"gotercih/internal/config"
	"gotercih/internal/testkit"
	"gotercih/internal/watcher"
	"gotercih/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// connectDB opens the database source; replaced in tests
var connectDB = sqlx.Connect

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config

	// Infrastructure
	DB *sqlx.DB

	// Ports
	Source     ports.TableSource
	Normalizer *excel.TableNormalizer
	Estimator  ports.Estimator

	// Services
	Catalog *app.CatalogService
	Watcher *watcher.FileWatcher
}

// New creates a new dependency injection container. Nothing is read until Init.
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	c := &Container{
		Config:    cfg,
		Estimator: trend.NewLinearEstimator(),
	}

	excelConfig := excel.DefaultExcelConfig()
	c.Normalizer = excel.NewTableNormalizer(excelConfig.CoercionConfig)

	source, err := c.newSource(excelConfig)
	if err != nil {
		return nil, err
	}
	c.Source = source

	c.Catalog = app.NewCatalogService(app.CatalogDeps{
		Source:     c.Source,
		Normalizer: c.Normalizer,
		Coercer:    c.Normalizer,
		Estimator:  c.Estimator,
	}, cfg.Schema, app.QueryDefaults{
		Center:       cfg.Query.DefaultCenter,
		Tolerance:    cfg.Query.DefaultTolerance,
		MaxTolerance: cfg.Query.MaxTolerance,
	})
	return c, nil
}

// newSource picks the file, database or synthetic source
func (c *Container) newSource(excelConfig excel.ExcelConfig) (ports.TableSource, error) {
	src := c.Config.Source
	switch {
	case src.UsesFile():
		excelConfig.FilePath = src.DataFile
		excelConfig.Encoding = src.Encoding
		excelConfig.Delimiter = src.Delimiter
		excelConfig.Sheet = src.Sheet
		internal.Log().Info("[Container] Using data file %s (%s)", src.DataFile, src.Encoding)
		return excel.NewDataReader(excelConfig), nil

	case src.UsesAPI():
		apiConfig := api.DefaultAPIDataSource(src.API.URL)
		apiConfig.DataPath = src.API.DataPath
		apiConfig.AuthMethod = src.API.AuthMethod
		apiConfig.AuthToken = src.API.AuthToken
		apiConfig.PaginationType = src.API.Pagination
		apiConfig.PageSize = src.API.PageSize
		apiConfig.MaxPages = src.API.MaxPages
		apiConfig.Timeout = src.API.Timeout
		reader := api.NewAPIReader(apiConfig)
		internal.Log().Info("[Container] Using JSON endpoint %s", reader.Name())
		return reader, nil

	case src.UsesDatabase():
		db, err := connectDB("postgres", src.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		repo, err := postgres.NewTableRepository(db, src.Table, src.OrderBy)
		if err != nil {
			if cerr := db.Close(); cerr != nil {
				internal.Log().Warn("[Container] Failed to close database: %v", cerr)
			}
			return nil, err
		}
		c.DB = db
		internal.Log().Info("[Container] Using database table %s", src.Table)
		return repo, nil

	default:
		internal.Log().Warn("[Container] No DATA_FILE, SOURCE_URL or DATABASE_URL configured, serving synthetic data")
		return testkit.NewGeneratedSource(testkit.DefaultSchoolConfig()), nil
	}
}

// Init performs the first catalog load
func (c *Container) Init(ctx context.Context) error {
	if _, err := c.Catalog.Reload(ctx); err != nil {
		return fmt.Errorf("initial load failed: %w", err)
	}
	return nil
}

// StartWatcher reloads the catalog whenever the data file changes. It is a
// no-op for non-file sources or when watching is disabled.
func (c *Container) StartWatcher(ctx context.Context) error {
	reader, ok := c.Source.(*excel.DataReader)
	if !ok || !c.Config.Watch.Enabled {
		return nil
	}
	fw, err := watcher.NewFileWatcher(reader.Path(), c.Config.Watch.Debounce, func(ctx context.Context) error {
		_, err := c.Catalog.Reload(ctx)
		return err
	})
	if err != nil {
		return err
	}
	fw.Start(ctx)
	c.Watcher = fw
	internal.Log().Info("[Container] Watching %s for changes", reader.Path())
	return nil
}

// Shutdown gracefully shuts down all components
func (c *Container) Shutdown(ctx context.Context) error {
	var firstErr error
	if c.Watcher != nil {
		if err := c.Watcher.Stop(); err != nil {
			firstErr = fmt.Errorf("failed to stop watcher: %w", err)
		}
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close database: %w", err)
		}
	}
	_ = internal.Log().Sync()
	return firstErr
}
