package catalog

import (
	"context"
	"fmt"
	"log"

	domain "github.com/example/catalog-admin/domain/catalog"
	"github.com/example/catalog-admin/modules/cache"
	"github.com/go-monolith/mono"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config holds catalog module configuration.
type Config struct {
	// DBPath is the SQLite DSN. Use "file::memory:?cache=shared" for tests.
	DBPath string
}

// DefaultConfig returns the default catalog configuration.
func DefaultConfig() Config {
	return Config{DBPath: "catalog.db"}
}

// CacheProvider exposes the shared cache.
type CacheProvider interface {
	GetCache() *cache.Cache
}

// Module provides the catalog services as a mono module.
type Module struct {
	cfg       Config
	cacheMod  CacheProvider
	publisher EventPublisher

	db         *gorm.DB
	categories *CategoryService
	products   *ProductService
	repo       *domain.ProductRepository
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new catalog module.
func NewModule(cfg Config) *Module {
	return &Module{cfg: cfg}
}

// SetCache wires the cache module. Must be called before Start.
func (m *Module) SetCache(p CacheProvider) { m.cacheMod = p }

// SetEvents wires the event publisher. Must be called before Start.
func (m *Module) SetEvents(p EventPublisher) { m.publisher = p }

// Name returns the module name.
func (m *Module) Name() string {
	return "catalog"
}

// Start opens the entity store, migrates the schema and builds the services.
func (m *Module) Start(_ context.Context) error {
	if m.cacheMod == nil || m.publisher == nil {
		return fmt.Errorf("catalog module dependencies not wired")
	}

	db, err := gorm.Open(sqlite.Open(m.cfg.DBPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.AutoMigrate(&domain.Category{}, &domain.Product{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	c := m.cacheMod.GetCache()
	m.db = db
	m.categories = NewCategoryService(db, c, m.publisher)
	m.products = NewProductService(db, c)
	m.repo = domain.NewProductRepository(db)

	log.Println("[catalog] Module started")
	return nil
}

// Stop closes the underlying database connection.
func (m *Module) Stop(_ context.Context) error {
	if m.db != nil {
		if sqlDB, err := m.db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				log.Printf("[catalog] error closing database: %v", err)
			}
		}
	}
	log.Println("[catalog] Module stopped")
	return nil
}

// Health reports database reachability.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	if m.db == nil {
		return mono.HealthStatus{Healthy: false, Message: "database not initialized"}
	}
	sqlDB, err := m.db.DB()
	if err == nil {
		err = sqlDB.Ping()
	}
	if err != nil {
		return mono.HealthStatus{Healthy: false, Message: err.Error()}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{"database": m.cfg.DBPath},
	}
}

// DB exposes the shared database handle to modules that migrate their own
// tables on it.
func (m *Module) DB() *gorm.DB {
	return m.db
}

// CategoryService returns the category service.
func (m *Module) CategoryService() *CategoryService {
	return m.categories
}

// ProductService returns the product service.
func (m *Module) ProductService() *ProductService {
	return m.products
}

// ProductRepository exposes the store the cascade consumer writes through.
func (m *Module) ProductRepository() *domain.ProductRepository {
	return m.repo
}
