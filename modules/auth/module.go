// Package auth provides admin account registration and JWT-based
// authentication for the API surface.
package auth

import (
	"context"
	"fmt"
	"log"

	domain "github.com/example/catalog-admin/domain/user"
	"github.com/go-monolith/mono"
	"gorm.io/gorm"
)

// Config holds auth module configuration.
type Config struct {
	JWT JWTConfig
}

// DefaultConfig returns the default auth configuration.
func DefaultConfig() Config {
	return Config{JWT: DefaultJWTConfig()}
}

// DBProvider exposes the shared database handle the module migrates its
// users table on.
type DBProvider interface {
	DB() *gorm.DB
}

// Module provides authentication as a mono module.
type Module struct {
	cfg Config
	dbp DBProvider

	db      *gorm.DB
	service *AuthService
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new auth module.
func NewModule(cfg Config) *Module {
	return &Module{cfg: cfg}
}

// SetDB wires the database provider. Must be called before Start.
func (m *Module) SetDB(p DBProvider) { m.dbp = p }

// Name returns the module name.
func (m *Module) Name() string {
	return "auth"
}

// Start migrates the users table and builds the service.
func (m *Module) Start(_ context.Context) error {
	if m.dbp == nil {
		return fmt.Errorf("auth module dependencies not wired")
	}
	db := m.dbp.DB()
	if db == nil {
		return fmt.Errorf("auth module started before database was opened")
	}
	if err := db.AutoMigrate(&domain.User{}); err != nil {
		return fmt.Errorf("failed to migrate users table: %w", err)
	}

	m.db = db
	m.service = NewAuthService(NewUserRepository(db), NewPasswordHasher(), NewJWTManager(m.cfg.JWT))

	log.Println("[auth] Module started")
	return nil
}

// Stop is a no-op; the shared database is closed by its owning module.
func (m *Module) Stop(_ context.Context) error {
	log.Println("[auth] Module stopped")
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
	return mono.HealthStatus{Healthy: true, Message: "operational"}
}

// AuthService returns the authentication service.
func (m *Module) AuthService() *AuthService {
	return m.service
}
