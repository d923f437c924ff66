// Package api exposes the HTTP surface of the catalog backend.
package api

import (
	"context"
	"fmt"
	"log"

	"github.com/example/catalog-admin/modules/auth"
	"github.com/example/catalog-admin/modules/cache"
	"github.com/example/catalog-admin/modules/catalog"
	"github.com/example/catalog-admin/modules/events"
	"github.com/go-monolith/mono"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// Config holds HTTP server configuration.
type Config struct {
	Addr string
}

// DefaultConfig returns the default API configuration.
func DefaultConfig() Config {
	return Config{Addr: ":3000"}
}

// AuthProvider exposes the authentication service.
type AuthProvider interface {
	AuthService() *auth.AuthService
}

// CatalogProvider exposes the catalog services.
type CatalogProvider interface {
	CategoryService() *catalog.CategoryService
	ProductService() *catalog.ProductService
}

// CacheProvider exposes the shared cache.
type CacheProvider interface {
	GetCache() *cache.Cache
}

// EventsProvider exposes the event pipeline counters.
type EventsProvider interface {
	Stats() events.PipelineStats
}

// Handlers contains HTTP handlers for the API.
type Handlers struct {
	auth    AuthProvider
	catalog CatalogProvider
	cache   CacheProvider
	events  EventsProvider
}

// Module is the HTTP API module.
type Module struct {
	cfg      Config
	handlers Handlers
	app      *fiber.App
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new API module.
func NewModule(cfg Config) *Module {
	return &Module{cfg: cfg}
}

// SetAuth wires the auth module. Must be called before Start.
func (m *Module) SetAuth(p AuthProvider) { m.handlers.auth = p }

// SetCatalog wires the catalog module. Must be called before Start.
func (m *Module) SetCatalog(p CatalogProvider) { m.handlers.catalog = p }

// SetCache wires the cache module. Must be called before Start.
func (m *Module) SetCache(p CacheProvider) { m.handlers.cache = p }

// SetEvents wires the events module. Must be called before Start.
func (m *Module) SetEvents(p EventsProvider) { m.handlers.events = p }

// Name returns the module name.
func (m *Module) Name() string {
	return "api"
}

// Start initializes the Fiber HTTP server.
func (m *Module) Start(_ context.Context) error {
	if m.handlers.auth == nil || m.handlers.catalog == nil || m.handlers.cache == nil || m.handlers.events == nil {
		return fmt.Errorf("api module dependencies not wired")
	}

	m.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler,
	})

	m.app.Use(recover.New())
	m.app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	m.app.Use(cors.New())

	m.setupRoutes()

	go func() {
		if err := m.app.Listen(m.cfg.Addr); err != nil {
			log.Printf("[api] HTTP server error: %v", err)
		}
	}()

	log.Printf("[api] HTTP server started on %s", m.cfg.Addr)
	return nil
}

// Stop shuts down the Fiber HTTP server.
func (m *Module) Stop(_ context.Context) error {
	if m.app == nil {
		return nil
	}
	log.Println("[api] Shutting down HTTP server...")
	return m.app.Shutdown()
}

// Health returns the health status of the module.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: map[string]any{
			"addr": m.cfg.Addr,
		},
	}
}

// setupRoutes configures all API routes.
func (m *Module) setupRoutes() {
	h := &m.handlers

	m.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"module": "api",
		})
	})

	v1 := m.app.Group("/api/v1")

	authRoutes := v1.Group("/auth")
	authRoutes.Post("/register", h.Register)
	authRoutes.Post("/login", h.Login)
	authRoutes.Post("/refresh", h.Refresh)

	protected := v1.Group("")
	protected.Use(AuthMiddleware(m.handlers.auth))

	protected.Post("/categories", h.CreateCategory)
	protected.Get("/categories", h.ListCategories)
	protected.Get("/categories/:id", h.GetCategory)
	protected.Put("/categories/:id", h.UpdateCategory)
	protected.Delete("/categories/:id", h.DeleteCategory)

	protected.Post("/products", h.CreateProduct)
	protected.Get("/products", h.ListProducts)
	protected.Get("/products/export", h.ExportProducts)
	protected.Get("/products/:id", h.GetProduct)
	protected.Put("/products/:id", h.UpdateProduct)
	protected.Delete("/products/:id", h.DeleteProduct)

	protected.Get("/cache/stats", h.CacheStats)
	protected.Post("/cache/stats/reset", h.ResetCacheStats)
	protected.Get("/events/stats", h.EventStats)
}

// customErrorHandler handles Fiber errors.
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(ErrorResponse{
		Error:   "server_error",
		Message: message,
	})
}
