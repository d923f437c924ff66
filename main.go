package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/example/catalog-admin/modules/api"
	"github.com/example/catalog-admin/modules/auth"
	"github.com/example/catalog-admin/modules/cache"
	"github.com/example/catalog-admin/modules/catalog"
	"github.com/example/catalog-admin/modules/events"
	"github.com/example/catalog-admin/modules/notify"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
)

const shutdownTimeout = 30 * time.Second

func main() {
	log.Println("=== Catalog Administration Backend ===")

	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	cacheCfg := cache.DefaultConfig()
	cacheCfg.RedisAddr = getEnv("REDIS_ADDR", cacheCfg.RedisAddr)
	cacheCfg.TTL = getEnvDuration("CACHE_TTL", cacheCfg.TTL)
	cacheModule := cache.NewModule(cacheCfg)

	notifyCfg := notify.DefaultConfig()
	notifyCfg.SMTPAddr = getEnv("SMTP_ADDR", notifyCfg.SMTPAddr)
	notifyCfg.From = getEnv("SMTP_FROM", notifyCfg.From)
	notifyCfg.To = getEnv("SMTP_TO", notifyCfg.To)
	notifyModule := notify.NewModule(notifyCfg)

	catalogCfg := catalog.DefaultConfig()
	catalogCfg.DBPath = getEnv("DB_PATH", catalogCfg.DBPath)
	catalogModule := catalog.NewModule(catalogCfg)

	eventsCfg := events.DefaultConfig()
	eventsCfg.Mode = getEnv("EVENTS_MODE", eventsCfg.Mode)
	eventsCfg.NATS.URL = getEnv("NATS_URL", eventsCfg.NATS.URL)
	eventsCfg.Shards = getEnvInt("EVENTS_SHARDS", eventsCfg.Shards)
	eventsModule := events.NewModule(eventsCfg)

	authCfg := auth.DefaultConfig()
	authCfg.JWT.SecretKey = getEnv("JWT_SECRET", authCfg.JWT.SecretKey)
	authModule := auth.NewModule(authCfg)

	apiCfg := api.DefaultConfig()
	apiCfg.Addr = getEnv("HTTP_ADDR", apiCfg.Addr)
	apiModule := api.NewModule(apiCfg)

	// Wire cross-module dependencies before any module starts.
	catalogModule.SetCache(cacheModule)
	catalogModule.SetEvents(eventsModule)
	eventsModule.SetCatalog(catalogModule)
	eventsModule.SetCache(cacheModule)
	eventsModule.SetNotify(notifyModule)
	authModule.SetDB(catalogModule)
	apiModule.SetAuth(authModule)
	apiModule.SetCatalog(catalogModule)
	apiModule.SetCache(cacheModule)
	apiModule.SetEvents(eventsModule)

	// Start order: providers before consumers.
	app.Register(cacheModule)
	app.Register(notifyModule)
	app.Register(catalogModule)
	app.Register(eventsModule)
	app.Register(authModule)
	app.Register(apiModule)

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo() {
	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Println("REST API Endpoints (http://localhost:3000):")
	log.Println("")
	log.Println("  Public Endpoints:")
	log.Println("  POST   /api/v1/auth/register        - Register an admin account")
	log.Println("  POST   /api/v1/auth/login           - Login and get tokens")
	log.Println("  POST   /api/v1/auth/refresh         - Refresh access token")
	log.Println("  GET    /health                      - Health check")
	log.Println("")
	log.Println("  Protected Endpoints (require Bearer token):")
	log.Println("  POST   /api/v1/categories           - Create category")
	log.Println("  GET    /api/v1/categories           - Search categories")
	log.Println("  GET    /api/v1/categories/:id       - Get category")
	log.Println("  PUT    /api/v1/categories/:id       - Update category")
	log.Println("  DELETE /api/v1/categories/:id       - Delete category")
	log.Println("  POST   /api/v1/products             - Create product")
	log.Println("  GET    /api/v1/products             - Search products")
	log.Println("  GET    /api/v1/products/export      - Export products as CSV")
	log.Println("  GET    /api/v1/products/:id         - Get product")
	log.Println("  PUT    /api/v1/products/:id         - Update product")
	log.Println("  DELETE /api/v1/products/:id         - Delete product")
	log.Println("  GET    /api/v1/cache/stats          - Cache counters")
	log.Println("  POST   /api/v1/cache/stats/reset    - Reset cache counters")
	log.Println("  GET    /api/v1/events/stats         - Event pipeline counters")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}

// getEnv returns the environment variable value or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable as an int or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// getEnvDuration returns the environment variable as a duration or a default.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
