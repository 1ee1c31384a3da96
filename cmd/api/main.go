package main

import (
	"context"
	"database/sql"
	"log"
	"strings"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"elysium/docs"
	"elysium/internal/config"
	"elysium/internal/database"
	"elysium/internal/database/migration"
	handlers "elysium/internal/http/handler"
	"elysium/internal/http/middleware"
	"elysium/internal/otel"
	"elysium/internal/repository/postgres"
	"elysium/internal/service"
	"elysium/internal/sheet"
	"elysium/internal/storage"
	"elysium/internal/template"
)

// @title Elysium Sheet API
// @version 1.0
// @BasePath /
func main() {
	ctx := context.Background()

	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	// Tracing is best-effort; a failed exporter degrades to no-op
	shutdownTracing, err := otel.Init(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer shutdownTracing(ctx)

	mapper := sheet.NewMapper(sheet.V20Schema())
	defaultTpl := template.NewLocal(cfg.TemplatePath)

	// The template registry is optional: without a database and object
	// store the service still fills the bundled sheet.
	var (
		db       *sql.DB
		objStore storage.Storage
		tplSvc   service.TemplateService
		sheetSvc service.SheetService
	)

	if cfg.RegistryEnabled() {
		db, err = database.NewPostgres(cfg.Database)
		if err != nil {
			log.Fatalf("failed to connect to database: %v", err)
		}
		defer db.Close()

		if err := migration.EnsureMigrated(ctx, db, cfg.Database.Host); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}

		objStore, err = storage.NewMinIO(cfg.MinIO)
		if err != nil {
			log.Fatalf("failed to initialize object storage: %v", err)
		}

		tplRepo := postgres.NewTemplatePostgres(db)
		tplSvc = service.NewTemplateService(objStore, tplRepo)
		sheetSvc = service.NewSheetService(mapper, defaultTpl, objStore, tplRepo)
	} else {
		sheetSvc = service.NewSheetService(mapper, defaultTpl, nil, nil)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	// Register global middleware
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger())
	app.Use(otelfiber.Middleware())

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	promMiddleware, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.Fatalf("failed to register metrics: %v", err)
	}
	app.Use(promMiddleware.Handler())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// Register HTTP routes with injected services
	handlers.RegisterRoutes(app, db, sheetSvc, tplSvc)

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
