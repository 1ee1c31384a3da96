package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"elysium/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app. tplSvc and
// db are nil when the template registry is disabled; registry routes are
// only mounted when it is configured.
func RegisterRoutes(app *fiber.App, db *sql.DB, sheetSvc service.SheetService, tplSvc service.TemplateService) {
	app.Get("/", Root())

	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	app.Post("/sheets", GenerateSheet(sheetSvc))

	if tplSvc != nil {
		app.Post("/templates", UploadTemplate(tplSvc))
		app.Get("/templates", ListTemplates(tplSvc))
		app.Get("/templates/:id", GetTemplate(tplSvc))
		app.Delete("/templates/:id", DeleteTemplate(tplSvc))
		app.Get("/templates/:id/download", DownloadTemplate(tplSvc))
	}
}
