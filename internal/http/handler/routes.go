package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"papertrail/internal/http/middleware"
	"papertrail/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app. Handlers stay
// thin; business rules live in the services.
func RegisterRoutes(app *fiber.App, db *sql.DB, version string, authSvc service.AuthService, docSvc service.DocumentService) {
	// Serve OpenAPI spec and Swagger UI
	app.Get("/openapi.yaml", func(c *fiber.Ctx) error {
		c.Type("yaml")
		return c.SendFile("openapi.yaml")
	})
	app.Get("/docs", func(c *fiber.Ctx) error {
		html := `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({
      url: '/openapi.yaml',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
      layout: 'BaseLayout'
    });
  </script>
</body>
</html>`
		return c.Type("html").SendString(html)
	})

	app.Get("/healthz", LivenessProbe())

	api := app.Group("/api")
	api.Get("/health", HealthCheck(db, version))

	authGroup := api.Group("/auth")
	authGroup.Post("/register", Register(authSvc))
	authGroup.Post("/login", Login(authSvc))

	docs := api.Group("/documents", middleware.BearerAuth(authSvc))
	docs.Post("/upload", UploadDocument(docSvc))
	docs.Get("/", ListDocuments(docSvc))
	docs.Post("/:id/share", ShareDocument(docSvc))
	docs.Delete("/:id/share/:permissionId", RevokeShare(docSvc))
	docs.Get("/:id/audit", AuditTrail(docSvc))
	docs.Get("/:id/download", DownloadDocument(docSvc))

	// Fallback for unmatched routes
	app.Use(func(c *fiber.Ctx) error {
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "Endpoint not found")
	})
}
