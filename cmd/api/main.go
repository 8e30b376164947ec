package main

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"papertrail/internal/auth"
	"papertrail/internal/config"
	"papertrail/internal/database"
	"papertrail/internal/database/migration"
	handlers "papertrail/internal/http/handler"
	"papertrail/internal/http/middleware"
	internalotel "papertrail/internal/otel"
	"papertrail/internal/repository"
	"papertrail/internal/repository/memory"
	"papertrail/internal/repository/postgres"
	"papertrail/internal/service"
	"papertrail/internal/storage"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	loc := time.Local

	shutdownTracing, err := internalotel.Init(context.Background(), loc)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer shutdownTracing(context.Background())

	// An empty DB_HOST runs the API on in-memory repositories; anything else
	// connects to Postgres and applies migrations on startup.
	var (
		db        *sql.DB
		userRepo  repository.UserRepository
		docRepo   repository.DocumentRepository
		permRepo  repository.PermissionRepository
		auditRepo repository.AuditLogRepository
	)
	if cfg.Database.Host == "" {
		userRepo = memory.NewUserMemory()
		docRepo = memory.NewDocumentMemory()
		permRepo = memory.NewPermissionMemory()
		auditRepo = memory.NewAuditLogMemory()
	} else {
		db, err = database.NewPostgres(cfg.Database)
		if err != nil {
			log.Fatalf("failed to connect to database: %v", err)
		}
		defer db.Close()

		if err := migration.EnsureMigrated(context.Background(), db, loc, cfg.Database.Host); err != nil {
			log.Fatalf("failed to migrate database: %v", err)
		}

		userRepo = postgres.NewUserPostgres(db)
		docRepo = postgres.NewDocumentPostgres(db)
		permRepo = postgres.NewPermissionPostgres(db)
		auditRepo = postgres.NewAuditLogPostgres(db)
	}

	var objStore storage.Storage
	switch cfg.Storage {
	case "minio":
		objStore, err = storage.NewMinIO(cfg.MinIO)
	default:
		objStore, err = storage.NewLocal(cfg.Upload.LocalDir)
	}
	if err != nil {
		log.Fatalf("failed to initialize storage: %v", err)
	}

	authSvc := service.NewAuthService(
		userRepo,
		auth.NewPasswordHasher(cfg.Auth.BcryptCost),
		auth.NewTokenManager([]byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL),
	)
	docSvc := service.NewDocumentService(objStore, docRepo, permRepo, auditRepo, cfg.Upload, cfg.Sharing)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    int(cfg.Upload.MaxBytes) + 1024*1024,
	})

	promMW, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatalf("failed to register metrics: %v", err)
	}

	// Register global middleware
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger())
	app.Use(otelfiber.Middleware())
	app.Use(promMW.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	handlers.RegisterRoutes(app, db, cfg.Version, authSvc, docSvc)

	addr := ":" + cfg.Port
	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
