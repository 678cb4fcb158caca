package docstore

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"docedit/internal/domain"
)

// Options configures NewApp.
type Options struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// Quiet drops the request logger (tests).
	Quiet bool
}

// NewApp builds the Document Store HTTP service on store.
func NewApp(store domain.DocumentStore, opts Options) *fiber.App {
	app := fiber.New(fiber.Config{
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		AppName:      "Document Store",
	})

	// ============================================================
	// Global Middleware
	// ============================================================

	app.Use(recover.New())
	if !opts.Quiet {
		app.Use(Logger())
	}

	// ============================================================
	// Health Check Routes
	// ============================================================

	app.Get("/health/live", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "alive"})
	})

	app.Get("/health/ready", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ready"})
	})

	// ============================================================
	// Document Routes
	// ============================================================

	h := NewHandler(store)
	api := app.Group("/api/documents", RequireBearer())
	api.Post("/", h.Create)
	api.Put("/:id", h.Update)
	api.Get("/:id", h.Get)

	return app
}

// Logger returns the request logging middleware.
func Logger() fiber.Handler {
	return logger.New(logger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path} | Content-Type: ${reqHeader:Content-Type}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	})
}
