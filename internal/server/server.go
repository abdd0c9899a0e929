// Package server exposes the takeoff engine and the estimate store over HTTP.
package server

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/piwi3910/TakeoffPro/internal/config"
)

// NewApp builds the fiber application with every route registered.
func NewApp(cfg *config.Config, takeoff *TakeoffHandler, estimates *EstimateHandler) *fiber.App {
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		AppName:      "TakeoffPro",
	})

	// ============================================================
	// Global Middleware
	// ============================================================

	app.Use(recover.New())
	if !cfg.IsProduction() {
		app.Use(Logger())
	}

	// ============================================================
	// Health Check Routes
	// ============================================================

	app.Get("/health/live", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "alive"})
	})

	app.Get("/health/ready", func(c fiber.Ctx) error {
		if err := estimates.store.Ping(c.Context()); err != nil {
			return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable", "error": err.Error()})
		}
		return c.JSON(fiber.Map{"status": "ready"})
	})

	// ============================================================
	// Takeoff Routes
	// ============================================================

	app.Post("/measure", takeoff.Measure)
	app.Post("/quantity", takeoff.Quantity)
	app.Post("/aggregate", takeoff.Aggregate)
	app.Post("/match", takeoff.Match)
	app.Get("/catalog", takeoff.Catalog)
	app.Get("/scales", takeoff.Scales)

	// ============================================================
	// Estimate Routes
	// ============================================================

	app.Post("/estimates", estimates.Create)
	app.Get("/estimates", estimates.List)
	app.Get("/estimates/:id", estimates.Get)
	app.Get("/estimates/:id/pdf", estimates.PDF)
	app.Put("/estimates/:id/status", estimates.SetStatus)
	app.Post("/analyze", estimates.Analyze)

	return app
}
