// takeoffd serves the takeoff engine and the estimate store over HTTP.
//
// Build:
//   go build -o takeoffd ./cmd/takeoffd
//
// Configuration is read from the environment (PORT, ENV, READ_TIMEOUT,
// WRITE_TIMEOUT, TAKEOFF_DB_PATH, ANALYZER_URL, ANALYZER_TIMEOUT, CATALOG_PATH).

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/piwi3910/TakeoffPro/internal/aimerge"
	"github.com/piwi3910/TakeoffPro/internal/catalog"
	"github.com/piwi3910/TakeoffPro/internal/config"
	"github.com/piwi3910/TakeoffPro/internal/engine"
	"github.com/piwi3910/TakeoffPro/internal/model"
	"github.com/piwi3910/TakeoffPro/internal/project"
	"github.com/piwi3910/TakeoffPro/internal/server"
	"github.com/piwi3910/TakeoffPro/internal/store"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("takeoffd %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		}
	}

	cfg := config.Load()

	repo, err := store.Open(context.Background(), cfg.DBPath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer repo.Close()

	cat := model.DefaultCatalog()
	if cfg.CatalogPath != "" {
		loaded, warnings, err := project.OpenCatalog(cfg.CatalogPath)
		if err != nil {
			log.Fatalf("load catalog %s: %v", cfg.CatalogPath, err)
		}
		for _, w := range warnings {
			log.Printf("[CATALOG] %s", w)
		}
		cat = loaded
	}
	matcher := catalog.NewMatcher(cat)
	log.Printf("[CATALOG] %d items in %d categories", len(cat.All()), len(cat.Categories()))

	var analyzer aimerge.Analyzer
	if cfg.AnalyzerURL != "" {
		analyzer = aimerge.NewHTTPAnalyzer(cfg.AnalyzerURL, cfg.AnalyzerTimeoutDuration())
	} else {
		log.Printf("[AI] ANALYZER_URL not set, /analyze is disabled")
	}

	appCfg, err := project.LoadAppConfig(project.DefaultConfigPath())
	if err != nil {
		log.Printf("[CONFIG] using defaults: %v", err)
	}

	app := server.NewApp(cfg,
		server.NewTakeoffHandler(matcher, engine.ResolverFromConfig(appCfg)),
		server.NewEstimateHandler(repo, matcher, analyzer),
	)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Printf("Shutting down")
		if err := app.Shutdown(); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("Starting TakeoffPro service on %s (env: %s)", addr, cfg.Environment)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
