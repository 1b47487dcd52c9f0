// Package app contains the application setup for the catalog service.
package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ramenworks/ramenratings/internal/config"
	"github.com/ramenworks/ramenratings/internal/images"
	"github.com/ramenworks/ramenratings/internal/service"
	"github.com/ramenworks/ramenratings/internal/store"
	"github.com/ramenworks/ramenratings/internal/transport/rest"
	"github.com/ramenworks/ramenratings/pkg/server"
)

type Dependencies struct {
	CatalogService service.CatalogService
	ImagesDir      string
	Logger         *slog.Logger
}

func SetupDependencies(cfg *config.Config, logger *slog.Logger) *Dependencies {
	imageStore := images.NewStore(cfg.Storage.ImagesDir)
	cService := service.NewService(store.NewJSONStore(cfg.Storage.File), imageStore)

	return &Dependencies{
		CatalogService: cService,
		ImagesDir:      imageStore.Dir(),
		Logger:         logger,
	}
}

// SetupHttpHandler initializes the HTTP routes for the catalog application.
// Used by handler tests to exercise the full middleware chain.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	wireRoutes(mux, deps)
	return mux
}

// wireRoutes sets up the HTTP routes for the catalog application.
func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	catalogHandler := rest.NewHandler(deps.CatalogService, deps.ImagesDir, deps.Logger)
	catalogHandler.RegisterRoutes(mux)
}

// SetupHttpServer creates and configures an HTTP server for the catalog application.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	mux := SetupHttpHandler(deps)

	httpCfg := server.HTTPConfig{
		Port:           cfg.HTTPServer.Port,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		ReadTimeout:    cfg.HTTPServer.Timeout.Read,
		WriteTimeout:   cfg.HTTPServer.Timeout.Write,
		IdleTimeout:    cfg.HTTPServer.Timeout.Idle,
		ReadHeader:     cfg.HTTPServer.Timeout.ReadHeader,
	}

	return server.NewHTTPServer(httpCfg, mux)
}
