package server

import (
	"net/http"

	"github.com/cloo-solutions/molpanel/internal/api"
	"github.com/cloo-solutions/molpanel/internal/api/handlers"
	"github.com/cloo-solutions/molpanel/internal/api/middleware"
	"github.com/cloo-solutions/molpanel/internal/logging"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type RouterConfig struct {
	PageHandler  *handlers.PageHandler
	PanelHandler *handlers.PanelHandler
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
	// EditorAssets is mounted at handlers.EditorAssetsPrefix when set.
	EditorAssets http.Handler
	Logger  logging.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 1024 * 1024

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog(logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	r.Get("/", cfg.PageHandler.Index)
	r.Handle("/static/*", handlers.StaticHandler())
	if cfg.EditorAssets != nil {
		r.Handle(handlers.EditorAssetsPrefix+"*", cfg.EditorAssets)
	}

	r.Route("/api/panels", func(r chi.Router) {
		r.Post("/", cfg.PanelHandler.Create)
		r.Get("/{id}", cfg.PanelHandler.Get)
		r.Delete("/{id}", cfg.PanelHandler.Close)
		r.Post("/{id}/ready", cfg.PanelHandler.Ready)
		r.Post("/{id}/editor-error", cfg.PanelHandler.EditorError)
		r.Post("/{id}/retrieve", cfg.PanelHandler.Retrieve)
		r.Post("/{id}/close", cfg.PanelHandler.Close)
		r.Get("/{id}/history", cfg.PanelHandler.History)
	})

	return r
}
