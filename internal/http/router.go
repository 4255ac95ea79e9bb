package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"docqa/internal/handlers"
	"docqa/internal/rag"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Engine rag.Engine
	// Ingester enables POST /api/v1/index when set.
	Ingester     handlers.Ingester
	HealthChecks []handlers.Check
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(CORS)
	r.Use(CallerContext)

	askHandler := handlers.NewAskHandler(deps.Engine)
	sessionHandler := handlers.NewSessionHandler(deps.Engine)
	healthHandler := handlers.NewHealthHandler(deps.HealthChecks...)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/health", healthHandler)

		r.Route("/v1", func(r chi.Router) {
			r.Method(http.MethodPost, "/ask", askHandler)
			r.Get("/sessions/{id}", sessionHandler.Get)
			r.Delete("/sessions/{id}", sessionHandler.Delete)
			if deps.Ingester != nil {
				r.Method(http.MethodPost, "/index", handlers.NewIndexHandler(deps.Ingester))
			}
		})
	})

	return r
}
