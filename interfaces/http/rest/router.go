package rest

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"eventpipe/application/lookup"
	"eventpipe/interfaces/http/rest/handlers"
	"eventpipe/interfaces/http/rest/middleware"
)

// Router creates and configures the HTTP router
type Router struct {
	lookup     *lookup.Service
	logger     *zap.Logger
	enableCORS bool
}

// NewRouter creates a new router instance
func NewRouter(lookup *lookup.Service, logger *zap.Logger, enableCORS bool) *Router {
	return &Router{
		lookup:     lookup,
		logger:     logger,
		enableCORS: enableCORS,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() *chi.Mux {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	if rt.enableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-Amz-Date", "X-Api-Key", "X-Amz-Security-Token"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}

	// Health checks
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	// API v1 routes
	router.Route("/api/v1", func(r chi.Router) {
		eventHandler := handlers.NewEventHandler(rt.lookup, rt.logger)
		r.Get("/events/{eventID}", eventHandler.GetEvent)
		r.Get("/cache", eventHandler.GetKey)

		searchHandler := handlers.NewSearchHandler(rt.lookup, rt.logger)
		r.Get("/search", searchHandler.Search)
	})

	return router
}

// healthCheck probes the cache and the document store
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	status := rt.lookup.Health(req.Context())

	code := http.StatusOK
	if status.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(status)
}

// readinessCheck reports process liveness without probing dependencies
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
