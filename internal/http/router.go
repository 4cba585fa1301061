package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"storyline/internal/handlers"
	"storyline/internal/service"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Engine  *service.Engine
	Health  http.Handler
	Events  handlers.Subscriber
	Metrics http.Handler
}

// NewRouter creates a new HTTP router with the provided dependencies.
// Health, Events and Metrics are optional.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(CORS)

	var events http.Handler
	if deps.Events != nil {
		events = handlers.NewEventsHandler(deps.Engine, deps.Events)
	}
	stories := handlers.NewStoryHandler(deps.Engine, events)

	r.Route("/api", func(r chi.Router) {
		if deps.Health != nil {
			r.Method(http.MethodGet, "/health", deps.Health)
		}
		r.Route("/stories", stories.Routes)
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	return r
}
