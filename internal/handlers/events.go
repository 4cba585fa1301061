package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"storyline/internal/service"
)

// Subscriber upgrades a request to an event stream for one story.
type Subscriber interface {
	ServeWS(w http.ResponseWriter, r *http.Request, storyID string)
}

// EventsHandler serves GET /api/stories/{storyID}/events.
type EventsHandler struct {
	engine *service.Engine
	hub    Subscriber
}

// NewEventsHandler creates a new EventsHandler.
func NewEventsHandler(engine *service.Engine, hub Subscriber) *EventsHandler {
	return &EventsHandler{engine: engine, hub: hub}
}

// ServeHTTP opens the story, so unknown ids are rejected before the
// upgrade, and then hands the connection to the hub.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	storyID := chi.URLParam(r, "storyID")
	if _, err := h.engine.Workspace(ctx, storyID); err != nil {
		handleServiceError(w, ctx, err, "Failed to open story")
		return
	}
	h.hub.ServeWS(w, r, storyID)
}
