package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"storyline/internal/contextutil"
	"storyline/internal/service"
	"storyline/internal/storage"
)

// StoryHandler serves the story workspace API. Every route below
// /api/stories/{storyID} resolves the workspace of that story first,
// loading it from storage on first use.
type StoryHandler struct {
	engine *service.Engine
	events http.Handler
}

// NewStoryHandler creates a new StoryHandler. events serves the websocket
// stream of a story and may be nil.
func NewStoryHandler(engine *service.Engine, events http.Handler) *StoryHandler {
	return &StoryHandler{engine: engine, events: events}
}

// CreateStoryRequest is the payload of POST /api/stories.
type CreateStoryRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Genre       string `json:"genre" validate:"max=100"`
	Description string `json:"description"`
}

// StorySummary is a story without its scenes.
type StorySummary struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Genre       string     `json:"genre"`
	Description string     `json:"description"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// StoryResponse is an open story together with its load warnings.
type StoryResponse struct {
	Story service.Snapshot `json:"story"`
	// Ids of blank scenes. They are kept but cannot be submitted.
	BlankScenes []string `json:"blank_scenes,omitempty"`
}

// SubmitResponse reports a successful submit.
type SubmitResponse struct {
	Submitted bool `json:"submitted"`
	Scenes    int  `json:"scenes"`
}

func summarize(rec *storage.StoryRecord) StorySummary {
	return StorySummary{
		ID:          rec.ID,
		Title:       rec.Title,
		Genre:       rec.Genre,
		Description: rec.Description,
		SubmittedAt: rec.SubmittedAt,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	}
}

// Routes registers the story API on r, which is mounted at /api/stories.
func (h *StoryHandler) Routes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)

	r.Route("/{storyID}", func(r chi.Router) {
		r.Get("/", h.Open)
		r.Delete("/", h.Close)
		r.Post("/reload", h.Reload)
		r.Post("/save", h.Save)
		r.Post("/submit", h.Submit)

		r.Put("/filter", h.SetFilter)
		r.Put("/page-size", h.SetPageSize)
		r.Get("/dangling", h.DanglingRefs)

		r.Route("/scenes", func(r chi.Router) {
			r.Get("/", h.ListScenes)
			r.Post("/", h.AddScene)
			r.Get("/visible", h.VisibleScenes)
			r.Get("/page", h.Page)
			r.Get("/related", h.RelatedScenes)
			r.Post("/reorder", h.Reorder)
			r.Post("/import", h.ImportOutline)
			r.Post("/paste", h.PasteScene)
			r.Get("/{sceneID}", h.GetScene)
			r.Patch("/{sceneID}", h.UpdateScene)
			r.Delete("/{sceneID}", h.RemoveScene)
			r.Put("/{sceneID}/order", h.SetOrder)
			r.Put("/{sceneID}/hidden", h.SetHidden)
			r.Post("/{sceneID}/media", h.AttachMedia)
			r.Post("/{sceneID}/copy", h.CopyScene)
		})

		r.Route("/characters", func(r chi.Router) {
			r.Get("/", h.ListCharacters)
			r.Post("/", h.AddCharacter)
			r.Post("/paste", h.PasteCharacter)
			r.Put("/{name}", h.UpdateCharacter)
			r.Delete("/{name}", h.RemoveCharacter)
			r.Post("/{name}/save", h.SaveCharacter)
			r.Post("/{name}/copy", h.CopyCharacter)
		})

		r.Get("/clipboard", h.Clipboard)

		r.Post("/viewport", h.Viewport)
		r.Post("/select/{sceneID}", h.Select)
		r.Post("/jump", h.Jump)
		r.Get("/active", h.Active)

		r.Get("/suggestion", h.Suggestion)
		r.Post("/suggestion/accept", h.AcceptSuggestion)
		r.Post("/suggestion/reject", h.RejectSuggestion)
		r.Post("/generate", h.Generate)

		if h.events != nil {
			r.Method(http.MethodGet, "/events", h.events)
		}
	})
}

// workspace resolves the story of the request. On failure the error has
// already been written.
func (h *StoryHandler) workspace(w http.ResponseWriter, r *http.Request) (*service.Workspace, bool) {
	ctx := r.Context()
	storyID := chi.URLParam(r, "storyID")
	ws, err := h.engine.Workspace(ctx, storyID)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to open story")
		return nil, false
	}
	return ws, true
}

// Create handles POST /api/stories.
func (h *StoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateStoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, ctx, err, "Invalid request body")
		return
	}

	rec, err := h.engine.CreateStory(ctx, req.Title, req.Genre, req.Description)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to create story")
		return
	}
	writeJSON(w, ctx, http.StatusCreated, summarize(rec))
}

// List handles GET /api/stories.
func (h *StoryHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stories, err := h.engine.ListStories(ctx)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to list stories")
		return
	}
	out := make([]StorySummary, 0, len(stories))
	for i := range stories {
		out = append(out, summarize(&stories[i]))
	}
	writeJSON(w, ctx, http.StatusOK, out)
}

// Open handles GET /api/stories/{storyID}.
func (h *StoryHandler) Open(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ws, blank, err := h.engine.Open(ctx, chi.URLParam(r, "storyID"))
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to open story")
		return
	}
	h.writeSnapshot(w, r, ws, blank)
}

// Reload handles POST /api/stories/{storyID}/reload. Unsaved edits are lost.
func (h *StoryHandler) Reload(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	blank, err := ws.Reload(r.Context())
	if err != nil {
		handleServiceError(w, r.Context(), err, "Failed to reload story")
		return
	}
	h.writeSnapshot(w, r, ws, blank)
}

// Save handles POST /api/stories/{storyID}/save.
func (h *StoryHandler) Save(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	if err := ws.Save(ctx); err != nil {
		handleServiceError(w, ctx, err, "Failed to save story")
		return
	}
	h.writeSnapshot(w, r, ws, ws.BlankScenes())
}

// Submit handles POST /api/stories/{storyID}/submit. With
// ?deleteEmpty=true blank scenes are removed instead of blocking.
func (h *StoryHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	deleteEmpty := false
	if v := r.URL.Query().Get("deleteEmpty"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			handleServiceError(w, ctx, &service.ValidationError{Field: "deleteEmpty", Message: "must be a boolean"}, "Invalid query")
			return
		}
		deleteEmpty = parsed
	}

	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	if err := ws.Submit(ctx, deleteEmpty); err != nil {
		handleServiceError(w, ctx, err, "Failed to submit story")
		return
	}
	scenes, err := ws.Scenes()
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to submit story")
		return
	}

	logger.InfoContext(ctx, "story submitted", "story_id", ws.ID(), "scenes", len(scenes))
	writeJSON(w, ctx, http.StatusOK, SubmitResponse{Submitted: true, Scenes: len(scenes)})
}

// Close handles DELETE /api/stories/{storyID}. It releases the in-memory
// workspace; the persisted story is kept.
func (h *StoryHandler) Close(w http.ResponseWriter, r *http.Request) {
	if !h.engine.Close(r.Context(), chi.URLParam(r, "storyID")) {
		writeError(w, r.Context(), http.StatusNotFound, ErrorResponse{Error: "story is not open"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *StoryHandler) writeSnapshot(w http.ResponseWriter, r *http.Request, ws *service.Workspace, blank []string) {
	ctx := r.Context()
	snap, err := ws.Snapshot()
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to read story")
		return
	}
	writeJSON(w, ctx, http.StatusOK, StoryResponse{Story: snap, BlankScenes: blank})
}
