package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"storyline/internal/contextutil"
	"storyline/internal/timeline"
)

// ViewportRequest carries the rendered positions of the scene blocks.
type ViewportRequest struct {
	Blocks []timeline.BlockPosition `json:"blocks" validate:"dive"`
}

// JumpRequest pins the scene with the given 1-based number.
type JumpRequest struct {
	Position int `json:"position" validate:"min=1"`
}

// GenerateRequest asks for a whole new scene.
type GenerateRequest struct {
	Instruction string `json:"instruction" validate:"required,max=2000"`
}

// Viewport handles POST /viewport.
func (h *StoryHandler) Viewport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req ViewportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, ctx, err, "Invalid request body")
		return
	}

	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	active, err := ws.Scroll(req.Blocks)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to track viewport")
		return
	}
	writeJSON(w, ctx, http.StatusOK, active)
}

// Select handles POST /select/{sceneID}.
func (h *StoryHandler) Select(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	active, err := ws.Select(chi.URLParam(r, "sceneID"))
	if err != nil {
		handleServiceError(w, r.Context(), err, "Failed to select scene")
		return
	}
	writeJSON(w, r.Context(), http.StatusOK, active)
}

// Jump handles POST /jump.
func (h *StoryHandler) Jump(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req JumpRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, ctx, err, "Invalid request body")
		return
	}

	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	res, err := ws.Jump(req.Position)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to jump to scene")
		return
	}
	writeJSON(w, ctx, http.StatusOK, res)
}

// Active handles GET /active.
func (h *StoryHandler) Active(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	active, err := ws.Active()
	if err != nil {
		handleServiceError(w, r.Context(), err, "Failed to read active scene")
		return
	}
	writeJSON(w, r.Context(), http.StatusOK, active)
}

// Suggestion handles GET /suggestion. It is 404 while the active scene has
// no suggestion on offer.
func (h *StoryHandler) Suggestion(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	s, err := ws.Suggestion()
	if err != nil {
		handleServiceError(w, r.Context(), err, "Failed to read suggestion")
		return
	}
	writeJSON(w, r.Context(), http.StatusOK, s)
}

// AcceptSuggestion handles POST /suggestion/accept.
func (h *StoryHandler) AcceptSuggestion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	sc, err := ws.AcceptSuggestion(ctx)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to accept suggestion")
		return
	}
	writeJSON(w, ctx, http.StatusOK, sc)
}

// RejectSuggestion handles POST /suggestion/reject.
func (h *StoryHandler) RejectSuggestion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	if err := ws.RejectSuggestion(ctx); err != nil {
		handleServiceError(w, ctx, err, "Failed to reject suggestion")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Generate handles POST /generate.
func (h *StoryHandler) Generate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req GenerateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, ctx, err, "Invalid request body")
		return
	}

	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	sc, err := ws.GenerateScene(ctx, req.Instruction)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to generate scene")
		return
	}
	logger.InfoContext(ctx, "scene generated", "story_id", ws.ID(), "scene_id", sc.ID)
	writeJSON(w, ctx, http.StatusCreated, sc)
}
