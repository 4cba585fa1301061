package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"storyline/internal/timeline"
)

// CharacterRequest is the payload for creating or replacing a character.
type CharacterRequest struct {
	Name        string   `json:"name" validate:"required,max=100"`
	Role        string   `json:"role" validate:"max=100"`
	Description string   `json:"description"`
	ActorName   string   `json:"actor_name" validate:"max=100"`
	Popularity  int      `json:"popularity" validate:"min=0,max=10"`
	ImageRefs   []string `json:"image_refs" validate:"dive,required"`
}

func (req CharacterRequest) character() timeline.Character {
	return timeline.Character{
		Name:        req.Name,
		Role:        req.Role,
		Description: req.Description,
		ActorName:   req.ActorName,
		Popularity:  req.Popularity,
		ImageRefs:   req.ImageRefs,
	}
}

// CharactersResponse wraps the character registry.
type CharactersResponse struct {
	Characters []timeline.Character `json:"characters"`
}

// ListCharacters handles GET /characters.
func (h *StoryHandler) ListCharacters(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	chars, err := ws.Characters()
	if err != nil {
		handleServiceError(w, r.Context(), err, "Failed to list characters")
		return
	}
	if chars == nil {
		chars = []timeline.Character{}
	}
	writeJSON(w, r.Context(), http.StatusOK, CharactersResponse{Characters: chars})
}

// AddCharacter handles POST /characters.
func (h *StoryHandler) AddCharacter(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req CharacterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, ctx, err, "Invalid request body")
		return
	}

	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	added, err := ws.AddCharacter(req.character())
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to add character")
		return
	}
	writeJSON(w, ctx, http.StatusCreated, added)
}

// UpdateCharacter handles PUT /characters/{name}. A changed name is
// rewritten into every scene that referenced the old one.
func (h *StoryHandler) UpdateCharacter(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req CharacterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, ctx, err, "Invalid request body")
		return
	}

	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	res, err := ws.UpdateCharacter(chi.URLParam(r, "name"), req.character())
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to update character")
		return
	}
	writeJSON(w, ctx, http.StatusOK, res)
}

// RemoveCharacter handles DELETE /characters/{name}.
func (h *StoryHandler) RemoveCharacter(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	if _, err := ws.RemoveCharacter(ctx, chi.URLParam(r, "name")); err != nil {
		handleServiceError(w, ctx, err, "Failed to remove character")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SaveCharacter handles POST /characters/{name}/save.
func (h *StoryHandler) SaveCharacter(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	saved, err := ws.SaveCharacter(ctx, chi.URLParam(r, "name"))
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to save character")
		return
	}
	writeJSON(w, ctx, http.StatusOK, saved)
}

// CopyCharacter handles POST /characters/{name}/copy.
func (h *StoryHandler) CopyCharacter(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	if err := ws.CopyCharacter(chi.URLParam(r, "name")); err != nil {
		handleServiceError(w, r.Context(), err, "Failed to copy character")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PasteCharacter handles POST /characters/paste.
func (h *StoryHandler) PasteCharacter(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	c, err := ws.PasteCharacter()
	if err != nil {
		handleServiceError(w, r.Context(), err, "Failed to paste character")
		return
	}
	writeJSON(w, r.Context(), http.StatusCreated, c)
}

// CopyScene handles POST /scenes/{sceneID}/copy.
func (h *StoryHandler) CopyScene(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	if err := ws.CopyScene(chi.URLParam(r, "sceneID")); err != nil {
		handleServiceError(w, r.Context(), err, "Failed to copy scene")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Clipboard handles GET /clipboard.
func (h *StoryHandler) Clipboard(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	state, err := ws.Clipboard()
	if err != nil {
		handleServiceError(w, r.Context(), err, "Failed to read clipboard")
		return
	}
	writeJSON(w, r.Context(), http.StatusOK, state)
}

// PasteScene handles POST /scenes/paste.
func (h *StoryHandler) PasteScene(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	sc, err := ws.PasteScene()
	if err != nil {
		handleServiceError(w, r.Context(), err, "Failed to paste scene")
		return
	}
	writeJSON(w, r.Context(), http.StatusCreated, sc)
}
