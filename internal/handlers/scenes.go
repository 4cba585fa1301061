package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"storyline/internal/contextutil"
	"storyline/internal/indexer"
	"storyline/internal/media"
	"storyline/internal/service"
	"storyline/internal/timeline"
)

const (
	maxOutlineBytes = 4 << 20
	maxUploadBytes  = 64 << 20
)

// SceneRequest is the payload of POST /scenes.
type SceneRequest struct {
	Title       string          `json:"title" validate:"max=200"`
	Description string          `json:"description"`
	Characters  []string        `json:"characters" validate:"dive,required"`
	Media       *timeline.Media `json:"media"`
	Hidden      bool            `json:"hidden"`
}

// ScenePatchRequest is the payload of PATCH /scenes/{sceneID}. Absent
// fields are left unchanged.
type ScenePatchRequest struct {
	Title       *string         `json:"title" validate:"omitempty,max=200"`
	Description *string         `json:"description"`
	Characters  *[]string       `json:"characters" validate:"omitempty,dive,required"`
	Media       *timeline.Media `json:"media"`
	Hidden      *bool           `json:"hidden"`
}

// ReorderRequest moves the scene at Source to Target (0-based indexes).
type ReorderRequest struct {
	Source *int `json:"source" validate:"required,min=0"`
	Target *int `json:"target" validate:"required,min=0"`
}

// OrderRequest sets the 1-based scene number of a scene.
type OrderRequest struct {
	Position int `json:"position" validate:"min=1"`
}

// HiddenRequest sets the hidden flag of a scene.
type HiddenRequest struct {
	Hidden *bool `json:"hidden" validate:"required"`
}

// FilterRequest replaces the filter of a view.
type FilterRequest struct {
	View       string `json:"view" validate:"omitempty,oneof=overview detail"`
	Query      string `json:"query" validate:"max=200"`
	Visibility string `json:"visibility" validate:"omitempty,oneof=all visible hidden"`
}

// PageSizeRequest changes the page size of a view.
type PageSizeRequest struct {
	View     string `json:"view" validate:"omitempty,oneof=overview detail"`
	PageSize int    `json:"page_size" validate:"min=1,max=100"`
}

// ScenesResponse wraps an ordered scene list.
type ScenesResponse struct {
	Scenes []timeline.Scene `json:"scenes"`
}

// RelatedResponse lists the scenes most similar to a query.
type RelatedResponse struct {
	Matches []indexer.Match `json:"matches"`
}

// ListScenes handles GET /scenes. Hidden scenes are included.
func (h *StoryHandler) ListScenes(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	scenes, err := ws.Scenes()
	h.writeScenes(w, r, scenes, err)
}

// VisibleScenes handles GET /scenes/visible.
func (h *StoryHandler) VisibleScenes(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	scenes, err := ws.VisibleScenes()
	h.writeScenes(w, r, scenes, err)
}

// Page handles GET /scenes/page?view=overview|detail&page=N. Without page
// the view stays on its current page.
func (h *StoryHandler) Page(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	view, err := service.ParseViewName(r.URL.Query().Get("view"))
	if err != nil {
		handleServiceError(w, ctx, err, "Invalid view")
		return
	}
	pageIndex := service.CurrentPage
	if v := r.URL.Query().Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			handleServiceError(w, ctx, &service.ValidationError{Field: "page", Message: "must be a non-negative integer"}, "Invalid page")
			return
		}
		pageIndex = n
	}

	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	page, err := ws.Page(view, pageIndex)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to render page")
		return
	}
	writeJSON(w, ctx, http.StatusOK, page)
}

// SetFilter handles PUT /filter.
func (h *StoryHandler) SetFilter(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req FilterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, ctx, err, "Invalid request body")
		return
	}
	view, _ := service.ParseViewName(req.View)
	visibility := timeline.Visibility(req.Visibility)
	if visibility == "" {
		visibility = timeline.VisibilityAll
	}

	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	if err := ws.SetFilter(view, timeline.Filter{Query: req.Query, Visibility: visibility}); err != nil {
		handleServiceError(w, ctx, err, "Failed to set filter")
		return
	}
	h.writePage(w, r, ws, view)
}

// SetPageSize handles PUT /page-size.
func (h *StoryHandler) SetPageSize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req PageSizeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, ctx, err, "Invalid request body")
		return
	}
	view, _ := service.ParseViewName(req.View)

	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	if err := ws.SetPageSize(view, req.PageSize); err != nil {
		handleServiceError(w, ctx, err, "Failed to set page size")
		return
	}
	h.writePage(w, r, ws, view)
}

// AddScene handles POST /scenes.
func (h *StoryHandler) AddScene(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req SceneRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, ctx, err, "Invalid request body")
		return
	}

	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	sc := timeline.Scene{
		Title:         req.Title,
		Description:   req.Description,
		CharacterRefs: req.Characters,
		Hidden:        req.Hidden,
	}
	if req.Media != nil {
		sc.Media = *req.Media
	}
	added, err := ws.AddScene(sc)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to add scene")
		return
	}
	writeJSON(w, ctx, http.StatusCreated, added)
}

// GetScene handles GET /scenes/{sceneID}.
func (h *StoryHandler) GetScene(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	sc, err := ws.Scene(chi.URLParam(r, "sceneID"))
	if err != nil {
		handleServiceError(w, r.Context(), err, "Failed to get scene")
		return
	}
	writeJSON(w, r.Context(), http.StatusOK, sc)
}

// UpdateScene handles PATCH /scenes/{sceneID}.
func (h *StoryHandler) UpdateScene(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req ScenePatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, ctx, err, "Invalid request body")
		return
	}

	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	updated, err := ws.UpdateScene(chi.URLParam(r, "sceneID"), timeline.ScenePatch{
		Title:         req.Title,
		Description:   req.Description,
		CharacterRefs: req.Characters,
		Media:         req.Media,
		Hidden:        req.Hidden,
	})
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to update scene")
		return
	}
	writeJSON(w, ctx, http.StatusOK, updated)
}

// RemoveScene handles DELETE /scenes/{sceneID}.
func (h *StoryHandler) RemoveScene(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	if _, err := ws.RemoveScene(chi.URLParam(r, "sceneID")); err != nil {
		handleServiceError(w, r.Context(), err, "Failed to remove scene")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Reorder handles POST /scenes/reorder.
func (h *StoryHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req ReorderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, ctx, err, "Invalid request body")
		return
	}

	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	scenes, err := ws.Reorder(*req.Source, *req.Target)
	h.writeScenes(w, r, scenes, err)
}

// SetOrder handles PUT /scenes/{sceneID}/order.
func (h *StoryHandler) SetOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req OrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, ctx, err, "Invalid request body")
		return
	}

	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	scenes, err := ws.SetOrderNumber(chi.URLParam(r, "sceneID"), req.Position)
	h.writeScenes(w, r, scenes, err)
}

// SetHidden handles PUT /scenes/{sceneID}/hidden.
func (h *StoryHandler) SetHidden(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req HiddenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, ctx, err, "Invalid request body")
		return
	}

	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	sc, err := ws.SetHidden(chi.URLParam(r, "sceneID"), *req.Hidden)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to update scene")
		return
	}
	writeJSON(w, ctx, http.StatusOK, sc)
}

// ImportOutline handles POST /scenes/import. The body is a Markdown
// outline; ?filename= names it in logs.
func (h *StoryHandler) ImportOutline(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	content, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxOutlineBytes))
	if err != nil {
		handleServiceError(w, ctx, &service.ValidationError{Field: "content", Message: "outline too large or unreadable"}, "Invalid request body")
		return
	}
	filename := r.URL.Query().Get("filename")
	if filename == "" {
		filename = "outline.md"
	}

	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	added, err := ws.ImportOutline(content, filename)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to import outline")
		return
	}
	writeJSON(w, ctx, http.StatusCreated, ScenesResponse{Scenes: added})
}

// RelatedScenes handles GET /scenes/related?q=&k=. Without q the active
// scene is the query.
func (h *StoryHandler) RelatedScenes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	k := 0
	if v := r.URL.Query().Get("k"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 50 {
			handleServiceError(w, ctx, &service.ValidationError{Field: "k", Message: "must be between 1 and 50"}, "Invalid query")
			return
		}
		k = n
	}

	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	matches, err := ws.RelatedScenes(ctx, r.URL.Query().Get("q"), k)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to search related scenes")
		return
	}
	if matches == nil {
		matches = []indexer.Match{}
	}
	writeJSON(w, ctx, http.StatusOK, RelatedResponse{Matches: matches})
}

// AttachMedia handles POST /scenes/{sceneID}/media, a multipart form with
// a "kind" field and a "file" part.
func (h *StoryHandler) AttachMedia(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	mr, err := r.MultipartReader()
	if err != nil {
		handleServiceError(w, ctx, &service.ValidationError{Field: "body", Message: "expected multipart/form-data"}, "Invalid request body")
		return
	}

	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}

	var kind media.Kind
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			handleServiceError(w, ctx, &service.ValidationError{Field: "body", Message: "malformed multipart body"}, "Invalid request body")
			return
		}
		switch part.FormName() {
		case "kind":
			raw, _ := io.ReadAll(io.LimitReader(part, 32))
			kind, err = media.ParseKind(string(raw))
			if err != nil {
				handleServiceError(w, ctx, err, "Invalid media kind")
				return
			}
		case "file":
			if kind == "" {
				handleServiceError(w, ctx, &service.ValidationError{Field: "kind", Message: "must precede the file part"}, "Invalid request body")
				return
			}
			sc, err := ws.AttachMedia(ctx, chi.URLParam(r, "sceneID"), kind, part.FileName(), part)
			if err != nil {
				handleServiceError(w, ctx, err, "Failed to attach media")
				return
			}
			logger.InfoContext(ctx, "media uploaded", "scene_id", sc.ID, "kind", kind, "filename", part.FileName())
			writeJSON(w, ctx, http.StatusOK, sc)
			return
		}
	}
	handleServiceError(w, ctx, &service.ValidationError{Field: "file", Message: "is required"}, "Invalid request body")
}

// DanglingRefs handles GET /dangling.
func (h *StoryHandler) DanglingRefs(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	dangling, err := ws.DanglingRefs()
	if err != nil {
		handleServiceError(w, r.Context(), err, "Failed to list dangling references")
		return
	}
	writeJSON(w, r.Context(), http.StatusOK, dangling)
}

func (h *StoryHandler) writeScenes(w http.ResponseWriter, r *http.Request, scenes []timeline.Scene, err error) {
	ctx := r.Context()
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to update scenes")
		return
	}
	if scenes == nil {
		scenes = []timeline.Scene{}
	}
	writeJSON(w, ctx, http.StatusOK, ScenesResponse{Scenes: scenes})
}

func (h *StoryHandler) writePage(w http.ResponseWriter, r *http.Request, ws *service.Workspace, view service.ViewName) {
	page, err := ws.Page(view, service.CurrentPage)
	if err != nil {
		handleServiceError(w, r.Context(), err, "Failed to render page")
		return
	}
	writeJSON(w, r.Context(), http.StatusOK, page)
}
