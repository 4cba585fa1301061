package service

import (
	"context"
	"strings"
	"sync"

	"storyline/internal/contextutil"
	"storyline/internal/metrics"
	"storyline/internal/storage"
)

// Engine holds the open workspaces and the clipboard they share.
type Engine struct {
	opts Options
	clip clipboardSlot

	mu   sync.Mutex
	open map[string]*Workspace
}

// NewEngine creates an engine. opts.Stories and opts.Characters are required.
func NewEngine(opts Options) *Engine {
	return &Engine{
		opts: opts.withDefaults(),
		open: make(map[string]*Workspace),
	}
}

// CreateStory persists a new, empty story.
func (e *Engine) CreateStory(ctx context.Context, title, genre, description string) (*storage.StoryRecord, error) {
	logger := contextutil.LoggerFromContext(ctx)

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, &ValidationError{Field: "title", Message: "cannot be empty"}
	}
	rec := &storage.StoryRecord{Title: title, Genre: strings.TrimSpace(genre), Description: description}
	if err := e.opts.Stories.Create(ctx, rec); err != nil {
		logger.ErrorContext(ctx, "failed to create story", "error", err)
		return nil, WrapError(err, "failed to create story")
	}

	logger.InfoContext(ctx, "story created", "story_id", rec.ID)
	return rec, nil
}

// ListStories returns the persisted stories without their scenes.
func (e *Engine) ListStories(ctx context.Context) ([]storage.StoryRecord, error) {
	stories, err := e.opts.Stories.List(ctx)
	if err != nil {
		return nil, WrapError(err, "failed to list stories")
	}
	return stories, nil
}

// Open returns the workspace of a story, loading it on first use. The
// returned ids are the blank scenes of the story, reported as warnings.
func (e *Engine) Open(ctx context.Context, storyID string) (*Workspace, []string, error) {
	if ws, ok := e.lookup(storyID); ok {
		return ws, ws.BlankScenes(), nil
	}

	rec, chars, err := fetchStory(ctx, e.opts, storyID)
	if err != nil {
		return nil, nil, err
	}
	ws := newWorkspace(rec, chars, e.opts, &e.clip)

	e.mu.Lock()
	if existing, ok := e.open[storyID]; ok {
		e.mu.Unlock()
		ws.Close()
		return existing, existing.BlankScenes(), nil
	}
	e.open[storyID] = ws
	metrics.OpenWorkspaces.Set(float64(len(e.open)))
	e.mu.Unlock()

	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "story opened", "story_id", storyID, "scenes", len(rec.Scenes), "characters", len(chars))
	return ws, rec.BlankScenes(), nil
}

// Workspace returns the workspace of a story, loading it on first use.
func (e *Engine) Workspace(ctx context.Context, storyID string) (*Workspace, error) {
	ws, _, err := e.Open(ctx, storyID)
	return ws, err
}

// Close closes the workspace of a story. Unsaved changes are lost. The
// story's scenes are dropped from the scene index; the next save of a
// reopened workspace indexes them again.
func (e *Engine) Close(ctx context.Context, storyID string) bool {
	e.mu.Lock()
	ws, ok := e.open[storyID]
	if ok {
		delete(e.open, storyID)
		metrics.OpenWorkspaces.Set(float64(len(e.open)))
	}
	e.mu.Unlock()

	if !ok {
		return false
	}
	ws.Close()
	if e.opts.Index != nil {
		if err := e.opts.Index.Forget(ctx, storyID); err != nil {
			contextutil.LoggerFromContext(ctx).WarnContext(ctx, "failed to drop scene index", "story_id", storyID, "error", err)
		}
	}
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "story closed", "story_id", storyID)
	return true
}

// Shutdown closes every workspace.
func (e *Engine) Shutdown() {
	e.mu.Lock()
	open := e.open
	e.open = make(map[string]*Workspace)
	metrics.OpenWorkspaces.Set(0)
	e.mu.Unlock()

	for _, ws := range open {
		ws.Close()
	}
}

func (e *Engine) lookup(storyID string) (*Workspace, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ws, ok := e.open[storyID]
	return ws, ok
}
