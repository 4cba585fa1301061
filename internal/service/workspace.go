package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"storyline/internal/contextutil"
	"storyline/internal/metrics"
	"storyline/internal/storage"
	"storyline/internal/suggest"
	"storyline/internal/timeline"
)

// summaryRunes caps each prior scene summary sent as suggestion context.
const summaryRunes = 280

// Options carries the collaborators and tuning shared by every workspace.
// Feedback, Media, Index and Events are optional.
type Options struct {
	Stories    storage.StoryStore
	Characters storage.CharacterStore
	Generator  SceneGenerator
	Feedback   FeedbackSender
	Media      MediaUploader
	Index      SceneIndex
	Events     Publisher

	Scheduler        suggest.Scheduler
	Suggest          suggest.Config
	Tracker          timeline.TrackerConfig
	OverviewPageSize int
	DetailPageSize   int
	Now              func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Generator == nil {
		o.Generator = unavailableGenerator{}
	}
	if o.Scheduler == nil {
		o.Scheduler = suggest.RealScheduler{}
	}
	if o.Suggest == (suggest.Config{}) {
		o.Suggest = suggest.DefaultConfig()
	}
	if o.Tracker == (timeline.TrackerConfig{}) {
		o.Tracker = timeline.DefaultTrackerConfig()
	}
	if o.OverviewPageSize <= 0 {
		o.OverviewPageSize = 10
	}
	if o.DetailPageSize <= 0 {
		o.DetailPageSize = 5
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

type unavailableGenerator struct{}

func (unavailableGenerator) Continue(context.Context, suggest.Request) (string, error) {
	return "", ErrUnavailable
}

func (unavailableGenerator) GenerateScene(context.Context, suggest.Request) (suggest.GeneratedScene, error) {
	return suggest.GeneratedScene{}, ErrUnavailable
}

// Snapshot is a copy of the state of an open story.
type Snapshot struct {
	ID            string               `json:"id"`
	Title         string               `json:"title"`
	Genre         string               `json:"genre"`
	Description   string               `json:"description"`
	Scenes        []timeline.Scene     `json:"scenes"`
	Characters    []timeline.Character `json:"characters"`
	ActiveSceneID string               `json:"active_scene_id,omitempty"`
	Pinned        bool                 `json:"pinned"`
}

// Workspace is one open story.
//
// All state is guarded by a single mutex, which makes the workspace one
// logical thread: every exported method, timer callback and asynchronous
// completion is one discrete event on it. Calls to external collaborators are
// made without holding the lock; their results re-enter it and are applied
// only if the epoch and the target are unchanged.
type Workspace struct {
	id     string
	opts   Options
	clip   *clipboardSlot
	logger *slog.Logger

	mu          sync.Mutex
	closed      bool
	epoch       uint64
	title       string
	genre       string
	description string
	store       *timeline.Store
	registry    *timeline.Registry
	tracker     *timeline.Tracker
	views       map[ViewName]*timeline.View
	pipeline    *suggest.Pipeline
	settle      suggest.Timer

	bg sync.WaitGroup
}

func newWorkspace(rec *storage.StoryRecord, chars []timeline.Character, opts Options, clip *clipboardSlot) *Workspace {
	w := &Workspace{
		id:       rec.ID,
		opts:     opts,
		clip:     clip,
		logger:   slog.Default().With("component", "workspace", "story_id", rec.ID),
		store:    timeline.NewStore(),
		registry: timeline.NewRegistry(),
	}
	w.pipeline = suggest.NewPipeline(opts.Suggest, w, opts.Generator, opts.Scheduler, w.publishSuggestion)
	w.load(rec, chars)
	return w
}

// ID returns the story id.
func (w *Workspace) ID() string {
	return w.id
}

// Do runs fn on the workspace's logical thread. It is a no-op once the
// workspace is closed.
func (w *Workspace) Do(fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	fn()
}

// SuggestionContext builds the continuation request for a scene.
func (w *Workspace) SuggestionContext(sceneID string) (suggest.Request, bool) {
	i := w.store.IndexOf(sceneID)
	if i < 0 {
		return suggest.Request{}, false
	}
	return w.requestAt(i), true
}

// IsActive reports whether sceneID is the active scene.
func (w *Workspace) IsActive(sceneID string) bool {
	return sceneID != "" && w.tracker.Active() == sceneID
}

// Snapshot returns a copy of the story state.
func (w *Workspace) Snapshot() (Snapshot, error) {
	var snap Snapshot
	err := w.locked(func() error {
		snap = Snapshot{
			ID:            w.id,
			Title:         w.title,
			Genre:         w.genre,
			Description:   w.description,
			Scenes:        w.store.List(),
			Characters:    w.registry.List(),
			ActiveSceneID: w.tracker.Active(),
			Pinned:        w.tracker.State() == timeline.Pinned,
		}
		return nil
	})
	return snap, err
}

// BlankScenes returns the ids of scenes with no text and no media.
func (w *Workspace) BlankScenes() []string {
	var ids []string
	_ = w.locked(func() error {
		ids = blankIDs(w.store.List())
		return nil
	})
	return ids
}

// Reload replaces the workspace state with the persisted story. Results of
// requests issued before the reload are discarded. It returns the ids of
// blank scenes as warnings.
func (w *Workspace) Reload(ctx context.Context) ([]string, error) {
	rec, chars, err := fetchStory(ctx, w.opts, w.id)
	if err != nil {
		return nil, err
	}
	err = w.locked(func() error {
		w.load(rec, chars)
		return nil
	})
	if err != nil {
		return nil, err
	}
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "story reloaded", "story_id", w.id, "scenes", len(rec.Scenes))
	return rec.BlankScenes(), nil
}

// Save persists the scene collection and refreshes the scene index.
func (w *Workspace) Save(ctx context.Context) error {
	logger := contextutil.LoggerFromContext(ctx)

	var scenes []timeline.Scene
	if err := w.locked(func() error {
		scenes = w.store.List()
		return nil
	}); err != nil {
		return err
	}

	if err := w.opts.Stories.SaveScenes(ctx, w.id, scenes); err != nil {
		logger.ErrorContext(ctx, "failed to save scenes", "story_id", w.id, "error", err)
		return WrapError(err, "failed to save story")
	}
	w.reindex(ctx, scenes)

	logger.InfoContext(ctx, "story saved", "story_id", w.id, "scenes", len(scenes))
	return nil
}

// Submit saves the story and marks it submitted. Blank scenes block the
// submission unless deleteEmpty is set, in which case they are removed first.
func (w *Workspace) Submit(ctx context.Context, deleteEmpty bool) error {
	logger := contextutil.LoggerFromContext(ctx)

	var scenes []timeline.Scene
	err := w.locked(func() error {
		blank := blankIDs(w.store.List())
		if len(blank) > 0 && !deleteEmpty {
			return &ValidationError{
				Field:   "scenes",
				Message: fmt.Sprintf("empty scenes must be filled or deleted: %s", strings.Join(blank, ", ")),
			}
		}
		for _, id := range blank {
			if _, err := w.removeScene(id); err != nil {
				return err
			}
		}
		if w.store.Len() == 0 {
			return &ValidationError{Field: "scenes", Message: "story has no scenes"}
		}
		scenes = w.store.List()
		return nil
	})
	if err != nil {
		return err
	}

	if err := w.opts.Stories.SaveScenes(ctx, w.id, scenes); err != nil {
		logger.ErrorContext(ctx, "failed to save scenes", "story_id", w.id, "error", err)
		return WrapError(err, "failed to save story")
	}
	if err := w.opts.Stories.MarkSubmitted(ctx, w.id, w.opts.Now()); err != nil {
		logger.ErrorContext(ctx, "failed to mark story submitted", "story_id", w.id, "error", err)
		return WrapError(err, "failed to submit story")
	}
	w.reindex(ctx, scenes)

	logger.InfoContext(ctx, "story submitted", "story_id", w.id, "scenes", len(scenes))
	return nil
}

// Close stops all timers and waits for background work. Results arriving
// afterwards are dropped.
func (w *Workspace) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	w.epoch++
	w.pipeline.Close()
	w.stopSettle()
	w.mu.Unlock()

	w.Wait()
}

// Wait blocks until in-flight suggestion requests and feedback reports have
// finished.
func (w *Workspace) Wait() {
	w.pipeline.Wait()
	w.bg.Wait()
}

// locked runs fn under the workspace lock.
func (w *Workspace) locked(fn func() error) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	return fn()
}

func (w *Workspace) load(rec *storage.StoryRecord, chars []timeline.Character) {
	for _, sc := range w.store.List() {
		w.pipeline.Discard(sc.ID)
	}
	w.stopSettle()

	scenes := make([]timeline.Scene, len(rec.Scenes))
	copy(scenes, rec.Scenes)
	sort.SliceStable(scenes, func(i, j int) bool {
		return scenes[i].Order < scenes[j].Order
	})

	w.epoch++
	w.title = rec.Title
	w.genre = rec.Genre
	w.description = rec.Description
	w.store.Replace(scenes)
	w.registry.Replace(chars)
	w.tracker = timeline.NewTracker(w.opts.Tracker)
	w.views = map[ViewName]*timeline.View{
		ViewOverview: timeline.NewView(w.opts.OverviewPageSize),
		ViewDetail:   timeline.NewView(w.opts.DetailPageSize),
	}
}

// requestAt builds a request with scene i as the active scene. Any i outside
// the collection means "after the last scene".
func (w *Workspace) requestAt(i int) suggest.Request {
	scenes := w.store.List()
	req := suggest.Request{
		Title:       w.title,
		Description: w.description,
		Genre:       w.genre,
	}
	prior := scenes
	if i >= 0 && i < len(scenes) {
		req.ActiveSceneTitle = scenes[i].Title
		req.ActiveSceneText = scenes[i].Description
		prior = scenes[:i]
	}
	for _, sc := range prior {
		if sc.Hidden || sc.Blank() {
			continue
		}
		req.PriorSceneSummaries = append(req.PriorSceneSummaries, summarize(sc))
	}
	for _, c := range w.registry.List() {
		req.Characters = append(req.Characters, suggest.CharacterBrief{
			Name:        c.Name,
			Role:        c.Role,
			Description: c.Description,
		})
	}
	return req
}

func (w *Workspace) publish(eventType string, data any) {
	if w.opts.Events != nil {
		w.opts.Events.Publish(w.id, eventType, data)
	}
}

func (w *Workspace) publishSuggestion(e suggest.Event) {
	w.publish(string(e.Type), e)
}

func (w *Workspace) reindex(ctx context.Context, scenes []timeline.Scene) {
	if w.opts.Index == nil {
		return
	}
	if err := w.opts.Index.IndexScenes(ctx, w.id, scenes); err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "failed to index scenes", "story_id", w.id, "error", err)
	}
}

// discarded records an asynchronous result that was not applied.
func (w *Workspace) discarded(ctx context.Context, kind, reason string) error {
	metrics.ApplyBackDiscarded.WithLabelValues(kind).Inc()
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "discarding result", "story_id", w.id, "kind", kind, "reason", reason)
	return fmt.Errorf("%s: %s: %w", kind, reason, ErrDiscarded)
}

// fetchStory loads a story record and its persisted characters.
func fetchStory(ctx context.Context, opts Options, storyID string) (*storage.StoryRecord, []timeline.Character, error) {
	rec, err := opts.Stories.Get(ctx, storyID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil, fmt.Errorf("story %s: %w", storyID, ErrNotFound)
		}
		return nil, nil, WrapError(err, "failed to load story")
	}
	chars, err := opts.Characters.ListByStory(ctx, storyID)
	if err != nil {
		return nil, nil, WrapError(err, "failed to load characters")
	}
	return rec, chars, nil
}

func summarize(sc timeline.Scene) string {
	text := strings.Join(strings.Fields(sc.Description), " ")
	if utf8.RuneCountInString(text) > summaryRunes {
		text = string([]rune(text)[:summaryRunes]) + "…"
	}
	if text == "" {
		return sc.Title
	}
	return sc.Title + ": " + text
}

func blankIDs(scenes []timeline.Scene) []string {
	var ids []string
	for _, sc := range scenes {
		if sc.Blank() {
			ids = append(ids, sc.ID)
		}
	}
	return ids
}

var _ suggest.Host = (*Workspace)(nil)
