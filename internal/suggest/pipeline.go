package suggest

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/atomic"

	"storyline/internal/metrics"
)

// Config tunes the pipeline.
type Config struct {
	// Delay is the typing pause before a request is issued.
	Delay time.Duration
	// MinLength is the minimum trimmed text length, in runes, worth continuing.
	MinLength int
	// Timeout bounds one request to the suggestion service.
	Timeout time.Duration
}

// DefaultConfig returns the editor defaults.
func DefaultConfig() Config {
	return Config{
		Delay:     1500 * time.Millisecond,
		MinLength: 20,
		Timeout:   20 * time.Second,
	}
}

// Host is the workspace a pipeline belongs to.
//
// Do runs fn on the host's logical thread, serialised with every other
// mutation. SuggestionContext and IsActive are only called from inside Do.
type Host interface {
	Do(fn func())
	SuggestionContext(sceneID string) (Request, bool)
	IsActive(sceneID string) bool
}

// Pipeline debounces text edits into continuation requests and decides
// whether each response may still be shown.
//
// Every scene carries a generation counter. It is bumped by every text
// change, every discard and every issued request; a response is shown only
// if the counter still equals the value captured when the request left and
// the scene is still active. Everything else is silently dropped.
//
// Except for Wait, all methods must be called on the host's logical thread.
type Pipeline struct {
	cfg       Config
	host      Host
	suggester Suggester
	sched     Scheduler
	notify    func(Event)
	logger    *slog.Logger

	scenes map[string]*sceneState
	seq    atomic.Uint64
	closed atomic.Bool
	wg     sync.WaitGroup
}

type sceneState struct {
	gen     uint64
	timer   Timer
	pending *Suggestion
}

// NewPipeline creates a pipeline for host. notify may be nil.
func NewPipeline(cfg Config, host Host, suggester Suggester, sched Scheduler, notify func(Event)) *Pipeline {
	if sched == nil {
		sched = RealScheduler{}
	}
	if notify == nil {
		notify = func(Event) {}
	}
	return &Pipeline{
		cfg:       cfg,
		host:      host,
		suggester: suggester,
		sched:     sched,
		notify:    notify,
		logger:    slog.Default().With("component", "suggest"),
		scenes:    make(map[string]*sceneState),
	}
}

// OnTextChange reacts to an edit of a scene description: it cancels the
// pending timer, drops any offered suggestion and, if the text is long
// enough, schedules a new request.
func (p *Pipeline) OnTextChange(sceneID, text string) {
	if p.closed.Load() {
		return
	}
	st := p.state(sceneID)
	st.gen++
	p.stopTimer(st)
	p.clear(sceneID, st)

	if utf8.RuneCountInString(strings.TrimSpace(text)) < p.cfg.MinLength {
		metrics.SuggestionsDiscarded.WithLabelValues(metrics.ReasonShort).Inc()
		return
	}

	gen := st.gen
	st.timer = p.sched.AfterFunc(p.cfg.Delay, func() {
		p.host.Do(func() {
			p.fire(sceneID, gen)
		})
	})
}

// Pending returns the suggestion offered for sceneID.
func (p *Pipeline) Pending(sceneID string) (Suggestion, bool) {
	st, ok := p.scenes[sceneID]
	if !ok || st.pending == nil {
		return Suggestion{}, false
	}
	return *st.pending, true
}

// Take removes and returns the offered suggestion, as on acceptance.
// Any request still in flight for the scene becomes stale.
func (p *Pipeline) Take(sceneID string) (Suggestion, bool) {
	st, ok := p.scenes[sceneID]
	if !ok || st.pending == nil {
		return Suggestion{}, false
	}
	s := *st.pending
	st.pending = nil
	st.gen++
	p.stopTimer(st)
	p.notify(Event{Type: EventCleared, SceneID: sceneID, Generation: st.gen})
	return s, true
}

// Discard drops the offered suggestion and anything pending for sceneID.
func (p *Pipeline) Discard(sceneID string) bool {
	st, ok := p.scenes[sceneID]
	if !ok {
		return false
	}
	st.gen++
	p.stopTimer(st)
	return p.clear(sceneID, st)
}

// Forget releases all state for a removed scene.
func (p *Pipeline) Forget(sceneID string) {
	if st, ok := p.scenes[sceneID]; ok {
		p.stopTimer(st)
		delete(p.scenes, sceneID)
	}
}

// Close stops all timers. Responses arriving afterwards are dropped.
func (p *Pipeline) Close() {
	p.closed.Store(true)
	for _, st := range p.scenes {
		p.stopTimer(st)
	}
}

// Wait blocks until all in-flight requests have finished. It must not be
// called on the host's logical thread.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

func (p *Pipeline) fire(sceneID string, gen uint64) {
	st, ok := p.scenes[sceneID]
	if !ok || st.gen != gen || p.closed.Load() {
		return
	}
	st.timer = nil

	if !p.host.IsActive(sceneID) {
		p.logger.Debug("skipping suggestion for inactive scene", "scene_id", sceneID)
		metrics.SuggestionsDiscarded.WithLabelValues(metrics.ReasonInactive).Inc()
		return
	}
	req, ok := p.host.SuggestionContext(sceneID)
	if !ok {
		return
	}
	req.Mode = ModeContinue

	st.gen++
	reqGen := st.gen
	reqID := p.seq.Inc()
	metrics.SuggestionsRequested.Inc()
	p.logger.Debug("issuing suggestion request", "scene_id", sceneID, "request_id", reqID, "generation", reqGen)

	p.wg.Add(1)
	go p.request(sceneID, reqGen, reqID, req)
}

func (p *Pipeline) request(sceneID string, gen, reqID uint64, req Request) {
	defer p.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), p.cfg.Timeout)
	defer cancel()

	start := time.Now()
	text, err := p.suggester.Continue(ctx, req)
	metrics.SuggestionLatency.Observe(time.Since(start).Seconds())

	if p.closed.Load() {
		return
	}
	p.host.Do(func() {
		p.apply(sceneID, gen, reqID, text, err)
	})
}

func (p *Pipeline) apply(sceneID string, gen, reqID uint64, text string, err error) {
	if err != nil {
		metrics.SuggestionsFailed.Inc()
		p.logger.Warn("suggestion request failed", "scene_id", sceneID, "request_id", reqID, "error", err)
		return
	}
	st, ok := p.scenes[sceneID]
	if !ok || st.gen != gen {
		metrics.SuggestionsDiscarded.WithLabelValues(metrics.ReasonStale).Inc()
		p.logger.Debug("discarding stale suggestion", "scene_id", sceneID, "request_id", reqID)
		return
	}
	if !p.host.IsActive(sceneID) {
		metrics.SuggestionsDiscarded.WithLabelValues(metrics.ReasonInactive).Inc()
		p.logger.Debug("discarding suggestion for scene no longer active", "scene_id", sceneID, "request_id", reqID)
		return
	}
	if strings.TrimSpace(text) == "" {
		return
	}

	st.pending = &Suggestion{SceneID: sceneID, Text: text, Generation: gen, RequestID: reqID}
	metrics.SuggestionsShown.Inc()
	p.notify(Event{Type: EventReady, SceneID: sceneID, Text: text, Generation: gen})
}

func (p *Pipeline) state(sceneID string) *sceneState {
	st, ok := p.scenes[sceneID]
	if !ok {
		st = &sceneState{}
		p.scenes[sceneID] = st
	}
	return st
}

func (p *Pipeline) stopTimer(st *sceneState) {
	if st.timer != nil {
		st.timer.Stop()
		st.timer = nil
	}
}

func (p *Pipeline) clear(sceneID string, st *sceneState) bool {
	if st.pending == nil {
		return false
	}
	st.pending = nil
	p.notify(Event{Type: EventCleared, SceneID: sceneID, Generation: st.gen})
	return true
}
