package service

import (
	"storyline/internal/events"
	"storyline/internal/timeline"
)

// ActiveScene is the current AI context of a story.
type ActiveScene struct {
	SceneID string `json:"scene_id"`
	State   string `json:"state"`
}

// JumpResult is the outcome of a quick jump.
type JumpResult struct {
	Scene      timeline.Scene `json:"scene"`
	DetailPage int            `json:"detail_page"`
}

// Active returns the active scene.
func (w *Workspace) Active() (ActiveScene, error) {
	var a ActiveScene
	err := w.locked(func() error {
		a = w.activeScene()
		return nil
	})
	return a, err
}

// Scroll feeds rendered block positions to the tracker. While a scene is
// pinned, a settle check is scheduled once scrolling may have gone quiet.
func (w *Workspace) Scroll(blocks []timeline.BlockPosition) (ActiveScene, error) {
	var a ActiveScene
	err := w.locked(func() error {
		prev := w.tracker.Active()
		w.tracker.Scroll(blocks, w.opts.Now())
		w.activeChanged(prev)
		if w.tracker.State() == timeline.Pinned {
			w.scheduleSettle()
		}
		a = w.activeScene()
		return nil
	})
	return a, err
}

// Select pins a scene as the active one.
func (w *Workspace) Select(sceneID string) (ActiveScene, error) {
	var a ActiveScene
	err := w.locked(func() error {
		if _, err := w.store.Get(sceneID); err != nil {
			return err
		}
		prev := w.tracker.Active()
		w.tracker.Select(sceneID, w.opts.Now())
		w.activeChanged(prev)
		a = w.activeScene()
		return nil
	})
	return a, err
}

// Jump pins the scene with the 1-based number and moves the detail view to
// the page that shows it.
func (w *Workspace) Jump(position int) (JumpResult, error) {
	var res JumpResult
	err := w.locked(func() error {
		if err := w.store.ValidatePosition(position); err != nil {
			return err
		}
		sc, _ := w.store.At(position - 1)

		prev := w.tracker.Active()
		w.tracker.Select(sc.ID, w.opts.Now())
		w.activeChanged(prev)

		detail := w.views[ViewDetail]
		page := detail.PageOf(w.store.List(), sc.ID)
		if page >= 0 {
			if err := detail.SetPage(page); err != nil {
				return err
			}
		}
		res = JumpResult{Scene: sc, DetailPage: detail.PageIndex()}
		return nil
	})
	return res, err
}

func (w *Workspace) activeScene() ActiveScene {
	return ActiveScene{SceneID: w.tracker.Active(), State: w.tracker.State().String()}
}

// activeChanged reacts to a possible change of the active scene: whatever
// the previous scene had offered or scheduled is dropped.
func (w *Workspace) activeChanged(prev string) {
	cur := w.tracker.Active()
	if cur == prev {
		return
	}
	if prev != "" {
		w.pipeline.Discard(prev)
	}
	w.publish(events.TypeActiveChanged, map[string]string{"scene_id": cur, "previous_scene_id": prev})
}

func (w *Workspace) scheduleSettle() {
	w.stopSettle()
	w.settle = w.opts.Scheduler.AfterFunc(w.opts.Tracker.QuietPeriod, func() {
		w.Do(func() {
			w.settle = nil
			prev := w.tracker.Active()
			if w.tracker.Settle(w.opts.Now()) {
				w.logger.Debug("active scene pin released", "scene_id", prev)
				w.activeChanged(prev)
			}
		})
	})
}

func (w *Workspace) stopSettle() {
	if w.settle != nil {
		w.settle.Stop()
		w.settle = nil
	}
}
