package service

import (
	"fmt"

	"storyline/internal/indexer"
	"storyline/internal/timeline"
)

// ViewName selects one of the two paged views of a story.
type ViewName string

const (
	// ViewOverview is the compact strip of scene thumbnails.
	ViewOverview ViewName = "overview"
	// ViewDetail is the list of full scene editors.
	ViewDetail ViewName = "detail"
)

// CurrentPage asks Page for the page the view is already on.
const CurrentPage = -1

// ParseViewName validates a view name. An empty name is the detail view.
func ParseViewName(s string) (ViewName, error) {
	switch ViewName(s) {
	case "", ViewDetail:
		return ViewDetail, nil
	case ViewOverview:
		return ViewOverview, nil
	default:
		return "", &ValidationError{Field: "view", Message: fmt.Sprintf("unknown view %q", s)}
	}
}

// Scenes returns all scenes in order, hidden ones included.
func (w *Workspace) Scenes() ([]timeline.Scene, error) {
	var out []timeline.Scene
	err := w.locked(func() error {
		out = w.store.List()
		return nil
	})
	return out, err
}

// VisibleScenes returns the visible narrative.
func (w *Workspace) VisibleScenes() ([]timeline.Scene, error) {
	var out []timeline.Scene
	err := w.locked(func() error {
		out = w.store.Visible()
		return nil
	})
	return out, err
}

// Scene returns one scene.
func (w *Workspace) Scene(id string) (timeline.Scene, error) {
	var sc timeline.Scene
	err := w.locked(func() error {
		var err error
		sc, err = w.store.Get(id)
		return err
	})
	return sc, err
}

// AddScene appends a scene.
func (w *Workspace) AddScene(sc timeline.Scene) (timeline.Scene, error) {
	var added timeline.Scene
	err := w.locked(func() error {
		added = w.store.Add(sc)
		return nil
	})
	return added, err
}

// UpdateScene applies a patch. A description change restarts the suggestion
// debounce for the scene.
func (w *Workspace) UpdateScene(id string, patch timeline.ScenePatch) (timeline.Scene, error) {
	var updated timeline.Scene
	err := w.locked(func() error {
		before, err := w.store.Get(id)
		if err != nil {
			return err
		}
		updated, err = w.store.Update(id, patch)
		if err != nil {
			return err
		}
		if patch.Description != nil && updated.Description != before.Description {
			w.pipeline.OnTextChange(id, updated.Description)
		}
		return nil
	})
	return updated, err
}

// RemoveScene deletes a scene. Scene numbers of the rest are compacted.
func (w *Workspace) RemoveScene(id string) (timeline.Scene, error) {
	var removed timeline.Scene
	err := w.locked(func() error {
		var err error
		removed, err = w.removeScene(id)
		return err
	})
	return removed, err
}

// Reorder moves the scene at sourceIndex to targetIndex (0-based).
func (w *Workspace) Reorder(sourceIndex, targetIndex int) ([]timeline.Scene, error) {
	var out []timeline.Scene
	err := w.locked(func() error {
		if err := w.store.Reorder(sourceIndex, targetIndex); err != nil {
			return err
		}
		out = w.store.List()
		return nil
	})
	return out, err
}

// SetOrderNumber moves a scene to the 1-based position.
func (w *Workspace) SetOrderNumber(id string, position int) ([]timeline.Scene, error) {
	var out []timeline.Scene
	err := w.locked(func() error {
		if err := w.store.SetOrderNumber(id, position); err != nil {
			return err
		}
		out = w.store.List()
		return nil
	})
	return out, err
}

// SetHidden shows or hides a scene.
func (w *Workspace) SetHidden(id string, hidden bool) (timeline.Scene, error) {
	var sc timeline.Scene
	err := w.locked(func() error {
		var err error
		sc, err = w.store.Update(id, timeline.ScenePatch{Hidden: &hidden})
		return err
	})
	return sc, err
}

// SetFilter replaces the filter of a view and returns it to its first page.
func (w *Workspace) SetFilter(view ViewName, f timeline.Filter) error {
	return w.locked(func() error {
		v, err := w.view(view)
		if err != nil {
			return err
		}
		v.SetFilter(f)
		return nil
	})
}

// SetPageSize changes the page size of a view and returns it to its first page.
func (w *Workspace) SetPageSize(view ViewName, size int) error {
	return w.locked(func() error {
		v, err := w.view(view)
		if err != nil {
			return err
		}
		return v.SetPageSize(size)
	})
}

// Page moves a view to pageIndex, or keeps its page for CurrentPage, and
// renders it.
func (w *Workspace) Page(view ViewName, pageIndex int) (timeline.Page[timeline.Scene], error) {
	var page timeline.Page[timeline.Scene]
	err := w.locked(func() error {
		v, err := w.view(view)
		if err != nil {
			return err
		}
		if pageIndex != CurrentPage {
			if err := v.SetPage(pageIndex); err != nil {
				return err
			}
		}
		page = v.Render(w.store.List())
		return nil
	})
	return page, err
}

// ImportOutline appends the scenes of a Markdown outline.
func (w *Workspace) ImportOutline(content []byte, filename string) ([]timeline.Scene, error) {
	outline := indexer.NewOutlineParser().Parse(content, filename)
	if len(outline.Scenes) == 0 {
		return nil, &ValidationError{Field: "content", Message: "outline contains no scenes"}
	}

	var added []timeline.Scene
	err := w.locked(func() error {
		for _, item := range outline.Scenes {
			added = append(added, w.store.Add(timeline.Scene{
				Title:         item.Title,
				Description:   item.Description,
				CharacterRefs: item.CharacterRefs,
			}))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	w.logger.Info("outline imported", "filename", filename, "scenes", len(added))
	return added, nil
}

// DanglingRefs returns, per scene id, the character refs that name no
// registered character. Scenes without dangling refs are omitted.
func (w *Workspace) DanglingRefs() (map[string][]string, error) {
	out := make(map[string][]string)
	err := w.locked(func() error {
		for _, sc := range w.store.List() {
			if refs := w.registry.Dangling(sc); len(refs) > 0 {
				out[sc.ID] = refs
			}
		}
		return nil
	})
	return out, err
}

func (w *Workspace) removeScene(id string) (timeline.Scene, error) {
	prev := w.tracker.Active()
	removed, err := w.store.Remove(id)
	if err != nil {
		return timeline.Scene{}, err
	}
	w.pipeline.Forget(id)
	w.tracker.Forget(id)
	w.activeChanged(prev)
	return removed, nil
}

func (w *Workspace) view(name ViewName) (*timeline.View, error) {
	v, ok := w.views[name]
	if !ok {
		return nil, &ValidationError{Field: "view", Message: fmt.Sprintf("unknown view %q", name)}
	}
	return v, nil
}
