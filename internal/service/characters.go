package service

import (
	"context"
	"sync"

	"storyline/internal/contextutil"
	"storyline/internal/events"
	"storyline/internal/timeline"
)

// clipboardSlot is the clipboard shared by all workspaces. Its lock is
// always taken after a workspace lock, never before.
type clipboardSlot struct {
	mu sync.Mutex
	cb timeline.Clipboard
}

func (s *clipboardSlot) with(fn func(cb *timeline.Clipboard) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&s.cb)
}

// CharacterUpdate is the outcome of a character edit.
type CharacterUpdate struct {
	Character     timeline.Character `json:"character"`
	RenamedScenes []string           `json:"renamed_scenes,omitempty"`
}

// Characters returns the registry.
func (w *Workspace) Characters() ([]timeline.Character, error) {
	var out []timeline.Character
	err := w.locked(func() error {
		out = w.registry.List()
		return nil
	})
	return out, err
}

// AddCharacter registers a character. It is persisted by SaveCharacter.
func (w *Workspace) AddCharacter(c timeline.Character) (timeline.Character, error) {
	var added timeline.Character
	err := w.locked(func() error {
		c.ID = ""
		var err error
		added, err = w.registry.Add(c)
		return err
	})
	return added, err
}

// UpdateCharacter replaces the character currently named currentName. A
// rename is rewritten into every scene in the same step, and suggestions
// offered for the rewritten scenes are dropped.
func (w *Workspace) UpdateCharacter(currentName string, c timeline.Character) (CharacterUpdate, error) {
	var res CharacterUpdate
	err := w.locked(func() error {
		updated, rename, err := w.registry.Update(currentName, c)
		if err != nil {
			return err
		}
		res.Character = updated
		if rename.Propagates() {
			res.RenamedScenes = w.store.ApplyRename(rename)
			for _, id := range res.RenamedScenes {
				w.pipeline.Discard(id)
			}
			w.logger.Info("character renamed", "from", rename.Old, "to", rename.New, "scenes", len(res.RenamedScenes))
		}
		return nil
	})
	return res, err
}

// RemoveCharacter drops a character from the registry and, when it was
// persisted, from storage. Scene refs to it are left in place.
func (w *Workspace) RemoveCharacter(ctx context.Context, name string) (timeline.Character, error) {
	var removed timeline.Character
	if err := w.locked(func() error {
		var err error
		removed, err = w.registry.Remove(timeline.Character{Name: name})
		return err
	}); err != nil {
		return timeline.Character{}, err
	}

	if removed.ID != "" {
		if err := w.opts.Characters.Delete(ctx, w.id, removed.ID); err != nil {
			contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to delete character", "story_id", w.id, "character_id", removed.ID, "error", err)
			return removed, WrapError(err, "failed to delete character")
		}
	}
	return removed, nil
}

// SaveCharacter persists a character: created when it has no id yet,
// updated otherwise. The assigned id is recorded only if the character still
// exists under the same name once storage has answered.
func (w *Workspace) SaveCharacter(ctx context.Context, name string) (timeline.Character, error) {
	logger := contextutil.LoggerFromContext(ctx)

	var c timeline.Character
	var epoch uint64
	if err := w.locked(func() error {
		var err error
		c, err = w.registry.Get(name)
		epoch = w.epoch
		return err
	}); err != nil {
		return timeline.Character{}, err
	}

	if c.ID == "" {
		id, err := w.opts.Characters.Create(ctx, w.id, c)
		if err != nil {
			logger.ErrorContext(ctx, "failed to create character", "story_id", w.id, "name", c.Name, "error", err)
			return timeline.Character{}, WrapError(err, "failed to save character")
		}
		c.ID = id
	} else if err := w.opts.Characters.Update(ctx, w.id, c); err != nil {
		logger.ErrorContext(ctx, "failed to update character", "story_id", w.id, "character_id", c.ID, "error", err)
		return timeline.Character{}, WrapError(err, "failed to save character")
	}

	var saved timeline.Character
	err := w.locked(func() error {
		if w.epoch != epoch {
			return w.discarded(ctx, "character", "story reloaded")
		}
		cur, err := w.registry.Get(c.Name)
		if err != nil {
			return w.discarded(ctx, "character", "character renamed or removed")
		}
		if cur.ID != "" && cur.ID != c.ID {
			return w.discarded(ctx, "character", "character replaced")
		}
		w.registry.AssignID(c.Name, c.ID)
		saved, _ = w.registry.Get(c.Name)
		w.publish(events.TypeCharacterSaved, saved)
		return nil
	})
	if err != nil {
		return timeline.Character{}, err
	}

	logger.InfoContext(ctx, "character saved", "story_id", w.id, "character_id", saved.ID)
	return saved, nil
}

// ClipboardState tells which paste operations have something to paste.
type ClipboardState struct {
	Scene     bool `json:"scene"`
	Character bool `json:"character"`
}

// Clipboard reports what the shared clipboard holds.
func (w *Workspace) Clipboard() (ClipboardState, error) {
	var state ClipboardState
	err := w.locked(func() error {
		return w.clip.with(func(cb *timeline.Clipboard) error {
			state = ClipboardState{Scene: cb.HasScene(), Character: cb.HasCharacter()}
			return nil
		})
	})
	return state, err
}

// CopyScene puts a snapshot of a scene on the shared clipboard.
func (w *Workspace) CopyScene(id string) error {
	return w.locked(func() error {
		sc, err := w.store.Get(id)
		if err != nil {
			return err
		}
		return w.clip.with(func(cb *timeline.Clipboard) error {
			cb.CopyScene(w.id, sc)
			return nil
		})
	})
}

// PasteScene appends a duplicate of the clipboard scene.
func (w *Workspace) PasteScene() (timeline.Scene, error) {
	var sc timeline.Scene
	err := w.locked(func() error {
		return w.clip.with(func(cb *timeline.Clipboard) error {
			var err error
			sc, err = cb.PasteScene(w.id, w.store)
			return err
		})
	})
	return sc, err
}

// CopyCharacter puts a snapshot of a character on the shared clipboard.
func (w *Workspace) CopyCharacter(name string) error {
	return w.locked(func() error {
		c, err := w.registry.Get(name)
		if err != nil {
			return err
		}
		return w.clip.with(func(cb *timeline.Clipboard) error {
			cb.CopyCharacter(w.id, c)
			return nil
		})
	})
}

// PasteCharacter adds a duplicate of the clipboard character. The duplicate
// is unsaved.
func (w *Workspace) PasteCharacter() (timeline.Character, error) {
	var c timeline.Character
	err := w.locked(func() error {
		return w.clip.with(func(cb *timeline.Clipboard) error {
			var err error
			c, err = cb.PasteCharacter(w.id, w.registry)
			return err
		})
	})
	return c, err
}
