package timeline

import (
	"fmt"

	"github.com/google/uuid"
)

// Store is the ordered scene collection. It is the only writer of Scene.Order.
// Store is not safe for concurrent use; the owning workspace serialises access.
type Store struct {
	scenes []*Scene
	newID  func() string
}

// NewStore creates an empty store that allocates uuids for new scenes.
func NewStore() *Store {
	return &Store{newID: uuid.NewString}
}

// NewStoreWithIDs creates an empty store with a custom id allocator.
func NewStoreWithIDs(newID func() string) *Store {
	return &Store{newID: newID}
}

// Len returns the number of scenes.
func (s *Store) Len() int {
	return len(s.scenes)
}

// Add appends a scene with a fresh id. An empty title defaults to "Scene N".
func (s *Store) Add(scene Scene) Scene {
	return s.Insert(len(s.scenes), scene)
}

// defaultTitle names an untitled scene by its 1-based position.
func defaultTitle(position int) string {
	return fmt.Sprintf("Scene %d", position)
}

// Insert places a scene at index at (clamped to the collection bounds).
func (s *Store) Insert(at int, scene Scene) Scene {
	sc := scene.Clone()
	sc.ID = s.newID()
	if sc.Title == "" {
		sc.Title = defaultTitle(len(s.scenes) + 1)
	}
	sc.CharacterRefs = dedupe(sc.CharacterRefs)

	if at < 0 {
		at = 0
	}
	if at > len(s.scenes) {
		at = len(s.scenes)
	}
	s.scenes = append(s.scenes, nil)
	copy(s.scenes[at+1:], s.scenes[at:])
	s.scenes[at] = &sc
	s.normalize()
	return sc.Clone()
}

// Replace swaps the whole collection, keeping the given ids and sequence.
// Scenes without an id get one. Used when loading a persisted story.
func (s *Store) Replace(scenes []Scene) {
	s.scenes = make([]*Scene, 0, len(scenes))
	for i := range scenes {
		sc := scenes[i].Clone()
		if sc.ID == "" {
			sc.ID = s.newID()
		}
		sc.CharacterRefs = dedupe(sc.CharacterRefs)
		s.scenes = append(s.scenes, &sc)
	}
	s.normalize()
}

// Get returns a copy of the scene with the given id.
func (s *Store) Get(id string) (Scene, error) {
	i := s.IndexOf(id)
	if i < 0 {
		return Scene{}, fmt.Errorf("scene %s: %w", id, ErrNotFound)
	}
	return s.scenes[i].Clone(), nil
}

// IndexOf returns the position of the scene, or -1.
func (s *Store) IndexOf(id string) int {
	for i, sc := range s.scenes {
		if sc.ID == id {
			return i
		}
	}
	return -1
}

// At returns a copy of the scene at index i.
func (s *Store) At(i int) (Scene, bool) {
	if i < 0 || i >= len(s.scenes) {
		return Scene{}, false
	}
	return s.scenes[i].Clone(), true
}

// List returns copies of all scenes in order.
func (s *Store) List() []Scene {
	out := make([]Scene, len(s.scenes))
	for i, sc := range s.scenes {
		out[i] = sc.Clone()
	}
	return out
}

// Visible returns the visible narrative: non-hidden scenes in order.
func (s *Store) Visible() []Scene {
	out := make([]Scene, 0, len(s.scenes))
	for _, sc := range s.scenes {
		if !sc.Hidden {
			out = append(out, sc.Clone())
		}
	}
	return out
}

// Update applies a patch and returns the updated scene.
func (s *Store) Update(id string, patch ScenePatch) (Scene, error) {
	i := s.IndexOf(id)
	if i < 0 {
		return Scene{}, fmt.Errorf("scene %s: %w", id, ErrNotFound)
	}
	sc := s.scenes[i]
	if patch.Title != nil {
		sc.Title = *patch.Title
	}
	if patch.Description != nil {
		sc.Description = *patch.Description
	}
	if patch.CharacterRefs != nil {
		sc.CharacterRefs = dedupe(cloneStrings(*patch.CharacterRefs))
	}
	if patch.Media != nil {
		sc.Media = patch.Media.clone()
	}
	if patch.Hidden != nil {
		sc.Hidden = *patch.Hidden
	}
	return sc.Clone(), nil
}

// Remove deletes a scene and compacts the order of the rest.
func (s *Store) Remove(id string) (Scene, error) {
	i := s.IndexOf(id)
	if i < 0 {
		return Scene{}, fmt.Errorf("scene %s: %w", id, ErrNotFound)
	}
	removed := s.scenes[i]
	s.scenes = append(s.scenes[:i], s.scenes[i+1:]...)
	s.normalize()
	return removed.Clone(), nil
}

// Reorder moves the scene at sourceIndex to targetIndex by splicing it out
// and back in, then renormalizes.
func (s *Store) Reorder(sourceIndex, targetIndex int) error {
	n := len(s.scenes)
	if sourceIndex < 0 || sourceIndex >= n {
		return &ValidationError{Field: "source_index", Message: fmt.Sprintf("must be between 0 and %d", n-1)}
	}
	if targetIndex < 0 || targetIndex >= n {
		return &ValidationError{Field: "target_index", Message: fmt.Sprintf("must be between 0 and %d", n-1)}
	}
	if sourceIndex == targetIndex {
		return nil
	}
	moved := s.scenes[sourceIndex]
	s.scenes = append(s.scenes[:sourceIndex], s.scenes[sourceIndex+1:]...)
	s.scenes = append(s.scenes, nil)
	copy(s.scenes[targetIndex+1:], s.scenes[targetIndex:])
	s.scenes[targetIndex] = moved
	s.normalize()
	return nil
}

// SetOrderNumber moves a scene to the 1-based targetPosition.
// Out-of-range positions are rejected without any change.
func (s *Store) SetOrderNumber(id string, targetPosition int) error {
	i := s.IndexOf(id)
	if i < 0 {
		return fmt.Errorf("scene %s: %w", id, ErrNotFound)
	}
	if err := s.ValidatePosition(targetPosition); err != nil {
		return err
	}
	return s.Reorder(i, targetPosition-1)
}

// ValidatePosition checks a 1-based scene number against the collection.
func (s *Store) ValidatePosition(position int) error {
	n := len(s.scenes)
	if n == 0 {
		return &ValidationError{Field: "position", Message: "story has no scenes"}
	}
	if position < 1 || position > n {
		return &ValidationError{Field: "position", Message: fmt.Sprintf("must be between 1 and %d", n)}
	}
	return nil
}

// rewrite calls fn for every scene in place. fn reports whether it changed the scene.
func (s *Store) rewrite(fn func(*Scene) bool) []string {
	var changed []string
	for _, sc := range s.scenes {
		if fn(sc) {
			changed = append(changed, sc.ID)
		}
	}
	return changed
}

// normalize is the single place order is assigned.
func (s *Store) normalize() {
	for i, sc := range s.scenes {
		sc.Order = i
	}
}
