package timeline

import (
	"fmt"
	"strings"
)

// Registry is the set of characters available to a story.
type Registry struct {
	chars []*Character
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Rename describes a name change produced by Update.
type Rename struct {
	Old string
	New string
}

// Propagates reports whether the rename must be rewritten into scenes.
func (r Rename) Propagates() bool {
	return r.Old != "" && r.New != "" && r.Old != r.New
}

// Add registers a new character.
func (r *Registry) Add(c Character) (Character, error) {
	c.Name = strings.TrimSpace(c.Name)
	if err := validateCharacter(c); err != nil {
		return Character{}, err
	}
	if r.byName(c.Name) >= 0 {
		return Character{}, &ValidationError{Field: "name", Message: fmt.Sprintf("character %q already exists", c.Name)}
	}
	cp := c.Clone()
	r.chars = append(r.chars, &cp)
	return cp.Clone(), nil
}

// Update replaces a character. The target is found by c.ID when set,
// otherwise by currentName.
func (r *Registry) Update(currentName string, c Character) (Character, Rename, error) {
	c.Name = strings.TrimSpace(c.Name)
	if err := validateCharacter(c); err != nil {
		return Character{}, Rename{}, err
	}

	i := -1
	if c.ID != "" {
		i = r.byID(c.ID)
	}
	if i < 0 {
		i = r.byName(currentName)
	}
	if i < 0 {
		key := c.ID
		if key == "" {
			key = currentName
		}
		return Character{}, Rename{}, fmt.Errorf("character %s: %w", key, ErrNotFound)
	}
	if j := r.byName(c.Name); j >= 0 && j != i {
		return Character{}, Rename{}, &ValidationError{Field: "name", Message: fmt.Sprintf("character %q already exists", c.Name)}
	}

	old := r.chars[i]
	rename := Rename{Old: old.Name, New: c.Name}
	if c.ID == "" {
		c.ID = old.ID
	}
	cp := c.Clone()
	r.chars[i] = &cp
	return cp.Clone(), rename, nil
}

// Remove deletes a character by id, or by name when id is empty.
// Scene references are left untouched.
func (r *Registry) Remove(c Character) (Character, error) {
	i := -1
	if c.ID != "" {
		i = r.byID(c.ID)
	}
	if i < 0 {
		i = r.byName(c.Name)
	}
	if i < 0 {
		return Character{}, fmt.Errorf("character %s: %w", c.Name, ErrNotFound)
	}
	removed := r.chars[i]
	r.chars = append(r.chars[:i], r.chars[i+1:]...)
	return removed.Clone(), nil
}

// Get returns a character by name. Names compare case-insensitively.
func (r *Registry) Get(name string) (Character, error) {
	i := r.byName(name)
	if i < 0 {
		return Character{}, fmt.Errorf("character %s: %w", name, ErrNotFound)
	}
	return r.chars[i].Clone(), nil
}

// AssignID records the persisted id for the character currently named name.
// It returns false when that character is gone or renamed.
func (r *Registry) AssignID(name, id string) bool {
	i := r.byName(name)
	if i < 0 {
		return false
	}
	r.chars[i].ID = id
	return true
}

// Has reports whether a character with this name exists.
func (r *Registry) Has(name string) bool {
	return r.byName(name) >= 0
}

// List returns copies of all characters.
func (r *Registry) List() []Character {
	out := make([]Character, len(r.chars))
	for i, c := range r.chars {
		out[i] = c.Clone()
	}
	return out
}

// Names returns all usable character names.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.chars))
	for _, c := range r.chars {
		if c.Name != "" {
			out = append(out, c.Name)
		}
	}
	return out
}

// Replace swaps all characters, used when loading a story.
func (r *Registry) Replace(chars []Character) {
	r.chars = make([]*Character, 0, len(chars))
	for i := range chars {
		cp := chars[i].Clone()
		r.chars = append(r.chars, &cp)
	}
}

// Dangling returns the refs of a scene that name no registered character.
func (r *Registry) Dangling(s Scene) []string {
	var out []string
	for _, ref := range s.CharacterRefs {
		if !r.Has(ref) {
			out = append(out, ref)
		}
	}
	return out
}

func (r *Registry) byID(id string) int {
	for i, c := range r.chars {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func (r *Registry) byName(name string) int {
	for i, c := range r.chars {
		if strings.EqualFold(c.Name, name) {
			return i
		}
	}
	return -1
}

func validateCharacter(c Character) error {
	if c.Name == "" {
		return &ValidationError{Field: "name", Message: "cannot be empty"}
	}
	if c.Popularity != 0 && (c.Popularity < 1 || c.Popularity > 10) {
		return &ValidationError{Field: "popularity", Message: "must be between 1 and 10"}
	}
	return nil
}
