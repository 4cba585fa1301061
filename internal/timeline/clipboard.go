package timeline

import (
	"fmt"
	"strings"
)

const copySuffix = "Copy"

// Clipboard holds at most one scene and one character. A new copy replaces
// the previous one. The slot is owned by the engine and passed explicitly.
type Clipboard struct {
	scene     *clipScene
	character *clipCharacter
}

type clipScene struct {
	origin string
	scene  Scene
}

type clipCharacter struct {
	origin    string
	character Character
}

// CopyScene stores a snapshot of sc. origin identifies the story it came from.
func (c *Clipboard) CopyScene(origin string, sc Scene) {
	c.scene = &clipScene{origin: origin, scene: sc.Clone()}
}

// CopyCharacter stores a snapshot of ch.
func (c *Clipboard) CopyCharacter(origin string, ch Character) {
	c.character = &clipCharacter{origin: origin, character: ch.Clone()}
}

// HasScene reports whether a scene is on the clipboard.
func (c *Clipboard) HasScene() bool {
	return c.scene != nil
}

// HasCharacter reports whether a character is on the clipboard.
func (c *Clipboard) HasCharacter() bool {
	return c.character != nil
}

// PasteScene appends a duplicate of the clipboard scene to target. The
// store allocates a fresh id; the title gets a "(Copy)" suffix when pasting
// into the source story or when the plain title is already taken.
func (c *Clipboard) PasteScene(target string, store *Store) (Scene, error) {
	if c.scene == nil {
		return Scene{}, &ValidationError{Field: "clipboard", Message: "no scene has been copied"}
	}
	sc := c.scene.scene.Clone()
	taken := make(map[string]bool, store.Len())
	for _, existing := range store.List() {
		taken[strings.ToLower(existing.Title)] = true
	}
	if strings.TrimSpace(sc.Title) == "" {
		sc.Title = defaultTitle(store.Len() + 1)
	}
	sc.Title = pasteName(sc.Title, c.scene.origin == target, taken)
	return store.Add(sc), nil
}

// PasteCharacter adds a duplicate of the clipboard character to reg with
// its persisted id cleared, so the next save creates a new record.
func (c *Clipboard) PasteCharacter(target string, reg *Registry) (Character, error) {
	if c.character == nil {
		return Character{}, &ValidationError{Field: "clipboard", Message: "no character has been copied"}
	}
	ch := c.character.character.Clone()
	ch.ID = ""
	taken := make(map[string]bool)
	for _, n := range reg.Names() {
		taken[strings.ToLower(n)] = true
	}
	ch.Name = pasteName(ch.Name, c.character.origin == target, taken)
	return reg.Add(ch)
}

// pasteName picks "name", "name (Copy)", "name (Copy 2)", ... skipping taken
// names. The plain name is only used when not duplicating in place.
func pasteName(name string, inPlace bool, taken map[string]bool) string {
	if !inPlace && !taken[strings.ToLower(name)] {
		return name
	}
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s (%s)", name, copySuffix)
		if n > 1 {
			candidate = fmt.Sprintf("%s (%s %d)", name, copySuffix, n)
		}
		if !taken[strings.ToLower(candidate)] {
			return candidate
		}
	}
}
