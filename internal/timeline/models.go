package timeline

import "strings"

// Media holds references to externally hosted media for a scene.
type Media struct {
	Images []string `json:"images"`
	Videos []string `json:"videos"`
	Audio  []string `json:"audio"`
}

// Empty reports whether no media is attached.
func (m Media) Empty() bool {
	return len(m.Images) == 0 && len(m.Videos) == 0 && len(m.Audio) == 0
}

func (m Media) clone() Media {
	return Media{
		Images: cloneStrings(m.Images),
		Videos: cloneStrings(m.Videos),
		Audio:  cloneStrings(m.Audio),
	}
}

// Scene is one ordered unit of narrative content.
type Scene struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	CharacterRefs []string `json:"characters"`
	Media         Media    `json:"media"`
	Order         int      `json:"order"`
	Hidden        bool     `json:"hidden"`
}

// Clone returns a deep copy of the scene.
func (s Scene) Clone() Scene {
	c := s
	c.CharacterRefs = cloneStrings(s.CharacterRefs)
	c.Media = s.Media.clone()
	return c
}

// Blank reports whether the scene has neither text nor media.
func (s Scene) Blank() bool {
	return strings.TrimSpace(s.Description) == "" && s.Media.Empty()
}

// HasRef reports whether name is among the scene's character references.
func (s Scene) HasRef(name string) bool {
	for _, ref := range s.CharacterRefs {
		if ref == name {
			return true
		}
	}
	return false
}

// ScenePatch is a partial update. Nil fields are left unchanged.
// Order is deliberately absent: only the store writes it.
type ScenePatch struct {
	Title         *string
	Description   *string
	CharacterRefs *[]string
	Media         *Media
	Hidden        *bool
}

// Character is a reusable story character. Name is the natural key.
type Character struct {
	ID          string   `json:"id,omitempty"`
	Name        string   `json:"name"`
	Role        string   `json:"role"`
	Description string   `json:"description"`
	ActorName   string   `json:"actor_name"`
	Popularity  int      `json:"popularity"`
	ImageRefs   []string `json:"image_refs"`
}

// Clone returns a deep copy of the character.
func (c Character) Clone() Character {
	cp := c
	cp.ImageRefs = cloneStrings(c.ImageRefs)
	return cp
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// dedupe keeps the first occurrence of each non-empty name, preserving order.
func dedupe(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
