package suggest

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_suggester.go -package=mocks storyline/internal/suggest Suggester

import "context"

// Mode selects what the Suggestion Service should produce.
type Mode string

const (
	// ModeContinue asks for an inline continuation of the active scene.
	ModeContinue Mode = "continue"
	// ModeScene asks for a complete new scene.
	ModeScene Mode = "scene"
)

// CharacterBrief is the character context sent to the Suggestion Service.
type CharacterBrief struct {
	Name        string `json:"name"`
	Role        string `json:"role,omitempty"`
	Description string `json:"description,omitempty"`
}

// Request is the context for one suggestion or generation call.
// It is a copy: nothing in it refers back into engine state.
// Title and Description describe the story; the ActiveScene fields describe
// the scene being written.
type Request struct {
	Title               string           `json:"title"`
	Description         string           `json:"description"`
	ActiveSceneTitle    string           `json:"active_scene_title,omitempty"`
	ActiveSceneText     string           `json:"active_scene_text"`
	PriorSceneSummaries []string         `json:"prior_scene_summaries"`
	Characters          []CharacterBrief `json:"characters"`
	Genre               string           `json:"genre"`
	Mode                Mode             `json:"mode"`
	Instruction         string           `json:"instruction,omitempty"`
}

// GeneratedScene is a parsed structured scene generation response.
type GeneratedScene struct {
	Content       string           `json:"content"`
	Title         string           `json:"title,omitempty"`
	NewCharacters []CharacterBrief `json:"newCharacters,omitempty"`
}

// Suggester produces inline continuations.
type Suggester interface {
	// Continue returns text that continues req.ActiveSceneText.
	Continue(ctx context.Context, req Request) (string, error)
}

// Suggestion is a continuation offered for one scene.
type Suggestion struct {
	SceneID    string `json:"scene_id"`
	Text       string `json:"text"`
	Generation uint64 `json:"generation"`
	RequestID  uint64 `json:"request_id"`
}

// EventType names pipeline notifications.
type EventType string

const (
	EventReady   EventType = "suggestion.ready"
	EventCleared EventType = "suggestion.cleared"
)

// Event is published whenever the offered suggestion for a scene changes.
type Event struct {
	Type       EventType `json:"type"`
	SceneID    string    `json:"scene_id"`
	Text       string    `json:"text,omitempty"`
	Generation uint64    `json:"generation"`
}
