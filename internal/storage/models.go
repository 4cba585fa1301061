package storage

import (
	"time"

	"storyline/internal/timeline"
)

// StoryRecord represents a story row. Scenes are kept in one JSON text
// column, in narrative order.
type StoryRecord struct {
	ID          string
	Title       string
	Genre       string
	Description string
	Scenes      []timeline.Scene
	SubmittedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// BlankScenes returns the ids of scenes with no description and no media.
// Loading keeps them; callers surface them as warnings.
func (r *StoryRecord) BlankScenes() []string {
	var ids []string
	for _, sc := range r.Scenes {
		if sc.Blank() {
			ids = append(ids, sc.ID)
		}
	}
	return ids
}
