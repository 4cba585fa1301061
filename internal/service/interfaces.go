package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_scene_generator.go -package=mocks storyline/internal/service SceneGenerator
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_feedback_sender.go -package=mocks storyline/internal/service FeedbackSender
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_media_uploader.go -package=mocks storyline/internal/service MediaUploader
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_scene_index.go -package=mocks storyline/internal/service SceneIndex
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_publisher.go -package=mocks storyline/internal/service Publisher

import (
	"context"
	"io"

	"storyline/internal/indexer"
	"storyline/internal/media"
	"storyline/internal/suggest"
	"storyline/internal/timeline"
)

// SceneGenerator is the Suggestion Service as seen by a workspace.
// This interface is defined from the service layer's perspective (consumer-first).
type SceneGenerator interface {
	suggest.Suggester
	// GenerateScene returns a complete scene for req.Instruction.
	GenerateScene(ctx context.Context, req suggest.Request) (suggest.GeneratedScene, error)
}

// FeedbackSender reports accepted and rejected suggestions.
type FeedbackSender interface {
	Send(ctx context.Context, text string, rating float64) error
}

// MediaUploader stores binary media and returns references to it.
type MediaUploader interface {
	Upload(ctx context.Context, kind media.Kind, filename string, r io.Reader) ([]string, error)
}

// SceneIndex finds scenes similar to a query.
type SceneIndex interface {
	IndexScenes(ctx context.Context, storyID string, scenes []timeline.Scene) error
	Forget(ctx context.Context, storyID string) error
	Related(ctx context.Context, storyID, query string, k int, excludeID string) ([]indexer.Match, error)
}

// Publisher pushes events to the subscribers of a story.
type Publisher interface {
	Publish(storyID, eventType string, data any)
}
