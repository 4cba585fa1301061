package indexer

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_embedder.go -package=mocks storyline/internal/indexer Embedder

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"
	"sync"

	"storyline/internal/contextutil"
	"storyline/internal/timeline"
	"storyline/internal/vectorstore"
)

// Embedder turns texts into vectors.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Match is one scene returned by a similarity search.
type Match struct {
	SceneID string  `json:"scene_id"`
	Title   string  `json:"title"`
	Score   float32 `json:"score"`
}

// SceneIndex keeps the vector store in step with the scenes of each story.
// Unchanged scenes are not re-embedded. Blank scenes are not indexed.
// It is safe for concurrent use.
type SceneIndex struct {
	embedder    Embedder
	vectorStore vectorstore.VectorStore
	collection  string

	mu     sync.Mutex
	hashes map[string]map[string]string // story id -> scene id -> content hash
}

// NewSceneIndex creates a new scene index.
func NewSceneIndex(embedder Embedder, vectorStore vectorstore.VectorStore, collection string) *SceneIndex {
	return &SceneIndex{
		embedder:    embedder,
		vectorStore: vectorStore,
		collection:  collection,
		hashes:      make(map[string]map[string]string),
	}
}

// IndexScenes brings the index of storyID in line with scenes: changed
// scenes are embedded and upserted, scenes no longer present (or now blank)
// are deleted.
func (x *SceneIndex) IndexScenes(ctx context.Context, storyID string, scenes []timeline.Scene) error {
	logger := contextutil.LoggerFromContext(ctx)

	x.mu.Lock()
	defer x.mu.Unlock()

	known := x.hashes[storyID]
	if known == nil {
		known = make(map[string]string)
		x.hashes[storyID] = known
	}

	var changed []timeline.Scene
	var texts []string
	current := make(map[string]string, len(scenes))
	for _, sc := range scenes {
		text := sceneText(sc)
		if text == "" {
			continue
		}
		hash := sceneHash(sc, text)
		current[sc.ID] = hash
		if known[sc.ID] == hash {
			continue
		}
		changed = append(changed, sc)
		texts = append(texts, text)
	}

	var stale []string
	for id := range known {
		if _, ok := current[id]; !ok {
			stale = append(stale, id)
		}
	}
	if len(stale) > 0 {
		if err := x.vectorStore.Delete(ctx, x.collection, stale); err != nil {
			return fmt.Errorf("failed to delete stale scenes: %w", err)
		}
		for _, id := range stale {
			delete(known, id)
		}
	}

	if len(changed) == 0 {
		logger.DebugContext(ctx, "scene index up to date", "story_id", storyID, "scenes", len(current))
		return nil
	}

	embeddings, err := x.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings: %w", err)
	}
	if len(embeddings) != len(changed) {
		return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(changed), len(embeddings))
	}

	points := make([]vectorstore.Point, len(changed))
	for i, sc := range changed {
		points[i] = vectorstore.Point{
			ID:  sc.ID,
			Vec: embeddings[i],
			Meta: map[string]any{
				"story_id": storyID,
				"scene_id": sc.ID,
				"title":    sc.Title,
				"order":    sc.Order,
				"hidden":   sc.Hidden,
			},
		}
	}

	if err := x.vectorStore.Upsert(ctx, x.collection, points); err != nil {
		return fmt.Errorf("failed to upsert vectors: %w", err)
	}
	for _, sc := range changed {
		known[sc.ID] = current[sc.ID]
	}

	logger.InfoContext(ctx, "indexed scenes", "story_id", storyID, "changed", len(changed), "removed", len(stale))
	return nil
}

// Forget drops every indexed scene of storyID.
func (x *SceneIndex) Forget(ctx context.Context, storyID string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	known := x.hashes[storyID]
	if len(known) == 0 {
		delete(x.hashes, storyID)
		return nil
	}
	ids := make([]string, 0, len(known))
	for id := range known {
		ids = append(ids, id)
	}
	if err := x.vectorStore.Delete(ctx, x.collection, ids); err != nil {
		return fmt.Errorf("failed to delete scenes: %w", err)
	}
	delete(x.hashes, storyID)
	return nil
}

// Related returns up to k scenes of storyID most similar to query, skipping
// excludeID.
func (x *SceneIndex) Related(ctx context.Context, storyID, query string, k int, excludeID string) ([]Match, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &timeline.ValidationError{Field: "q", Message: "query cannot be empty"}
	}
	if k <= 0 {
		return nil, &timeline.ValidationError{Field: "k", Message: "must be greater than 0"}
	}

	vectors, err := x.embedder.EmbedTexts(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embedding count mismatch: expected 1, got %d", len(vectors))
	}

	limit := k
	if excludeID != "" {
		limit++
	}
	results, err := x.vectorStore.Search(ctx, x.collection, vectors[0], limit, map[string]any{"story_id": storyID})
	if err != nil {
		return nil, fmt.Errorf("failed to search scenes: %w", err)
	}

	matches := make([]Match, 0, len(results))
	for _, r := range results {
		id, _ := r.Meta["scene_id"].(string)
		if id == "" {
			id = r.PointID
		}
		if id == excludeID {
			continue
		}
		title, _ := r.Meta["title"].(string)
		matches = append(matches, Match{SceneID: id, Title: title, Score: r.Score})
		if len(matches) == k {
			break
		}
	}
	return matches, nil
}

// sceneText is the text embedded for a scene.
func sceneText(sc timeline.Scene) string {
	desc := strings.TrimSpace(sc.Description)
	if desc == "" {
		return ""
	}
	return strings.TrimSpace(sc.Title) + "\n\n" + desc
}

func sceneHash(sc timeline.Scene, text string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s\x00%d\x00%t", text, sc.Order, sc.Hidden)))
	return fmt.Sprintf("%x", sum)
}
