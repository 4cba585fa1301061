package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_story_store.go -package=mocks storyline/internal/storage StoryStore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"storyline/internal/timeline"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = fmt.Errorf("record %w", timeline.ErrNotFound)
)

// StoryStore defines the interface for story storage operations.
type StoryStore interface {
	// Create inserts a new story. An empty ID is assigned a UUID.
	Create(ctx context.Context, story *StoryRecord) error
	// Get loads a story with its scenes.
	// Returns nil and ErrNotFound if not found.
	Get(ctx context.Context, id string) (*StoryRecord, error)
	// List returns all stories without their scenes, newest first.
	List(ctx context.Context) ([]StoryRecord, error)
	// SaveScenes replaces the persisted scene collection of a story.
	SaveScenes(ctx context.Context, id string, scenes []timeline.Scene) error
	// MarkSubmitted records the submission time of a story.
	MarkSubmitted(ctx context.Context, id string, at time.Time) error
}

// StoryRepo provides methods for story operations.
// It implements the StoryStore interface.
type StoryRepo struct {
	db *sql.DB
}

// NewStoryRepo creates a new StoryRepo.
func NewStoryRepo(db *sql.DB) *StoryRepo {
	return &StoryRepo{db: db}
}

// Create inserts a new story.
func (r *StoryRepo) Create(ctx context.Context, story *StoryRecord) error {
	if story.ID == "" {
		story.ID = uuid.New().String()
	}
	if story.Scenes == nil {
		story.Scenes = []timeline.Scene{}
	}

	scenes, err := json.Marshal(story.Scenes)
	if err != nil {
		return fmt.Errorf("failed to marshal scenes: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		"INSERT INTO stories (id, title, genre, description, scenes) VALUES (?, ?, ?, ?, ?)",
		story.ID, story.Title, story.Genre, story.Description, string(scenes),
	)
	if err != nil {
		return fmt.Errorf("failed to insert story: %w", err)
	}

	return nil
}

// Get loads a story with its scenes.
func (r *StoryRepo) Get(ctx context.Context, id string) (*StoryRecord, error) {
	var story StoryRecord
	var scenes string
	var submitted sql.NullString
	var createdAt, updatedAt string

	err := r.db.QueryRowContext(ctx,
		"SELECT id, title, genre, description, scenes, submitted_at, created_at, updated_at FROM stories WHERE id = ?",
		id,
	).Scan(&story.ID, &story.Title, &story.Genre, &story.Description, &scenes, &submitted, &createdAt, &updatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query story: %w", err)
	}

	if err := json.Unmarshal([]byte(scenes), &story.Scenes); err != nil {
		return nil, fmt.Errorf("failed to decode scenes of story %s: %w", id, err)
	}
	if story.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return nil, err
	}
	if story.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return nil, err
	}
	if submitted.Valid {
		at, err := parseTimestamp(submitted.String)
		if err != nil {
			return nil, err
		}
		story.SubmittedAt = &at
	}

	return &story, nil
}

// List returns all stories without their scenes, newest first.
func (r *StoryRepo) List(ctx context.Context) ([]StoryRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, title, genre, description, created_at, updated_at FROM stories ORDER BY created_at DESC, id",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query stories: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var stories []StoryRecord
	for rows.Next() {
		var story StoryRecord
		var createdAt, updatedAt string
		if err := rows.Scan(&story.ID, &story.Title, &story.Genre, &story.Description, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan story: %w", err)
		}
		if story.CreatedAt, err = parseTimestamp(createdAt); err != nil {
			return nil, err
		}
		if story.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
			return nil, err
		}
		stories = append(stories, story)
	}

	return stories, rows.Err()
}

// SaveScenes replaces the persisted scene collection of a story.
func (r *StoryRepo) SaveScenes(ctx context.Context, id string, scenes []timeline.Scene) error {
	if scenes == nil {
		scenes = []timeline.Scene{}
	}
	data, err := json.Marshal(scenes)
	if err != nil {
		return fmt.Errorf("failed to marshal scenes: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		"UPDATE stories SET scenes = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		string(data), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update scenes: %w", err)
	}

	return requireRow(res)
}

// MarkSubmitted records the submission time of a story.
func (r *StoryRepo) MarkSubmitted(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE stories SET submitted_at = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		at.UTC().Format(time.RFC3339), id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark story submitted: %w", err)
	}

	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// parseTimestamp accepts both SQLite's CURRENT_TIMESTAMP layout and RFC 3339.
func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02 15:04:05", s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", s, err)
	}
	return t, nil
}
