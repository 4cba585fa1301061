package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_character_store.go -package=mocks storyline/internal/storage CharacterStore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"storyline/internal/timeline"
)

// CharacterStore is the Character Persistence API.
type CharacterStore interface {
	// Create persists a new character and returns the assigned id.
	Create(ctx context.Context, storyID string, c timeline.Character) (string, error)
	// Update overwrites a persisted character. c.ID must be set.
	Update(ctx context.Context, storyID string, c timeline.Character) error
	// ListByStory returns the persisted characters of a story by name.
	ListByStory(ctx context.Context, storyID string) ([]timeline.Character, error)
	// Delete removes a persisted character.
	Delete(ctx context.Context, storyID, id string) error
}

// CharacterRepo provides methods for character operations.
// It implements the CharacterStore interface.
type CharacterRepo struct {
	db *sql.DB
}

// NewCharacterRepo creates a new CharacterRepo.
func NewCharacterRepo(db *sql.DB) *CharacterRepo {
	return &CharacterRepo{db: db}
}

// Create persists a new character and returns the assigned id.
func (r *CharacterRepo) Create(ctx context.Context, storyID string, c timeline.Character) (string, error) {
	images, err := marshalRefs(c.ImageRefs)
	if err != nil {
		return "", err
	}

	id := uuid.New().String()
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO characters (id, story_id, name, role, description, actor_name, popularity, image_refs)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, storyID, c.Name, c.Role, c.Description, c.ActorName, c.Popularity, images,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert character: %w", err)
	}

	return id, nil
}

// Update overwrites a persisted character.
func (r *CharacterRepo) Update(ctx context.Context, storyID string, c timeline.Character) error {
	if c.ID == "" {
		return &timeline.ValidationError{Field: "id", Message: "character has not been persisted"}
	}
	images, err := marshalRefs(c.ImageRefs)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE characters SET name = ?, role = ?, description = ?, actor_name = ?, popularity = ?,
		 image_refs = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND story_id = ?`,
		c.Name, c.Role, c.Description, c.ActorName, c.Popularity, images, c.ID, storyID,
	)
	if err != nil {
		return fmt.Errorf("failed to update character: %w", err)
	}

	return requireRow(res)
}

// ListByStory returns the persisted characters of a story by name.
func (r *CharacterRepo) ListByStory(ctx context.Context, storyID string) ([]timeline.Character, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, role, description, actor_name, popularity, image_refs
		 FROM characters WHERE story_id = ? ORDER BY name COLLATE NOCASE`,
		storyID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query characters: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var chars []timeline.Character
	for rows.Next() {
		var c timeline.Character
		var images string
		if err := rows.Scan(&c.ID, &c.Name, &c.Role, &c.Description, &c.ActorName, &c.Popularity, &images); err != nil {
			return nil, fmt.Errorf("failed to scan character: %w", err)
		}
		if err := json.Unmarshal([]byte(images), &c.ImageRefs); err != nil {
			return nil, fmt.Errorf("failed to decode image refs of character %s: %w", c.ID, err)
		}
		chars = append(chars, c)
	}

	return chars, rows.Err()
}

// Delete removes a persisted character.
func (r *CharacterRepo) Delete(ctx context.Context, storyID, id string) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM characters WHERE id = ? AND story_id = ?",
		id, storyID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete character: %w", err)
	}

	return requireRow(res)
}

func marshalRefs(refs []string) (string, error) {
	if refs == nil {
		refs = []string{}
	}
	data, err := json.Marshal(refs)
	if err != nil {
		return "", fmt.Errorf("failed to marshal image refs: %w", err)
	}
	return string(data), nil
}
