package storage

import (
	"context"
	"errors"
	"testing"

	"storyline/internal/timeline"
)

func TestCharacterRepo_Lifecycle(t *testing.T) {
	db := newTestDB(t)
	stories := NewStoryRepo(db)
	repo := NewCharacterRepo(db)
	ctx := context.Background()

	story := &StoryRecord{Title: "Story"}
	if err := stories.Create(ctx, story); err != nil {
		t.Fatalf("Create story error = %v", err)
	}

	id, err := repo.Create(ctx, story.ID, timeline.Character{
		Name:       "Ann",
		Role:       "captain",
		Popularity: 7,
		ImageRefs:  []string{"img/ann"},
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if id == "" {
		t.Fatal("Create() returned empty id")
	}
	if _, err := repo.Create(ctx, story.ID, timeline.Character{Name: "bob"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	chars, err := repo.ListByStory(ctx, story.ID)
	if err != nil {
		t.Fatalf("ListByStory() error = %v", err)
	}
	if len(chars) != 2 || chars[0].Name != "Ann" || chars[1].Name != "bob" {
		t.Fatalf("ListByStory() = %+v, want Ann then bob", chars)
	}
	if chars[0].ID != id || chars[0].Popularity != 7 || chars[0].ImageRefs[0] != "img/ann" {
		t.Errorf("ListByStory()[0] = %+v", chars[0])
	}
	if chars[1].ImageRefs == nil {
		t.Error("ListByStory()[1] ImageRefs = nil, want empty slice")
	}

	updated := chars[0]
	updated.Name = "Anna"
	if err := repo.Update(ctx, story.ID, updated); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	chars, _ = repo.ListByStory(ctx, story.ID)
	if chars[0].Name != "Anna" {
		t.Errorf("after Update() name = %q, want Anna", chars[0].Name)
	}

	if err := repo.Delete(ctx, story.ID, id); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := repo.Delete(ctx, story.ID, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestCharacterRepo_UpdateRequiresID(t *testing.T) {
	repo := NewCharacterRepo(newTestDB(t))

	err := repo.Update(context.Background(), "story", timeline.Character{Name: "Ann"})
	var validationErr *timeline.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("Update() error = %v, want *timeline.ValidationError", err)
	}
	if validationErr.Field != "id" {
		t.Errorf("Field = %q, want id", validationErr.Field)
	}

	err = repo.Update(context.Background(), "story", timeline.Character{ID: "nope", Name: "Ann"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Update(unknown) error = %v, want ErrNotFound", err)
	}
}
