package service_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"storyline/internal/events"
	"storyline/internal/indexer"
	"storyline/internal/media"
	"storyline/internal/service"
	"storyline/internal/service/mocks"
	storagemocks "storyline/internal/storage/mocks"
	"storyline/internal/timeline"

	"go.uber.org/mock/gomock"
)

func TestWorkspace_SaveCharacter(t *testing.T) {
	h := newHarness(t)
	ws := h.open()
	if _, err := ws.AddCharacter(timeline.Character{Name: "Ann", Role: "lead", Popularity: 7}); err != nil {
		t.Fatalf("AddCharacter() error = %v", err)
	}

	saved, err := ws.SaveCharacter(h.ctx, "Ann")
	if err != nil {
		t.Fatalf("SaveCharacter() error = %v", err)
	}
	if saved.ID == "" {
		t.Fatal("SaveCharacter() did not assign an id")
	}

	if _, err := ws.UpdateCharacter("Ann", timeline.Character{Name: "Ann", Role: "captain"}); err != nil {
		t.Fatalf("UpdateCharacter() error = %v", err)
	}
	again, err := ws.SaveCharacter(h.ctx, "Ann")
	if err != nil {
		t.Fatalf("second SaveCharacter() error = %v", err)
	}
	if again.ID != saved.ID {
		t.Errorf("second SaveCharacter() id = %q, want %q", again.ID, saved.ID)
	}

	persisted, err := h.characters.ListByStory(h.ctx, ws.ID())
	if err != nil {
		t.Fatalf("ListByStory() error = %v", err)
	}
	if len(persisted) != 1 || persisted[0].Role != "captain" {
		t.Errorf("ListByStory() = %+v, want one updated record", persisted)
	}
	if !h.sawEvent(events.TypeCharacterSaved) {
		t.Error("no character.saved event published")
	}

	if _, err := ws.RemoveCharacter(h.ctx, "Ann"); err != nil {
		t.Fatalf("RemoveCharacter() error = %v", err)
	}
	persisted, _ = h.characters.ListByStory(h.ctx, ws.ID())
	if len(persisted) != 0 {
		t.Errorf("ListByStory() after remove = %+v, want none", persisted)
	}
}

func TestWorkspace_SaveCharacterRenamedMeanwhile(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := storagemocks.NewMockCharacterStore(ctrl)
	h := newHarness(t, func(o *service.Options) {
		o.Characters = store
	})

	store.EXPECT().ListByStory(gomock.Any(), gomock.Any()).Return(nil, nil)
	ws := h.open()
	_, _ = ws.AddCharacter(timeline.Character{Name: "Ann"})

	store.EXPECT().Create(gomock.Any(), ws.ID(), gomock.Any()).
		DoAndReturn(func(context.Context, string, timeline.Character) (string, error) {
			if _, err := ws.UpdateCharacter("Ann", timeline.Character{Name: "Anne"}); err != nil {
				t.Errorf("UpdateCharacter() error = %v", err)
			}
			return "c-1", nil
		})

	_, err := ws.SaveCharacter(h.ctx, "Ann")
	if !errors.Is(err, service.ErrDiscarded) {
		t.Fatalf("SaveCharacter() error = %v, want ErrDiscarded", err)
	}
	chars, _ := ws.Characters()
	if len(chars) != 1 || chars[0].Name != "Anne" || chars[0].ID != "" {
		t.Errorf("Characters() = %+v, want Anne without an id", chars)
	}
}

func TestWorkspace_RemoveCharacterKeepsRefs(t *testing.T) {
	h := newHarness(t)
	ws := h.open()
	_, _ = ws.AddCharacter(timeline.Character{Name: "Ann"})
	_, _ = ws.AddCharacter(timeline.Character{Name: "Bob"})
	sc := mustAdd(t, ws, timeline.Scene{Description: "Ann and Bob", CharacterRefs: []string{"Ann", "Bob"}})

	if _, err := ws.RemoveCharacter(h.ctx, "Bob"); err != nil {
		t.Fatalf("RemoveCharacter() error = %v", err)
	}
	got, _ := ws.Scene(sc.ID)
	if fmt.Sprint(got.CharacterRefs) != "[Ann Bob]" {
		t.Errorf("refs = %v, want unchanged", got.CharacterRefs)
	}
	dangling, _ := ws.DanglingRefs()
	if fmt.Sprint(dangling[sc.ID]) != "[Bob]" {
		t.Errorf("DanglingRefs() = %v, want Bob for %s", dangling, sc.ID)
	}
	if _, err := ws.RemoveCharacter(h.ctx, "Bob"); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("second RemoveCharacter() error = %v, want ErrNotFound", err)
	}
}

func TestEngine_ClipboardAcrossStories(t *testing.T) {
	h := newHarness(t)
	first := h.open()
	second := h.open()

	sc := mustAdd(t, first, timeline.Scene{Title: "Harbour", Description: "Fog.", CharacterRefs: []string{"Ann"}})
	_, _ = first.AddCharacter(timeline.Character{Name: "Ann", Role: "lead"})

	if _, err := second.PasteScene(); err == nil {
		t.Error("PasteScene() on empty clipboard expected error, got nil")
	}
	if err := first.CopyScene(sc.ID); err != nil {
		t.Fatalf("CopyScene() error = %v", err)
	}
	if state, err := second.Clipboard(); err != nil || !state.Scene || state.Character {
		t.Errorf("Clipboard() after scene copy = %+v, %v", state, err)
	}
	if err := first.CopyCharacter("Ann"); err != nil {
		t.Fatalf("CopyCharacter() error = %v", err)
	}
	if state, err := second.Clipboard(); err != nil || !state.Scene || !state.Character {
		t.Errorf("Clipboard() after character copy = %+v, %v", state, err)
	}

	pasted, err := second.PasteScene()
	if err != nil {
		t.Fatalf("PasteScene() error = %v", err)
	}
	if pasted.ID == sc.ID || pasted.Title != "Harbour" {
		t.Errorf("PasteScene() into other story = %+v", pasted)
	}
	dup, err := first.PasteScene()
	if err != nil {
		t.Fatalf("PasteScene() error = %v", err)
	}
	if dup.Title != "Harbour (Copy)" || dup.Order != 1 {
		t.Errorf("PasteScene() in place = %+v", dup)
	}

	c, err := second.PasteCharacter()
	if err != nil {
		t.Fatalf("PasteCharacter() error = %v", err)
	}
	if c.Name != "Ann" || c.ID != "" {
		t.Errorf("PasteCharacter() = %+v", c)
	}
}

func TestWorkspace_AttachMedia(t *testing.T) {
	h := newHarness(t)
	ws := h.open()
	sc := mustAdd(t, ws, timeline.Scene{})

	h.uploader.EXPECT().Upload(gomock.Any(), media.KindImage, "pier.png", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ media.Kind, _ string, r io.Reader) ([]string, error) {
			body, _ := io.ReadAll(r)
			if string(body) != "png-bytes" {
				t.Errorf("Upload() body = %q", body)
			}
			return []string{"img-1"}, nil
		})

	got, err := ws.AttachMedia(h.ctx, sc.ID, media.KindImage, "pier.png", strings.NewReader("png-bytes"))
	if err != nil {
		t.Fatalf("AttachMedia() error = %v", err)
	}
	if fmt.Sprint(got.Media.Images) != "[img-1]" {
		t.Errorf("Media.Images = %v, want [img-1]", got.Media.Images)
	}
	if got.Blank() {
		t.Error("scene with media should not be blank")
	}
	if !h.sawEvent(events.TypeMediaAttached) {
		t.Error("no media.attached event published")
	}
}

func TestWorkspace_AttachMediaToRemovedScene(t *testing.T) {
	h := newHarness(t)
	ws := h.open()
	sc := mustAdd(t, ws, timeline.Scene{})

	h.uploader.EXPECT().Upload(gomock.Any(), media.KindAudio, "wind.ogg", gomock.Any()).
		DoAndReturn(func(context.Context, media.Kind, string, io.Reader) ([]string, error) {
			if _, err := ws.RemoveScene(sc.ID); err != nil {
				t.Errorf("RemoveScene() error = %v", err)
			}
			return []string{"aud-1"}, nil
		})

	_, err := ws.AttachMedia(h.ctx, sc.ID, media.KindAudio, "wind.ogg", strings.NewReader("ogg"))
	if !errors.Is(err, service.ErrDiscarded) {
		t.Errorf("AttachMedia() error = %v, want ErrDiscarded", err)
	}
	if _, err := ws.AttachMedia(h.ctx, "missing", media.KindAudio, "wind.ogg", strings.NewReader("ogg")); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("AttachMedia(missing) error = %v, want ErrNotFound", err)
	}
}

func TestWorkspace_RelatedScenes(t *testing.T) {
	ctrl := gomock.NewController(t)
	index := mocks.NewMockSceneIndex(ctrl)
	h := newHarness(t, func(o *service.Options) {
		o.Index = index
	})
	ws := h.open()
	a := mustAdd(t, ws, timeline.Scene{Description: "Ann waits on the pier."})
	_, _ = ws.Select(a.ID)

	index.EXPECT().Related(gomock.Any(), ws.ID(), "Ann waits on the pier.", 5, a.ID).
		Return([]indexer.Match{{SceneID: "other", Title: "Storm", Score: 0.9}}, nil)

	matches, err := ws.RelatedScenes(h.ctx, "", 0)
	if err != nil {
		t.Fatalf("RelatedScenes() error = %v", err)
	}
	if len(matches) != 1 || matches[0].SceneID != "other" {
		t.Errorf("RelatedScenes() = %+v", matches)
	}
}

func TestWorkspace_OptionalCollaboratorsDisabled(t *testing.T) {
	h := newHarness(t, func(o *service.Options) {
		o.Media = nil
	})
	ws := h.open()
	sc := mustAdd(t, ws, timeline.Scene{})

	if _, err := ws.RelatedScenes(h.ctx, "fog", 3); !errors.Is(err, service.ErrUnavailable) {
		t.Errorf("RelatedScenes() error = %v, want ErrUnavailable", err)
	}
	if _, err := ws.AttachMedia(h.ctx, sc.ID, media.KindImage, "a.png", strings.NewReader("x")); !errors.Is(err, service.ErrUnavailable) {
		t.Errorf("AttachMedia() error = %v, want ErrUnavailable", err)
	}
}

func TestEngine_OpenUnknownStory(t *testing.T) {
	h := newHarness(t)
	if _, _, err := h.engine.Open(h.ctx, "missing"); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("Open() error = %v, want ErrNotFound", err)
	}

	rec, err := h.engine.CreateStory(h.ctx, "  Night Ferry ", "drama", "")
	if err != nil {
		t.Fatalf("CreateStory() error = %v", err)
	}
	a, _ := h.engine.Workspace(h.ctx, rec.ID)
	b, _ := h.engine.Workspace(h.ctx, rec.ID)
	if a != b {
		t.Error("Workspace() returned two workspaces for one story")
	}

	snap, _ := a.Snapshot()
	if snap.Title != "Night Ferry" || snap.Genre != "drama" {
		t.Errorf("Snapshot() = %+v", snap)
	}
	if _, err := h.engine.CreateStory(h.ctx, " ", "", ""); err == nil {
		t.Error("CreateStory() with blank title expected error, got nil")
	}

	stories, _ := h.engine.ListStories(h.ctx)
	if len(stories) != 1 {
		t.Errorf("ListStories() = %d, want 1", len(stories))
	}
}
