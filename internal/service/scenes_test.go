package service_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"storyline/internal/service"
	"storyline/internal/timeline"
)

func TestWorkspace_SetOrderNumber(t *testing.T) {
	h := newHarness(t)
	ws := h.open()
	var ids []string
	for i := 0; i < 4; i++ {
		ids = append(ids, mustAdd(t, ws, timeline.Scene{}).ID)
	}

	tests := []struct {
		name     string
		id       string
		position int
		wantErr  bool
		wantIDs  []string
	}{
		{name: "move last to first", id: ids[3], position: 1, wantIDs: []string{ids[3], ids[0], ids[1], ids[2]}},
		{name: "position zero rejected", id: ids[0], position: 0, wantErr: true},
		{name: "past the end rejected", id: ids[0], position: 5, wantErr: true},
		{name: "unknown scene", id: "missing", position: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before, _ := ws.Scenes()
			got, err := ws.SetOrderNumber(tt.id, tt.position)
			if tt.wantErr {
				if err == nil {
					t.Fatal("SetOrderNumber() expected error, got nil")
				}
				after, _ := ws.Scenes()
				if fmt.Sprint(sceneIDs(after)) != fmt.Sprint(sceneIDs(before)) {
					t.Errorf("rejected SetOrderNumber() changed the order")
				}
				return
			}
			if err != nil {
				t.Fatalf("SetOrderNumber() error = %v", err)
			}
			if fmt.Sprint(sceneIDs(got)) != fmt.Sprint(tt.wantIDs) {
				t.Errorf("SetOrderNumber() order = %v, want %v", sceneIDs(got), tt.wantIDs)
			}
		})
	}
}

func sceneIDs(scenes []timeline.Scene) []string {
	out := make([]string, len(scenes))
	for i, sc := range scenes {
		out[i] = sc.ID
	}
	return out
}

func TestWorkspace_Pages(t *testing.T) {
	h := newHarness(t)
	ws := h.open()
	for i := 0; i < 12; i++ {
		sc := mustAdd(t, ws, timeline.Scene{Description: fmt.Sprintf("beat %d", i)})
		if i%3 == 0 {
			if _, err := ws.SetHidden(sc.ID, true); err != nil {
				t.Fatalf("SetHidden() error = %v", err)
			}
		}
	}

	page, err := ws.Page(service.ViewDetail, 2)
	if err != nil {
		t.Fatalf("Page() error = %v", err)
	}
	if len(page.Items) != 2 || page.TotalPages != 3 {
		t.Errorf("detail page 2 = %d items of %d pages, want 2 of 3", len(page.Items), page.TotalPages)
	}

	if err := ws.SetFilter(service.ViewDetail, timeline.Filter{Visibility: timeline.VisibilityVisible}); err != nil {
		t.Fatalf("SetFilter() error = %v", err)
	}
	page, _ = ws.Page(service.ViewDetail, service.CurrentPage)
	if page.PageIndex != 0 || page.TotalItems != 8 {
		t.Errorf("after filter: page %d with %d items, want page 0 with 8", page.PageIndex, page.TotalItems)
	}

	overview, _ := ws.Page(service.ViewOverview, service.CurrentPage)
	if overview.TotalItems != 12 {
		t.Errorf("overview items = %d, want 12 (filters are per view)", overview.TotalItems)
	}

	if err := ws.SetPageSize(service.ViewOverview, 0); err == nil {
		t.Error("SetPageSize(0) expected error, got nil")
	}
	if _, err := ws.Page(service.ViewName("sidebar"), 0); err == nil {
		t.Error("Page() on unknown view expected error, got nil")
	}

	visible, _ := ws.VisibleScenes()
	if len(visible) != 8 {
		t.Errorf("VisibleScenes() = %d, want 8", len(visible))
	}
}

func TestWorkspace_Jump(t *testing.T) {
	h := newHarness(t, func(o *service.Options) {
		o.DetailPageSize = 2
	})
	ws := h.open()
	var ids []string
	for i := 0; i < 5; i++ {
		ids = append(ids, mustAdd(t, ws, timeline.Scene{}).ID)
	}

	res, err := ws.Jump(4)
	if err != nil {
		t.Fatalf("Jump() error = %v", err)
	}
	if res.Scene.ID != ids[3] || res.DetailPage != 1 {
		t.Errorf("Jump(4) = %s on page %d, want %s on page 1", res.Scene.ID, res.DetailPage, ids[3])
	}
	active, _ := ws.Active()
	if active.SceneID != ids[3] || active.State != "pinned" {
		t.Errorf("Active() = %+v, want %s pinned", active, ids[3])
	}

	for _, pos := range []int{0, 6} {
		var vErr *service.ValidationError
		if _, err := ws.Jump(pos); !errors.As(err, &vErr) {
			t.Errorf("Jump(%d) error = %v, want ValidationError", pos, err)
		}
		after, _ := ws.Active()
		if after != active {
			t.Errorf("Active() after Jump(%d) = %+v, want unchanged %+v", pos, after, active)
		}
		page, err := ws.Page(service.ViewDetail, service.CurrentPage)
		if err != nil {
			t.Fatalf("Page() error = %v", err)
		}
		if page.PageIndex != 1 {
			t.Errorf("detail page after Jump(%d) = %d, want unchanged 1", pos, page.PageIndex)
		}
	}
}

func TestWorkspace_PinReleasedAfterQuietScroll(t *testing.T) {
	h := newHarness(t)
	ws := h.open()
	a := mustAdd(t, ws, timeline.Scene{})
	b := mustAdd(t, ws, timeline.Scene{})

	if _, err := ws.Select(a.ID); err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	h.clock.Advance(100 * time.Millisecond)
	active, err := ws.Scroll([]timeline.BlockPosition{{SceneID: a.ID, Top: -2000}, {SceneID: b.ID, Top: 110}})
	if err != nil {
		t.Fatalf("Scroll() error = %v", err)
	}
	if active.SceneID != a.ID {
		t.Errorf("Scroll() while pinned = %q, want %q", active.SceneID, a.ID)
	}

	h.clock.Advance(2 * time.Second)
	h.sched.fire()

	active, _ = ws.Active()
	if active.SceneID != b.ID || active.State != "unpinned" {
		t.Errorf("Active() after settle = %+v, want %s unpinned", active, b.ID)
	}
}

func TestWorkspace_RemoveActiveScene(t *testing.T) {
	h := newHarness(t)
	ws := h.open()
	a := mustAdd(t, ws, timeline.Scene{})
	b := mustAdd(t, ws, timeline.Scene{})
	_, _ = ws.Scroll([]timeline.BlockPosition{{SceneID: a.ID, Top: 120}, {SceneID: b.ID, Top: 600}})
	_, _ = ws.Select(a.ID)

	if _, err := ws.RemoveScene(a.ID); err != nil {
		t.Fatalf("RemoveScene() error = %v", err)
	}
	active, _ := ws.Active()
	if active.SceneID != b.ID {
		t.Errorf("Active() after removal = %q, want %q", active.SceneID, b.ID)
	}
	scenes, _ := ws.Scenes()
	if len(scenes) != 1 || scenes[0].Order != 0 {
		t.Errorf("Scenes() = %+v, want one compacted scene", scenes)
	}
	if _, err := ws.Select(a.ID); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("Select(removed) error = %v, want ErrNotFound", err)
	}
}

func TestWorkspace_ImportOutline(t *testing.T) {
	h := newHarness(t)
	ws := h.open()
	mustAdd(t, ws, timeline.Scene{Title: "Prologue"})

	md := []byte("# Harbour Tales\n\n## Arrival\n\nAnn steps off the ferry.\n\nCharacters: Ann, Bob\n\n## Storm\n\nThe lights go out.\n")
	added, err := ws.ImportOutline(md, "harbour.md")
	if err != nil {
		t.Fatalf("ImportOutline() error = %v", err)
	}
	if len(added) != 2 {
		t.Fatalf("ImportOutline() = %d scenes, want 2", len(added))
	}
	if added[0].Title != "Arrival" || added[0].Order != 1 || fmt.Sprint(added[0].CharacterRefs) != "[Ann Bob]" {
		t.Errorf("first imported scene = %+v", added[0])
	}

	if _, err := ws.ImportOutline(nil, "empty.md"); err == nil {
		t.Error("ImportOutline(empty) expected error, got nil")
	}
}
