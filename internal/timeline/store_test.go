package timeline

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"
)

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("s%d", n)
	}
}

func checkDense(t *testing.T, s *Store) {
	t.Helper()
	seen := make(map[int]bool)
	for i, sc := range s.List() {
		if sc.Order != i {
			t.Errorf("scene %s at index %d has order %d", sc.ID, i, sc.Order)
		}
		if seen[sc.Order] {
			t.Errorf("duplicate order %d", sc.Order)
		}
		seen[sc.Order] = true
	}
}

func titles(scenes []Scene) []string {
	out := make([]string, len(scenes))
	for i, sc := range scenes {
		out[i] = sc.Title
	}
	return out
}

func TestStore_AddDefaultsTitle(t *testing.T) {
	s := NewStoreWithIDs(seqIDs())

	first := s.Add(Scene{})
	second := s.Add(Scene{Title: "Storm"})
	third := s.Add(Scene{})

	if first.Title != "Scene 1" {
		t.Errorf("Add() title = %q, want %q", first.Title, "Scene 1")
	}
	if second.Title != "Storm" {
		t.Errorf("Add() title = %q, want %q", second.Title, "Storm")
	}
	if third.Title != "Scene 3" {
		t.Errorf("Add() title = %q, want %q", third.Title, "Scene 3")
	}
	if third.Order != 2 {
		t.Errorf("Add() order = %d, want 2", third.Order)
	}
	if first.ID == second.ID || second.ID == third.ID {
		t.Error("Add() should allocate distinct ids")
	}
}

func TestStore_AddIgnoresCallerID(t *testing.T) {
	s := NewStoreWithIDs(seqIDs())
	a := s.Add(Scene{ID: "forced"})
	if a.ID == "forced" {
		t.Error("Add() must allocate its own id")
	}
}

func TestStore_UpdateAndCopies(t *testing.T) {
	s := NewStoreWithIDs(seqIDs())
	sc := s.Add(Scene{Title: "A", CharacterRefs: []string{"Ann"}})

	desc := "rain on the roof"
	refs := []string{"Ann", "Bob", "Ann"}
	updated, err := s.Update(sc.ID, ScenePatch{Description: &desc, CharacterRefs: &refs})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Description != desc {
		t.Errorf("Update() description = %q, want %q", updated.Description, desc)
	}
	if len(updated.CharacterRefs) != 2 {
		t.Errorf("Update() refs = %v, want deduplicated [Ann Bob]", updated.CharacterRefs)
	}

	// Mutating returned copies must not leak into the store.
	updated.CharacterRefs[0] = "Mallory"
	got, _ := s.Get(sc.ID)
	if got.CharacterRefs[0] != "Ann" {
		t.Errorf("Get() refs = %v, store was mutated through a copy", got.CharacterRefs)
	}

	if _, err := s.Update("missing", ScenePatch{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update() error = %v, want ErrNotFound", err)
	}
}

func TestStore_RemoveCompactsOrder(t *testing.T) {
	s := NewStoreWithIDs(seqIDs())
	a := s.Add(Scene{Title: "A"})
	b := s.Add(Scene{Title: "B"})
	s.Add(Scene{Title: "C"})

	if _, err := s.Remove(b.ID); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	checkDense(t, s)
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
	if _, err := s.Remove(b.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Remove() twice error = %v, want ErrNotFound", err)
	}
	if got, _ := s.Get(a.ID); got.Order != 0 {
		t.Errorf("Get(A).Order = %d, want 0", got.Order)
	}
}

func TestStore_Reorder(t *testing.T) {
	tests := []struct {
		name    string
		source  int
		target  int
		want    []string
		wantErr bool
	}{
		{name: "move first to last", source: 0, target: 3, want: []string{"B", "C", "D", "A"}},
		{name: "move last to first", source: 3, target: 0, want: []string{"D", "A", "B", "C"}},
		{name: "move middle down", source: 1, target: 2, want: []string{"A", "C", "B", "D"}},
		{name: "no-op", source: 2, target: 2, want: []string{"A", "B", "C", "D"}},
		{name: "source out of range", source: 4, target: 0, want: []string{"A", "B", "C", "D"}, wantErr: true},
		{name: "negative target", source: 0, target: -1, want: []string{"A", "B", "C", "D"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStoreWithIDs(seqIDs())
			for _, title := range []string{"A", "B", "C", "D"} {
				s.Add(Scene{Title: title})
			}

			err := s.Reorder(tt.source, tt.target)
			if tt.wantErr {
				var vErr *ValidationError
				if !errors.As(err, &vErr) {
					t.Errorf("Reorder() error = %v, want ValidationError", err)
				}
			} else if err != nil {
				t.Fatalf("Reorder() unexpected error: %v", err)
			}

			got := titles(s.List())
			if fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Errorf("Reorder() order = %v, want %v", got, tt.want)
			}
			checkDense(t, s)
		})
	}
}

func TestStore_SetOrderNumber(t *testing.T) {
	tests := []struct {
		name     string
		position int
		want     []string
		wantErr  bool
	}{
		{name: "to front", position: 1, want: []string{"C", "A", "B"}},
		{name: "to end", position: 3, want: []string{"A", "B", "C"}},
		{name: "to middle", position: 2, want: []string{"A", "C", "B"}},
		{name: "zero rejected", position: 0, want: []string{"A", "B", "C"}, wantErr: true},
		{name: "past end rejected", position: 4, want: []string{"A", "B", "C"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStoreWithIDs(seqIDs())
			s.Add(Scene{Title: "A"})
			s.Add(Scene{Title: "B"})
			c := s.Add(Scene{Title: "C"})

			err := s.SetOrderNumber(c.ID, tt.position)
			if tt.wantErr {
				var vErr *ValidationError
				if !errors.As(err, &vErr) {
					t.Errorf("SetOrderNumber() error = %v, want ValidationError", err)
				}
			} else if err != nil {
				t.Fatalf("SetOrderNumber() unexpected error: %v", err)
			}
			if got := titles(s.List()); fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Errorf("SetOrderNumber() order = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStore_DenseOrderUnderRandomOperations(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	s := NewStoreWithIDs(seqIDs())

	for step := 0; step < 2000; step++ {
		n := s.Len()
		switch op := rng.Intn(5); {
		case op == 0 || n < 2:
			s.Add(Scene{})
		case op == 1:
			sc, _ := s.At(rng.Intn(n))
			if _, err := s.Remove(sc.ID); err != nil {
				t.Fatalf("Remove() error = %v", err)
			}
		case op == 2:
			if err := s.Reorder(rng.Intn(n), rng.Intn(n)); err != nil {
				t.Fatalf("Reorder() error = %v", err)
			}
		case op == 3:
			sc, _ := s.At(rng.Intn(n))
			if err := s.SetOrderNumber(sc.ID, rng.Intn(n)+1); err != nil {
				t.Fatalf("SetOrderNumber() error = %v", err)
			}
		default:
			s.Insert(rng.Intn(n+1), Scene{})
		}
		checkDense(t, s)
		if t.Failed() {
			t.Fatalf("order invariant broken at step %d", step)
		}
	}
}

func TestStore_VisibleKeepsHiddenAddressable(t *testing.T) {
	s := NewStoreWithIDs(seqIDs())
	a := s.Add(Scene{Title: "A"})
	b := s.Add(Scene{Title: "B"})

	hidden := true
	if _, err := s.Update(b.ID, ScenePatch{Hidden: &hidden}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	visible := s.Visible()
	if len(visible) != 1 || visible[0].ID != a.ID {
		t.Errorf("Visible() = %v, want only A", titles(visible))
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}

	desc := "still editable"
	got, err := s.Update(b.ID, ScenePatch{Description: &desc})
	if err != nil {
		t.Fatalf("Update(hidden) error = %v", err)
	}
	if got.Description != desc || got.Order != 1 {
		t.Errorf("hidden scene = %+v, want editable and ordered", got)
	}
}

func TestStore_Replace(t *testing.T) {
	s := NewStoreWithIDs(seqIDs())
	s.Replace([]Scene{
		{ID: "x", Title: "X", Order: 7},
		{Title: "Y", Order: 7},
	})

	list := s.List()
	if len(list) != 2 {
		t.Fatalf("Replace() len = %d, want 2", len(list))
	}
	if list[0].ID != "x" {
		t.Errorf("Replace() kept id = %q, want x", list[0].ID)
	}
	if list[1].ID == "" {
		t.Error("Replace() should allocate ids for scenes without one")
	}
	checkDense(t, s)
}
