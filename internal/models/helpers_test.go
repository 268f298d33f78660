package models

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestNewID(t *testing.T) {
	seen := map[string]struct{}{}
	for range 100 {
		id := NewID(KindBoard)
		if !strings.HasPrefix(id, "board-") {
			t.Fatalf("NewID = %q, want board- prefix", id)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("NewID returned %q twice", id)
		}
		seen[id] = struct{}{}
	}
	if id := NewID(KindFolder); !strings.HasPrefix(id, "folder-") {
		t.Errorf("NewID = %q, want folder- prefix", id)
	}
}

func TestNewIDFallback(t *testing.T) {
	orig := newRandom
	t.Cleanup(func() { newRandom = orig })
	newRandom = func() (uuid.UUID, error) {
		return uuid.Nil, errors.New("no entropy")
	}
	a := NewID(KindFolder)
	b := NewID(KindFolder)
	if !strings.HasPrefix(a, "folder-") {
		t.Errorf("NewID = %q, want folder- prefix", a)
	}
	if a == b {
		t.Errorf("fallback ids collided: %q", a)
	}
}

func TestNextAvailableName(t *testing.T) {
	tests := []struct {
		name     string
		existing []string
		base     string
		want     string
	}{
		{"empty", nil, "Untitled", "Untitled"},
		{"free", []string{"Other"}, "Untitled", "Untitled"},
		{"taken", []string{"Untitled"}, "Untitled", "Untitled 2"},
		{"two taken", []string{"Untitled", "Untitled 2"}, "Untitled", "Untitled 3"},
		{"gap", []string{"Untitled", "Untitled 3"}, "Untitled", "Untitled 2"},
		{"case and space", []string{"  untitled "}, "Untitled", "Untitled 2"},
		{"suffix case", []string{"Folder", "FOLDER 2"}, "Folder", "Folder 3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := map[string]*Item{}
			for i, n := range tt.existing {
				id := string(rune('a' + i))
				items[id] = NewBoard(id, n)
			}
			if got := NextAvailableName(items, tt.base); got != tt.want {
				t.Errorf("NextAvailableName = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveParent(t *testing.T) {
	items := map[string]*Item{
		RootID: NewFolder(RootID, DefaultRootName, "f", "b"),
		"f":    NewFolder("f", "F"),
		"b":    NewBoard("b", "B"),
	}
	for requested, want := range map[string]string{"f": "f", "b": RootID, "ghost": RootID, "": RootID, RootID: RootID} {
		if got := ResolveParent(items, RootID, requested); got != want {
			t.Errorf("ResolveParent(%q) = %q, want %q", requested, got, want)
		}
	}
}

func TestNormalizeChildren(t *testing.T) {
	items := map[string]*Item{
		RootID: NewFolder(RootID, DefaultRootName, "x"),
		"x":    NewBoard("x", "X"),
		"y":    NewBoard("y", "Y"),
	}
	got := NormalizeChildren([]string{"x", "x", RootID, "ghost", "y", "x"}, items, RootID)
	if want := []string{"x", "y"}; !slices.Equal(got, want) {
		t.Errorf("NormalizeChildren = %v, want %v", got, want)
	}
	if got := NormalizeChildren(nil, items, RootID); got == nil || len(got) != 0 {
		t.Errorf("NormalizeChildren(nil) = %#v, want empty non-nil", got)
	}
}

func TestCollectDescendants(t *testing.T) {
	items := map[string]*Item{
		RootID: NewFolder(RootID, DefaultRootName, "A"),
		"A":    NewFolder("A", "A", "B", "C"),
		"B":    NewBoard("B", "B"),
		"C":    NewFolder("C", "C", "D"),
		"D":    NewBoard("D", "D"),
	}
	got := CollectDescendants(items, "A")
	if want := []string{"B", "C", "D"}; !slices.Equal(got, want) {
		t.Errorf("CollectDescendants = %v, want %v", got, want)
	}
	if got := CollectDescendants(items, "B"); len(got) != 0 {
		t.Errorf("CollectDescendants(board) = %v, want empty", got)
	}
	if !IsDescendant(items, RootID, "D") {
		t.Error("IsDescendant(root, D) = false, want true")
	}
	if IsDescendant(items, "C", "B") {
		t.Error("IsDescendant(C, B) = true, want false")
	}
}

func TestCollectDescendantsCycle(t *testing.T) {
	items := map[string]*Item{
		"A": NewFolder("A", "A", "B"),
		"B": NewFolder("B", "B", "A", "B"),
	}
	got := CollectDescendants(items, "A")
	if want := []string{"B"}; !slices.Equal(got, want) {
		t.Errorf("CollectDescendants = %v, want %v", got, want)
	}
}

func TestNormalizeExpanded(t *testing.T) {
	items := map[string]*Item{
		RootID: NewFolder(RootID, DefaultRootName, "f", "b"),
		"f":    NewFolder("f", "F"),
		"b":    NewBoard("b", "B"),
	}
	got := NormalizeExpanded(items, []string{"f", "b", "ghost", "f", RootID})
	if want := []string{"f", RootID}; !slices.Equal(got, want) {
		t.Errorf("NormalizeExpanded = %v, want %v", got, want)
	}
}

func TestParentOf(t *testing.T) {
	items := map[string]*Item{
		RootID: NewFolder(RootID, DefaultRootName, "f"),
		"f":    NewFolder("f", "F", "b"),
		"b":    NewBoard("b", "B"),
	}
	if got := ParentOf(items, "b"); got != "f" {
		t.Errorf("ParentOf(b) = %q, want %q", got, "f")
	}
	if got := ParentOf(items, RootID); got != "" {
		t.Errorf("ParentOf(root) = %q, want empty", got)
	}
}
