package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestDefaultWorkspace(t *testing.T) {
	w := DefaultWorkspace()
	if err := CheckInvariants(w); err != nil {
		t.Fatalf("CheckInvariants failed: %v", err)
	}
	if w.Root().Name != DefaultRootName {
		t.Errorf("Root().Name = %q, want %q", w.Root().Name, DefaultRootName)
	}
	board := w.ActiveBoard()
	if board == nil || board.Name != DefaultBoardName {
		t.Fatalf("ActiveBoard() = %+v, want %q board", board, DefaultBoardName)
	}
	if w.ExpandedFolderIDs == nil {
		t.Error("ExpandedFolderIDs is nil, want empty")
	}
}

func TestWorkspaceCloneIsDeep(t *testing.T) {
	w := DefaultWorkspace()
	c := w.Clone()
	c.Root().ChildrenIDs = append(c.Root().ChildrenIDs, "x")
	c.Root().Name = "Changed"
	c.ExpandedFolderIDs = append(c.ExpandedFolderIDs, RootID)
	if len(w.Root().ChildrenIDs) != 1 {
		t.Errorf("original root children = %v, want 1 entry", w.Root().ChildrenIDs)
	}
	if w.Root().Name != DefaultRootName {
		t.Errorf("original root name = %q, want %q", w.Root().Name, DefaultRootName)
	}
	if len(w.ExpandedFolderIDs) != 0 {
		t.Errorf("original expanded = %v, want empty", w.ExpandedFolderIDs)
	}
}

func TestWorkspaceJSON(t *testing.T) {
	w := DefaultWorkspace()
	data, err := json.Marshal(w)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	for _, key := range []string{`"rootId":"root"`, `"itemsById"`, `"activeBoardId"`, `"expandedFolderIds":[]`, `"childrenIds"`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("JSON %s missing %s", data, key)
		}
	}
	if strings.Count(string(data), `"childrenIds"`) != 1 {
		t.Errorf("boards should not carry childrenIds: %s", data)
	}
}

func TestCheckInvariants(t *testing.T) {
	valid := func() *Workspace {
		return &Workspace{
			RootID: RootID,
			ItemsByID: map[string]*Item{
				RootID: NewFolder(RootID, DefaultRootName, "f"),
				"f":    NewFolder("f", "F", "b"),
				"b":    NewBoard("b", "B"),
			},
			ActiveBoardID:     "b",
			ExpandedFolderIDs: []string{"f"},
		}
	}
	if err := CheckInvariants(valid()); err != nil {
		t.Fatalf("CheckInvariants(valid) failed: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(w *Workspace)
		want   string
	}{
		{"no root", func(w *Workspace) { delete(w.ItemsByID, RootID) }, "not a folder"},
		{"dangling", func(w *Workspace) { w.ItemsByID["f"].ChildrenIDs = append(w.ItemsByID["f"].ChildrenIDs, "ghost") }, "missing item"},
		{"two parents", func(w *Workspace) { w.Root().ChildrenIDs = append(w.Root().ChildrenIDs, "b") }, "two parents"},
		{"root as child", func(w *Workspace) { w.ItemsByID["f"].ChildrenIDs = append(w.ItemsByID["f"].ChildrenIDs, RootID) }, "root as a child"},
		{"orphan", func(w *Workspace) { w.ItemsByID["o"] = NewBoard("o", "O") }, "orphan"},
		{"no board", func(w *Workspace) {
			delete(w.ItemsByID, "b")
			w.ItemsByID["f"].ChildrenIDs = nil
		}, "no board"},
		{"bad active", func(w *Workspace) { w.ActiveBoardID = "f" }, "active board"},
		{"bad expanded", func(w *Workspace) { w.ExpandedFolderIDs = []string{"b"} }, "expanded id"},
		{"cycle", func(w *Workspace) {
			w.ItemsByID["x"] = NewFolder("x", "X", "y")
			w.ItemsByID["y"] = NewFolder("y", "Y", "x")
		}, "not reachable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := valid()
			tt.mutate(w)
			err := CheckInvariants(w)
			if err == nil {
				t.Fatal("CheckInvariants succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("CheckInvariants = %q, want it to mention %q", err, tt.want)
			}
		})
	}
}
