// Package workspace implements the operations transforming one valid
// workspace into another, and the pass that repairs arbitrary persisted data
// into a valid workspace.
//
// Every operation is pure: it never mutates its input and performs no I/O.
// An operation whose arguments do not apply returns its input pointer
// unchanged, so callers detect a no-op with ==.
package workspace

import (
	"slices"
	"strings"

	"github.com/maruel/boarddb/internal/models"
)

// CreateBoard adds a board under parentID, or under root when parentID is
// not a folder, and makes it the active board.
func CreateBoard(ws *models.Workspace, parentID string) (*models.Workspace, string) {
	return CreateBoardWithID(ws, parentID, "")
}

// CreateBoardWithID is CreateBoard with a caller-provided id. An empty or
// already used id is replaced with a generated one.
func CreateBoardWithID(ws *models.Workspace, parentID, id string) (*models.Workspace, string) {
	next, id := create(ws, parentID, id, models.KindBoard, models.DefaultBoardName)
	next.ActiveBoardID = id
	return next, id
}

// CreateFolder adds a folder under parentID, or under root when parentID is
// not a folder. The active board is unchanged.
func CreateFolder(ws *models.Workspace, parentID string) (*models.Workspace, string) {
	return CreateFolderWithID(ws, parentID, "")
}

// CreateFolderWithID is CreateFolder with a caller-provided id.
func CreateFolderWithID(ws *models.Workspace, parentID, id string) (*models.Workspace, string) {
	return create(ws, parentID, id, models.KindFolder, models.DefaultFolderName)
}

func create(ws *models.Workspace, parentID, id string, kind models.Kind, baseName string) (*models.Workspace, string) {
	if id == "" || id == ws.RootID || ws.ItemsByID[id] != nil {
		id = models.NewID(kind)
	}
	next := ws.Clone()
	name := models.NextAvailableName(next.ItemsByID, baseName)
	if kind == models.KindFolder {
		next.ItemsByID[id] = models.NewFolder(id, name)
	} else {
		next.ItemsByID[id] = models.NewBoard(id, name)
	}
	parent := next.ItemsByID[models.ResolveParent(next.ItemsByID, next.RootID, parentID)]
	parent.ChildrenIDs = append(parent.ChildrenIDs, id)
	return normalize(next), id
}

// Rename sets the name of id to the trimmed rawName.
//
// It is a no-op when the item is absent or is the root, when the trimmed
// name is empty, or when it equals the current name.
func Rename(ws *models.Workspace, id, rawName string) *models.Workspace {
	item := ws.ItemsByID[id]
	name := strings.TrimSpace(rawName)
	if item == nil || id == ws.RootID || name == "" || name == item.Name {
		return ws
	}
	next := ws.Clone()
	next.ItemsByID[id].Name = name
	return normalize(next)
}

// ReorderChildren replaces the children of folderID with candidateIDs once
// normalized.
//
// Candidates that do not exist, the root, duplicates, the folder itself and
// its ancestors are dropped. A candidate owned by another folder is moved
// here. Former children left out of the new list are re-attached at the end
// of root's children so nothing becomes unreachable.
func ReorderChildren(ws *models.Workspace, folderID string, candidateIDs []string) *models.Workspace {
	folder := ws.ItemsByID[folderID]
	if !folder.IsFolder() {
		return ws
	}
	children := models.NormalizeChildren(candidateIDs, ws.ItemsByID, ws.RootID)
	children = slices.DeleteFunc(children, func(id string) bool {
		return id == folderID || models.IsDescendant(ws.ItemsByID, id, folderID)
	})
	if slices.Equal(children, folder.ChildrenIDs) {
		return ws
	}

	next := ws.Clone()
	for _, id := range children {
		if slices.Contains(folder.ChildrenIDs, id) {
			continue
		}
		detach(next, id)
	}
	next.ItemsByID[folderID].ChildrenIDs = children
	root := next.Root()
	for _, id := range folder.ChildrenIDs {
		if !slices.Contains(children, id) {
			root.ChildrenIDs = append(root.ChildrenIDs, id)
		}
	}
	return normalize(next)
}

// Move detaches id from its parent and inserts it into parentID's children
// at index, clamped to the valid range.
//
// It is a no-op for the root, unknown ids, non-folder targets, or when
// parentID is id itself or one of its descendants.
func Move(ws *models.Workspace, id, parentID string, index int) *models.Workspace {
	if id == ws.RootID || ws.ItemsByID[id] == nil || !ws.IsFolder(parentID) {
		return ws
	}
	if parentID == id || models.IsDescendant(ws.ItemsByID, id, parentID) {
		return ws
	}
	current := ws.ItemsByID[parentID].ChildrenIDs
	if i := slices.Index(current, id); i >= 0 && i == min(max(index, 0), len(current)-1) {
		return ws
	}

	next := ws.Clone()
	detach(next, id)
	parent := next.ItemsByID[parentID]
	index = min(max(index, 0), len(parent.ChildrenIDs))
	parent.ChildrenIDs = slices.Insert(parent.ChildrenIDs, index, id)
	return normalize(next)
}

// SetActiveBoard makes boardID the active board. It is a no-op unless
// boardID names a board other than the active one.
func SetActiveBoard(ws *models.Workspace, boardID string) *models.Workspace {
	if !ws.IsBoard(boardID) || ws.ActiveBoardID == boardID {
		return ws
	}
	next := ws.Clone()
	next.ActiveBoardID = boardID
	return normalize(next)
}

// DeleteResult is returned by Delete.
type DeleteResult struct {
	Workspace *models.Workspace
	// DeletedBoardIDs lists, sorted, the boards removed by the deletion.
	// Their payloads are no longer referenced.
	DeletedBoardIDs []string
}

// Delete removes id and, for a folder, everything it contains.
//
// When the active board is removed another board becomes active; when no
// board remains a default one is created under root.
func Delete(ws *models.Workspace, id string) DeleteResult {
	if id == ws.RootID || ws.ItemsByID[id] == nil {
		return DeleteResult{Workspace: ws}
	}
	doomed := map[string]struct{}{id: {}}
	for _, d := range models.CollectDescendants(ws.ItemsByID, id) {
		doomed[d] = struct{}{}
	}
	delete(doomed, ws.RootID)

	next := ws.Clone()
	var boards []string
	for d := range doomed {
		if next.IsBoard(d) {
			boards = append(boards, d)
		}
		delete(next.ItemsByID, d)
	}
	slices.Sort(boards)
	for _, item := range next.ItemsByID {
		if !item.IsFolder() {
			continue
		}
		item.ChildrenIDs = slices.DeleteFunc(item.ChildrenIDs, func(c string) bool {
			_, ok := doomed[c]
			return ok
		})
	}
	if !next.IsBoard(next.ActiveBoardID) {
		if remaining := models.BoardIDs(next.ItemsByID); len(remaining) != 0 {
			next.ActiveBoardID = remaining[0]
		} else {
			boardID := models.NewID(models.KindBoard)
			next.ItemsByID[boardID] = models.NewBoard(boardID, models.NextAvailableName(next.ItemsByID, models.DefaultBoardName))
			root := next.Root()
			root.ChildrenIDs = append(root.ChildrenIDs, boardID)
			next.ActiveBoardID = boardID
		}
	}
	return DeleteResult{Workspace: normalize(next), DeletedBoardIDs: boards}
}

// SetExpandedFolders replaces the set of expanded folders with the folders
// named in ids.
func SetExpandedFolders(ws *models.Workspace, ids []string) *models.Workspace {
	expanded := models.NormalizeExpanded(ws.ItemsByID, ids)
	if sameSet(expanded, ws.ExpandedFolderIDs) {
		return ws
	}
	next := ws.Clone()
	next.ExpandedFolderIDs = expanded
	return next
}

// detach removes id from whichever folder lists it.
func detach(ws *models.Workspace, id string) {
	for _, item := range ws.ItemsByID {
		if item.IsFolder() {
			item.ChildrenIDs = slices.DeleteFunc(item.ChildrenIDs, func(c string) bool { return c == id })
		}
	}
}

// normalize drops expanded ids that no longer name folders.
func normalize(ws *models.Workspace) *models.Workspace {
	ws.ExpandedFolderIDs = models.NormalizeExpanded(ws.ItemsByID, ws.ExpandedFolderIDs)
	return ws
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]struct{}, len(b))
	for _, id := range b {
		set[id] = struct{}{}
	}
	for _, id := range a {
		if _, ok := set[id]; !ok {
			return false
		}
	}
	return true
}
