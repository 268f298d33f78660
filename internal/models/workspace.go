package models

import "slices"

// Workspace is the aggregate root: the whole tree of items, the board
// currently open and the folders expanded in the tree view.
//
// Workspaces are treated as values. Mutations clone and return a new
// pointer; an operation that changes nothing returns its input unchanged.
type Workspace struct {
	RootID            string           `json:"rootId"`
	ItemsByID         map[string]*Item `json:"itemsById"`
	ActiveBoardID     string           `json:"activeBoardId"`
	ExpandedFolderIDs []string         `json:"expandedFolderIds"`
}

// DefaultWorkspace returns a brand-new workspace: the root folder holding a
// single board, which is active.
func DefaultWorkspace() *Workspace {
	boardID := NewID(KindBoard)
	return &Workspace{
		RootID: RootID,
		ItemsByID: map[string]*Item{
			RootID:  NewFolder(RootID, DefaultRootName, boardID),
			boardID: NewBoard(boardID, DefaultBoardName),
		},
		ActiveBoardID:     boardID,
		ExpandedFolderIDs: []string{},
	}
}

// Clone returns a deep copy of the workspace.
func (w *Workspace) Clone() *Workspace {
	if w == nil {
		return nil
	}
	items := make(map[string]*Item, len(w.ItemsByID))
	for id, item := range w.ItemsByID {
		items[id] = item.Clone()
	}
	expanded := slices.Clone(w.ExpandedFolderIDs)
	if expanded == nil {
		expanded = []string{}
	}
	return &Workspace{
		RootID:            w.RootID,
		ItemsByID:         items,
		ActiveBoardID:     w.ActiveBoardID,
		ExpandedFolderIDs: expanded,
	}
}

// Item returns the item with the given id, or nil.
func (w *Workspace) Item(id string) *Item {
	return w.ItemsByID[id]
}

// Root returns the root folder.
func (w *Workspace) Root() *Item {
	return w.ItemsByID[w.RootID]
}

// ActiveBoard returns the board currently open.
func (w *Workspace) ActiveBoard() *Item {
	return w.ItemsByID[w.ActiveBoardID]
}

// IsBoard reports whether id names an existing board.
func (w *Workspace) IsBoard(id string) bool {
	return w.ItemsByID[id].IsBoard()
}

// IsFolder reports whether id names an existing folder.
func (w *Workspace) IsFolder(id string) bool {
	return w.ItemsByID[id].IsFolder()
}
