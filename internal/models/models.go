// Package models defines the workspace data model: boards, the folders that
// hold them, and the workspace aggregate tying the tree together.
package models

import "slices"

// RootID is the id of the folder every workspace is anchored on. It always
// exists, is never deleted or renamed, and never appears as a child.
const RootID = "root"

const (
	// DefaultRootName is the display name of a freshly created root folder.
	DefaultRootName = "Boards"
	// DefaultBoardName is the base name for new boards.
	DefaultBoardName = "Untitled"
	// DefaultFolderName is the base name for new folders.
	DefaultFolderName = "Folder"
)

// Kind defines what a workspace item is.
type Kind string

const (
	// KindBoard is a leaf owning exactly one document payload.
	KindBoard Kind = "board"
	// KindFolder is an internal node with an ordered list of children.
	KindFolder Kind = "folder"
)

// Item is a node of the workspace tree.
//
// ChildrenIDs is only meaningful for folders; it is ordered and never holds
// duplicates.
type Item struct {
	ID          string   `json:"id"`
	Type        Kind     `json:"type"`
	Name        string   `json:"name"`
	ChildrenIDs []string `json:"childrenIds,omitempty"`
}

// NewBoard returns a board item.
func NewBoard(id, name string) *Item {
	return &Item{ID: id, Type: KindBoard, Name: name}
}

// NewFolder returns a folder item holding the given children.
func NewFolder(id, name string, childrenIDs ...string) *Item {
	children := make([]string, 0, len(childrenIDs))
	children = append(children, childrenIDs...)
	return &Item{ID: id, Type: KindFolder, Name: name, ChildrenIDs: children}
}

// IsBoard reports whether i is a board. Safe on nil.
func (i *Item) IsBoard() bool {
	return i != nil && i.Type == KindBoard
}

// IsFolder reports whether i is a folder. Safe on nil.
func (i *Item) IsFolder() bool {
	return i != nil && i.Type == KindFolder
}

// Clone returns a deep copy so the clone's children list is never aliased.
func (i *Item) Clone() *Item {
	if i == nil {
		return nil
	}
	c := *i
	if i.ChildrenIDs != nil {
		c.ChildrenIDs = slices.Clone(i.ChildrenIDs)
	}
	return &c
}
