package models

import (
	"errors"
	"fmt"
	"slices"
)

// CheckInvariants verifies that w is a proper tree: the root folder exists,
// every child reference resolves, every non-root item has exactly one parent
// and is reachable from root, at least one board exists, the active board
// exists and expanded ids are all folders. It returns every violation found,
// joined.
func CheckInvariants(w *Workspace) error {
	if w == nil {
		return errors.New("workspace is nil")
	}
	var errs []error
	if w.RootID == "" {
		errs = append(errs, errors.New("root id is empty"))
	}
	if !w.IsFolder(w.RootID) {
		errs = append(errs, fmt.Errorf("root %q is not a folder", w.RootID))
		return errors.Join(errs...)
	}

	parents := make(map[string]string, len(w.ItemsByID))
	for folderID, item := range w.ItemsByID {
		if item == nil {
			errs = append(errs, fmt.Errorf("item %q is nil", folderID))
			continue
		}
		if item.ID != folderID {
			errs = append(errs, fmt.Errorf("item keyed %q has id %q", folderID, item.ID))
		}
		if item.Type != KindBoard && item.Type != KindFolder {
			errs = append(errs, fmt.Errorf("item %q has unknown type %q", folderID, item.Type))
		}
		if !item.IsFolder() {
			if len(item.ChildrenIDs) != 0 {
				errs = append(errs, fmt.Errorf("board %q has children", folderID))
			}
			continue
		}
		seen := make(map[string]struct{}, len(item.ChildrenIDs))
		for _, childID := range item.ChildrenIDs {
			if childID == w.RootID {
				errs = append(errs, fmt.Errorf("folder %q lists the root as a child", folderID))
				continue
			}
			if w.ItemsByID[childID] == nil {
				errs = append(errs, fmt.Errorf("folder %q references missing item %q", folderID, childID))
				continue
			}
			if _, dup := seen[childID]; dup {
				errs = append(errs, fmt.Errorf("folder %q lists %q twice", folderID, childID))
				continue
			}
			seen[childID] = struct{}{}
			if other, ok := parents[childID]; ok {
				errs = append(errs, fmt.Errorf("item %q has two parents: %q and %q", childID, other, folderID))
				continue
			}
			parents[childID] = folderID
		}
	}

	reachable := CollectDescendants(w.ItemsByID, w.RootID)
	for id := range w.ItemsByID {
		if id == w.RootID {
			continue
		}
		if _, ok := parents[id]; !ok {
			errs = append(errs, fmt.Errorf("item %q is an orphan", id))
		} else if !slices.Contains(reachable, id) {
			errs = append(errs, fmt.Errorf("item %q is not reachable from root", id))
		}
	}

	if len(BoardIDs(w.ItemsByID)) == 0 {
		errs = append(errs, errors.New("workspace has no board"))
	}
	if !w.IsBoard(w.ActiveBoardID) {
		errs = append(errs, fmt.Errorf("active board %q is not a board", w.ActiveBoardID))
	}
	for _, id := range w.ExpandedFolderIDs {
		if !w.IsFolder(id) {
			errs = append(errs, fmt.Errorf("expanded id %q is not a folder", id))
		}
	}
	return errors.Join(errs...)
}
