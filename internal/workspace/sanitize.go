package workspace

import (
	"encoding/json"
	"log/slog"
	"slices"
	"strings"

	"github.com/maruel/boarddb/internal/models"
)

// SanitizeJSON decodes persisted workspace metadata and repairs it.
//
// decoded is false when data is not JSON at all; the returned workspace is
// then a fresh default one.
func SanitizeJSON(data []byte) (ws *models.Workspace, decoded bool) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return models.DefaultWorkspace(), false
	}
	return Sanitize(raw), true
}

// Sanitize converts arbitrary decoded JSON into a workspace satisfying every
// tree invariant. It never fails: unusable input yields a workspace holding
// a single default board.
//
// Items must be keyed by a non-empty id and declare a known type. Children
// referenced by more than one folder stay with the first folder visited;
// items left without a parent are appended to root.
func Sanitize(raw any) (ws *models.Workspace) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("discarding unreadable workspace", "err", r)
			ws = sanitize(nil)
		}
	}()
	return sanitize(raw)
}

func sanitize(raw any) *models.Workspace {
	obj, _ := raw.(map[string]any)
	rawItems, _ := obj["itemsById"].(map[string]any)

	items := make(map[string]*models.Item, len(rawItems)+2)
	for id, v := range rawItems {
		m, ok := v.(map[string]any)
		if !ok || strings.TrimSpace(id) == "" {
			continue
		}
		switch models.Kind(stringField(m, "type")) {
		case models.KindBoard:
			items[id] = models.NewBoard(id, nameField(m, models.DefaultBoardName))
		case models.KindFolder:
			items[id] = models.NewFolder(id, nameField(m, models.DefaultFolderName), stringList(m["childrenIds"])...)
		}
	}
	if !items[models.RootID].IsFolder() {
		items[models.RootID] = models.NewFolder(models.RootID, models.DefaultRootName)
	}

	// Claim children breadth first from root so reachable items keep their
	// place, then hang every remaining item off root in id order.
	attached := map[string]struct{}{models.RootID: {}}
	adopt := func(start string) {
		queue := []string{start}
		for len(queue) > 0 {
			folder := items[queue[0]]
			queue = queue[1:]
			if !folder.IsFolder() {
				continue
			}
			kept := models.NormalizeChildren(folder.ChildrenIDs, items, models.RootID)
			kept = slices.DeleteFunc(kept, func(id string) bool {
				_, ok := attached[id]
				return ok
			})
			for _, id := range kept {
				attached[id] = struct{}{}
			}
			folder.ChildrenIDs = kept
			queue = append(queue, kept...)
		}
	}
	adopt(models.RootID)
	root := items[models.RootID]
	ids := make([]string, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		if _, ok := attached[id]; ok {
			continue
		}
		attached[id] = struct{}{}
		root.ChildrenIDs = append(root.ChildrenIDs, id)
		adopt(id)
	}

	boards := models.BoardIDs(items)
	if len(boards) == 0 {
		boardID := models.NewID(models.KindBoard)
		items[boardID] = models.NewBoard(boardID, models.NextAvailableName(items, models.DefaultBoardName))
		root.ChildrenIDs = append(root.ChildrenIDs, boardID)
		boards = []string{boardID}
	}

	active := stringField(obj, "activeBoardId")
	if !items[active].IsBoard() {
		active = boards[0]
	}
	return &models.Workspace{
		RootID:            models.RootID,
		ItemsByID:         items,
		ActiveBoardID:     active,
		ExpandedFolderIDs: models.NormalizeExpanded(items, stringList(obj["expandedFolderIds"])),
	}
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func nameField(m map[string]any, fallback string) string {
	if name := stringField(m, "name"); strings.TrimSpace(name) != "" {
		return name
	}
	return fallback
}

// stringList returns the non-empty strings of v when it is a JSON array.
func stringList(v any) []string {
	list, _ := v.([]any)
	out := make([]string, 0, len(list))
	for _, e := range list {
		if s, ok := e.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}
