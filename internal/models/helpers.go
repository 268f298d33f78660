package models

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// newRandom is swapped in tests to exercise the fallback path.
var newRandom = uuid.NewRandom

// NewID returns a globally unique id namespaced by kind, e.g.
// "board-6f1c...". When the cryptographic source is unavailable it falls
// back to a time plus pseudo-random composite.
func NewID(kind Kind) string {
	u, err := newRandom()
	if err != nil {
		return fmt.Sprintf("%s-%d-%x", kind, time.Now().UnixNano(), rand.Uint64())
	}
	return string(kind) + "-" + u.String()
}

// NextAvailableName returns baseName if no item is already named like it,
// otherwise "baseName N" for the smallest N >= 2 not taken. Names are
// compared case-insensitively after trimming.
func NextAvailableName(items map[string]*Item, baseName string) string {
	taken := make(map[string]struct{}, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		taken[normalizeName(item.Name)] = struct{}{}
	}
	if _, ok := taken[normalizeName(baseName)]; !ok {
		return baseName
	}
	for n := 2; ; n++ {
		candidate := baseName + " " + strconv.Itoa(n)
		if _, ok := taken[normalizeName(candidate)]; !ok {
			return candidate
		}
	}
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ResolveParent returns requestedID if it names an existing folder, else
// rootID.
func ResolveParent(items map[string]*Item, rootID, requestedID string) string {
	if items[requestedID].IsFolder() {
		return requestedID
	}
	return rootID
}

// NormalizeChildren filters a proposed children list down to existing
// items, drops rootID and removes duplicates keeping the first occurrence.
func NormalizeChildren(candidateIDs []string, items map[string]*Item, rootID string) []string {
	seen := make(map[string]struct{}, len(candidateIDs))
	out := make([]string, 0, len(candidateIDs))
	for _, id := range candidateIDs {
		if id == rootID || items[id] == nil {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// CollectDescendants returns every item transitively contained in folderID,
// breadth first, excluding folderID itself. Visited ids are tracked so a
// corrupt cyclic tree still terminates.
func CollectDescendants(items map[string]*Item, folderID string) []string {
	visited := map[string]struct{}{folderID: {}}
	var out []string
	queue := []string{folderID}
	for len(queue) > 0 {
		current := items[queue[0]]
		queue = queue[1:]
		if !current.IsFolder() {
			continue
		}
		for _, childID := range current.ChildrenIDs {
			if _, ok := visited[childID]; ok {
				continue
			}
			visited[childID] = struct{}{}
			out = append(out, childID)
			queue = append(queue, childID)
		}
	}
	return out
}

// IsDescendant reports whether id is transitively contained in folderID.
func IsDescendant(items map[string]*Item, folderID, id string) bool {
	return slices.Contains(CollectDescendants(items, folderID), id)
}

// NormalizeExpanded keeps only ids of existing folders, deduplicated.
func NormalizeExpanded(items map[string]*Item, candidateIDs []string) []string {
	seen := make(map[string]struct{}, len(candidateIDs))
	out := make([]string, 0, len(candidateIDs))
	for _, id := range candidateIDs {
		if !items[id].IsFolder() {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// BoardIDs returns the ids of every board, sorted.
func BoardIDs(items map[string]*Item) []string {
	var ids []string
	for id, item := range items {
		if item.IsBoard() {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// ParentOf returns the id of the folder listing id as a child, or "" when
// no folder does.
func ParentOf(items map[string]*Item, id string) string {
	for folderID, item := range items {
		if item.IsFolder() && slices.Contains(item.ChildrenIDs, id) {
			return folderID
		}
	}
	return ""
}
