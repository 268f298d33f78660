package main

import (
	"context"
	"fmt"
	"io"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/maruel/boarddb/internal/models"
	"github.com/maruel/boarddb/internal/storage"
)

// dumpNode is the YAML rendering of an item and its subtree.
type dumpNode struct {
	ID       string      `yaml:"id"`
	Type     models.Kind `yaml:"type"`
	Name     string      `yaml:"name"`
	Active   bool        `yaml:"active,omitempty"`
	Expanded bool        `yaml:"expanded,omitempty"`
	Children []*dumpNode `yaml:"children,omitempty"`
}

// dumpWorkspace writes the stored workspace, repaired as it would be on
// startup, as a YAML tree.
func dumpWorkspace(ctx context.Context, w io.Writer, s *storage.WorkspaceStore) error {
	ws := s.Load(ctx)
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(toDumpNode(ws, ws.RootID)); err != nil {
		return fmt.Errorf("failed to encode workspace: %w", err)
	}
	return enc.Close()
}

func toDumpNode(ws *models.Workspace, id string) *dumpNode {
	item := ws.Item(id)
	n := &dumpNode{
		ID:       id,
		Type:     item.Type,
		Name:     item.Name,
		Active:   id == ws.ActiveBoardID,
		Expanded: slices.Contains(ws.ExpandedFolderIDs, id),
	}
	for _, c := range item.ChildrenIDs {
		n.Children = append(n.Children, toDumpNode(ws, c))
	}
	return n
}
