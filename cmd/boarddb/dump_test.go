package main

import (
	"bytes"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/maruel/boarddb/internal/kv"
	"github.com/maruel/boarddb/internal/models"
	"github.com/maruel/boarddb/internal/storage"
	"github.com/maruel/boarddb/internal/workspace"
)

func TestDumpWorkspace(t *testing.T) {
	ctx := t.Context()
	keys := storage.DefaultKeys()
	s := storage.NewWorkspaceStore(kv.NewMemory(), keys)
	ws, folderID := workspace.CreateFolder(models.DefaultWorkspace(), "")
	ws, boardID := workspace.CreateBoard(ws, folderID)
	ws = workspace.SetExpandedFolders(ws, []string{folderID})
	if err := s.Save(ctx, ws); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := dumpWorkspace(ctx, &buf, s); err != nil {
		t.Fatalf("dumpWorkspace failed: %v", err)
	}
	var got dumpNode
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid YAML %q: %v", buf.String(), err)
	}
	if got.ID != models.RootID || len(got.Children) != 2 {
		t.Fatalf("root = %+v", got)
	}
	folder := got.Children[1]
	if folder.ID != folderID || !folder.Expanded || len(folder.Children) != 1 {
		t.Fatalf("folder = %+v", folder)
	}
	if b := folder.Children[0]; b.ID != boardID || !b.Active || b.Type != models.KindBoard {
		t.Errorf("board = %+v", b)
	}
}
