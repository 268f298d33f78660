package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/maruel/boarddb/internal/kv"
	"github.com/maruel/boarddb/internal/models"
	"github.com/maruel/boarddb/internal/workspace"
)

// WorkspaceStore reads and writes the workspace tree under a single key.
type WorkspaceStore struct {
	store kv.Store
	keys  Keys
}

// NewWorkspaceStore returns a WorkspaceStore.
func NewWorkspaceStore(store kv.Store, keys Keys) *WorkspaceStore {
	return &WorkspaceStore{store: store, keys: keys}
}

// Load returns the persisted workspace, repaired as needed. It never fails:
// when nothing usable is stored, a default workspace is returned and the
// legacy payload, if any, is copied to its board.
func (s *WorkspaceStore) Load(ctx context.Context) *models.Workspace {
	v, found, err := s.store.Get(ctx, s.keys.Workspace)
	switch {
	case err != nil:
		slog.WarnContext(ctx, "failed to load workspace", "key", s.keys.Workspace, "err", err)
	case !found:
		slog.InfoContext(ctx, "no workspace stored, starting fresh", "key", s.keys.Workspace)
	default:
		ws, decoded := workspace.SanitizeJSON([]byte(v))
		if decoded {
			return ws
		}
		slog.WarnContext(ctx, "discarding undecodable workspace", "key", s.keys.Workspace, "size", len(v))
	}
	ws := models.DefaultWorkspace()
	if migrated, err := s.MigrateLegacy(ctx, ws); err != nil {
		slog.WarnContext(ctx, "failed to migrate legacy payload", "key", s.keys.Legacy, "err", err)
	} else if migrated {
		slog.InfoContext(ctx, "migrated legacy payload", "from", s.keys.Legacy, "to", s.keys.Board(ws.ActiveBoardID))
	}
	return ws
}

// Save writes the whole workspace.
func (s *WorkspaceStore) Save(ctx context.Context, ws *models.Workspace) error {
	data, err := json.Marshal(ws)
	if err != nil {
		return fmt.Errorf("failed to marshal workspace: %w", err)
	}
	return s.store.Set(ctx, s.keys.Workspace, string(data))
}

// MigrateLegacy copies the payload stored under the legacy key to the
// active board of ws. Nothing is copied when the board already has a
// payload or when no legacy payload exists, so it is safe to call again.
func (s *WorkspaceStore) MigrateLegacy(ctx context.Context, ws *models.Workspace) (bool, error) {
	if s.keys.Legacy == "" || !ws.IsBoard(ws.ActiveBoardID) {
		return false, nil
	}
	target := s.keys.Board(ws.ActiveBoardID)
	if _, found, err := s.store.Get(ctx, target); err != nil || found {
		return false, err
	}
	legacy, found, err := s.store.Get(ctx, s.keys.Legacy)
	if err != nil || !found || !json.Valid([]byte(legacy)) {
		return false, err
	}
	if err := s.store.Set(ctx, target, legacy); err != nil {
		return false, err
	}
	return true, nil
}
