package storage

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/maruel/boarddb/internal/models"
	"github.com/maruel/boarddb/internal/workspace"
)

// ErrUnknownBoard is returned by payload operations on ids that do not name
// a board.
var ErrUnknownBoard = errors.New("unknown board")

// WorkspaceService owns the current workspace. It applies intents through
// the workspace package and persists every change in the background, in
// order.
//
// Callers never wait on storage and never see storage errors; use Flush to
// wait for durability.
type WorkspaceService struct {
	workspaces *WorkspaceStore
	payloads   *PayloadStore
	ctx        context.Context

	mu sync.Mutex
	ws *models.Workspace

	qmu     sync.Mutex
	queue   []task
	closed  bool
	wake    chan struct{}
	stopped chan struct{}
}

// task is one unit of background persistence.
type task struct {
	save    *models.Workspace
	remove  []string
	release string
	// done is closed once every earlier task has been processed.
	done chan struct{}
}

// NewWorkspaceService loads the workspace and starts persisting changes.
// Intents are only accepted once the load completed, so the stored tree is
// never overwritten by a default one.
func NewWorkspaceService(ctx context.Context, workspaces *WorkspaceStore, payloads *PayloadStore) *WorkspaceService {
	s := &WorkspaceService{
		workspaces: workspaces,
		payloads:   payloads,
		ctx:        context.WithoutCancel(ctx),
		ws:         workspaces.Load(ctx),
		wake:       make(chan struct{}, 1),
		stopped:    make(chan struct{}),
	}
	go s.dispatch()
	return s
}

// Workspace returns the current workspace. It must not be modified.
func (s *WorkspaceService) Workspace() *models.Workspace {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ws
}

// CreateBoard adds a board under parentID and opens it.
func (s *WorkspaceService) CreateBoard(parentID string) (*models.Workspace, string) {
	var id string
	ws := s.apply(func(ws *models.Workspace) (*models.Workspace, []string) {
		var next *models.Workspace
		next, id = workspace.CreateBoard(ws, parentID)
		return next, nil
	})
	return ws, id
}

// CreateFolder adds a folder under parentID.
func (s *WorkspaceService) CreateFolder(parentID string) (*models.Workspace, string) {
	var id string
	ws := s.apply(func(ws *models.Workspace) (*models.Workspace, []string) {
		var next *models.Workspace
		next, id = workspace.CreateFolder(ws, parentID)
		return next, nil
	})
	return ws, id
}

// Rename renames id.
func (s *WorkspaceService) Rename(id, name string) *models.Workspace {
	return s.apply(func(ws *models.Workspace) (*models.Workspace, []string) {
		return workspace.Rename(ws, id, name), nil
	})
}

// ReorderChildren replaces the children of folderID.
func (s *WorkspaceService) ReorderChildren(folderID string, childrenIDs []string) *models.Workspace {
	return s.apply(func(ws *models.Workspace) (*models.Workspace, []string) {
		return workspace.ReorderChildren(ws, folderID, childrenIDs), nil
	})
}

// Move moves id into parentID at index.
func (s *WorkspaceService) Move(id, parentID string, index int) *models.Workspace {
	return s.apply(func(ws *models.Workspace) (*models.Workspace, []string) {
		return workspace.Move(ws, id, parentID, index), nil
	})
}

// SetActiveBoard opens boardID.
func (s *WorkspaceService) SetActiveBoard(boardID string) *models.Workspace {
	return s.apply(func(ws *models.Workspace) (*models.Workspace, []string) {
		return workspace.SetActiveBoard(ws, boardID), nil
	})
}

// SetExpandedFolders replaces the expanded folders.
func (s *WorkspaceService) SetExpandedFolders(ids []string) *models.Workspace {
	return s.apply(func(ws *models.Workspace) (*models.Workspace, []string) {
		return workspace.SetExpandedFolders(ws, ids), nil
	})
}

// Delete removes id and its descendants. The payloads of deleted boards are
// removed in the background.
func (s *WorkspaceService) Delete(id string) (*models.Workspace, []string) {
	var deleted []string
	ws := s.apply(func(ws *models.Workspace) (*models.Workspace, []string) {
		res := workspace.Delete(ws, id)
		deleted = res.DeletedBoardIDs
		return res.Workspace, res.DeletedBoardIDs
	})
	return ws, deleted
}

// LoadPayload returns the payload of boardID.
func (s *WorkspaceService) LoadPayload(ctx context.Context, boardID string) (string, bool, error) {
	if !s.Workspace().IsBoard(boardID) {
		return "", false, ErrUnknownBoard
	}
	payload, ok := s.payloads.Load(ctx, boardID)
	return payload, ok, nil
}

// NotifyPayload records a change to the payload of boardID.
func (s *WorkspaceService) NotifyPayload(boardID, payload string) error {
	// Holding mu orders this against Delete, so a payload can not be
	// scheduled for a board whose removal was already queued.
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ws.IsBoard(boardID) {
		return ErrUnknownBoard
	}
	s.payloads.Notify(boardID, payload)
	return nil
}

// ReleasePayload writes the pending payload of boardID now and stops its
// debounce timer.
func (s *WorkspaceService) ReleasePayload(ctx context.Context, boardID string) error {
	if !s.Workspace().IsBoard(boardID) {
		return ErrUnknownBoard
	}
	s.payloads.Release(ctx, boardID)
	return nil
}

// apply runs fn on the current workspace and queues persistence of the
// result. fn returns the next workspace and the board ids it deleted.
func (s *WorkspaceService) apply(fn func(*models.Workspace) (*models.Workspace, []string)) *models.Workspace {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.ws
	next, removed := fn(prev)
	if next == prev {
		return prev
	}
	s.ws = next
	t := task{save: next, remove: removed}
	if prev.ActiveBoardID != next.ActiveBoardID && next.IsBoard(prev.ActiveBoardID) {
		t.release = prev.ActiveBoardID
	}
	if !s.enqueue(t) {
		slog.Warn("workspace service closed, change not persisted")
	}
	return next
}

func (s *WorkspaceService) enqueue(t task) bool {
	s.qmu.Lock()
	if s.closed {
		s.qmu.Unlock()
		return false
	}
	s.queue = append(s.queue, t)
	s.qmu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
	return true
}

func (s *WorkspaceService) dispatch() {
	defer close(s.stopped)
	for range s.wake {
		s.qmu.Lock()
		batch := s.queue
		s.queue = nil
		closed := s.closed
		s.qmu.Unlock()
		s.process(batch)
		if closed {
			return
		}
	}
}

func (s *WorkspaceService) process(batch []task) {
	last := -1
	for i, t := range batch {
		if t.save != nil {
			last = i
		}
	}
	for i, t := range batch {
		// Saves are of the whole tree; only the latest of a batch matters.
		if t.save != nil && i == last {
			if err := s.workspaces.Save(s.ctx, t.save); err != nil {
				slog.WarnContext(s.ctx, "failed to persist workspace", "err", err)
			}
		}
		for _, id := range t.remove {
			if err := s.payloads.Remove(s.ctx, id); err != nil {
				slog.WarnContext(s.ctx, "failed to remove payload", "board", id, "err", err)
			}
		}
		if t.release != "" {
			s.payloads.Release(s.ctx, t.release)
		}
		if t.done != nil {
			close(t.done)
		}
	}
}

// Flush waits until every change so far is persisted, including pending
// payloads.
func (s *WorkspaceService) Flush(ctx context.Context) error {
	done := make(chan struct{})
	if !s.enqueue(task{done: done}) {
		s.payloads.Flush(ctx)
		return nil
	}
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	s.payloads.Flush(ctx)
	return nil
}

// Close persists everything pending and stops the background writer.
// Later changes are applied in memory only. Pending payloads are flushed
// even when ctx is done before the background writer drained; the error
// is then ctx.Err().
func (s *WorkspaceService) Close(ctx context.Context) error {
	s.qmu.Lock()
	if s.closed {
		s.qmu.Unlock()
		return nil
	}
	s.closed = true
	s.qmu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
	var err error
	select {
	case <-s.stopped:
	default:
		select {
		case <-s.stopped:
		case <-ctx.Done():
			err = ctx.Err()
		}
	}
	// Pending payloads are written even when ctx expired.
	s.payloads.Close(context.WithoutCancel(ctx))
	return err
}
