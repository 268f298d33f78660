package handlers

import (
	"context"
	"math"

	"github.com/maruel/boarddb/internal/errors"
	"github.com/maruel/boarddb/internal/models"
	"github.com/maruel/boarddb/internal/storage"
)

// WorkspaceHandler handles workspace tree HTTP requests. Every mutation
// answers with the resulting workspace; requests that change nothing answer
// with the current one.
type WorkspaceHandler struct {
	svc *storage.WorkspaceService
}

// NewWorkspaceHandler creates a new workspace handler.
func NewWorkspaceHandler(svc *storage.WorkspaceService) *WorkspaceHandler {
	return &WorkspaceHandler{svc: svc}
}

// GetWorkspaceRequest is a request to get the workspace.
type GetWorkspaceRequest struct{}

// CreateItemRequest is a request to create a board or a folder.
type CreateItemRequest struct {
	ParentID string `json:"parentId"`
}

// CreateItemResponse is the response to a creation.
type CreateItemResponse struct {
	ID        string            `json:"id"`
	Workspace *models.Workspace `json:"workspace"`
}

// RenameRequest is a request to rename an item.
type RenameRequest struct {
	ID   string `path:"id"`
	Name string `json:"name"`
}

// DeleteRequest is a request to delete an item and its descendants.
type DeleteRequest struct {
	ID string `path:"id"`
}

// DeleteResponse is the response to a deletion.
type DeleteResponse struct {
	DeletedBoardIDs []string          `json:"deletedBoardIds"`
	Workspace       *models.Workspace `json:"workspace"`
}

// ReorderRequest is a request to replace the children of a folder.
type ReorderRequest struct {
	ID          string   `path:"id"`
	ChildrenIDs []string `json:"childrenIds"`
}

// MoveRequest is a request to move an item. A missing index appends.
type MoveRequest struct {
	ID       string `path:"id"`
	ParentID string `json:"parentId"`
	Index    *int   `json:"index"`
}

// SetActiveRequest is a request to open a board.
type SetActiveRequest struct {
	BoardID string `json:"boardId"`
}

// SetExpandedRequest is a request to replace the expanded folders.
type SetExpandedRequest struct {
	FolderIDs []string `json:"folderIds"`
}

// GetWorkspace returns the current workspace.
func (h *WorkspaceHandler) GetWorkspace(ctx context.Context, req GetWorkspaceRequest) (*models.Workspace, error) {
	return h.svc.Workspace(), nil
}

// CreateBoard creates a board and opens it.
func (h *WorkspaceHandler) CreateBoard(ctx context.Context, req CreateItemRequest) (*CreateItemResponse, error) {
	ws, id := h.svc.CreateBoard(req.ParentID)
	return &CreateItemResponse{ID: id, Workspace: ws}, nil
}

// CreateFolder creates a folder.
func (h *WorkspaceHandler) CreateFolder(ctx context.Context, req CreateItemRequest) (*CreateItemResponse, error) {
	ws, id := h.svc.CreateFolder(req.ParentID)
	return &CreateItemResponse{ID: id, Workspace: ws}, nil
}

// Rename renames an item.
func (h *WorkspaceHandler) Rename(ctx context.Context, req RenameRequest) (*models.Workspace, error) {
	return h.svc.Rename(req.ID, req.Name), nil
}

// Delete deletes an item and everything below it.
func (h *WorkspaceHandler) Delete(ctx context.Context, req DeleteRequest) (*DeleteResponse, error) {
	ws, deleted := h.svc.Delete(req.ID)
	if deleted == nil {
		deleted = []string{}
	}
	return &DeleteResponse{DeletedBoardIDs: deleted, Workspace: ws}, nil
}

// ReorderChildren replaces the children of a folder.
func (h *WorkspaceHandler) ReorderChildren(ctx context.Context, req ReorderRequest) (*models.Workspace, error) {
	if req.ChildrenIDs == nil {
		return nil, errors.MissingField("childrenIds")
	}
	return h.svc.ReorderChildren(req.ID, req.ChildrenIDs), nil
}

// Move moves an item under another folder.
func (h *WorkspaceHandler) Move(ctx context.Context, req MoveRequest) (*models.Workspace, error) {
	index := math.MaxInt
	if req.Index != nil {
		index = *req.Index
	}
	return h.svc.Move(req.ID, req.ParentID, index), nil
}

// SetActiveBoard opens a board.
func (h *WorkspaceHandler) SetActiveBoard(ctx context.Context, req SetActiveRequest) (*models.Workspace, error) {
	if req.BoardID == "" {
		return nil, errors.MissingField("boardId")
	}
	return h.svc.SetActiveBoard(req.BoardID), nil
}

// SetExpandedFolders replaces the expanded folders.
func (h *WorkspaceHandler) SetExpandedFolders(ctx context.Context, req SetExpandedRequest) (*models.Workspace, error) {
	if req.FolderIDs == nil {
		return nil, errors.MissingField("folderIds")
	}
	return h.svc.SetExpandedFolders(req.FolderIDs), nil
}
