package handlers

import (
	"context"
	"encoding/json"
	stderrors "errors"

	"github.com/maruel/boarddb/internal/errors"
	"github.com/maruel/boarddb/internal/storage"
)

// PayloadHandler handles board payload HTTP requests.
type PayloadHandler struct {
	svc *storage.WorkspaceService
}

// NewPayloadHandler creates a new payload handler.
func NewPayloadHandler(svc *storage.WorkspaceService) *PayloadHandler {
	return &PayloadHandler{svc: svc}
}

// BoardRequest names a board.
type BoardRequest struct {
	ID string `path:"id"`
}

// PayloadResponse holds a board payload. Found is false when nothing usable
// is stored and the board starts empty.
type PayloadResponse struct {
	Payload json.RawMessage `json:"payload"`
	Found   bool            `json:"found"`
}

// UpdatePayloadRequest is a request to record a payload change.
type UpdatePayloadRequest struct {
	ID      string          `path:"id"`
	Payload json.RawMessage `json:"payload"`
}

// StatusResponse acknowledges a request.
type StatusResponse struct {
	Status string `json:"status"`
}

// GetPayload returns the latest payload of a board, pending changes included.
func (h *PayloadHandler) GetPayload(ctx context.Context, req BoardRequest) (*PayloadResponse, error) {
	payload, ok, err := h.svc.LoadPayload(ctx, req.ID)
	if err != nil {
		return nil, boardError(req.ID, err)
	}
	if !ok {
		return &PayloadResponse{Payload: json.RawMessage("null")}, nil
	}
	return &PayloadResponse{Payload: json.RawMessage(payload), Found: true}, nil
}

// UpdatePayload schedules a debounced write of the payload.
func (h *PayloadHandler) UpdatePayload(ctx context.Context, req UpdatePayloadRequest) (*StatusResponse, error) {
	if len(req.Payload) == 0 || string(req.Payload) == "null" {
		return nil, errors.MissingField("payload")
	}
	if !json.Valid(req.Payload) {
		return nil, errors.InvalidFormat("payload", "not JSON")
	}
	if err := h.svc.NotifyPayload(req.ID, string(req.Payload)); err != nil {
		return nil, boardError(req.ID, err)
	}
	return &StatusResponse{Status: "scheduled"}, nil
}

// Release flushes the pending payload of a board and drops its writer.
func (h *PayloadHandler) Release(ctx context.Context, req BoardRequest) (*StatusResponse, error) {
	if err := h.svc.ReleasePayload(ctx, req.ID); err != nil {
		return nil, boardError(req.ID, err)
	}
	return &StatusResponse{Status: "released"}, nil
}

func boardError(id string, err error) error {
	if stderrors.Is(err, storage.ErrUnknownBoard) {
		return errors.BoardNotFound(id)
	}
	return errors.InternalWithError("Failed to access payload", err)
}
