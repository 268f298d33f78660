package handlers

import (
	"context"

	"github.com/maruel/boarddb/internal/models"
	"github.com/maruel/boarddb/internal/storage"
)

// HealthHandler reports liveness.
type HealthHandler struct {
	svc     *storage.WorkspaceService
	version string
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(svc *storage.WorkspaceService, version string) *HealthHandler {
	return &HealthHandler{svc: svc, version: version}
}

// HealthRequest is the request type for health check (empty).
type HealthRequest struct{}

// HealthResponse is the response for health check.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Boards  int    `json:"boards"`
}

// Health returns the health status of the server.
func (h *HealthHandler) Health(ctx context.Context, req HealthRequest) (*HealthResponse, error) {
	ws := h.svc.Workspace()
	return &HealthResponse{Status: "ok", Version: h.version, Boards: len(models.BoardIDs(ws.ItemsByID))}, nil
}
