package server

import (
	"net/http"

	"github.com/maruel/boarddb/internal/server/handlers"
	"github.com/maruel/boarddb/internal/storage"
)

// NewRouter creates and configures the HTTP router.
func NewRouter(svc *storage.WorkspaceService, cfg *storage.Config, version string) http.Handler {
	mux := http.NewServeMux()

	wh := handlers.NewWorkspaceHandler(svc)
	ph := handlers.NewPayloadHandler(svc)
	hh := handlers.NewHealthHandler(svc, version)
	limit := newWriteLimiter(cfg.RateLimits.WriteRatePerMin).middleware

	mux.Handle("GET /api/health", Wrap(hh.Health))

	// Tree
	mux.Handle("GET /api/workspace", Wrap(wh.GetWorkspace))
	mux.Handle("POST /api/boards", limit(Wrap(wh.CreateBoard)))
	mux.Handle("POST /api/folders", limit(Wrap(wh.CreateFolder)))
	mux.Handle("PUT /api/items/{id}", limit(Wrap(wh.Rename)))
	mux.Handle("DELETE /api/items/{id}", limit(Wrap(wh.Delete)))
	mux.Handle("POST /api/items/{id}/move", limit(Wrap(wh.Move)))
	mux.Handle("PUT /api/folders/{id}/children", limit(Wrap(wh.ReorderChildren)))
	mux.Handle("PUT /api/active", limit(Wrap(wh.SetActiveBoard)))
	mux.Handle("PUT /api/expanded", limit(Wrap(wh.SetExpandedFolders)))

	// Payloads. Updates are coalesced by the debouncer and are not limited.
	mux.Handle("GET /api/boards/{id}/payload", Wrap(ph.GetPayload))
	mux.Handle("PUT /api/boards/{id}/payload", Wrap(ph.UpdatePayload))
	mux.Handle("POST /api/boards/{id}/release", limit(Wrap(ph.Release)))

	return mux
}
