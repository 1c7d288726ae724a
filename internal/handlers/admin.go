package handlers

import (
	"net/http"

	"github.com/streamingpro/backend/internal/logging"
)

// AdminHandler exposes the maintenance jobs for manual runs.
type AdminHandler struct {
	Cleanup CleanupService
}

// CleanupLogs handles POST /api/admin/cleanup-logs requests.
func (h AdminHandler) CleanupLogs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := h.Cleanup.CleanupLogs(ctx)
	if err != nil {
		logging.FromContext(ctx).Error("log cleanup failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "log cleanup failed")
		return
	}

	respondJSON(ctx, w, http.StatusOK, stats)
}

// CleanupVideos handles DELETE /api/admin/cleanup-videos requests, removing
// every video that never reached scheduled or published.
func (h AdminHandler) CleanupVideos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	deleted, err := h.Cleanup.CleanupVideos(ctx)
	if err != nil {
		logging.FromContext(ctx).Error("video cleanup failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "video cleanup failed")
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"deleted": deleted})
}
