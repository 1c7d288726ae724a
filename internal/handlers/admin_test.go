package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/streamingpro/backend/internal/maintenance"
)

func TestCleanupLogs(t *testing.T) {
	handler := AdminHandler{Cleanup: stubCleanup{
		stats: maintenance.LogCleanupStats{OrphanedDeleted: 4, AgedDeleted: 2, Archived: 6, Remaining: 10},
	}}

	rec := httptest.NewRecorder()
	handler.CleanupLogs(rec, newJSONRequest(http.MethodPost, "/api/admin/cleanup-logs", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	payload := decodeBody(t, rec)
	if payload["orphanedDeleted"] != float64(4) || payload["archived"] != float64(6) {
		t.Fatalf("payload = %v", payload)
	}
}

func TestCleanupLogsFailure(t *testing.T) {
	handler := AdminHandler{Cleanup: stubCleanup{err: errors.New("archive unavailable")}}

	rec := httptest.NewRecorder()
	handler.CleanupLogs(rec, newJSONRequest(http.MethodPost, "/api/admin/cleanup-logs", ""))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

func TestCleanupVideos(t *testing.T) {
	handler := AdminHandler{Cleanup: stubCleanup{deleted: 7}}

	rec := httptest.NewRecorder()
	handler.CleanupVideos(rec, newJSONRequest(http.MethodDelete, "/api/admin/cleanup-videos", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if deleted := decodeBody(t, rec)["deleted"]; deleted != float64(7) {
		t.Fatalf("deleted = %v", deleted)
	}
}
