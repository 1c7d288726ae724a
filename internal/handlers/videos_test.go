package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/streamingpro/backend/internal/lifecycle"
	"github.com/streamingpro/backend/internal/models"
	"github.com/streamingpro/backend/internal/repositories"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

func newJSONRequest(method, target, body string) *http.Request {
	return httptest.NewRequest(method, target, strings.NewReader(body))
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return payload
}

func TestCreateDraft(t *testing.T) {
	var created models.Video
	videos := &stubVideos{
		createFn: func(_ context.Context, video models.Video) error {
			created = video
			return nil
		},
	}
	logs := &stubLogs{}
	handler := VideoHandler{Videos: videos, Logs: logs, Prompts: &stubPrompts{}, NowFunc: fixedNow}

	req := newJSONRequest(http.MethodPost, "/api/videos/create-draft", `{"title":"  Launch recap  ","topic":"launches"}`)
	rec := httptest.NewRecorder()
	handler.CreateDraft(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusCreated, rec.Body)
	}
	if created.Title != "Launch recap" {
		t.Fatalf("title = %q, want trimmed title", created.Title)
	}
	if created.State != lifecycle.StateDraft {
		t.Fatalf("state = %q, want draft", created.State)
	}
	if created.PromptID != nil {
		t.Fatalf("promptId should be nil for manual drafts")
	}
	if got := logs.actions(); len(got) != 1 || got[0] != "draft_created_manual" {
		t.Fatalf("logged actions = %v", got)
	}
}

func TestCreateDraftValidation(t *testing.T) {
	handler := VideoHandler{Videos: &stubVideos{}, Logs: &stubLogs{}, Prompts: &stubPrompts{}, NowFunc: fixedNow}

	rec := httptest.NewRecorder()
	handler.CreateDraft(rec, newJSONRequest(http.MethodPost, "/api/videos/create-draft", `{"title":"   "}`))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestCreateDraftUnknownPrompt(t *testing.T) {
	prompts := &stubPrompts{
		getFn: func(context.Context, string) (models.Prompt, error) {
			return models.Prompt{}, repositories.ErrNotFound
		},
	}
	handler := VideoHandler{Videos: &stubVideos{}, Logs: &stubLogs{}, Prompts: prompts, NowFunc: fixedNow}

	rec := httptest.NewRecorder()
	handler.CreateDraft(rec, newJSONRequest(http.MethodPost, "/api/videos/create-draft", `{"title":"x","promptId":"missing"}`))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestUpdateRejectsPublishedVideo(t *testing.T) {
	videos := &stubVideos{
		getFn: func(context.Context, string) (models.Video, error) {
			return models.Video{ID: "vid-1", State: lifecycle.StatePublished}, nil
		},
	}
	handler := VideoHandler{Videos: videos, Logs: &stubLogs{}, Prompts: &stubPrompts{}, NowFunc: fixedNow}

	req := newJSONRequest(http.MethodPut, "/api/videos/vid-1/update", `{"title":"new"}`)
	req.SetPathValue("id", "vid-1")
	rec := httptest.NewRecorder()
	handler.Update(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if msg, _ := decodeBody(t, rec)["error"].(string); !strings.Contains(msg, "published") {
		t.Fatalf("error message %q should name the state", msg)
	}
}

func TestUpdateContent(t *testing.T) {
	var updated models.VideoContent
	videos := &stubVideos{
		getFn: func(context.Context, string) (models.Video, error) {
			return models.Video{ID: "vid-1", State: lifecycle.StateDraft}, nil
		},
		updateContentFn: func(_ context.Context, _ string, content models.VideoContent) error {
			updated = content
			return nil
		},
	}
	logs := &stubLogs{}
	handler := VideoHandler{Videos: videos, Logs: logs, Prompts: &stubPrompts{}, NowFunc: fixedNow}

	req := newJSONRequest(http.MethodPut, "/api/videos/vid-1/update", `{"title":"Revised","script":"new script"}`)
	req.SetPathValue("id", "vid-1")
	rec := httptest.NewRecorder()
	handler.Update(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body)
	}
	if updated.Title != "Revised" || updated.Script != "new script" {
		t.Fatalf("unexpected content persisted: %+v", updated)
	}
	if got := logs.actions(); len(got) != 1 || got[0] != "content_updated" {
		t.Fatalf("logged actions = %v", got)
	}
}

func TestAutoApprove(t *testing.T) {
	var from []lifecycle.State
	videos := &stubVideos{
		recordApprovalFn: func(_ context.Context, _ string, states []lifecycle.State, _ time.Time) (bool, error) {
			from = states
			return true, nil
		},
	}
	logs := &stubLogs{}
	handler := VideoHandler{Videos: videos, Logs: logs, Prompts: &stubPrompts{}, NowFunc: fixedNow}

	rec := httptest.NewRecorder()
	handler.AutoApprove(rec, newJSONRequest(http.MethodPost, "/api/videos/auto-approve", `{"videoId":"vid-1"}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if len(from) == 0 {
		t.Fatal("approval guard states not passed through")
	}
	if got := logs.actions(); len(got) != 1 || got[0] != "auto_approved" {
		t.Fatalf("logged actions = %v", got)
	}
}

func TestAutoApproveWrongState(t *testing.T) {
	videos := &stubVideos{
		recordApprovalFn: func(context.Context, string, []lifecycle.State, time.Time) (bool, error) {
			return false, nil
		},
		getFn: func(context.Context, string) (models.Video, error) {
			return models.Video{ID: "vid-1", State: lifecycle.StatePublished}, nil
		},
	}
	handler := VideoHandler{Videos: videos, Logs: &stubLogs{}, Prompts: &stubPrompts{}, NowFunc: fixedNow}

	rec := httptest.NewRecorder()
	handler.AutoApprove(rec, newJSONRequest(http.MethodPost, "/api/videos/auto-approve", `{"videoId":"vid-1"}`))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if msg, _ := decodeBody(t, rec)["error"].(string); !strings.Contains(msg, "published") {
		t.Fatalf("error message %q should include the current state", msg)
	}
}

func TestScheduleRejectsPastTime(t *testing.T) {
	handler := VideoHandler{Videos: &stubVideos{}, Logs: &stubLogs{}, Prompts: &stubPrompts{}, NowFunc: fixedNow}

	past := testNow.Add(-time.Hour).Format(time.RFC3339)
	rec := httptest.NewRecorder()
	handler.Schedule(rec, newJSONRequest(http.MethodPost, "/api/videos/schedule",
		`{"videoId":"vid-1","videoUrl":"https://cdn.example.com/v.mp4","scheduledFor":"`+past+`"}`))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestScheduleRequiresVideoURL(t *testing.T) {
	handler := VideoHandler{Videos: &stubVideos{}, Logs: &stubLogs{}, Prompts: &stubPrompts{}, NowFunc: fixedNow}

	future := testNow.Add(time.Hour).Format(time.RFC3339)
	rec := httptest.NewRecorder()
	handler.Schedule(rec, newJSONRequest(http.MethodPost, "/api/videos/schedule",
		`{"videoId":"vid-1","videoUrl":"  ","scheduledFor":"`+future+`"}`))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if msg, _ := decodeBody(t, rec)["error"].(string); !strings.Contains(msg, "videoUrl") {
		t.Fatalf("error message %q should name the missing field", msg)
	}
}

func TestSchedule(t *testing.T) {
	var gotURL string
	var gotAt time.Time
	videos := &stubVideos{
		markScheduledFn: func(_ context.Context, _ string, _ []lifecycle.State, videoURL string, at time.Time) (bool, error) {
			gotURL = videoURL
			gotAt = at
			return true, nil
		},
	}
	logs := &stubLogs{}
	handler := VideoHandler{Videos: videos, Logs: logs, Prompts: &stubPrompts{}, NowFunc: fixedNow}

	future := testNow.Add(48 * time.Hour)
	rec := httptest.NewRecorder()
	handler.Schedule(rec, newJSONRequest(http.MethodPost, "/api/videos/schedule",
		`{"videoId":"vid-1","videoUrl":"https://cdn.example.com/v.mp4","scheduledFor":"`+future.Format(time.RFC3339)+`"}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body)
	}
	if gotURL != "https://cdn.example.com/v.mp4" {
		t.Fatalf("videoUrl = %q", gotURL)
	}
	if !gotAt.Equal(future) {
		t.Fatalf("scheduledFor = %v, want %v", gotAt, future)
	}
	if got := logs.actions(); len(got) != 1 || got[0] != "video_scheduled" {
		t.Fatalf("logged actions = %v", got)
	}
}

func TestCancelScheduleReturnsApproved(t *testing.T) {
	videos := &stubVideos{
		cancelScheduleFn: func(context.Context, string) (bool, error) { return true, nil },
	}
	logs := &stubLogs{}
	handler := VideoHandler{Videos: videos, Logs: logs, Prompts: &stubPrompts{}, NowFunc: fixedNow}

	req := newJSONRequest(http.MethodPost, "/api/videos/vid-1/cancel-schedule", "")
	req.SetPathValue("id", "vid-1")
	rec := httptest.NewRecorder()
	handler.CancelSchedule(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if state, _ := decodeBody(t, rec)["state"].(string); state != string(lifecycle.StateApproved) {
		t.Fatalf("state = %q, want approved", state)
	}
	if got := logs.actions(); len(got) != 1 || got[0] != "schedule_cancelled" {
		t.Fatalf("logged actions = %v", got)
	}
}

func TestCancelDeletesVideo(t *testing.T) {
	var deleted string
	videos := &stubVideos{
		deleteFn: func(_ context.Context, id string) error {
			deleted = id
			return nil
		},
	}
	handler := VideoHandler{Videos: videos, Logs: &stubLogs{}, Prompts: &stubPrompts{}, NowFunc: fixedNow}

	req := newJSONRequest(http.MethodPost, "/api/videos/vid-9/cancel", "")
	req.SetPathValue("id", "vid-9")
	rec := httptest.NewRecorder()
	handler.Cancel(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if deleted != "vid-9" {
		t.Fatalf("deleted id = %q", deleted)
	}
}

func TestRetry(t *testing.T) {
	videos := &stubVideos{
		getFn: func(context.Context, string) (models.Video, error) {
			return models.Video{ID: "vid-1", State: lifecycle.StateError}, nil
		},
		transitionFn: func(_ context.Context, _ string, _ []lifecycle.State, to lifecycle.State) (bool, error) {
			if to != lifecycle.StateDraft {
				t.Fatalf("transition target = %q, want draft", to)
			}
			return true, nil
		},
	}
	logs := &stubLogs{}
	handler := VideoHandler{Videos: videos, Logs: logs, Prompts: &stubPrompts{}, NowFunc: fixedNow}

	req := newJSONRequest(http.MethodPost, "/api/videos/vid-1/retry", "")
	req.SetPathValue("id", "vid-1")
	rec := httptest.NewRecorder()
	handler.Retry(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body)
	}
	if got := logs.actions(); len(got) != 1 || got[0] != "video_retry_initiated" {
		t.Fatalf("logged actions = %v", got)
	}
}

func TestRetryWrongState(t *testing.T) {
	videos := &stubVideos{
		getFn: func(context.Context, string) (models.Video, error) {
			return models.Video{ID: "vid-1", State: lifecycle.StateDraft}, nil
		},
	}
	handler := VideoHandler{Videos: videos, Logs: &stubLogs{}, Prompts: &stubPrompts{}, NowFunc: fixedNow}

	req := newJSONRequest(http.MethodPost, "/api/videos/vid-1/retry", "")
	req.SetPathValue("id", "vid-1")
	rec := httptest.NewRecorder()
	handler.Retry(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestListPagination(t *testing.T) {
	videos := &stubVideos{
		listFn: func(_ context.Context, opts repositories.ListVideosOptions) ([]models.Video, int, error) {
			if opts.Page != 2 || opts.Limit != 10 {
				t.Fatalf("opts = %+v", opts)
			}
			if !opts.HidePublished {
				t.Fatal("hidePublished filter not passed through")
			}
			items := make([]models.Video, 10)
			for i := range items {
				items[i] = models.Video{ID: "vid", State: lifecycle.StateDraft, CreatedAt: testNow}
			}
			return items, 25, nil
		},
	}
	handler := VideoHandler{Videos: videos, Logs: &stubLogs{}, Prompts: &stubPrompts{}, NowFunc: fixedNow}

	rec := httptest.NewRecorder()
	handler.List(rec, httptest.NewRequest(http.MethodGet, "/api/videos?page=2&limit=10&hidePublished=true", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	payload := decodeBody(t, rec)
	pagination, _ := payload["pagination"].(map[string]any)
	if pagination["totalPages"] != float64(3) {
		t.Fatalf("totalPages = %v, want 3", pagination["totalPages"])
	}
	if pagination["hasNextPage"] != true || pagination["hasPrevPage"] != true {
		t.Fatalf("page 2 of 3 should have both neighbours: %v", pagination)
	}
}

func TestListTodayOnlyFilter(t *testing.T) {
	videos := &stubVideos{
		listFn: func(_ context.Context, opts repositories.ListVideosOptions) ([]models.Video, int, error) {
			if !opts.TodayOnly {
				t.Fatal("todayOnly filter not passed through")
			}
			return nil, 0, nil
		},
	}
	handler := VideoHandler{Videos: videos, Logs: &stubLogs{}, Prompts: &stubPrompts{}, NowFunc: fixedNow}

	rec := httptest.NewRecorder()
	handler.List(rec, httptest.NewRequest(http.MethodGet, "/api/videos?todayOnly=true", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	filters, _ := decodeBody(t, rec)["filters"].(map[string]any)
	if filters["todayOnly"] != true {
		t.Fatalf("filters = %v, want todayOnly echoed", filters)
	}
}
