package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/streamingpro/backend/internal/lifecycle"
	"github.com/streamingpro/backend/internal/logging"
	"github.com/streamingpro/backend/internal/models"
	"github.com/streamingpro/backend/internal/repositories"
)

// VideoHandler implements the dashboard's video endpoints.
type VideoHandler struct {
	Videos  repositories.VideoRepository
	Logs    repositories.WorkflowLogRepository
	Prompts repositories.PromptRepository
	NowFunc func() time.Time
}

func (h VideoHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc().UTC()
	}
	return time.Now().UTC()
}

// List handles GET /api/videos requests.
func (h VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := r.URL.Query()
	opts := repositories.ListVideosOptions{
		HidePublished: query.Get("hidePublished") == "true",
		TodayOnly:     query.Get("todayOnly") == "true",
		Page:          1,
		Limit:         10,
		Now:           h.now(),
	}
	if page, err := strconv.Atoi(query.Get("page")); err == nil && page > 0 {
		opts.Page = page
	}
	if limit, err := strconv.Atoi(query.Get("limit")); err == nil && limit > 0 && limit <= 100 {
		opts.Limit = limit
	}

	videos, total, err := h.Videos.List(ctx, opts)
	if err != nil {
		logging.FromContext(ctx).Error("failed to list videos", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to list videos")
		return
	}

	items := make([]videoResponse, 0, len(videos))
	for _, video := range videos {
		items = append(items, toVideoResponse(video))
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	respondJSON(ctx, w, http.StatusOK, videoListResponse{
		Videos: items,
		Pagination: paginationResponse{
			CurrentPage:  opts.Page,
			TotalPages:   totalPages,
			TotalItems:   total,
			ItemsPerPage: opts.Limit,
			HasNextPage:  opts.Page < totalPages,
			HasPrevPage:  opts.Page > 1,
		},
		Filters: listFiltersResponse{
			HidePublished: opts.HidePublished,
			TodayOnly:     opts.TodayOnly,
		},
	})
}

// CreateDraft handles POST /api/videos/create-draft requests.
func (h VideoHandler) CreateDraft(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	var req draftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid draft payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		respondError(ctx, w, http.StatusBadRequest, "title is required")
		return
	}

	video := models.Video{
		ID:           uuid.NewString(),
		Title:        req.Title,
		Topic:        strings.TrimSpace(req.Topic),
		Script:       req.Script,
		LinkedInText: req.LinkedInText,
		Tweet:        req.Tweet,
		Description:  req.Description,
		State:        lifecycle.StateDraft,
		CreatedAt:    h.now(),
	}

	if req.PromptID != "" {
		prompt, err := h.Prompts.Get(ctx, req.PromptID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				respondError(ctx, w, http.StatusNotFound, "prompt not found")
				return
			}
			logger.Error("failed to load prompt", "promptId", req.PromptID, "error", err)
			respondError(ctx, w, http.StatusInternalServerError, "failed to load prompt")
			return
		}
		video.PromptID = &prompt.ID
	}

	if err := h.Videos.Create(ctx, video); err != nil {
		logger.Error("failed to create draft", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create draft")
		return
	}

	h.appendLog(ctx, video.ID, "draft_created_manual", map[string]any{
		"actor": ActorFromContext(ctx),
		"title": video.Title,
	})

	respondJSON(ctx, w, http.StatusCreated, toVideoResponse(video))
}

// Update handles PUT /api/videos/{id}/update requests.
func (h VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)
	id := r.PathValue("id")

	var req contentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid update payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	video, err := h.Videos.Get(ctx, id)
	if err != nil {
		h.respondVideoError(ctx, w, id, err, "load video")
		return
	}

	if video.State == lifecycle.StatePublished {
		respondError(ctx, w, http.StatusBadRequest,
			fmt.Sprintf("cannot edit a video in state %q", video.State))
		return
	}

	content := models.VideoContent{
		Title:        strings.TrimSpace(req.Title),
		Topic:        strings.TrimSpace(req.Topic),
		Script:       req.Script,
		LinkedInText: req.LinkedInText,
		Tweet:        req.Tweet,
		Description:  req.Description,
	}
	if content.Title == "" {
		respondError(ctx, w, http.StatusBadRequest, "title is required")
		return
	}

	if err := h.Videos.UpdateContent(ctx, id, content); err != nil {
		h.respondVideoError(ctx, w, id, err, "update video")
		return
	}

	h.appendLog(ctx, id, "content_updated", map[string]any{
		"actor": ActorFromContext(ctx),
	})

	video.Title = content.Title
	video.Topic = content.Topic
	video.Script = content.Script
	video.LinkedInText = content.LinkedInText
	video.Tweet = content.Tweet
	video.Description = content.Description
	respondJSON(ctx, w, http.StatusOK, toVideoResponse(video))
}

// AutoApprove handles POST /api/videos/auto-approve requests.
func (h VideoHandler) AutoApprove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req videoIDRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.VideoID == "" {
		respondError(ctx, w, http.StatusBadRequest, "videoId is required")
		return
	}

	now := h.now()
	ok, err := h.Videos.RecordApproval(ctx, req.VideoID, lifecycle.Expected(lifecycle.EventAutoApprove), now)
	if err != nil {
		logging.FromContext(ctx).Error("failed to auto-approve", "videoId", req.VideoID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to approve video")
		return
	}
	if !ok {
		h.respondTransitionConflict(ctx, w, req.VideoID, "approve")
		return
	}

	h.appendLog(ctx, req.VideoID, "auto_approved", map[string]any{
		"actor": ActorFromContext(ctx),
	})

	respondJSON(ctx, w, http.StatusOK, map[string]any{
		"videoId":    req.VideoID,
		"state":      lifecycle.StateApproved,
		"approvedAt": now,
	})
}

// Schedule handles POST /api/videos/schedule requests.
func (h VideoHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.VideoID == "" {
		respondError(ctx, w, http.StatusBadRequest, "videoId is required")
		return
	}
	videoURL := strings.TrimSpace(req.VideoURL)
	if videoURL == "" {
		respondError(ctx, w, http.StatusBadRequest, "videoUrl is required")
		return
	}

	at, err := h.parseFutureTime(req.ScheduledFor)
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	ok, err := h.Videos.MarkScheduled(ctx, req.VideoID, lifecycle.Expected(lifecycle.EventSchedule), videoURL, at)
	if err != nil {
		logging.FromContext(ctx).Error("failed to schedule video", "videoId", req.VideoID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to schedule video")
		return
	}
	if !ok {
		h.respondTransitionConflict(ctx, w, req.VideoID, "schedule")
		return
	}

	h.appendLog(ctx, req.VideoID, "video_scheduled", map[string]any{
		"actor":        ActorFromContext(ctx),
		"scheduledFor": at,
	})

	respondJSON(ctx, w, http.StatusOK, map[string]any{
		"videoId":      req.VideoID,
		"state":        lifecycle.StateScheduled,
		"scheduledFor": at,
	})
}

// Reschedule handles POST /api/videos/{id}/reschedule requests.
func (h VideoHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	at, err := h.parseFutureTime(req.ScheduledFor)
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	ok, err := h.Videos.Reschedule(ctx, id, at)
	if err != nil {
		logging.FromContext(ctx).Error("failed to reschedule video", "videoId", id, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to reschedule video")
		return
	}
	if !ok {
		h.respondTransitionConflict(ctx, w, id, "reschedule")
		return
	}

	h.appendLog(ctx, id, "video_rescheduled", map[string]any{
		"actor":        ActorFromContext(ctx),
		"scheduledFor": at,
	})

	respondJSON(ctx, w, http.StatusOK, map[string]any{
		"videoId":      id,
		"state":        lifecycle.StateScheduled,
		"scheduledFor": at,
	})
}

// CancelSchedule handles POST /api/videos/{id}/cancel-schedule requests.
func (h VideoHandler) CancelSchedule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	ok, err := h.Videos.CancelSchedule(ctx, id)
	if err != nil {
		logging.FromContext(ctx).Error("failed to cancel schedule", "videoId", id, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to cancel schedule")
		return
	}
	if !ok {
		h.respondTransitionConflict(ctx, w, id, "cancel the schedule of")
		return
	}

	h.appendLog(ctx, id, "schedule_cancelled", map[string]any{
		"actor": ActorFromContext(ctx),
	})

	respondJSON(ctx, w, http.StatusOK, map[string]any{
		"videoId": id,
		"state":   lifecycle.StateApproved,
	})
}

// Cancel handles POST /api/videos/{id}/cancel requests. The video and its
// audit trail are removed together.
func (h VideoHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	if err := h.Videos.Delete(ctx, id); err != nil {
		h.respondVideoError(ctx, w, id, err, "delete video")
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{
		"videoId": id,
		"deleted": true,
	})
}

// Retry handles POST /api/videos/{id}/retry requests, resetting an errored
// video back to draft for another attempt.
func (h VideoHandler) Retry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	video, err := h.Videos.Get(ctx, id)
	if err != nil {
		h.respondVideoError(ctx, w, id, err, "load video")
		return
	}

	next, err := lifecycle.Next(video.State, lifecycle.EventRetry)
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest,
			fmt.Sprintf("cannot retry a video in state %q", video.State))
		return
	}

	ok, err := h.Videos.Transition(ctx, id, lifecycle.Expected(lifecycle.EventRetry), next)
	if err != nil {
		logging.FromContext(ctx).Error("failed to retry video", "videoId", id, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to retry video")
		return
	}
	if !ok {
		h.respondTransitionConflict(ctx, w, id, "retry")
		return
	}

	h.appendLog(ctx, id, "video_retry_initiated", map[string]any{
		"actor":         ActorFromContext(ctx),
		"previousState": video.State,
		"newState":      next,
	})

	respondJSON(ctx, w, http.StatusOK, map[string]any{
		"videoId": id,
		"state":   next,
	})
}

func (h VideoHandler) parseFutureTime(raw string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, errors.New("scheduledFor is required")
	}
	at, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, errors.New("scheduledFor must be an RFC 3339 timestamp")
	}
	at = at.UTC()
	if !at.After(h.now()) {
		return time.Time{}, errors.New("scheduledFor must be in the future")
	}
	return at, nil
}

// respondTransitionConflict reports a guarded update that matched no row:
// either the video does not exist (404) or it is in the wrong state (400
// with the current state in the message).
func (h VideoHandler) respondTransitionConflict(ctx context.Context, w http.ResponseWriter, id, action string) {
	video, err := h.Videos.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "video not found")
			return
		}
		respondError(ctx, w, http.StatusInternalServerError, "failed to load video")
		return
	}
	respondError(ctx, w, http.StatusBadRequest,
		fmt.Sprintf("cannot %s a video in state %q", action, video.State))
}

func (h VideoHandler) respondVideoError(ctx context.Context, w http.ResponseWriter, id string, err error, op string) {
	if errors.Is(err, repositories.ErrNotFound) {
		respondError(ctx, w, http.StatusNotFound, "video not found")
		return
	}
	logging.FromContext(ctx).Error("video operation failed", "op", op, "videoId", id, "error", err)
	respondError(ctx, w, http.StatusInternalServerError, "failed to "+op)
}

func (h VideoHandler) appendLog(ctx context.Context, videoID, action string, details map[string]any) {
	if err := h.Logs.Append(ctx, models.WorkflowLog{
		ID:        uuid.NewString(),
		VideoID:   videoID,
		Action:    action,
		Details:   details,
		CreatedAt: h.now(),
	}); err != nil {
		logging.FromContext(ctx).Error("failed to append workflow log", "videoId", videoID, "action", action, "error", err)
	}
}

type draftRequest struct {
	PromptID string `json:"promptId"`
	contentRequest
}

type contentRequest struct {
	Title        string `json:"title"`
	Topic        string `json:"topic"`
	Script       string `json:"script"`
	LinkedInText string `json:"linkedinText"`
	Tweet        string `json:"tweet"`
	Description  string `json:"description"`
}

type videoIDRequest struct {
	VideoID string `json:"videoId"`
}

type scheduleRequest struct {
	VideoID      string `json:"videoId"`
	VideoURL     string `json:"videoUrl"`
	ScheduledFor string `json:"scheduledFor"`
}

type videoListResponse struct {
	Videos     []videoResponse     `json:"videos"`
	Pagination paginationResponse  `json:"pagination"`
	Filters    listFiltersResponse `json:"filters"`
}

type paginationResponse struct {
	CurrentPage  int  `json:"currentPage"`
	TotalPages   int  `json:"totalPages"`
	TotalItems   int  `json:"totalItems"`
	ItemsPerPage int  `json:"itemsPerPage"`
	HasNextPage  bool `json:"hasNextPage"`
	HasPrevPage  bool `json:"hasPrevPage"`
}

type listFiltersResponse struct {
	HidePublished bool `json:"hidePublished"`
	TodayOnly     bool `json:"todayOnly"`
}

type videoResponse struct {
	ID           string     `json:"id"`
	PromptID     *string    `json:"promptId,omitempty"`
	Title        string     `json:"title"`
	Topic        string     `json:"topic"`
	Script       string     `json:"script"`
	LinkedInText string     `json:"linkedinText"`
	Tweet        string     `json:"tweet"`
	Description  string     `json:"description"`
	State        string     `json:"state"`
	VideoURL     string     `json:"videoUrl,omitempty"`
	VideoHostURL string     `json:"videoHostUrl,omitempty"`
	YouTubeURL   string     `json:"youtubeUrl,omitempty"`
	LinkedInURL  string     `json:"linkedinUrl,omitempty"`
	TwitterURL   string     `json:"twitterUrl,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	ApprovedAt   *time.Time `json:"approvedAt,omitempty"`
	PublishedAt  *time.Time `json:"publishedAt,omitempty"`
	ScheduledFor *time.Time `json:"scheduledFor,omitempty"`

	Prompt *promptResponse `json:"prompt,omitempty"`
}

func toVideoResponse(video models.Video) videoResponse {
	resp := videoResponse{
		ID:           video.ID,
		PromptID:     video.PromptID,
		Title:        video.Title,
		Topic:        video.Topic,
		Script:       video.Script,
		LinkedInText: video.LinkedInText,
		Tweet:        video.Tweet,
		Description:  video.Description,
		State:        string(video.State),
		VideoURL:     video.VideoURL,
		VideoHostURL: video.VideoHostURL,
		YouTubeURL:   video.YouTubeURL,
		LinkedInURL:  video.LinkedInURL,
		TwitterURL:   video.TwitterURL,
		CreatedAt:    video.CreatedAt,
		ApprovedAt:   video.ApprovedAt,
		PublishedAt:  video.PublishedAt,
		ScheduledFor: video.ScheduledFor,
	}
	if video.Prompt != nil {
		prompt := toPromptResponse(*video.Prompt)
		resp.Prompt = &prompt
	}
	return resp
}
