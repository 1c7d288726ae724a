package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/streamingpro/backend/internal/automation"
	"github.com/streamingpro/backend/internal/lifecycle"
	"github.com/streamingpro/backend/internal/logging"
	"github.com/streamingpro/backend/internal/models"
	"github.com/streamingpro/backend/internal/repositories"
)

// maxCallbackBody caps inbound callback payloads.
const maxCallbackBody = 1 << 20

// CallbackHandler applies results reported back by the automation engine.
// Callback events are authoritative: they advance the video even from an
// unexpected source state, with the anomaly logged.
type CallbackHandler struct {
	Videos  repositories.VideoRepository
	Logs    repositories.WorkflowLogRepository
	Limiter RateLimiter
	NowFunc func() time.Time
}

func (h CallbackHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc().UTC()
	}
	return time.Now().UTC()
}

// ContentGenerated handles POST /api/webhooks/content-generated requests.
func (h CallbackHandler) ContentGenerated(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	body, ok := h.readCallbackBody(w, r, "content-generated")
	if !ok {
		return
	}

	result, err := automation.ParseGenerationResult(body)
	if err != nil {
		h.respondParseError(ctx, w, err)
		return
	}

	video, err := h.Videos.Get(ctx, result.VideoID)
	if err != nil {
		h.respondCallbackLookupError(ctx, w, result.VideoID, err)
		return
	}

	h.noteForcedAnomaly(ctx, video, lifecycle.EventGenerationSucceeded)

	if !result.Success || !result.Complete() {
		reason := result.Error
		if reason == "" {
			reason = "generated content is incomplete"
		}
		if err := h.Videos.SetState(ctx, video.ID, lifecycle.StateError); err != nil {
			logger.Error("failed to mark generation error", "videoId", video.ID, "error", err)
			respondError(ctx, w, http.StatusInternalServerError, "failed to record generation result")
			return
		}
		h.appendLog(ctx, video.ID, "content_generation_failed", map[string]any{
			"error": reason,
		})
		respondJSON(ctx, w, http.StatusOK, callbackAck{VideoID: video.ID, Result: "applied", State: lifecycle.StateError})
		return
	}

	content := models.VideoContent{
		Title:        result.Content.Title,
		Topic:        result.Content.Topic,
		Script:       result.Content.Script,
		LinkedInText: result.Content.LinkedInText,
		Tweet:        result.Content.Tweet,
		Description:  result.Content.Description,
	}
	if err := h.Videos.ApplyGeneratedContent(ctx, video.ID, content, lifecycle.StateDraft); err != nil {
		logger.Error("failed to apply generated content", "videoId", video.ID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to record generation result")
		return
	}

	h.appendLog(ctx, video.ID, "content_generated_success", map[string]any{
		"title": result.Content.Title,
		"topic": result.Content.Topic,
	})

	respondJSON(ctx, w, http.StatusOK, callbackAck{VideoID: video.ID, Result: "applied", State: lifecycle.StateDraft})
}

// ApprovalResponse handles POST /api/webhooks/approval-response requests.
func (h CallbackHandler) ApprovalResponse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	body, ok := h.readCallbackBody(w, r, "approval-response")
	if !ok {
		return
	}

	result, err := automation.ParseApprovalResult(body)
	if err != nil {
		h.respondParseError(ctx, w, err)
		return
	}

	video, err := h.Videos.Get(ctx, result.VideoID)
	if err != nil {
		h.respondCallbackLookupError(ctx, w, result.VideoID, err)
		return
	}

	if result.Approved {
		h.noteForcedAnomaly(ctx, video, lifecycle.EventApproved)

		now := h.now()
		if _, err := h.Videos.RecordApproval(ctx, video.ID, []lifecycle.State{video.State}, now); err != nil {
			logger.Error("failed to record approval", "videoId", video.ID, "error", err)
			respondError(ctx, w, http.StatusInternalServerError, "failed to record approval")
			return
		}
		h.appendLog(ctx, video.ID, "content_approved", map[string]any{
			"approvedBy": result.Approver,
			"comments":   result.Comments,
		})
		respondJSON(ctx, w, http.StatusOK, callbackAck{VideoID: video.ID, Result: "applied", State: lifecycle.StateApproved})
		return
	}

	h.noteForcedAnomaly(ctx, video, lifecycle.EventRejected)

	if err := h.Videos.SetState(ctx, video.ID, lifecycle.StateDraft); err != nil {
		logger.Error("failed to record rejection", "videoId", video.ID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to record rejection")
		return
	}
	h.appendLog(ctx, video.ID, "content_rejected", map[string]any{
		"rejectedBy": result.Approver,
		"comments":   result.Comments,
	})
	respondJSON(ctx, w, http.StatusOK, callbackAck{VideoID: video.ID, Result: "applied", State: lifecycle.StateDraft})
}

// PublicacionResponse handles POST /api/webhooks/publicacion-response
// requests. A confirmed publication backfills the platform URLs and purges
// the video's audit trail; a failed one only logs, leaving the state for a
// manual retry.
func (h CallbackHandler) PublicacionResponse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	body, ok := h.readCallbackBody(w, r, "publicacion-response")
	if !ok {
		return
	}

	result, err := automation.ParsePublicationResult(body)
	if err != nil {
		h.respondParseError(ctx, w, err)
		return
	}

	video, err := h.Videos.Get(ctx, result.VideoID)
	if err != nil {
		h.respondCallbackLookupError(ctx, w, result.VideoID, err)
		return
	}

	if !result.Success {
		h.appendLog(ctx, video.ID, "video_publication_failed", map[string]any{
			"error": result.Error,
		})
		respondJSON(ctx, w, http.StatusOK, callbackAck{VideoID: video.ID, Result: "applied", State: video.State})
		return
	}

	publishedAt := h.now()
	if result.PublishedAt != "" {
		if parsed, err := time.Parse(time.RFC3339, result.PublishedAt); err == nil {
			publishedAt = parsed.UTC()
		} else {
			logger.Warn("unparseable publishedAt in callback", "videoId", video.ID, "value", result.PublishedAt)
		}
	}

	urls := models.PlatformURLs{
		VideoHost: result.URLs.VideoHost,
		YouTube:   result.URLs.YouTube,
		LinkedIn:  result.URLs.LinkedIn,
		Twitter:   result.URLs.Twitter,
	}
	if err := h.Videos.ConfirmPublication(ctx, video.ID, urls, publishedAt); err != nil {
		logger.Error("failed to confirm publication", "videoId", video.ID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to record publication result")
		return
	}

	// the workflow is complete, the per-step trail has served its purpose
	if _, err := h.Logs.DeleteByVideo(ctx, video.ID); err != nil {
		logger.Warn("failed to purge workflow logs", "videoId", video.ID, "error", err)
	}

	h.appendLog(ctx, video.ID, "video_published_successfully", map[string]any{
		"videoUrl":    result.VideoURL,
		"publishedAt": publishedAt,
	})

	respondJSON(ctx, w, http.StatusOK, callbackAck{VideoID: video.ID, Result: "applied", State: lifecycle.StatePublished})
}

func (h CallbackHandler) readCallbackBody(w http.ResponseWriter, r *http.Request, scope string) ([]byte, bool) {
	ctx := r.Context()

	if !allowRequest(h.Limiter, r, scope) {
		respondError(ctx, w, http.StatusTooManyRequests, "too many requests")
		return nil, false
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxCallbackBody))
	if err != nil {
		logging.FromContext(ctx).Warn("failed to read callback body", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "unable to read request body")
		return nil, false
	}

	return body, true
}

func (h CallbackHandler) respondParseError(ctx context.Context, w http.ResponseWriter, err error) {
	if errors.Is(err, automation.ErrMissingVideoID) {
		respondError(ctx, w, http.StatusBadRequest, "videoId is required")
		return
	}
	logging.FromContext(ctx).Warn("unparseable callback payload", "error", err)
	respondError(ctx, w, http.StatusBadRequest, "invalid callback payload")
}

// respondCallbackLookupError acknowledges callbacks for unknown videos with
// 404 and an ignored result so the engine does not keep retrying.
func (h CallbackHandler) respondCallbackLookupError(ctx context.Context, w http.ResponseWriter, videoID string, err error) {
	if errors.Is(err, repositories.ErrNotFound) {
		respondJSON(ctx, w, http.StatusNotFound, callbackAck{VideoID: videoID, Result: "ignored"})
		return
	}
	logging.FromContext(ctx).Error("callback video lookup failed", "videoId", videoID, "error", err)
	respondError(ctx, w, http.StatusInternalServerError, "failed to load video")
}

// noteForcedAnomaly logs a callback arriving for a video whose state was not
// an expected source for the event. The callback still wins.
func (h CallbackHandler) noteForcedAnomaly(ctx context.Context, video models.Video, event lifecycle.Event) {
	if lifecycle.ExpectedFrom(video.State, event) {
		return
	}
	logging.FromContext(ctx).Warn("callback from unexpected state",
		"videoId", video.ID,
		"event", event,
		"state", video.State,
		"expected", lifecycle.Expected(event))
}

func (h CallbackHandler) appendLog(ctx context.Context, videoID, action string, details map[string]any) {
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

type callbackAck struct {
	VideoID string          `json:"videoId"`
	Result  string          `json:"result"`
	State   lifecycle.State `json:"state,omitempty"`
}
