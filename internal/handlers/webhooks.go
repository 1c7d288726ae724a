package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/streamingpro/backend/internal/lifecycle"
	"github.com/streamingpro/backend/internal/logging"
	"github.com/streamingpro/backend/internal/repositories"
	"github.com/streamingpro/backend/internal/videos"
)

// WebhookHandler triggers outbound workflows on the automation engine.
type WebhookHandler struct {
	Prompts   repositories.PromptRepository
	Generator GenerationService
	Approvals ApprovalService
	Publisher PublishService
}

// GenerateContent handles POST /api/webhooks/generate-content requests.
func (h WebhookHandler) GenerateContent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PromptID == "" {
		respondError(ctx, w, http.StatusBadRequest, "promptId is required")
		return
	}

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

	video, err := h.Generator.RequestGeneration(ctx, prompt, ActorFromContext(ctx))
	if err != nil {
		if errors.Is(err, videos.ErrPromptInactive) {
			respondError(ctx, w, http.StatusBadRequest, "prompt is not active")
			return
		}
		logger.Error("generation dispatch failed", "promptId", req.PromptID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "automation engine rejected the generation request")
		return
	}

	respondJSON(ctx, w, http.StatusAccepted, map[string]any{
		"videoId": video.ID,
		"state":   video.State,
	})
}

// SendForApproval handles POST /api/webhooks/send-for-approval requests.
func (h WebhookHandler) SendForApproval(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	var req videoIDRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.VideoID == "" {
		respondError(ctx, w, http.StatusBadRequest, "videoId is required")
		return
	}

	video, err := h.Approvals.SendForApproval(ctx, req.VideoID, ActorFromContext(ctx))
	if err != nil {
		logger.Warn("send for approval failed", "videoId", req.VideoID, "error", err)
		h.respondWorkflowError(ctx, w, err, "send for approval")
		return
	}

	respondJSON(ctx, w, http.StatusAccepted, map[string]any{
		"videoId": video.ID,
		"state":   video.State,
	})
}

// PublicarVideo handles POST /api/webhooks/publicar-video requests, the
// operator's immediate publish.
func (h WebhookHandler) PublicarVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req publishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.VideoID == "" {
		respondError(ctx, w, http.StatusBadRequest, "videoId is required")
		return
	}

	video, err := h.Publisher.Publish(ctx, req.VideoID, req.VideoURL, ActorFromContext(ctx), false)
	if err != nil {
		if errors.Is(err, videos.ErrMissingVideoURL) {
			respondError(ctx, w, http.StatusBadRequest, "videoUrl is required")
			return
		}
		h.respondWorkflowError(ctx, w, err, "publish")
		return
	}

	respondJSON(ctx, w, http.StatusAccepted, map[string]any{
		"videoId":     video.ID,
		"state":       video.State,
		"publishedAt": video.PublishedAt,
	})
}

// PublishScheduled handles POST /api/internal/publish-scheduled requests, the
// background trigger for one due video. Unauthenticated: the caller is the
// poller, not an operator.
func (h WebhookHandler) PublishScheduled(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req publishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.VideoID == "" {
		respondError(ctx, w, http.StatusBadRequest, "videoId is required")
		return
	}

	video, err := h.Publisher.Publish(ctx, req.VideoID, req.VideoURL, "scheduler", true)
	if err != nil {
		if errors.Is(err, videos.ErrMissingVideoURL) {
			respondError(ctx, w, http.StatusBadRequest, "videoUrl is required")
			return
		}
		logging.FromContext(ctx).Error("scheduled publish trigger failed", "videoId", req.VideoID, "error", err)
		h.respondWorkflowError(ctx, w, err, "publish")
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{
		"videoId":     video.ID,
		"state":       video.State,
		"publishedAt": video.PublishedAt,
	})
}

// respondWorkflowError maps workflow service failures onto the API error
// contract: unknown video, illegal state, or a dead automation engine.
func (h WebhookHandler) respondWorkflowError(ctx context.Context, w http.ResponseWriter, err error, op string) {
	if errors.Is(err, repositories.ErrNotFound) {
		respondError(ctx, w, http.StatusNotFound, "video not found")
		return
	}

	var transErr *lifecycle.TransitionError
	if errors.As(err, &transErr) {
		respondError(ctx, w, http.StatusBadRequest,
			fmt.Sprintf("cannot %s: video is in state %q", op, transErr.Current))
		return
	}

	respondError(ctx, w, http.StatusInternalServerError,
		fmt.Sprintf("automation engine rejected the %s request", op))
}

type generateRequest struct {
	PromptID string `json:"promptId"`
}

type publishRequest struct {
	VideoID  string `json:"videoId"`
	VideoURL string `json:"videoUrl"`
}
