package videos

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/streamingpro/backend/internal/automation"
	"github.com/streamingpro/backend/internal/lifecycle"
	"github.com/streamingpro/backend/internal/logging"
	"github.com/streamingpro/backend/internal/models"
	"github.com/streamingpro/backend/internal/repositories"
)

// PlaceholderTitle is shown in the dashboard while the generation workflow
// runs.
const PlaceholderTitle = "Generating content..."

// GenerationDispatcher triggers the external content generation workflow.
type GenerationDispatcher interface {
	RequestGeneration(ctx context.Context, req automation.GenerationRequest) error
}

// Generator creates placeholder videos and hands generation off to the
// automation engine.
type Generator struct {
	Videos      repositories.VideoRepository
	Logs        repositories.WorkflowLogRepository
	Engine      GenerationDispatcher
	TopicsLimit int

	// NowFunc allows tests to control time. Defaults to time.Now.
	NowFunc func() time.Time
}

func (g *Generator) now() time.Time {
	if g.NowFunc != nil {
		return g.NowFunc().UTC()
	}
	return time.Now().UTC()
}

// RequestGeneration creates a placeholder video in waiting_for_ai and asks
// the automation engine to fill it. The placeholder is removed again when
// the dispatch itself fails, so a dead engine leaves no stuck rows behind.
func (g *Generator) RequestGeneration(ctx context.Context, prompt models.Prompt, actor string) (models.Video, error) {
	if !prompt.Active {
		return models.Video{}, ErrPromptInactive
	}

	logger := logging.FromContext(ctx)
	now := g.now()

	video := models.Video{
		ID:        uuid.NewString(),
		PromptID:  &prompt.ID,
		Title:     PlaceholderTitle,
		State:     lifecycle.StateWaitingForAI,
		CreatedAt: now,
		Prompt:    &prompt,
	}

	if err := g.Videos.Create(ctx, video); err != nil {
		return models.Video{}, fmt.Errorf("create placeholder video: %w", err)
	}

	topics, err := g.Videos.RecentTopics(ctx, g.TopicsLimit)
	if err != nil {
		// topics only steer the generator away from repeats, a failed
		// lookup must not block generation
		logger.Warn("failed to load recent topics", "error", err)
		topics = nil
	}

	req := automation.GenerationRequest{
		VideoID: video.ID,
		Prompt: automation.GenerationPrompt{
			ID:   prompt.ID,
			Name: prompt.Name,
			Body: prompt.Body,
		},
		RecentTopics:     topics,
		RecentTopicCount: len(topics),
		Timestamp:        now,
	}
	if prompt.Categoria != nil {
		req.Prompt.Categoria = &automation.GenerationCategoria{
			Name:  prompt.Categoria.Name,
			Color: prompt.Categoria.Color,
		}
	}

	if err := g.Engine.RequestGeneration(ctx, req); err != nil {
		if delErr := g.Videos.Delete(ctx, video.ID); delErr != nil {
			logger.Error("failed to remove placeholder after dispatch failure", "videoId", video.ID, "error", delErr)
		}
		return models.Video{}, fmt.Errorf("dispatch generation request: %w", err)
	}

	g.appendLog(ctx, video.ID, "content_generation_requested", map[string]any{
		"promptId":   prompt.ID,
		"promptName": prompt.Name,
		"actor":      actor,
	})

	return video, nil
}

func (g *Generator) appendLog(ctx context.Context, videoID, action string, details map[string]any) {
	if err := g.Logs.Append(ctx, models.WorkflowLog{
		ID:        uuid.NewString(),
		VideoID:   videoID,
		Action:    action,
		Details:   details,
		CreatedAt: g.now(),
	}); err != nil {
		logging.FromContext(ctx).Error("failed to append workflow log", "videoId", videoID, "action", action, "error", err)
	}
}
