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

// PublishDispatcher triggers the external social publishing workflow.
type PublishDispatcher interface {
	RequestPublication(ctx context.Context, req automation.PublishRequest) error
}

// Publisher marks videos published and hands the actual social posting off
// to the automation engine.
type Publisher struct {
	Videos repositories.VideoRepository
	Logs   repositories.WorkflowLogRepository
	Engine PublishDispatcher

	NowFunc func() time.Time
}

func (p *Publisher) now() time.Time {
	if p.NowFunc != nil {
		return p.NowFunc().UTC()
	}
	return time.Now().UTC()
}

// Publish advances a video to published and dispatches the publication
// workflow. The state is written before the dispatch so the dashboard never
// shows an unpublished video whose workflow is already running; if the
// dispatch fails the previous snapshot is restored.
func (p *Publisher) Publish(ctx context.Context, videoID, videoURL, actor string, scheduled bool) (models.Video, error) {
	snapshot, err := p.Videos.Get(ctx, videoID)
	if err != nil {
		return models.Video{}, err
	}

	if videoURL == "" {
		videoURL = snapshot.VideoURL
	}
	if videoURL == "" {
		return models.Video{}, ErrMissingVideoURL
	}

	now := p.now()
	ok, err := p.Videos.MarkPublished(ctx, videoID, lifecycle.PublishableStates(), videoURL, now)
	if err != nil {
		return models.Video{}, fmt.Errorf("mark published: %w", err)
	}
	if !ok {
		return models.Video{}, &lifecycle.TransitionError{Current: snapshot.State, Event: lifecycle.EventPublish}
	}

	metadata := automation.MetadataFor(snapshot, actor, now)
	if scheduled {
		metadata.WasScheduled = true
		if snapshot.ScheduledFor != nil {
			metadata.OriginalScheduledFor = snapshot.ScheduledFor
		}
	}

	req := automation.PublishRequest{
		VideoID:  snapshot.ID,
		VideoURL: videoURL,
		Content:  automation.NormalizedContent(snapshot),
		Metadata: metadata,
	}

	if err := p.Engine.RequestPublication(ctx, req); err != nil {
		if restoreErr := p.Videos.Restore(ctx, snapshot); restoreErr != nil {
			logging.FromContext(ctx).Error("failed to restore video after dispatch failure", "videoId", videoID, "error", restoreErr)
		}
		return models.Video{}, fmt.Errorf("dispatch publication request: %w", err)
	}

	action := "video_sent_for_publication"
	if scheduled {
		action = "scheduled_video_sent_for_publication"
	}
	p.appendLog(ctx, snapshot.ID, action, map[string]any{
		"actor":    actor,
		"videoUrl": videoURL,
	})

	published := snapshot
	published.State = lifecycle.StatePublished
	published.VideoURL = videoURL
	published.PublishedAt = &now
	published.ScheduledFor = nil
	return published, nil
}

func (p *Publisher) appendLog(ctx context.Context, videoID, action string, details map[string]any) {
	if err := p.Logs.Append(ctx, models.WorkflowLog{
		ID:        uuid.NewString(),
		VideoID:   videoID,
		Action:    action,
		Details:   details,
		CreatedAt: p.now(),
	}); err != nil {
		logging.FromContext(ctx).Error("failed to append workflow log", "videoId", videoID, "action", action, "error", err)
	}
}
