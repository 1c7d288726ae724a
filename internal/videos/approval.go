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

// ApprovalDispatcher triggers the external email approval workflow.
type ApprovalDispatcher interface {
	RequestApproval(ctx context.Context, req automation.ApprovalRequest) error
}

// ApprovalSender moves drafts into the approval flow and dispatches the
// approval email through the automation engine.
type ApprovalSender struct {
	Videos repositories.VideoRepository
	Logs   repositories.WorkflowLogRepository
	Engine ApprovalDispatcher
	Email  automation.ApprovalEmail

	NowFunc func() time.Time
}

func (s *ApprovalSender) now() time.Time {
	if s.NowFunc != nil {
		return s.NowFunc().UTC()
	}
	return time.Now().UTC()
}

// SendForApproval transitions a draft to waiting_for_approval and asks the
// automation engine to send the approval email. The transition is rolled
// back when the dispatch fails.
func (s *ApprovalSender) SendForApproval(ctx context.Context, videoID, actor string) (models.Video, error) {
	video, err := s.Videos.Get(ctx, videoID)
	if err != nil {
		return models.Video{}, err
	}

	next, err := lifecycle.Next(video.State, lifecycle.EventSendForApproval)
	if err != nil {
		return models.Video{}, err
	}

	ok, err := s.Videos.Transition(ctx, videoID, lifecycle.Expected(lifecycle.EventSendForApproval), next)
	if err != nil {
		return models.Video{}, fmt.Errorf("transition to approval: %w", err)
	}
	if !ok {
		// someone else moved the video between our read and the write
		current, getErr := s.Videos.Get(ctx, videoID)
		if getErr != nil {
			return models.Video{}, getErr
		}
		return models.Video{}, &lifecycle.TransitionError{Current: current.State, Event: lifecycle.EventSendForApproval}
	}

	now := s.now()
	email := s.Email
	email.SentAt = now

	req := automation.ApprovalRequest{
		VideoID:  video.ID,
		Content:  automation.NormalizedContent(video),
		Metadata: automation.MetadataFor(video, actor, now),
		Email:    email,
	}

	if err := s.Engine.RequestApproval(ctx, req); err != nil {
		reverted, revertErr := s.Videos.Transition(ctx, videoID, []lifecycle.State{next}, video.State)
		if revertErr != nil {
			logging.FromContext(ctx).Error("failed to revert approval transition", "videoId", videoID, "error", revertErr)
		} else if !reverted {
			logging.FromContext(ctx).Warn("approval revert skipped, state changed concurrently", "videoId", videoID)
		}
		return models.Video{}, fmt.Errorf("dispatch approval request: %w", err)
	}

	s.appendLog(ctx, video.ID, "sent_for_approval", map[string]any{
		"actor": actor,
		"title": video.Title,
	})

	video.State = next
	return video, nil
}

func (s *ApprovalSender) appendLog(ctx context.Context, videoID, action string, details map[string]any) {
	if err := s.Logs.Append(ctx, models.WorkflowLog{
		ID:        uuid.NewString(),
		VideoID:   videoID,
		Action:    action,
		Details:   details,
		CreatedAt: s.now(),
	}); err != nil {
		logging.FromContext(ctx).Error("failed to append workflow log", "videoId", videoID, "action", action, "error", err)
	}
}
