package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/streamingpro/backend/internal/lifecycle"
	"github.com/streamingpro/backend/internal/logging"
	"github.com/streamingpro/backend/internal/models"
	"github.com/streamingpro/backend/internal/repositories"
)

// ErrAlreadyStarted indicates Start was called on a running scheduler.
var ErrAlreadyStarted = errors.New("scheduler already started")

// Publisher publishes a single video. Satisfied by videos.Publisher.
type Publisher interface {
	Publish(ctx context.Context, videoID, videoURL, actor string, scheduled bool) (models.Video, error)
}

// Scheduler polls for scheduled videos whose slot has arrived and pushes
// them through the publish flow.
type Scheduler struct {
	videos    repositories.VideoRepository
	logs      repositories.WorkflowLogRepository
	publisher Publisher
	interval  time.Duration
	logger    *slog.Logger

	NowFunc func() time.Time

	mu      sync.Mutex
	cron    *cron.Cron
	started bool
}

// New constructs a Scheduler polling at the given interval.
func New(videos repositories.VideoRepository, logs repositories.WorkflowLogRepository, publisher Publisher, interval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		videos:    videos,
		logs:      logs,
		publisher: publisher,
		interval:  interval,
		logger:    logger,
	}
}

func (s *Scheduler) now() time.Time {
	if s.NowFunc != nil {
		return s.NowFunc().UTC()
	}
	return time.Now().UTC()
}

// Start begins the polling loop. Only one loop may run per Scheduler.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrAlreadyStarted
	}

	c := cron.New()
	spec := fmt.Sprintf("@every %s", s.interval)
	if _, err := c.AddFunc(spec, func() {
		ctx := logging.WithLogger(context.Background(), s.logger)
		if err := s.RunOnce(ctx); err != nil {
			s.logger.Error("scheduled publication sweep failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("register cron entry: %w", err)
	}

	c.Start()
	s.cron = c
	s.started = true
	s.logger.Info("scheduler started", "interval", s.interval.String())
	return nil
}

// Stop halts the polling loop and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	<-s.cron.Stop().Done()
	s.cron = nil
	s.started = false
	s.logger.Info("scheduler stopped")
}

// RunOnce performs a single sweep: every scheduled video whose slot has
// passed is published. Failures are isolated per video so one broken
// publication does not starve the rest of the batch.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	now := s.now()
	due, err := s.videos.DueScheduled(ctx, now)
	if err != nil {
		return fmt.Errorf("query due videos: %w", err)
	}

	if len(due) == 0 {
		return nil
	}

	s.logger.Info("publishing due videos", "count", len(due))

	for _, candidate := range due {
		// re-read so a cancel that landed after the query is respected
		video, err := s.videos.Get(ctx, candidate.ID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				continue
			}
			s.logger.Error("failed to reload due video", "videoId", candidate.ID, "error", err)
			continue
		}
		if video.State != lifecycle.StateScheduled {
			continue
		}

		s.appendLog(ctx, video.ID, "scheduled_publication_triggered", map[string]any{
			"scheduledFor": video.ScheduledFor,
		})

		if _, err := s.publisher.Publish(ctx, video.ID, "", "scheduler", true); err != nil {
			var transErr *lifecycle.TransitionError
			if errors.As(err, &transErr) {
				// lost the guard to a concurrent cancel, nothing to repair
				continue
			}

			s.logger.Error("scheduled publication failed", "videoId", video.ID, "error", err)
			// clears scheduled_for with the state write, the slot is spent
			if stateErr := s.videos.MarkErrored(ctx, video.ID); stateErr != nil {
				s.logger.Error("failed to mark video errored", "videoId", video.ID, "error", stateErr)
			}
			s.appendLog(ctx, video.ID, "scheduled_publication_failed", map[string]any{
				"error": err.Error(),
			})
			continue
		}
	}

	return nil
}

func (s *Scheduler) appendLog(ctx context.Context, videoID, action string, details map[string]any) {
	if err := s.logs.Append(ctx, models.WorkflowLog{
		ID:        uuid.NewString(),
		VideoID:   videoID,
		Action:    action,
		Details:   details,
		CreatedAt: s.now(),
	}); err != nil {
		s.logger.Error("failed to append workflow log", "videoId", videoID, "action", action, "error", err)
	}
}
