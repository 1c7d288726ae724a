package videos

import (
	"context"
	"errors"
	"time"

	"github.com/streamingpro/backend/internal/automation"
	"github.com/streamingpro/backend/internal/lifecycle"
	"github.com/streamingpro/backend/internal/models"
	"github.com/streamingpro/backend/internal/repositories"
)

// stubVideoRepo implements repositories.VideoRepository with overridable
// behaviour per test.
type stubVideoRepo struct {
	createFn        func(ctx context.Context, video models.Video) error
	getFn           func(ctx context.Context, id string) (models.Video, error)
	recentTopicsFn  func(ctx context.Context, limit int) ([]string, error)
	transitionFn    func(ctx context.Context, id string, from []lifecycle.State, to lifecycle.State) (bool, error)
	markPublishedFn func(ctx context.Context, id string, from []lifecycle.State, videoURL string, at time.Time) (bool, error)
	restoreFn       func(ctx context.Context, video models.Video) error
	deleteFn        func(ctx context.Context, id string) error
}

func (s *stubVideoRepo) Create(ctx context.Context, video models.Video) error {
	if s.createFn != nil {
		return s.createFn(ctx, video)
	}
	return nil
}

func (s *stubVideoRepo) Get(ctx context.Context, id string) (models.Video, error) {
	if s.getFn != nil {
		return s.getFn(ctx, id)
	}
	return models.Video{}, repositories.ErrNotFound
}

func (s *stubVideoRepo) UpdateContent(context.Context, string, models.VideoContent) error {
	return errors.New("not implemented")
}

func (s *stubVideoRepo) List(context.Context, repositories.ListVideosOptions) ([]models.Video, int, error) {
	return nil, 0, errors.New("not implemented")
}

func (s *stubVideoRepo) RecentTopics(ctx context.Context, limit int) ([]string, error) {
	if s.recentTopicsFn != nil {
		return s.recentTopicsFn(ctx, limit)
	}
	return nil, nil
}

func (s *stubVideoRepo) DueScheduled(context.Context, time.Time) ([]models.Video, error) {
	return nil, errors.New("not implemented")
}

func (s *stubVideoRepo) Transition(ctx context.Context, id string, from []lifecycle.State, to lifecycle.State) (bool, error) {
	if s.transitionFn != nil {
		return s.transitionFn(ctx, id, from, to)
	}
	return true, nil
}

func (s *stubVideoRepo) SetState(context.Context, string, lifecycle.State) error {
	return errors.New("not implemented")
}

func (s *stubVideoRepo) MarkErrored(context.Context, string) error {
	return errors.New("not implemented")
}

func (s *stubVideoRepo) ApplyGeneratedContent(context.Context, string, models.VideoContent, lifecycle.State) error {
	return errors.New("not implemented")
}

func (s *stubVideoRepo) RecordApproval(context.Context, string, []lifecycle.State, time.Time) (bool, error) {
	return false, errors.New("not implemented")
}

func (s *stubVideoRepo) MarkScheduled(context.Context, string, []lifecycle.State, string, time.Time) (bool, error) {
	return false, errors.New("not implemented")
}

func (s *stubVideoRepo) Reschedule(context.Context, string, time.Time) (bool, error) {
	return false, errors.New("not implemented")
}

func (s *stubVideoRepo) CancelSchedule(context.Context, string) (bool, error) {
	return false, errors.New("not implemented")
}

func (s *stubVideoRepo) MarkPublished(ctx context.Context, id string, from []lifecycle.State, videoURL string, at time.Time) (bool, error) {
	if s.markPublishedFn != nil {
		return s.markPublishedFn(ctx, id, from, videoURL, at)
	}
	return true, nil
}

func (s *stubVideoRepo) Restore(ctx context.Context, video models.Video) error {
	if s.restoreFn != nil {
		return s.restoreFn(ctx, video)
	}
	return nil
}

func (s *stubVideoRepo) ConfirmPublication(context.Context, string, models.PlatformURLs, time.Time) error {
	return errors.New("not implemented")
}

func (s *stubVideoRepo) Delete(ctx context.Context, id string) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, id)
	}
	return nil
}

func (s *stubVideoRepo) DeleteInStates(context.Context, []lifecycle.State) (int64, error) {
	return 0, errors.New("not implemented")
}

// stubLogRepo records appended workflow log entries.
type stubLogRepo struct {
	entries []models.WorkflowLog
	err     error
}

func (s *stubLogRepo) Append(_ context.Context, entry models.WorkflowLog) error {
	if s.err != nil {
		return s.err
	}
	s.entries = append(s.entries, entry)
	return nil
}

func (s *stubLogRepo) ListByVideo(context.Context, string) ([]models.WorkflowLog, error) {
	return nil, errors.New("not implemented")
}

func (s *stubLogRepo) DeleteByVideo(context.Context, string) (int64, error) {
	return 0, errors.New("not implemented")
}

func (s *stubLogRepo) ListOrphaned(context.Context) ([]models.WorkflowLog, error) {
	return nil, errors.New("not implemented")
}

func (s *stubLogRepo) ListOlderThan(context.Context, time.Time) ([]models.WorkflowLog, error) {
	return nil, errors.New("not implemented")
}

func (s *stubLogRepo) DeleteIDs(context.Context, []string) (int64, error) {
	return 0, errors.New("not implemented")
}

func (s *stubLogRepo) Count(context.Context) (int64, error) {
	return 0, errors.New("not implemented")
}

func (s *stubLogRepo) actions() []string {
	var out []string
	for _, entry := range s.entries {
		out = append(out, entry.Action)
	}
	return out
}

// stubEngine captures dispatched automation requests.
type stubEngine struct {
	generationErr  error
	approvalErr    error
	publicationErr error

	generations  []automation.GenerationRequest
	approvals    []automation.ApprovalRequest
	publications []automation.PublishRequest
}

func (s *stubEngine) RequestGeneration(_ context.Context, req automation.GenerationRequest) error {
	if s.generationErr != nil {
		return s.generationErr
	}
	s.generations = append(s.generations, req)
	return nil
}

func (s *stubEngine) RequestApproval(_ context.Context, req automation.ApprovalRequest) error {
	if s.approvalErr != nil {
		return s.approvalErr
	}
	s.approvals = append(s.approvals, req)
	return nil
}

func (s *stubEngine) RequestPublication(_ context.Context, req automation.PublishRequest) error {
	if s.publicationErr != nil {
		return s.publicationErr
	}
	s.publications = append(s.publications, req)
	return nil
}

var _ repositories.VideoRepository = (*stubVideoRepo)(nil)
var _ repositories.WorkflowLogRepository = (*stubLogRepo)(nil)
