package handlers

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/streamingpro/backend/internal/lifecycle"
	"github.com/streamingpro/backend/internal/maintenance"
	"github.com/streamingpro/backend/internal/models"
	"github.com/streamingpro/backend/internal/repositories"
)

var errStubUnimplemented = errors.New("stub method not implemented")

// stubVideos overrides only the methods a test needs; everything else panics
// through the nil embedded interface or returns errStubUnimplemented.
type stubVideos struct {
	repositories.VideoRepository

	createFn             func(ctx context.Context, video models.Video) error
	getFn                func(ctx context.Context, id string) (models.Video, error)
	updateContentFn      func(ctx context.Context, id string, content models.VideoContent) error
	listFn               func(ctx context.Context, opts repositories.ListVideosOptions) ([]models.Video, int, error)
	recordApprovalFn     func(ctx context.Context, id string, from []lifecycle.State, approvedAt time.Time) (bool, error)
	markScheduledFn      func(ctx context.Context, id string, from []lifecycle.State, videoURL string, at time.Time) (bool, error)
	rescheduleFn         func(ctx context.Context, id string, at time.Time) (bool, error)
	cancelScheduleFn     func(ctx context.Context, id string) (bool, error)
	transitionFn         func(ctx context.Context, id string, from []lifecycle.State, to lifecycle.State) (bool, error)
	setStateFn           func(ctx context.Context, id string, to lifecycle.State) error
	applyGeneratedFn     func(ctx context.Context, id string, content models.VideoContent, to lifecycle.State) error
	confirmPublicationFn func(ctx context.Context, id string, urls models.PlatformURLs, publishedAt time.Time) error
	deleteFn             func(ctx context.Context, id string) error
}

func (s *stubVideos) Create(ctx context.Context, video models.Video) error {
	if s.createFn == nil {
		return errStubUnimplemented
	}
	return s.createFn(ctx, video)
}

func (s *stubVideos) Get(ctx context.Context, id string) (models.Video, error) {
	if s.getFn == nil {
		return models.Video{}, errStubUnimplemented
	}
	return s.getFn(ctx, id)
}

func (s *stubVideos) UpdateContent(ctx context.Context, id string, content models.VideoContent) error {
	if s.updateContentFn == nil {
		return errStubUnimplemented
	}
	return s.updateContentFn(ctx, id, content)
}

func (s *stubVideos) List(ctx context.Context, opts repositories.ListVideosOptions) ([]models.Video, int, error) {
	if s.listFn == nil {
		return nil, 0, errStubUnimplemented
	}
	return s.listFn(ctx, opts)
}

func (s *stubVideos) RecordApproval(ctx context.Context, id string, from []lifecycle.State, approvedAt time.Time) (bool, error) {
	if s.recordApprovalFn == nil {
		return false, errStubUnimplemented
	}
	return s.recordApprovalFn(ctx, id, from, approvedAt)
}

func (s *stubVideos) MarkScheduled(ctx context.Context, id string, from []lifecycle.State, videoURL string, at time.Time) (bool, error) {
	if s.markScheduledFn == nil {
		return false, errStubUnimplemented
	}
	return s.markScheduledFn(ctx, id, from, videoURL, at)
}

func (s *stubVideos) Reschedule(ctx context.Context, id string, at time.Time) (bool, error) {
	if s.rescheduleFn == nil {
		return false, errStubUnimplemented
	}
	return s.rescheduleFn(ctx, id, at)
}

func (s *stubVideos) CancelSchedule(ctx context.Context, id string) (bool, error) {
	if s.cancelScheduleFn == nil {
		return false, errStubUnimplemented
	}
	return s.cancelScheduleFn(ctx, id)
}

func (s *stubVideos) Transition(ctx context.Context, id string, from []lifecycle.State, to lifecycle.State) (bool, error) {
	if s.transitionFn == nil {
		return false, errStubUnimplemented
	}
	return s.transitionFn(ctx, id, from, to)
}

func (s *stubVideos) SetState(ctx context.Context, id string, to lifecycle.State) error {
	if s.setStateFn == nil {
		return errStubUnimplemented
	}
	return s.setStateFn(ctx, id, to)
}

func (s *stubVideos) ApplyGeneratedContent(ctx context.Context, id string, content models.VideoContent, to lifecycle.State) error {
	if s.applyGeneratedFn == nil {
		return errStubUnimplemented
	}
	return s.applyGeneratedFn(ctx, id, content, to)
}

func (s *stubVideos) ConfirmPublication(ctx context.Context, id string, urls models.PlatformURLs, publishedAt time.Time) error {
	if s.confirmPublicationFn == nil {
		return errStubUnimplemented
	}
	return s.confirmPublicationFn(ctx, id, urls, publishedAt)
}

func (s *stubVideos) Delete(ctx context.Context, id string) error {
	if s.deleteFn == nil {
		return errStubUnimplemented
	}
	return s.deleteFn(ctx, id)
}

// stubLogs records appended entries and deletions.
type stubLogs struct {
	repositories.WorkflowLogRepository

	mu      sync.Mutex
	entries []models.WorkflowLog
	purged  []string
}

func (s *stubLogs) Append(_ context.Context, entry models.WorkflowLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *stubLogs) DeleteByVideo(_ context.Context, videoID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purged = append(s.purged, videoID)
	return 1, nil
}

func (s *stubLogs) actions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.Action)
	}
	return out
}

type stubPrompts struct {
	repositories.PromptRepository

	createFn     func(ctx context.Context, prompt models.Prompt) error
	getFn        func(ctx context.Context, id string) (models.Prompt, error)
	listFn       func(ctx context.Context, activeOnly bool) ([]models.Prompt, error)
	updateFn     func(ctx context.Context, prompt models.Prompt) error
	deactivateFn func(ctx context.Context, id string) error
	deleteFn     func(ctx context.Context, id string) error
	videoCountFn func(ctx context.Context, id string) (int, error)
}

func (s *stubPrompts) Create(ctx context.Context, prompt models.Prompt) error {
	if s.createFn == nil {
		return errStubUnimplemented
	}
	return s.createFn(ctx, prompt)
}

func (s *stubPrompts) Get(ctx context.Context, id string) (models.Prompt, error) {
	if s.getFn == nil {
		return models.Prompt{}, errStubUnimplemented
	}
	return s.getFn(ctx, id)
}

func (s *stubPrompts) List(ctx context.Context, activeOnly bool) ([]models.Prompt, error) {
	if s.listFn == nil {
		return nil, errStubUnimplemented
	}
	return s.listFn(ctx, activeOnly)
}

func (s *stubPrompts) Update(ctx context.Context, prompt models.Prompt) error {
	if s.updateFn == nil {
		return errStubUnimplemented
	}
	return s.updateFn(ctx, prompt)
}

func (s *stubPrompts) Deactivate(ctx context.Context, id string) error {
	if s.deactivateFn == nil {
		return errStubUnimplemented
	}
	return s.deactivateFn(ctx, id)
}

func (s *stubPrompts) Delete(ctx context.Context, id string) error {
	if s.deleteFn == nil {
		return errStubUnimplemented
	}
	return s.deleteFn(ctx, id)
}

func (s *stubPrompts) VideoCount(ctx context.Context, id string) (int, error) {
	if s.videoCountFn == nil {
		return 0, errStubUnimplemented
	}
	return s.videoCountFn(ctx, id)
}

type stubCategorias struct {
	repositories.CategoriaRepository

	createFn func(ctx context.Context, categoria models.Categoria) error
	getFn    func(ctx context.Context, id string) (models.Categoria, error)
	listFn   func(ctx context.Context, activeOnly bool) ([]models.Categoria, error)
	updateFn func(ctx context.Context, categoria models.Categoria) error
	deleteFn func(ctx context.Context, id string) error
}

func (s *stubCategorias) Create(ctx context.Context, categoria models.Categoria) error {
	if s.createFn == nil {
		return errStubUnimplemented
	}
	return s.createFn(ctx, categoria)
}

func (s *stubCategorias) Get(ctx context.Context, id string) (models.Categoria, error) {
	if s.getFn == nil {
		return models.Categoria{}, errStubUnimplemented
	}
	return s.getFn(ctx, id)
}

func (s *stubCategorias) List(ctx context.Context, activeOnly bool) ([]models.Categoria, error) {
	if s.listFn == nil {
		return nil, errStubUnimplemented
	}
	return s.listFn(ctx, activeOnly)
}

func (s *stubCategorias) Update(ctx context.Context, categoria models.Categoria) error {
	if s.updateFn == nil {
		return errStubUnimplemented
	}
	return s.updateFn(ctx, categoria)
}

func (s *stubCategorias) Delete(ctx context.Context, id string) error {
	if s.deleteFn == nil {
		return errStubUnimplemented
	}
	return s.deleteFn(ctx, id)
}

type stubUsers struct {
	byEmail map[string]models.User
	byID    map[string]models.User
}

func (s *stubUsers) FindByEmail(_ context.Context, email string) (models.User, error) {
	if user, ok := s.byEmail[email]; ok {
		return user, nil
	}
	return models.User{}, repositories.ErrNotFound
}

func (s *stubUsers) FindByID(_ context.Context, id string) (models.User, error) {
	if user, ok := s.byID[id]; ok {
		return user, nil
	}
	return models.User{}, repositories.ErrNotFound
}

type stubSessions struct {
	issueFn    func(ctx context.Context, userID string) (models.SessionTokens, error)
	refreshFn  func(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	validateFn func(ctx context.Context, accessToken string) (string, error)
}

func (s *stubSessions) Issue(ctx context.Context, userID string) (models.SessionTokens, error) {
	if s.issueFn == nil {
		return models.SessionTokens{}, errStubUnimplemented
	}
	return s.issueFn(ctx, userID)
}

func (s *stubSessions) Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error) {
	if s.refreshFn == nil {
		return models.SessionTokens{}, errStubUnimplemented
	}
	return s.refreshFn(ctx, refreshToken)
}

func (s *stubSessions) Validate(ctx context.Context, accessToken string) (string, error) {
	if s.validateFn == nil {
		return "", errStubUnimplemented
	}
	return s.validateFn(ctx, accessToken)
}

type stubGenerator struct {
	fn func(ctx context.Context, prompt models.Prompt, actor string) (models.Video, error)
}

func (s stubGenerator) RequestGeneration(ctx context.Context, prompt models.Prompt, actor string) (models.Video, error) {
	return s.fn(ctx, prompt, actor)
}

type stubApprovals struct {
	fn func(ctx context.Context, videoID, actor string) (models.Video, error)
}

func (s stubApprovals) SendForApproval(ctx context.Context, videoID, actor string) (models.Video, error) {
	return s.fn(ctx, videoID, actor)
}

type stubPublisher struct {
	fn func(ctx context.Context, videoID, videoURL, actor string, scheduled bool) (models.Video, error)
}

func (s stubPublisher) Publish(ctx context.Context, videoID, videoURL, actor string, scheduled bool) (models.Video, error) {
	return s.fn(ctx, videoID, videoURL, actor, scheduled)
}

type stubCleanup struct {
	stats   maintenance.LogCleanupStats
	deleted int64
	err     error
}

func (s stubCleanup) CleanupLogs(context.Context) (maintenance.LogCleanupStats, error) {
	return s.stats, s.err
}

func (s stubCleanup) CleanupVideos(context.Context) (int64, error) {
	return s.deleted, s.err
}

type stubLimiter struct {
	allow bool
	keys  []string
}

func (s *stubLimiter) Allow(key string) bool {
	s.keys = append(s.keys, key)
	return s.allow
}
