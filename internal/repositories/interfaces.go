package repositories

import (
	"context"
	"time"

	"github.com/streamingpro/backend/internal/auth"
	"github.com/streamingpro/backend/internal/lifecycle"
	"github.com/streamingpro/backend/internal/models"
)

// VideoRepository defines the data access contract for videos.
type VideoRepository interface {
	Create(ctx context.Context, video models.Video) error
	Get(ctx context.Context, id string) (models.Video, error)
	UpdateContent(ctx context.Context, id string, content models.VideoContent) error
	List(ctx context.Context, opts ListVideosOptions) ([]models.Video, int, error)
	RecentTopics(ctx context.Context, limit int) ([]string, error)
	DueScheduled(ctx context.Context, now time.Time) ([]models.Video, error)

	Transition(ctx context.Context, id string, from []lifecycle.State, to lifecycle.State) (bool, error)
	SetState(ctx context.Context, id string, to lifecycle.State) error
	MarkErrored(ctx context.Context, id string) error
	ApplyGeneratedContent(ctx context.Context, id string, content models.VideoContent, to lifecycle.State) error
	RecordApproval(ctx context.Context, id string, from []lifecycle.State, approvedAt time.Time) (bool, error)
	MarkScheduled(ctx context.Context, id string, from []lifecycle.State, videoURL string, at time.Time) (bool, error)
	Reschedule(ctx context.Context, id string, at time.Time) (bool, error)
	CancelSchedule(ctx context.Context, id string) (bool, error)
	MarkPublished(ctx context.Context, id string, from []lifecycle.State, videoURL string, at time.Time) (bool, error)
	Restore(ctx context.Context, video models.Video) error
	ConfirmPublication(ctx context.Context, id string, urls models.PlatformURLs, publishedAt time.Time) error

	Delete(ctx context.Context, id string) error
	DeleteInStates(ctx context.Context, states []lifecycle.State) (int64, error)
}

// PromptRepository defines the data access contract for prompts.
type PromptRepository interface {
	Create(ctx context.Context, prompt models.Prompt) error
	Get(ctx context.Context, id string) (models.Prompt, error)
	List(ctx context.Context, activeOnly bool) ([]models.Prompt, error)
	Update(ctx context.Context, prompt models.Prompt) error
	Deactivate(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	VideoCount(ctx context.Context, id string) (int, error)
}

// CategoriaRepository defines the data access contract for categorias.
type CategoriaRepository interface {
	Create(ctx context.Context, categoria models.Categoria) error
	Get(ctx context.Context, id string) (models.Categoria, error)
	List(ctx context.Context, activeOnly bool) ([]models.Categoria, error)
	Update(ctx context.Context, categoria models.Categoria) error
	Delete(ctx context.Context, id string) error
}

// WorkflowLogRepository defines the data access contract for the audit
// trail.
type WorkflowLogRepository interface {
	Append(ctx context.Context, entry models.WorkflowLog) error
	ListByVideo(ctx context.Context, videoID string) ([]models.WorkflowLog, error)
	DeleteByVideo(ctx context.Context, videoID string) (int64, error)
	ListOrphaned(ctx context.Context) ([]models.WorkflowLog, error)
	ListOlderThan(ctx context.Context, cutoff time.Time) ([]models.WorkflowLog, error)
	DeleteIDs(ctx context.Context, ids []string) (int64, error)
	Count(ctx context.Context) (int64, error)
}

// UserRepository defines the data access contract for operator accounts.
type UserRepository interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
}

var _ VideoRepository = (*PostgresVideoRepository)(nil)
var _ PromptRepository = (*PostgresPromptRepository)(nil)
var _ CategoriaRepository = (*PostgresCategoriaRepository)(nil)
var _ WorkflowLogRepository = (*PostgresWorkflowLogRepository)(nil)
var _ UserRepository = (*PostgresUserRepository)(nil)
var _ auth.SessionStore = (*PostgresSessionStore)(nil)
