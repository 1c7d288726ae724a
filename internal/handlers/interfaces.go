package handlers

import (
	"context"

	"github.com/streamingpro/backend/internal/maintenance"
	"github.com/streamingpro/backend/internal/models"
)

// UserStore captures the persistence operations required by the auth
// handlers and middleware.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
}

// SessionManager issues, refreshes and validates authentication tokens.
type SessionManager interface {
	Issue(ctx context.Context, userID string) (models.SessionTokens, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	Validate(ctx context.Context, accessToken string) (string, error)
}

// GenerationService hands content generation off to the automation engine.
type GenerationService interface {
	RequestGeneration(ctx context.Context, prompt models.Prompt, actor string) (models.Video, error)
}

// ApprovalService pushes a draft into the email approval flow.
type ApprovalService interface {
	SendForApproval(ctx context.Context, videoID, actor string) (models.Video, error)
}

// PublishService publishes a video through the automation engine.
type PublishService interface {
	Publish(ctx context.Context, videoID, videoURL, actor string, scheduled bool) (models.Video, error)
}

// CleanupService purges stale audit data and abandoned videos.
type CleanupService interface {
	CleanupLogs(ctx context.Context) (maintenance.LogCleanupStats, error)
	CleanupVideos(ctx context.Context) (int64, error)
}
