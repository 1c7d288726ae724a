package app

import (
	"log/slog"
	"time"

	"github.com/streamingpro/backend/internal/auth"
	"github.com/streamingpro/backend/internal/automation"
	"github.com/streamingpro/backend/internal/config"
	"github.com/streamingpro/backend/internal/db"
	"github.com/streamingpro/backend/internal/handlers"
	"github.com/streamingpro/backend/internal/maintenance"
	"github.com/streamingpro/backend/internal/middleware"
	"github.com/streamingpro/backend/internal/repositories"
	"github.com/streamingpro/backend/internal/scheduler"
	"github.com/streamingpro/backend/internal/videos"
)

// buildDependencies wires together the concrete implementations used by the
// HTTP handlers and the background jobs. The archive may be nil, which leaves
// purged logs unarchived.
func buildDependencies(pool db.Pool, cfg config.Config, archive maintenance.Archiver, logger *slog.Logger) (handlers.Dependencies, *scheduler.Scheduler, *maintenance.Cleaner) {
	videoRepo := repositories.NewPostgresVideoRepository(pool)
	promptRepo := repositories.NewPostgresPromptRepository(pool)
	categoriaRepo := repositories.NewPostgresCategoriaRepository(pool)
	logRepo := repositories.NewPostgresWorkflowLogRepository(pool)
	userRepo := repositories.NewPostgresUserRepository(pool)
	sessionStore := repositories.NewPostgresSessionStore(pool)

	engine := automation.NewClient(cfg.Automation)

	generator := &videos.Generator{
		Videos:      videoRepo,
		Logs:        logRepo,
		Engine:      engine,
		TopicsLimit: cfg.RecentTopicsLimit,
	}
	approvals := &videos.ApprovalSender{
		Videos: videoRepo,
		Logs:   logRepo,
		Engine: engine,
		Email: automation.ApprovalEmail{
			Sender:      cfg.ApprovalEmail.Sender,
			SenderEmail: cfg.ApprovalEmail.SenderEmail,
			Subject:     cfg.ApprovalEmail.Subject,
		},
	}
	publisher := &videos.Publisher{
		Videos: videoRepo,
		Logs:   logRepo,
		Engine: engine,
	}

	sched := scheduler.New(videoRepo, logRepo, publisher, cfg.SchedulerInterval, logger)
	cleaner := &maintenance.Cleaner{
		Videos:    videoRepo,
		Logs:      logRepo,
		Archive:   archive,
		Retention: cfg.LogRetention,
		Logger:    logger,
	}

	deps := handlers.Dependencies{
		Users:      userRepo,
		Sessions:   auth.NewManager(15*time.Minute, 24*time.Hour, sessionStore),
		Videos:     videoRepo,
		Prompts:    promptRepo,
		Categorias: categoriaRepo,
		Logs:       logRepo,
		Generator:  generator,
		Approvals:  approvals,
		Publisher:  publisher,
		Cleanup:    cleaner,
		CallbackLimiter: middleware.NewIPRateLimiter(
			cfg.CallbackRateLimit.Requests,
			cfg.CallbackRateLimit.Window,
			cfg.CallbackRateLimit.Burst,
			cfg.CallbackRateLimit.TTL,
		),
	}

	return deps, sched, cleaner
}
