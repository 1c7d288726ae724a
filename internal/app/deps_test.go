package app

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/streamingpro/backend/internal/config"
)

type fakePool struct{}

func (fakePool) Acquire(context.Context) (*pgxpool.Conn, error) {
	return nil, errors.New("not implemented")
}

func (fakePool) Close() {}

func TestBuildDependencies(t *testing.T) {
	cfg := config.Config{
		SchedulerInterval: time.Minute,
		RecentTopicsLimit: 30,
		LogRetention:      24 * time.Hour,
		CleanupInterval:   time.Hour,
		Automation: config.AutomationConfig{
			BaseURL:         "http://localhost:5678",
			GeneratePath:    "/webhook/generate-content",
			ApprovalPath:    "/webhook/send-approval",
			PublishPath:     "/webhook/publish-video",
			CallbackBaseURL: "http://localhost:8080",
			Timeout:         time.Second,
		},
		CallbackRateLimit: config.CallbackRateLimitConfig{
			Requests: 60,
			Window:   time.Minute,
			Burst:    10,
			TTL:      time.Minute,
		},
	}

	deps, sched, cleaner := buildDependencies(fakePool{}, cfg, nil, slog.Default())

	if deps.Users == nil {
		t.Fatal("expected user repository to be configured")
	}
	if deps.Sessions == nil {
		t.Fatal("expected session manager to be configured")
	}
	if deps.Videos == nil || deps.Prompts == nil || deps.Categorias == nil || deps.Logs == nil {
		t.Fatal("expected all repositories to be configured")
	}
	if deps.Generator == nil || deps.Approvals == nil || deps.Publisher == nil {
		t.Fatal("expected workflow services to be configured")
	}
	if deps.Cleanup == nil {
		t.Fatal("expected cleanup service to be configured")
	}
	if deps.CallbackLimiter == nil {
		t.Fatal("expected callback rate limiter to be configured")
	}
	if sched == nil {
		t.Fatal("expected scheduler instance")
	}
	if cleaner == nil {
		t.Fatal("expected cleaner instance")
	}
	if cleaner.Retention != cfg.LogRetention {
		t.Fatalf("retention = %v, want %v", cleaner.Retention, cfg.LogRetention)
	}
}
