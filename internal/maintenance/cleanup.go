package maintenance

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/streamingpro/backend/internal/lifecycle"
	"github.com/streamingpro/backend/internal/models"
	"github.com/streamingpro/backend/internal/repositories"
)

// Archiver parks log entries in long-term storage before they are purged.
type Archiver interface {
	Store(ctx context.Context, name string, body []byte) error
}

// LogCleanupStats summarizes one log cleanup run.
type LogCleanupStats struct {
	OrphanedDeleted int64 `json:"orphanedDeleted"`
	AgedDeleted     int64 `json:"agedDeleted"`
	Archived        int   `json:"archived"`
	Remaining       int64 `json:"remaining"`
}

// Cleaner purges stale workflow logs and abandoned videos. An optional
// Archiver receives a JSON snapshot of every purged batch.
type Cleaner struct {
	Videos    repositories.VideoRepository
	Logs      repositories.WorkflowLogRepository
	Archive   Archiver
	Retention time.Duration
	Logger    *slog.Logger

	NowFunc func() time.Time
}

func (c *Cleaner) now() time.Time {
	if c.NowFunc != nil {
		return c.NowFunc().UTC()
	}
	return time.Now().UTC()
}

func (c *Cleaner) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// CleanupLogs removes orphaned log entries and entries older than the
// retention window. Batches are archived first when an Archiver is
// configured; an archive failure aborts the purge so no audit data is lost.
func (c *Cleaner) CleanupLogs(ctx context.Context) (LogCleanupStats, error) {
	var stats LogCleanupStats

	orphans, err := c.Logs.ListOrphaned(ctx)
	if err != nil {
		return stats, fmt.Errorf("list orphaned logs: %w", err)
	}

	if len(orphans) > 0 {
		if err := c.archiveBatch(ctx, "orphaned", orphans); err != nil {
			return stats, err
		}
		stats.Archived += len(orphans)

		deleted, err := c.Logs.DeleteIDs(ctx, logIDs(orphans))
		if err != nil {
			return stats, fmt.Errorf("delete orphaned logs: %w", err)
		}
		stats.OrphanedDeleted = deleted
	}

	if c.Retention > 0 {
		cutoff := c.now().Add(-c.Retention)
		aged, err := c.Logs.ListOlderThan(ctx, cutoff)
		if err != nil {
			return stats, fmt.Errorf("list aged logs: %w", err)
		}

		if len(aged) > 0 {
			if err := c.archiveBatch(ctx, "aged", aged); err != nil {
				return stats, err
			}
			stats.Archived += len(aged)

			deleted, err := c.Logs.DeleteIDs(ctx, logIDs(aged))
			if err != nil {
				return stats, fmt.Errorf("delete aged logs: %w", err)
			}
			stats.AgedDeleted = deleted
		}
	}

	remaining, err := c.Logs.Count(ctx)
	if err != nil {
		return stats, fmt.Errorf("count remaining logs: %w", err)
	}
	stats.Remaining = remaining

	return stats, nil
}

// CleanupVideos bulk-deletes every unfinished video together with its logs
// and returns how many were removed. Scheduled and published videos survive.
func (c *Cleaner) CleanupVideos(ctx context.Context) (int64, error) {
	deleted, err := c.Videos.DeleteInStates(ctx, lifecycle.PurgeableStates())
	if err != nil {
		return 0, fmt.Errorf("delete unfinished videos: %w", err)
	}
	return deleted, nil
}

// Run executes log cleanup on a fixed interval until the context is
// canceled.
func (c *Cleaner) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger := c.logger()
	logger.Info("log cleanup loop started", "interval", interval.String(), "retention", c.Retention.String())

	for {
		select {
		case <-ctx.Done():
			logger.Info("log cleanup loop stopped")
			return
		case <-ticker.C:
			stats, err := c.CleanupLogs(ctx)
			if err != nil {
				logger.Error("log cleanup failed", "error", err)
				continue
			}
			if stats.OrphanedDeleted > 0 || stats.AgedDeleted > 0 {
				logger.Info("log cleanup finished",
					"orphanedDeleted", stats.OrphanedDeleted,
					"agedDeleted", stats.AgedDeleted,
					"archived", stats.Archived,
					"remaining", stats.Remaining)
			}
		}
	}
}

func (c *Cleaner) archiveBatch(ctx context.Context, kind string, batch []models.WorkflowLog) error {
	if c.Archive == nil {
		return nil
	}

	body, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("encode %s log batch: %w", kind, err)
	}

	name := fmt.Sprintf("workflow-logs/%s/%s.json", kind, c.now().Format("2006-01-02T15-04-05Z"))
	if err := c.Archive.Store(ctx, name, body); err != nil {
		return fmt.Errorf("archive %s log batch: %w", kind, err)
	}

	return nil
}

func logIDs(batch []models.WorkflowLog) []string {
	ids := make([]string, len(batch))
	for i, entry := range batch {
		ids[i] = entry.ID
	}
	return ids
}
