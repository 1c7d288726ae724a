package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/streamingpro/backend/internal/db"
	"github.com/streamingpro/backend/internal/models"
)

// PostgresWorkflowLogRepository provides PostgreSQL-backed persistence for
// the append-only audit trail.
type PostgresWorkflowLogRepository struct {
	pool db.Pool
}

// NewPostgresWorkflowLogRepository constructs a workflow log repository
// backed by PostgreSQL.
func NewPostgresWorkflowLogRepository(pool db.Pool) *PostgresWorkflowLogRepository {
	return &PostgresWorkflowLogRepository{pool: pool}
}

// Append records a workflow log entry. Details are stored as JSONB.
func (r *PostgresWorkflowLogRepository) Append(ctx context.Context, entry models.WorkflowLog) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	details, err := json.Marshal(entry.Details)
	if err != nil {
		return fmt.Errorf("encode log details: %w", err)
	}

	_, err = conn.Exec(ctx, `
        INSERT INTO workflow_logs (id, video_id, action, details, created_at)
        VALUES ($1, $2, $3, $4, $5)
    `, entry.ID, entry.VideoID, entry.Action, details, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert workflow log: %w", err)
	}

	return nil
}

// ListByVideo returns all log entries for a video, oldest first.
func (r *PostgresWorkflowLogRepository) ListByVideo(ctx context.Context, videoID string) ([]models.WorkflowLog, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, video_id, action, details, created_at
        FROM workflow_logs
        WHERE video_id = $1
        ORDER BY created_at
    `, videoID)
	if err != nil {
		return nil, fmt.Errorf("query workflow logs: %w", err)
	}
	defer rows.Close()

	return collectLogs(rows)
}

// DeleteByVideo removes all log entries for a video and returns the count.
func (r *PostgresWorkflowLogRepository) DeleteByVideo(ctx context.Context, videoID string) (int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM workflow_logs WHERE video_id = $1`, videoID)
	if err != nil {
		return 0, fmt.Errorf("delete workflow logs: %w", err)
	}

	return tag.RowsAffected(), nil
}

// ListOrphaned returns log entries whose video no longer exists.
func (r *PostgresWorkflowLogRepository) ListOrphaned(ctx context.Context) ([]models.WorkflowLog, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT l.id, l.video_id, l.action, l.details, l.created_at
        FROM workflow_logs l
        LEFT JOIN videos v ON v.id = l.video_id
        WHERE v.id IS NULL
        ORDER BY l.created_at
    `)
	if err != nil {
		return nil, fmt.Errorf("query orphaned logs: %w", err)
	}
	defer rows.Close()

	return collectLogs(rows)
}

// ListOlderThan returns log entries created before the cutoff, oldest first.
func (r *PostgresWorkflowLogRepository) ListOlderThan(ctx context.Context, cutoff time.Time) ([]models.WorkflowLog, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, video_id, action, details, created_at
        FROM workflow_logs
        WHERE created_at < $1
        ORDER BY created_at
    `, cutoff)
	if err != nil {
		return nil, fmt.Errorf("query aged logs: %w", err)
	}
	defer rows.Close()

	return collectLogs(rows)
}

// DeleteIDs removes the given log entries and returns the count.
func (r *PostgresWorkflowLogRepository) DeleteIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM workflow_logs WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, fmt.Errorf("delete logs by id: %w", err)
	}

	return tag.RowsAffected(), nil
}

// Count reports the total number of log entries.
func (r *PostgresWorkflowLogRepository) Count(ctx context.Context) (int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var count int64
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM workflow_logs`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count workflow logs: %w", err)
	}

	return count, nil
}

func collectLogs(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]models.WorkflowLog, error) {
	var logs []models.WorkflowLog
	for rows.Next() {
		var (
			entry   models.WorkflowLog
			details []byte
		)
		if err := rows.Scan(&entry.ID, &entry.VideoID, &entry.Action, &details, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan workflow log: %w", err)
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &entry.Details); err != nil {
				return nil, fmt.Errorf("decode log details: %w", err)
			}
		}
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate workflow logs: %w", err)
	}

	return logs, nil
}
