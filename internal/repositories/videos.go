package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/streamingpro/backend/internal/db"
	"github.com/streamingpro/backend/internal/lifecycle"
	"github.com/streamingpro/backend/internal/models"
)

// PostgresVideoRepository provides PostgreSQL-backed persistence for videos.
type PostgresVideoRepository struct {
	pool db.Pool
}

// NewPostgresVideoRepository constructs a video repository backed by
// PostgreSQL.
func NewPostgresVideoRepository(pool db.Pool) *PostgresVideoRepository {
	return &PostgresVideoRepository{pool: pool}
}

const videoColumns = `
        v.id, v.prompt_id, v.title, v.topic, v.script, v.linkedin_text, v.tweet,
        v.description, v.state, v.video_url, v.video_host_url, v.youtube_url,
        v.linkedin_url, v.twitter_url, v.created_at, v.approved_at,
        v.published_at, v.scheduled_for`

const videoJoin = `
        LEFT JOIN prompts p ON p.id = v.prompt_id
        LEFT JOIN categorias c ON c.id = p.categoria_id`

const promptColumns = `
        p.id, p.name, p.description, p.body, p.categoria_id, p.active, p.created_at,
        c.id, c.name, c.color, c.active, c.created_at`

// Create persists a new video record.
func (r *PostgresVideoRepository) Create(ctx context.Context, video models.Video) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO videos (id, prompt_id, title, topic, script, linkedin_text, tweet,
                description, state, video_url, video_host_url, youtube_url, linkedin_url,
                twitter_url, created_at, approved_at, published_at, scheduled_for)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
    `, video.ID, video.PromptID, video.Title, video.Topic, video.Script, video.LinkedInText,
		video.Tweet, video.Description, string(video.State), video.VideoURL, video.VideoHostURL,
		video.YouTubeURL, video.LinkedInURL, video.TwitterURL, video.CreatedAt,
		video.ApprovedAt, video.PublishedAt, video.ScheduledFor)
	if err != nil {
		if isPgCode(err, "23505") {
			return ErrConflict
		}
		if isPgCode(err, "23503") {
			return ErrNotFound
		}
		return fmt.Errorf("insert video: %w", err)
	}

	return nil
}

// Get fetches a video with its prompt and categoria attached.
func (r *PostgresVideoRepository) Get(ctx context.Context, id string) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT `+videoColumns+`, `+promptColumns+`
        FROM videos v`+videoJoin+`
        WHERE v.id = $1
    `, id)

	video, err := scanVideoWithPrompt(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, fmt.Errorf("select video: %w", err)
	}

	return video, nil
}

// UpdateContent overwrites the editable text fields, leaving state untouched.
func (r *PostgresVideoRepository) UpdateContent(ctx context.Context, id string, content models.VideoContent) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE videos
        SET title = $2, topic = $3, script = $4, linkedin_text = $5, tweet = $6, description = $7
        WHERE id = $1
    `, id, content.Title, content.Topic, content.Script, content.LinkedInText, content.Tweet, content.Description)
	if err != nil {
		return fmt.Errorf("update video content: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// ListVideosOptions shape the dashboard listing.
type ListVideosOptions struct {
	HidePublished bool
	TodayOnly     bool
	Page          int
	Limit         int
	Now           time.Time
}

// List returns one page of videos plus the total row count for the filters.
func (r *PostgresVideoRepository) List(ctx context.Context, opts ListVideosOptions) ([]models.Video, int, error) {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit < 1 {
		opts.Limit = 10
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now().UTC()
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var (
		conditions []string
		args       []any
	)
	if opts.HidePublished {
		args = append(args, string(lifecycle.StatePublished))
		conditions = append(conditions, fmt.Sprintf("v.state <> $%d", len(args)))
	}
	if opts.TodayOnly {
		dayStart := opts.Now.Truncate(24 * time.Hour)
		args = append(args, dayStart)
		conditions = append(conditions, fmt.Sprintf("v.created_at >= $%d", len(args)))
		args = append(args, dayStart.Add(24*time.Hour))
		conditions = append(conditions, fmt.Sprintf("v.created_at < $%d", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM videos v`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count videos: %w", err)
	}

	offset := (opts.Page - 1) * opts.Limit
	args = append(args, opts.Limit, offset)
	rows, err := conn.Query(ctx, fmt.Sprintf(`
        SELECT %s, %s
        FROM videos v%s%s
        ORDER BY v.created_at DESC
        LIMIT $%d OFFSET $%d
    `, videoColumns, promptColumns, videoJoin, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query videos: %w", err)
	}
	defer rows.Close()

	var videos []models.Video
	for rows.Next() {
		video, err := scanVideoWithPrompt(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, video)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate videos: %w", err)
	}

	return videos, total, nil
}

// RecentTopics returns the most recent distinct topics, newest first, for
// novelty avoidance in generation requests.
func (r *PostgresVideoRepository) RecentTopics(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 30
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT topic
        FROM (
            SELECT DISTINCT ON (topic) topic, created_at
            FROM videos
            WHERE topic <> ''
            ORDER BY topic, created_at DESC
        ) t
        ORDER BY t.created_at DESC
        LIMIT $1
    `, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent topics: %w", err)
	}
	defer rows.Close()

	var topics []string
	for rows.Next() {
		var topic string
		if err := rows.Scan(&topic); err != nil {
			return nil, fmt.Errorf("scan topic: %w", err)
		}
		topics = append(topics, topic)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate topics: %w", err)
	}

	return topics, nil
}

// DueScheduled returns scheduled videos whose publish time has arrived.
func (r *PostgresVideoRepository) DueScheduled(ctx context.Context, now time.Time) ([]models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+videoColumns+`, `+promptColumns+`
        FROM videos v`+videoJoin+`
        WHERE v.state = $1 AND v.scheduled_for IS NOT NULL AND v.scheduled_for <= $2
        ORDER BY v.scheduled_for
    `, string(lifecycle.StateScheduled), now)
	if err != nil {
		return nil, fmt.Errorf("query due videos: %w", err)
	}
	defer rows.Close()

	var videos []models.Video
	for rows.Next() {
		video, err := scanVideoWithPrompt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan due video: %w", err)
		}
		videos = append(videos, video)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate due videos: %w", err)
	}

	return videos, nil
}

// Transition moves a video between states only when the current state is one
// of the expected sources. The expected-state guard lives in the same UPDATE
// so a concurrent writer cannot slip between read and write. The first return
// reports whether the write was applied.
func (r *PostgresVideoRepository) Transition(ctx context.Context, id string, from []lifecycle.State, to lifecycle.State) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE videos
        SET state = $3
        WHERE id = $1 AND state = ANY($2)
    `, id, stateStrings(from), string(to))
	if err != nil {
		return false, fmt.Errorf("transition video: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// SetState force-writes the state regardless of the current value. Used by
// callback handlers, where the external engine is authoritative.
func (r *PostgresVideoRepository) SetState(ctx context.Context, id string, to lifecycle.State) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `UPDATE videos SET state = $2 WHERE id = $1`, id, string(to))
	if err != nil {
		return fmt.Errorf("set video state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// MarkErrored force-writes the error state and clears any pending schedule in
// the same UPDATE, so an errored row never keeps a stale scheduled_for.
func (r *PostgresVideoRepository) MarkErrored(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE videos
        SET state = $2, scheduled_for = NULL
        WHERE id = $1
    `, id, string(lifecycle.StateError))
	if err != nil {
		return fmt.Errorf("mark video errored: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// ApplyGeneratedContent stores generated content and force-moves the video to
// the target state.
func (r *PostgresVideoRepository) ApplyGeneratedContent(ctx context.Context, id string, content models.VideoContent, to lifecycle.State) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE videos
        SET title = $2, topic = $3, script = $4, linkedin_text = $5, tweet = $6,
            description = $7, state = $8
        WHERE id = $1
    `, id, content.Title, content.Topic, content.Script, content.LinkedInText,
		content.Tweet, content.Description, string(to))
	if err != nil {
		return fmt.Errorf("apply generated content: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// RecordApproval moves a video to approved and stamps the approval time. The
// guard keeps auto-approve honest about its legal source states.
func (r *PostgresVideoRepository) RecordApproval(ctx context.Context, id string, from []lifecycle.State, approvedAt time.Time) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE videos
        SET state = $3, approved_at = $4
        WHERE id = $1 AND state = ANY($2)
    `, id, stateStrings(from), string(lifecycle.StateApproved), approvedAt)
	if err != nil {
		return false, fmt.Errorf("record approval: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// MarkScheduled stores the video URL and schedule time, guarded on the
// expected source states.
func (r *PostgresVideoRepository) MarkScheduled(ctx context.Context, id string, from []lifecycle.State, videoURL string, at time.Time) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE videos
        SET state = $3, video_url = $4, scheduled_for = $5
        WHERE id = $1 AND state = ANY($2)
    `, id, stateStrings(from), string(lifecycle.StateScheduled), videoURL, at)
	if err != nil {
		return false, fmt.Errorf("mark scheduled: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// Reschedule overwrites the schedule time of a still-scheduled video.
func (r *PostgresVideoRepository) Reschedule(ctx context.Context, id string, at time.Time) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE videos
        SET scheduled_for = $2
        WHERE id = $1 AND state = $3
    `, id, at, string(lifecycle.StateScheduled))
	if err != nil {
		return false, fmt.Errorf("reschedule video: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// CancelSchedule returns a scheduled video to approved and clears the
// schedule time, keeping the scheduledFor/state invariant intact.
func (r *PostgresVideoRepository) CancelSchedule(ctx context.Context, id string) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE videos
        SET state = $2, scheduled_for = NULL
        WHERE id = $1 AND state = $3
    `, id, string(lifecycle.StateApproved), string(lifecycle.StateScheduled))
	if err != nil {
		return false, fmt.Errorf("cancel schedule: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// MarkPublished advances a video to published, storing the video URL and
// publish time and clearing the schedule, guarded on the source states.
func (r *PostgresVideoRepository) MarkPublished(ctx context.Context, id string, from []lifecycle.State, videoURL string, at time.Time) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE videos
        SET state = $3, video_url = $4, published_at = $5, scheduled_for = NULL
        WHERE id = $1 AND state = ANY($2)
    `, id, stateStrings(from), string(lifecycle.StatePublished), videoURL, at)
	if err != nil {
		return false, fmt.Errorf("mark published: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// Restore rewrites the lifecycle fields from a prior snapshot. Used to roll
// back a publish whose outbound dispatch failed.
func (r *PostgresVideoRepository) Restore(ctx context.Context, video models.Video) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE videos
        SET state = $2, video_url = $3, published_at = $4, scheduled_for = $5
        WHERE id = $1
    `, video.ID, string(video.State), video.VideoURL, video.PublishedAt, video.ScheduledFor)
	if err != nil {
		return fmt.Errorf("restore video: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// ConfirmPublication backfills platform URLs reported by the publish
// callback and pins the published state and timestamp.
func (r *PostgresVideoRepository) ConfirmPublication(ctx context.Context, id string, urls models.PlatformURLs, publishedAt time.Time) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE videos
        SET state = $2,
            published_at = $3,
            video_host_url = COALESCE(NULLIF($4, ''), video_host_url),
            youtube_url = COALESCE(NULLIF($5, ''), youtube_url),
            linkedin_url = COALESCE(NULLIF($6, ''), linkedin_url),
            twitter_url = COALESCE(NULLIF($7, ''), twitter_url)
        WHERE id = $1
    `, id, string(lifecycle.StatePublished), publishedAt,
		urls.VideoHost, urls.YouTube, urls.LinkedIn, urls.Twitter)
	if err != nil {
		return fmt.Errorf("confirm publication: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes a video together with its workflow logs in one transaction.
func (r *PostgresVideoRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin delete transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM workflow_logs WHERE video_id = $1`, id); err != nil {
		return fmt.Errorf("delete video logs: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit delete transaction: %w", err)
	}

	return nil
}

// DeleteInStates bulk-deletes videos in the given states with their logs and
// returns how many videos were removed.
func (r *PostgresVideoRepository) DeleteInStates(ctx context.Context, states []lifecycle.State) (int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin cleanup transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
        DELETE FROM workflow_logs
        WHERE video_id IN (SELECT id FROM videos WHERE state = ANY($1))
    `, stateStrings(states)); err != nil {
		return 0, fmt.Errorf("delete logs for cleanup: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM videos WHERE state = ANY($1)`, stateStrings(states))
	if err != nil {
		return 0, fmt.Errorf("delete videos: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit cleanup transaction: %w", err)
	}

	return tag.RowsAffected(), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVideoWithPrompt(row rowScanner) (models.Video, error) {
	var (
		video        models.Video
		state        string
		promptID     sql.NullString
		approvedAt   sql.NullTime
		publishedAt  sql.NullTime
		scheduledFor sql.NullTime

		pID          sql.NullString
		pName        sql.NullString
		pDescription sql.NullString
		pBody        sql.NullString
		pCategoriaID sql.NullString
		pActive      sql.NullBool
		pCreatedAt   sql.NullTime

		cID        sql.NullString
		cName      sql.NullString
		cColor     sql.NullString
		cActive    sql.NullBool
		cCreatedAt sql.NullTime
	)

	if err := row.Scan(
		&video.ID, &promptID, &video.Title, &video.Topic, &video.Script,
		&video.LinkedInText, &video.Tweet, &video.Description, &state,
		&video.VideoURL, &video.VideoHostURL, &video.YouTubeURL,
		&video.LinkedInURL, &video.TwitterURL, &video.CreatedAt,
		&approvedAt, &publishedAt, &scheduledFor,
		&pID, &pName, &pDescription, &pBody, &pCategoriaID, &pActive, &pCreatedAt,
		&cID, &cName, &cColor, &cActive, &cCreatedAt,
	); err != nil {
		return models.Video{}, err
	}

	video.State = lifecycle.State(state)
	if promptID.Valid {
		id := promptID.String
		video.PromptID = &id
	}
	video.ApprovedAt = nullTimePtr(approvedAt)
	video.PublishedAt = nullTimePtr(publishedAt)
	video.ScheduledFor = nullTimePtr(scheduledFor)

	if pID.Valid {
		prompt := &models.Prompt{
			ID:          pID.String,
			Name:        pName.String,
			Description: pDescription.String,
			Body:        pBody.String,
			Active:      pActive.Bool,
			CreatedAt:   pCreatedAt.Time.UTC(),
		}
		if pCategoriaID.Valid {
			id := pCategoriaID.String
			prompt.CategoriaID = &id
		}
		if cID.Valid {
			prompt.Categoria = &models.Categoria{
				ID:        cID.String,
				Name:      cName.String,
				Color:     cColor.String,
				Active:    cActive.Bool,
				CreatedAt: cCreatedAt.Time.UTC(),
			}
		}
		video.Prompt = prompt
	}

	return video, nil
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

func stateStrings(states []lifecycle.State) []string {
	out := make([]string, len(states))
	for i, s := range states {
		out[i] = string(s)
	}
	return out
}
