package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/streamingpro/backend/internal/db"
	"github.com/streamingpro/backend/internal/models"
)

// PostgresPromptRepository provides PostgreSQL-backed persistence for
// prompts.
type PostgresPromptRepository struct {
	pool db.Pool
}

// NewPostgresPromptRepository constructs a prompt repository backed by
// PostgreSQL.
func NewPostgresPromptRepository(pool db.Pool) *PostgresPromptRepository {
	return &PostgresPromptRepository{pool: pool}
}

// Create persists a new prompt.
func (r *PostgresPromptRepository) Create(ctx context.Context, prompt models.Prompt) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO prompts (id, name, description, body, categoria_id, active, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `, prompt.ID, prompt.Name, prompt.Description, prompt.Body, prompt.CategoriaID,
		prompt.Active, prompt.CreatedAt)
	if err != nil {
		if isPgCode(err, "23505") {
			return ErrConflict
		}
		if isPgCode(err, "23503") {
			return ErrNotFound
		}
		return fmt.Errorf("insert prompt: %w", err)
	}

	return nil
}

// Get fetches a prompt with its categoria and usage count attached.
func (r *PostgresPromptRepository) Get(ctx context.Context, id string) (models.Prompt, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Prompt{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT p.id, p.name, p.description, p.body, p.categoria_id, p.active, p.created_at,
               c.id, c.name, c.color, c.active, c.created_at,
               (SELECT COUNT(*) FROM videos v WHERE v.prompt_id = p.id)
        FROM prompts p
        LEFT JOIN categorias c ON c.id = p.categoria_id
        WHERE p.id = $1
    `, id)

	prompt, err := scanPrompt(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Prompt{}, ErrNotFound
		}
		return models.Prompt{}, fmt.Errorf("select prompt: %w", err)
	}

	return prompt, nil
}

// List returns prompts newest first. When activeOnly is set, inactive
// prompts are filtered out.
func (r *PostgresPromptRepository) List(ctx context.Context, activeOnly bool) ([]models.Prompt, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	query := `
        SELECT p.id, p.name, p.description, p.body, p.categoria_id, p.active, p.created_at,
               c.id, c.name, c.color, c.active, c.created_at,
               (SELECT COUNT(*) FROM videos v WHERE v.prompt_id = p.id)
        FROM prompts p
        LEFT JOIN categorias c ON c.id = p.categoria_id`
	if activeOnly {
		query += `
        WHERE p.active`
	}
	query += `
        ORDER BY p.created_at DESC`

	rows, err := conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query prompts: %w", err)
	}
	defer rows.Close()

	var prompts []models.Prompt
	for rows.Next() {
		prompt, err := scanPrompt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan prompt: %w", err)
		}
		prompts = append(prompts, prompt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate prompts: %w", err)
	}

	return prompts, nil
}

// Update overwrites the prompt's editable fields.
func (r *PostgresPromptRepository) Update(ctx context.Context, prompt models.Prompt) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE prompts
        SET name = $2, description = $3, body = $4, categoria_id = $5, active = $6
        WHERE id = $1
    `, prompt.ID, prompt.Name, prompt.Description, prompt.Body, prompt.CategoriaID, prompt.Active)
	if err != nil {
		if isPgCode(err, "23505") {
			return ErrConflict
		}
		if isPgCode(err, "23503") {
			return ErrNotFound
		}
		return fmt.Errorf("update prompt: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// Deactivate soft-deletes a prompt so existing videos keep their reference.
func (r *PostgresPromptRepository) Deactivate(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `UPDATE prompts SET active = FALSE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deactivate prompt: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes a prompt outright. Prompts referenced by videos cannot be
// hard-deleted and report ErrConflict.
func (r *PostgresPromptRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM prompts WHERE id = $1`, id)
	if err != nil {
		if isPgCode(err, "23503") {
			return ErrConflict
		}
		return fmt.Errorf("delete prompt: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// VideoCount reports how many videos reference the prompt.
func (r *PostgresPromptRepository) VideoCount(ctx context.Context, id string) (int, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var count int
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM videos WHERE prompt_id = $1`, id).Scan(&count); err != nil {
		return 0, fmt.Errorf("count prompt videos: %w", err)
	}

	return count, nil
}

func scanPrompt(row rowScanner) (models.Prompt, error) {
	var (
		prompt      models.Prompt
		categoriaID sql.NullString

		cID        sql.NullString
		cName      sql.NullString
		cColor     sql.NullString
		cActive    sql.NullBool
		cCreatedAt sql.NullTime
	)

	if err := row.Scan(
		&prompt.ID, &prompt.Name, &prompt.Description, &prompt.Body,
		&categoriaID, &prompt.Active, &prompt.CreatedAt,
		&cID, &cName, &cColor, &cActive, &cCreatedAt,
		&prompt.VideoCount,
	); err != nil {
		return models.Prompt{}, err
	}

	if categoriaID.Valid {
		id := categoriaID.String
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

	return prompt, nil
}
