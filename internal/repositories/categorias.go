package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/streamingpro/backend/internal/db"
	"github.com/streamingpro/backend/internal/models"
)

// PostgresCategoriaRepository provides PostgreSQL-backed persistence for
// categorias.
type PostgresCategoriaRepository struct {
	pool db.Pool
}

// NewPostgresCategoriaRepository constructs a categoria repository backed by
// PostgreSQL.
func NewPostgresCategoriaRepository(pool db.Pool) *PostgresCategoriaRepository {
	return &PostgresCategoriaRepository{pool: pool}
}

// Create persists a new categoria. Names are unique case-insensitively and a
// duplicate reports ErrConflict.
func (r *PostgresCategoriaRepository) Create(ctx context.Context, categoria models.Categoria) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO categorias (id, name, color, active, created_at)
        VALUES ($1, $2, $3, $4, $5)
    `, categoria.ID, categoria.Name, categoria.Color, categoria.Active, categoria.CreatedAt)
	if err != nil {
		if isPgCode(err, "23505") {
			return ErrConflict
		}
		return fmt.Errorf("insert categoria: %w", err)
	}

	return nil
}

// Get fetches a categoria with its prompt usage count.
func (r *PostgresCategoriaRepository) Get(ctx context.Context, id string) (models.Categoria, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Categoria{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var categoria models.Categoria
	err = conn.QueryRow(ctx, `
        SELECT c.id, c.name, c.color, c.active, c.created_at,
               (SELECT COUNT(*) FROM prompts p WHERE p.categoria_id = c.id)
        FROM categorias c
        WHERE c.id = $1
    `, id).Scan(&categoria.ID, &categoria.Name, &categoria.Color, &categoria.Active,
		&categoria.CreatedAt, &categoria.PromptCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Categoria{}, ErrNotFound
		}
		return models.Categoria{}, fmt.Errorf("select categoria: %w", err)
	}

	return categoria, nil
}

// List returns categorias ordered by name. When activeOnly is set, inactive
// categorias are filtered out.
func (r *PostgresCategoriaRepository) List(ctx context.Context, activeOnly bool) ([]models.Categoria, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	query := `
        SELECT c.id, c.name, c.color, c.active, c.created_at,
               (SELECT COUNT(*) FROM prompts p WHERE p.categoria_id = c.id)
        FROM categorias c`
	if activeOnly {
		query += `
        WHERE c.active`
	}
	query += `
        ORDER BY c.name`

	rows, err := conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query categorias: %w", err)
	}
	defer rows.Close()

	var categorias []models.Categoria
	for rows.Next() {
		var categoria models.Categoria
		if err := rows.Scan(&categoria.ID, &categoria.Name, &categoria.Color,
			&categoria.Active, &categoria.CreatedAt, &categoria.PromptCount); err != nil {
			return nil, fmt.Errorf("scan categoria: %w", err)
		}
		categorias = append(categorias, categoria)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categorias: %w", err)
	}

	return categorias, nil
}

// Update overwrites the categoria's editable fields.
func (r *PostgresCategoriaRepository) Update(ctx context.Context, categoria models.Categoria) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE categorias
        SET name = $2, color = $3, active = $4
        WHERE id = $1
    `, categoria.ID, categoria.Name, categoria.Color, categoria.Active)
	if err != nil {
		if isPgCode(err, "23505") {
			return ErrConflict
		}
		return fmt.Errorf("update categoria: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes a categoria. Categorias still referenced by prompts cannot
// be deleted and report ErrConflict.
func (r *PostgresCategoriaRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM categorias WHERE id = $1`, id)
	if err != nil {
		if isPgCode(err, "23503") {
			return ErrConflict
		}
		return fmt.Errorf("delete categoria: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
