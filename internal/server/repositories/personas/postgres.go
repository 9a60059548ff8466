package personas

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/chatvault/internal/common"
	"github.com/dmitrijs2005/chatvault/internal/dbx"
	"github.com/dmitrijs2005/chatvault/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, p *models.Persona) (*models.Persona, error) {
	query :=
		`INSERT INTO personas (id, user_id, full_name, bio, avatar_link, is_private)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at
		 `

	err := r.db.QueryRowContext(ctx, query, p.ID, p.UserID, p.FullName, p.Bio, p.AvatarLink, p.IsPrivate).
		Scan(&p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) Update(ctx context.Context, p *models.Persona) error {
	query :=
		`UPDATE personas SET full_name = $3, bio = $4, avatar_link = $5, is_private = $6
		 WHERE id = $1 AND user_id = $2
		 `

	res, err := r.db.ExecContext(ctx, query, p.ID, p.UserID, p.FullName, p.Bio, p.AvatarLink, p.IsPrivate)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Persona, error) {
	query := `SELECT id, user_id, full_name, bio, avatar_link, is_private, created_at FROM personas WHERE id = $1`

	p := &models.Persona{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&p.ID, &p.UserID, &p.FullName, &p.Bio, &p.AvatarLink, &p.IsPrivate, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.Persona, error) {
	query :=
		`SELECT id, user_id, full_name, bio, avatar_link, is_private, created_at FROM personas
		 WHERE user_id = $1
		 ORDER BY created_at
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Persona
	for rows.Next() {
		p := &models.Persona{}
		if err := rows.Scan(&p.ID, &p.UserID, &p.FullName, &p.Bio, &p.AvatarLink, &p.IsPrivate, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
