package characters

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/chatvault/internal/common"
	"github.com/dmitrijs2005/chatvault/internal/dbx"
	"github.com/dmitrijs2005/chatvault/internal/server/models"
)

const columns = `id, owner_id, name, description, intro, bio, book, image_link, personality,
		 system_prompt, image_prompt, first_message, speaker_link, scenario, is_private, chats,
		 created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, c *models.Character) (*models.Character, error) {
	query :=
		`INSERT INTO characters (id, owner_id, name, description, intro, bio, book, image_link, personality,
		 system_prompt, image_prompt, first_message, speaker_link, scenario, is_private)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		 RETURNING created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		c.ID, c.OwnerID, c.Name, c.Description, c.Intro, c.Bio, c.Book, c.ImageLink, c.Personality,
		c.SystemPrompt, c.ImagePrompt, c.FirstMessage, c.SpeakerLink, c.Scenario, c.IsPrivate,
	).Scan(&c.CreatedAt, &c.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) Update(ctx context.Context, c *models.Character) error {
	query :=
		`UPDATE characters SET name = $3, description = $4, intro = $5, bio = $6, book = $7,
		 image_link = $8, personality = $9, system_prompt = $10, image_prompt = $11,
		 first_message = $12, speaker_link = $13, scenario = $14, is_private = $15, updated_at = now()
		 WHERE id = $1 AND owner_id = $2
		 `

	res, err := r.db.ExecContext(ctx, query,
		c.ID, c.OwnerID, c.Name, c.Description, c.Intro, c.Bio, c.Book, c.ImageLink, c.Personality,
		c.SystemPrompt, c.ImagePrompt, c.FirstMessage, c.SpeakerLink, c.Scenario, c.IsPrivate,
	)
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

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Character, error) {
	query := `SELECT ` + columns + ` FROM characters WHERE id = $1`

	c, err := scan(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Character, error) {
	query := `SELECT ` + columns + ` FROM characters WHERE owner_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, ownerID)
}

func (r *PostgresRepository) ListPublic(ctx context.Context, limit int) ([]*models.Character, error) {
	query := `SELECT ` + columns + ` FROM characters WHERE is_private = false ORDER BY chats DESC LIMIT $1`
	return r.list(ctx, query, limit)
}

// IncrementChats bumps the popularity counter used by ListPublic.
func (r *PostgresRepository) IncrementChats(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE characters SET chats = chats + 1 WHERE id = $1`, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.Character, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Character
	for rows.Next() {
		c, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(s scanner) (*models.Character, error) {
	c := &models.Character{}
	err := s.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Description, &c.Intro, &c.Bio, &c.Book, &c.ImageLink,
		&c.Personality, &c.SystemPrompt, &c.ImagePrompt, &c.FirstMessage, &c.SpeakerLink, &c.Scenario,
		&c.IsPrivate, &c.Chats, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}
