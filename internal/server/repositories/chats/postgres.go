package chats

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/chatvault/internal/common"
	"github.com/dmitrijs2005/chatvault/internal/dbx"
	"github.com/dmitrijs2005/chatvault/internal/server/models"
)

const columns = `id, user_id, character_id, persona_id, title, description, last_message, dynamic_book,
		 negative_prompt, is_private, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, c *models.Chat) (*models.Chat, error) {
	query :=
		`INSERT INTO chats (id, user_id, character_id, persona_id, title, description, last_message,
		 dynamic_book, negative_prompt, is_private)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		c.ID, c.UserID, c.CharacterID, nullable(c.PersonaID), c.Title, c.Description, c.LastMessage,
		c.DynamicBook, c.NegativePrompt, c.IsPrivate,
	).Scan(&c.CreatedAt, &c.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) Update(ctx context.Context, c *models.Chat) error {
	query :=
		`UPDATE chats SET persona_id = $3, title = $4, description = $5, last_message = $6,
		 dynamic_book = $7, negative_prompt = $8, is_private = $9, updated_at = now()
		 WHERE id = $1 AND user_id = $2
		 `

	res, err := r.db.ExecContext(ctx, query,
		c.ID, c.UserID, nullable(c.PersonaID), c.Title, c.Description, c.LastMessage,
		c.DynamicBook, c.NegativePrompt, c.IsPrivate,
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

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Chat, error) {
	query := `SELECT ` + columns + ` FROM chats WHERE id = $1`

	c, err := scan(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.Chat, error) {
	query := `SELECT ` + columns + ` FROM chats WHERE user_id = $1 ORDER BY updated_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Chat
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

func scan(s scanner) (*models.Chat, error) {
	c := &models.Chat{}
	var personaID sql.NullString
	err := s.Scan(&c.ID, &c.UserID, &c.CharacterID, &personaID, &c.Title, &c.Description, &c.LastMessage,
		&c.DynamicBook, &c.NegativePrompt, &c.IsPrivate, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.PersonaID = personaID.String
	return c, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
