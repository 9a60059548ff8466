package profiles

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

func (r *PostgresRepository) Upsert(ctx context.Context, p *models.Profile) error {
	query :=
		`INSERT INTO profiles (user_id, username, first_name, last_name, bio, avatar_link, is_private)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (user_id) DO UPDATE SET
		   username = EXCLUDED.username,
		   first_name = EXCLUDED.first_name,
		   last_name = EXCLUDED.last_name,
		   bio = EXCLUDED.bio,
		   avatar_link = EXCLUDED.avatar_link,
		   is_private = EXCLUDED.is_private
		 `

	_, err := r.db.ExecContext(ctx, query,
		p.UserID, p.Username, p.FirstName, p.LastName, p.Bio, p.AvatarLink, p.IsPrivate)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID string) (*models.Profile, error) {
	query :=
		`SELECT user_id, username, first_name, last_name, bio, avatar_link, is_private
		 FROM profiles WHERE user_id = $1
		 `

	p := &models.Profile{}
	err := r.db.QueryRowContext(ctx, query, userID).
		Scan(&p.UserID, &p.Username, &p.FirstName, &p.LastName, &p.Bio, &p.AvatarLink, &p.IsPrivate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}
