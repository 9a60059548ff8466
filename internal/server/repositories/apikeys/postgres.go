package apikeys

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/chatvault/internal/dbx"
	"github.com/dmitrijs2005/chatvault/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Upsert keeps one key per provider and user.
func (r *PostgresRepository) Upsert(ctx context.Context, k *models.APIKey) error {
	query :=
		`INSERT INTO api_keys (id, user_id, provider, encrypted_api_key)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id, provider) DO UPDATE SET encrypted_api_key = EXCLUDED.encrypted_api_key
		 `

	if _, err := r.db.ExecContext(ctx, query, k.ID, k.UserID, k.Provider, k.EncryptedAPIKey); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]models.APIKey, error) {
	query := `SELECT id, user_id, provider, encrypted_api_key FROM api_keys WHERE user_id = $1 ORDER BY provider`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []models.APIKey
	for rows.Next() {
		var k models.APIKey
		if err := rows.Scan(&k.ID, &k.UserID, &k.Provider, &k.EncryptedAPIKey); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
