package apikeys

import (
	"context"

	"github.com/dmitrijs2005/chatvault/internal/server/models"
)

type Repository interface {
	Upsert(ctx context.Context, k *models.APIKey) error
	ListByUser(ctx context.Context, userID string) ([]models.APIKey, error)
}
