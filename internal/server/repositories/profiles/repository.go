package profiles

import (
	"context"

	"github.com/dmitrijs2005/chatvault/internal/server/models"
)

// Repository stores the profile row only; API keys live in the apikeys
// repository.
type Repository interface {
	Upsert(ctx context.Context, p *models.Profile) error
	Get(ctx context.Context, userID string) (*models.Profile, error)
}
