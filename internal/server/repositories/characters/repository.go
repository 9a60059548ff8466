package characters

import (
	"context"

	"github.com/dmitrijs2005/chatvault/internal/server/models"
)

// Repository stores characters exactly as given: sensitive columns arrive
// already encrypted (or deliberately plain) from the service layer.
type Repository interface {
	Create(ctx context.Context, c *models.Character) (*models.Character, error)
	Update(ctx context.Context, c *models.Character) error
	GetByID(ctx context.Context, id string) (*models.Character, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Character, error)
	ListPublic(ctx context.Context, limit int) ([]*models.Character, error)
	IncrementChats(ctx context.Context, id string) error
}
