package personas

import (
	"context"

	"github.com/dmitrijs2005/chatvault/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, p *models.Persona) (*models.Persona, error)
	Update(ctx context.Context, p *models.Persona) error
	GetByID(ctx context.Context, id string) (*models.Persona, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Persona, error)
}
