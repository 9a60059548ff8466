package chats

import (
	"context"

	"github.com/dmitrijs2005/chatvault/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, c *models.Chat) (*models.Chat, error)
	Update(ctx context.Context, c *models.Chat) error
	GetByID(ctx context.Context, id string) (*models.Chat, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Chat, error)
}
