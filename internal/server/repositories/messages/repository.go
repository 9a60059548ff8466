package messages

import (
	"context"

	"github.com/dmitrijs2005/chatvault/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, m *models.Message) (*models.Message, error)
	Update(ctx context.Context, m *models.Message) error
	ListByChat(ctx context.Context, chatID string) ([]*models.Message, error)
}
