package users

import (
	"context"

	"github.com/dmitrijs2005/chatvault/internal/server/models"
)

// Repository stores local accounts. Emails are stored and looked up in their
// normalized lowercase form since they salt the field key.
type Repository interface {
	// Create fails with common.ErrorAlreadyExists for a taken email.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}
