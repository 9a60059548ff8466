package httpapi

import (
	"context"

	"github.com/dmitrijs2005/chatvault/internal/server/auth"
	"github.com/dmitrijs2005/chatvault/internal/server/models"
	"github.com/dmitrijs2005/chatvault/internal/server/services"
)

// The handlers depend on these narrow views of the services package.

type AuthService interface {
	Register(ctx context.Context, email, username, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, auth.Identity, error)
	Authenticate(token string) (auth.Identity, error)
}

type CharacterService interface {
	Create(ctx context.Context, ownerID string, c models.Character) (*models.Character, error)
	Update(ctx context.Context, ownerID string, c models.Character) (*models.Character, error)
	Get(ctx context.Context, userID, id string) (*models.Character, error)
	ListMine(ctx context.Context, ownerID string) ([]*models.Character, error)
	ListPublic(ctx context.Context, userID string) ([]*models.Character, error)
}

type ChatService interface {
	Create(ctx context.Context, userID string, chat models.Chat) (*models.Chat, error)
	Get(ctx context.Context, userID, id string) (*models.Chat, error)
	List(ctx context.Context, userID string) ([]*models.Chat, error)
	AddMessage(ctx context.Context, userID, chatID, role, content string) (*models.Message, error)
	Messages(ctx context.Context, userID, chatID string) ([]*models.Message, error)
}

type PersonaService interface {
	Create(ctx context.Context, userID string, p models.Persona) (*models.Persona, error)
	Get(ctx context.Context, userID, id string) (*models.Persona, error)
	List(ctx context.Context, userID string) ([]*models.Persona, error)
}

type ProfileService interface {
	Get(ctx context.Context, userID string) (*models.Profile, error)
	Update(ctx context.Context, userID string, p models.Profile) (*models.Profile, error)
	SetAPIKey(ctx context.Context, userID, provider, apiKey string) error
}

type UploadService interface {
	PresignImageUpload(ctx context.Context, userID string) (*services.Upload, error)
}

var (
	_ AuthService      = (*services.AuthService)(nil)
	_ CharacterService = (*services.CharacterService)(nil)
	_ ChatService      = (*services.ChatService)(nil)
	_ PersonaService   = (*services.PersonaService)(nil)
	_ ProfileService   = (*services.ProfileService)(nil)
	_ UploadService    = (*services.UploadService)(nil)
)
