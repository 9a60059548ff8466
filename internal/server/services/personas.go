package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/chatvault/internal/common"
	"github.com/dmitrijs2005/chatvault/internal/cryptox"
	"github.com/dmitrijs2005/chatvault/internal/fieldcrypt"
	"github.com/dmitrijs2005/chatvault/internal/logging"
	"github.com/dmitrijs2005/chatvault/internal/server/models"
	"github.com/dmitrijs2005/chatvault/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

type PersonaService struct {
	base
}

func NewPersonaService(db *sql.DB, m repomanager.RepositoryManager, codec *cryptox.Codec, logger logging.Logger) *PersonaService {
	return &PersonaService{base: newBase(db, m, codec, logger, "personas")}
}

func (s *PersonaService) Create(ctx context.Context, userID string, p models.Persona) (*models.Persona, error) {
	if p.FullName == "" {
		return nil, common.ErrorValidation
	}
	key, err := sessionKey(ctx)
	if err != nil {
		return nil, err
	}

	p.ID = uuid.NewString()
	p.UserID = userID

	sealed, err := fieldcrypt.Seal(ctx, s.codec, fieldcrypt.KindPersona, p, key)
	if err != nil {
		return nil, fmt.Errorf("seal persona: %w", err)
	}
	stored, err := s.repomanager.Personas(s.db).Create(ctx, &sealed)
	if err != nil {
		return nil, err
	}
	p.CreatedAt = stored.CreatedAt
	return &p, nil
}

func (s *PersonaService) Get(ctx context.Context, userID, id string) (*models.Persona, error) {
	key, err := sessionKey(ctx)
	if err != nil {
		return nil, err
	}

	stored, err := s.repomanager.Personas(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if stored.UserID != userID {
		return nil, common.ErrorNotFound
	}
	return s.open(ctx, stored, key)
}

func (s *PersonaService) List(ctx context.Context, userID string) ([]*models.Persona, error) {
	key, err := sessionKey(ctx)
	if err != nil {
		return nil, err
	}

	stored, err := s.repomanager.Personas(s.db).ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	result := make([]*models.Persona, 0, len(stored))
	for _, p := range stored {
		opened, err := s.open(ctx, p, key)
		if err != nil {
			return nil, err
		}
		result = append(result, opened)
	}
	return result, nil
}

func (s *PersonaService) open(ctx context.Context, stored *models.Persona, key cryptox.Key) (*models.Persona, error) {
	opened, err := fieldcrypt.Open(ctx, s.codec, fieldcrypt.KindPersona, *stored, key, readPolicy)
	if err != nil {
		return nil, fmt.Errorf("open persona: %w", err)
	}
	migrateOnRead(ctx, &s.base, fieldcrypt.KindPersona, *stored, opened, key, func(sealed models.Persona) error {
		return s.repomanager.Personas(s.db).Update(ctx, &sealed)
	})
	return &opened, nil
}
