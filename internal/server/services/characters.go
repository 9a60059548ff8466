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

const publicListLimit = 50

type CharacterService struct {
	base
}

func NewCharacterService(db *sql.DB, m repomanager.RepositoryManager, codec *cryptox.Codec, logger logging.Logger) *CharacterService {
	return &CharacterService{base: newBase(db, m, codec, logger, "characters")}
}

// Create stores a new character owned by ownerID and returns it in plain text.
func (s *CharacterService) Create(ctx context.Context, ownerID string, c models.Character) (*models.Character, error) {
	if c.Name == "" {
		return nil, common.ErrorValidation
	}
	key, err := sessionKey(ctx)
	if err != nil {
		return nil, err
	}

	c.ID = uuid.NewString()
	c.OwnerID = ownerID

	sealed, err := fieldcrypt.Seal(ctx, s.codec, fieldcrypt.KindCharacter, c, key)
	if err != nil {
		return nil, fmt.Errorf("seal character: %w", err)
	}
	stored, err := s.repomanager.Characters(s.db).Create(ctx, &sealed)
	if err != nil {
		return nil, err
	}

	c.CreatedAt, c.UpdatedAt = stored.CreatedAt, stored.UpdatedAt
	return &c, nil
}

// Update replaces a character the caller owns. Flipping IsPrivate re-encodes
// every manifest column accordingly.
func (s *CharacterService) Update(ctx context.Context, ownerID string, c models.Character) (*models.Character, error) {
	key, err := sessionKey(ctx)
	if err != nil {
		return nil, err
	}

	repo := s.repomanager.Characters(s.db)
	existing, err := repo.GetByID(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	if existing.OwnerID != ownerID {
		return nil, common.ErrorNotFound
	}

	c.OwnerID = ownerID
	c.Chats = existing.Chats
	c.CreatedAt = existing.CreatedAt

	sealed, err := fieldcrypt.Seal(ctx, s.codec, fieldcrypt.KindCharacter, c, key)
	if err != nil {
		return nil, fmt.Errorf("seal character: %w", err)
	}
	if err := repo.Update(ctx, &sealed); err != nil {
		return nil, err
	}
	return &c, nil
}

// Get returns a character the caller may see: their own, or a public one.
func (s *CharacterService) Get(ctx context.Context, userID, id string) (*models.Character, error) {
	key, err := sessionKey(ctx)
	if err != nil {
		return nil, err
	}

	stored, err := s.repomanager.Characters(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if stored.IsPrivate && stored.OwnerID != userID {
		return nil, common.ErrorNotFound
	}
	return s.open(ctx, stored, key, stored.OwnerID == userID)
}

// ListMine returns the caller's own characters.
func (s *CharacterService) ListMine(ctx context.Context, ownerID string) ([]*models.Character, error) {
	key, err := sessionKey(ctx)
	if err != nil {
		return nil, err
	}

	stored, err := s.repomanager.Characters(s.db).ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return s.openAll(ctx, stored, key, func(*models.Character) bool { return true })
}

// ListPublic returns the most chatted-with public characters.
func (s *CharacterService) ListPublic(ctx context.Context, userID string) ([]*models.Character, error) {
	key, err := sessionKey(ctx)
	if err != nil {
		return nil, err
	}

	stored, err := s.repomanager.Characters(s.db).ListPublic(ctx, publicListLimit)
	if err != nil {
		return nil, err
	}
	return s.openAll(ctx, stored, key, func(c *models.Character) bool { return c.OwnerID == userID })
}

func (s *CharacterService) openAll(ctx context.Context, stored []*models.Character, key cryptox.Key, owned func(*models.Character) bool) ([]*models.Character, error) {
	result := make([]*models.Character, 0, len(stored))
	for _, c := range stored {
		opened, err := s.open(ctx, c, key, owned(c))
		if err != nil {
			return nil, err
		}
		result = append(result, opened)
	}
	return result, nil
}

// open decrypts stored. Only the owner's key can seal a record, so write-back
// is limited to owned characters.
func (s *CharacterService) open(ctx context.Context, stored *models.Character, key cryptox.Key, owned bool) (*models.Character, error) {
	opened, err := fieldcrypt.Open(ctx, s.codec, fieldcrypt.KindCharacter, *stored, key, readPolicy)
	if err != nil {
		return nil, fmt.Errorf("open character: %w", err)
	}
	if owned {
		migrateOnRead(ctx, &s.base, fieldcrypt.KindCharacter, *stored, opened, key, func(sealed models.Character) error {
			return s.repomanager.Characters(s.db).Update(ctx, &sealed)
		})
	}
	return &opened, nil
}
