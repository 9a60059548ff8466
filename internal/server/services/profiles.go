package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/chatvault/internal/common"
	"github.com/dmitrijs2005/chatvault/internal/cryptox"
	"github.com/dmitrijs2005/chatvault/internal/fieldcrypt"
	"github.com/dmitrijs2005/chatvault/internal/logging"
	"github.com/dmitrijs2005/chatvault/internal/server/models"
	"github.com/dmitrijs2005/chatvault/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

type ProfileService struct {
	base
}

func NewProfileService(db *sql.DB, m repomanager.RepositoryManager, codec *cryptox.Codec, logger logging.Logger) *ProfileService {
	return &ProfileService{base: newBase(db, m, codec, logger, "profiles")}
}

// Get returns the caller's profile together with their decrypted API keys.
func (s *ProfileService) Get(ctx context.Context, userID string) (*models.Profile, error) {
	key, err := sessionKey(ctx)
	if err != nil {
		return nil, err
	}

	stored, err := s.repomanager.Profiles(s.db).Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		stored = &models.Profile{UserID: userID}
	}
	stored.APIKeys, err = s.repomanager.APIKeys(s.db).ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	opened, err := fieldcrypt.OpenProfile(ctx, s.codec, *stored, key, readPolicy)
	if err != nil {
		return nil, fmt.Errorf("open profile: %w", err)
	}

	migrateOnRead(ctx, &s.base, fieldcrypt.KindProfile, *stored, opened, key, func(sealed models.Profile) error {
		return s.repomanager.Profiles(s.db).Upsert(ctx, &sealed)
	})
	for i, k := range stored.APIKeys {
		migrateOnRead(ctx, &s.base, fieldcrypt.KindAPIKey, k, opened.APIKeys[i], key, func(sealed models.APIKey) error {
			return s.repomanager.APIKeys(s.db).Upsert(ctx, &sealed)
		})
	}
	return &opened, nil
}

// Update replaces the caller's profile fields. API keys are managed through
// SetAPIKey and are ignored here.
func (s *ProfileService) Update(ctx context.Context, userID string, p models.Profile) (*models.Profile, error) {
	key, err := sessionKey(ctx)
	if err != nil {
		return nil, err
	}

	p.UserID = userID
	p.APIKeys = nil

	sealed, err := fieldcrypt.SealProfile(ctx, s.codec, p, key)
	if err != nil {
		return nil, fmt.Errorf("seal profile: %w", err)
	}
	if err := s.repomanager.Profiles(s.db).Upsert(ctx, &sealed); err != nil {
		return nil, err
	}
	return &p, nil
}

// SetAPIKey stores the provider credential encrypted, whatever the profile's
// visibility.
func (s *ProfileService) SetAPIKey(ctx context.Context, userID, provider, apiKey string) error {
	if provider == "" || apiKey == "" {
		return common.ErrorValidation
	}
	key, err := sessionKey(ctx)
	if err != nil {
		return err
	}

	sealed, err := fieldcrypt.SealAPIKey(ctx, s.codec,
		models.APIKey{ID: uuid.NewString(), UserID: userID, Provider: provider, EncryptedAPIKey: apiKey}, key)
	if err != nil {
		return fmt.Errorf("seal api key: %w", err)
	}
	return s.repomanager.APIKeys(s.db).Upsert(ctx, &sealed)
}
