package fieldcrypt

import (
	"context"

	"github.com/dmitrijs2005/chatvault/internal/cryptox"
	"github.com/dmitrijs2005/chatvault/internal/server/models"
)

// SealProfile encrypts the profile's own manifest fields when the profile is
// private, and every API key record unconditionally.
func SealProfile(ctx context.Context, c *cryptox.Codec, p models.Profile, key cryptox.Key) (models.Profile, error) {
	sealed, err := Seal(ctx, c, KindProfile, p, key)
	if err != nil {
		return p, err
	}

	sealed.APIKeys, err = mapAPIKeys(p.APIKeys, func(k models.APIKey) (models.APIKey, error) {
		return SealAPIKey(ctx, c, k, key)
	})
	if err != nil {
		return p, err
	}
	return sealed, nil
}

// OpenProfile decrypts the profile fields and every API key record.
func OpenProfile(ctx context.Context, c *cryptox.Codec, p models.Profile, key cryptox.Key, policy Policy) (models.Profile, error) {
	opened, err := Open(ctx, c, KindProfile, p, key, policy)
	if err != nil {
		return p, err
	}

	opened.APIKeys, err = mapAPIKeys(p.APIKeys, func(k models.APIKey) (models.APIKey, error) {
		return OpenAPIKey(ctx, c, k, key, policy)
	})
	if err != nil {
		return p, err
	}
	return opened, nil
}

func SealAPIKey(ctx context.Context, c *cryptox.Codec, k models.APIKey, key cryptox.Key) (models.APIKey, error) {
	return EncryptEntity(ctx, c, KindAPIKey, k, key)
}

func OpenAPIKey(ctx context.Context, c *cryptox.Codec, k models.APIKey, key cryptox.Key, policy Policy) (models.APIKey, error) {
	return DecryptEntity(ctx, c, KindAPIKey, k, key, policy)
}

func mapAPIKeys(in []models.APIKey, fn func(models.APIKey) (models.APIKey, error)) ([]models.APIKey, error) {
	if in == nil {
		return nil, nil
	}
	out := make([]models.APIKey, len(in))
	for i, k := range in {
		converted, err := fn(k)
		if err != nil {
			return nil, err
		}
		out[i] = converted
	}
	return out, nil
}
