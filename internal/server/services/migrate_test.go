package services

import (
	"errors"
	"testing"

	"github.com/dmitrijs2005/chatvault/internal/cryptox"
	"github.com/dmitrijs2005/chatvault/internal/fieldcrypt"
	"github.com/dmitrijs2005/chatvault/internal/logging"
	"github.com/dmitrijs2005/chatvault/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedLegacy(f *fixture) {
	f.store.characters.put("c-1", models.Character{ID: "c-1", OwnerID: "u-1", Name: "Nyx", IsPrivate: true})
	f.store.characters.put("c-2", models.Character{ID: "c-2", OwnerID: "u-1", Name: "Sol"})
	f.store.personas.put("p-1", models.Persona{ID: "p-1", UserID: "u-1", FullName: "Ada", IsPrivate: true})
	f.store.chats.put("ch-1", models.Chat{ID: "ch-1", UserID: "u-1", Title: "t", IsPrivate: true})
	f.store.messages.put("m-1", models.Message{ID: "m-1", ChatID: "ch-1", Content: "hi", IsPrivate: true})
	f.store.profiles.put("u-1", models.Profile{UserID: "u-1", Bio: "b", IsPrivate: true})
	f.store.apiKeys.put("k-1", models.APIKey{ID: "k-1", UserID: "u-1", Provider: "openai", EncryptedAPIKey: "sk"})
}

func TestMigrationService_DryRun(t *testing.T) {
	f := newFixture(t)
	seedLegacy(f)
	s := NewMigrationService(f.db, f.repos, f.codec, logging.NewNopLogger())

	f.expectTx()
	report, err := s.MigrateUser(f.ctx, "u-1", f.key, true)
	require.NoError(t, err)
	assert.Equal(t, MigrationReport{
		fieldcrypt.KindCharacter: 1,
		fieldcrypt.KindPersona:   1,
		fieldcrypt.KindChat:      1,
		fieldcrypt.KindMessage:   1,
		fieldcrypt.KindProfile:   1,
		fieldcrypt.KindAPIKey:    1,
	}, report)
	assert.Equal(t, 6, report.Total())
	assert.Zero(t, f.store.writes)
	assert.Equal(t, "Nyx", f.store.characters.rows["c-1"].Name)
}

func TestMigrationService_Run(t *testing.T) {
	f := newFixture(t)
	seedLegacy(f)
	s := NewMigrationService(f.db, f.repos, f.codec, logging.NewNopLogger())

	f.expectTx()
	report, err := s.MigrateUser(f.ctx, "u-1", f.key, false)
	require.NoError(t, err)
	assert.Equal(t, 6, report.Total())

	assert.Equal(t, "Nyx", f.decrypt(t, f.store.characters.rows["c-1"].Name))
	assert.Equal(t, "Sol", f.store.characters.rows["c-2"].Name)
	assert.Equal(t, "hi", f.decrypt(t, f.store.messages.rows["m-1"].Content))
	assert.Equal(t, "sk", f.decrypt(t, f.store.apiKeys.rows["k-1"].EncryptedAPIKey))

	f.expectTx()
	report, err = s.MigrateUser(f.ctx, "u-1", f.key, false)
	require.NoError(t, err)
	assert.Zero(t, report.Total(), "second run finds nothing")
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestMigrationService_ForeignCiphertextAborts(t *testing.T) {
	f := newFixture(t)
	other := cryptox.DeriveKey("someone else", "x@example.com")
	foreign, err := f.codec.Encrypt(f.ctx, "theirs", other)
	require.NoError(t, err)
	f.store.personas.put("p-1", models.Persona{ID: "p-1", UserID: "u-1", FullName: foreign, Bio: "plain", IsPrivate: true})

	s := NewMigrationService(f.db, f.repos, f.codec, logging.NewNopLogger())
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()
	_, err = s.MigrateUser(f.ctx, "u-1", f.key, false)
	assert.ErrorIs(t, err, cryptox.ErrDecryption)

	var fe *fieldcrypt.FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "full_name", fe.Field)
	assert.Equal(t, "plain", f.store.personas.rows["p-1"].Bio)
}

func TestMigrationService_ProfileReadError(t *testing.T) {
	f := newFixture(t)
	seedLegacy(f)
	f.store.profileErr = errors.New("connection reset")
	s := NewMigrationService(f.db, f.repos, f.codec, logging.NewNopLogger())

	f.mock.ExpectBegin()
	f.mock.ExpectRollback()
	_, err := s.MigrateUser(f.ctx, "u-1", f.key, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestMigrationService_NoProfile(t *testing.T) {
	f := newFixture(t)
	f.store.characters.put("c-1", models.Character{ID: "c-1", OwnerID: "u-1", Name: "Nyx", IsPrivate: true})
	s := NewMigrationService(f.db, f.repos, f.codec, logging.NewNopLogger())

	f.expectTx()
	report, err := s.MigrateUser(f.ctx, "u-1", f.key, false)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Total())
}
