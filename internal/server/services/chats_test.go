package services

import (
	"errors"
	"testing"

	"github.com/dmitrijs2005/chatvault/internal/common"
	"github.com/dmitrijs2005/chatvault/internal/cryptox"
	"github.com/dmitrijs2005/chatvault/internal/logging"
	"github.com/dmitrijs2005/chatvault/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newChatService(f *fixture) *ChatService {
	return NewChatService(f.db, f.repos, f.codec, logging.NewNopLogger())
}

func seedCharacter(t *testing.T, f *fixture, c models.Character) *models.Character {
	t.Helper()
	got, err := newCharacterService(f).Create(f.ctx, c.OwnerID, c)
	require.NoError(t, err)
	return got
}

func TestChatService_Create_WithFirstMessage(t *testing.T) {
	f := newFixture(t)
	s := newChatService(f)
	character := seedCharacter(t, f, models.Character{OwnerID: "u-1", Name: "Nyx", FirstMessage: "You found me.", IsPrivate: true})

	f.expectTx()
	chat, err := s.Create(f.ctx, "u-1", models.Chat{CharacterID: character.ID, IsPrivate: true})
	require.NoError(t, err)
	assert.Equal(t, "Nyx", chat.Title, "title defaults to the character name")
	assert.Equal(t, "You found me.", chat.LastMessage)

	stored := f.store.chats.rows[chat.ID]
	assert.True(t, cryptox.IsEncrypted(stored.Title))
	assert.True(t, cryptox.IsEncrypted(stored.NegativePrompt))

	msgs := f.store.messages.all()
	require.Len(t, msgs, 1)
	assert.Equal(t, RoleAssistant, msgs[0].Role)
	assert.Equal(t, "You found me.", f.decrypt(t, msgs[0].Content))
	assert.Equal(t, int64(1), f.store.characters.rows[character.ID].Chats)

	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestChatService_Create_Errors(t *testing.T) {
	f := newFixture(t)
	s := newChatService(f)
	hidden := seedCharacter(t, f, models.Character{OwnerID: "u-2", Name: "Hidden", IsPrivate: true})

	_, err := s.Create(f.ctx, "u-1", models.Chat{CharacterID: hidden.ID})
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = s.Create(f.ctx, "u-1", models.Chat{CharacterID: "missing"})
	assert.ErrorIs(t, err, common.ErrorNotFound)

	public := seedCharacter(t, f, models.Character{OwnerID: "u-2", Name: "Open", FirstMessage: "hi"})
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()
	f.store.err = errors.New("insert failed")
	_, err = s.Create(f.ctx, "u-1", models.Chat{CharacterID: public.ID})
	assert.ErrorContains(t, err, "insert failed")
}

func TestChatService_AddMessage(t *testing.T) {
	f := newFixture(t)
	s := newChatService(f)
	character := seedCharacter(t, f, models.Character{OwnerID: "u-1", Name: "Nyx"})

	f.expectTx()
	chat, err := s.Create(f.ctx, "u-1", models.Chat{CharacterID: character.ID, IsPrivate: true})
	require.NoError(t, err)

	t.Run("plain content is sealed", func(t *testing.T) {
		f.expectTx()
		msg, err := s.AddMessage(f.ctx, "u-1", chat.ID, RoleUser, "hello")
		require.NoError(t, err)
		assert.Equal(t, "hello", msg.Content)
		assert.True(t, msg.IsPrivate)

		stored := f.store.messages.rows[msg.ID]
		assert.Equal(t, "hello", f.decrypt(t, stored.Content))
		assert.Equal(t, "hello", f.decrypt(t, f.store.chats.rows[chat.ID].LastMessage))
	})

	t.Run("client-encrypted content is stored as sent", func(t *testing.T) {
		sent, err := f.codec.Encrypt(f.ctx, "from the browser", f.key)
		require.NoError(t, err)

		f.expectTx()
		msg, err := s.AddMessage(f.ctx, "u-1", chat.ID, RoleUser, sent)
		require.NoError(t, err)
		assert.Equal(t, "from the browser", msg.Content)
		assert.Equal(t, sent, f.store.messages.rows[msg.ID].Content)
	})

	t.Run("rejects", func(t *testing.T) {
		_, err := s.AddMessage(f.ctx, "u-1", chat.ID, "system", "x")
		assert.ErrorIs(t, err, common.ErrorValidation)

		_, err = s.AddMessage(f.ctx, "u-2", chat.ID, RoleUser, "x")
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})

	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestChatService_Reads_MigrateLegacy(t *testing.T) {
	f := newFixture(t)
	s := newChatService(f)

	f.store.chats.put("ch-1", models.Chat{ID: "ch-1", UserID: "u-1", CharacterID: "c-1", Title: "Old chat", IsPrivate: true})
	f.store.messages.put("m-1", models.Message{ID: "m-1", ChatID: "ch-1", Role: RoleUser, Content: "legacy", IsPrivate: true})
	f.store.messages.put("m-2", models.Message{ID: "m-2", ChatID: "ch-1", Role: RoleUser, Content: "public", IsPrivate: false})

	list, err := s.List(f.ctx, "u-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Old chat", list[0].Title)
	assert.True(t, cryptox.IsEncrypted(f.store.chats.rows["ch-1"].Title))

	msgs, err := s.Messages(f.ctx, "u-1", "ch-1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "legacy", msgs[0].Content)
	assert.Equal(t, "legacy", f.decrypt(t, f.store.messages.rows["m-1"].Content))
	assert.Equal(t, "public", f.store.messages.rows["m-2"].Content, "public messages stay plain")

	_, err = s.Messages(f.ctx, "u-2", "ch-1")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	got, err := s.Get(f.ctx, "u-1", "ch-1")
	require.NoError(t, err)
	assert.Equal(t, "Old chat", got.Title)
}
