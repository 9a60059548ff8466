package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/chatvault/internal/common"
	"github.com/dmitrijs2005/chatvault/internal/cryptox"
	"github.com/dmitrijs2005/chatvault/internal/dbx"
	"github.com/dmitrijs2005/chatvault/internal/fieldcrypt"
	"github.com/dmitrijs2005/chatvault/internal/logging"
	"github.com/dmitrijs2005/chatvault/internal/server/models"
	"github.com/dmitrijs2005/chatvault/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type ChatService struct {
	base
}

func NewChatService(db *sql.DB, m repomanager.RepositoryManager, codec *cryptox.Codec, logger logging.Logger) *ChatService {
	return &ChatService{base: newBase(db, m, codec, logger, "chats")}
}

// Create starts a chat with a visible character. The character's first
// message, if any, becomes the opening assistant message. The chat, that
// message and the character's counter are written in one transaction.
func (s *ChatService) Create(ctx context.Context, userID string, chat models.Chat) (*models.Chat, error) {
	key, err := sessionKey(ctx)
	if err != nil {
		return nil, err
	}

	character, err := s.repomanager.Characters(s.db).GetByID(ctx, chat.CharacterID)
	if err != nil {
		return nil, err
	}
	if character.IsPrivate && character.OwnerID != userID {
		return nil, common.ErrorNotFound
	}
	opened, err := fieldcrypt.Open(ctx, s.codec, fieldcrypt.KindCharacter, *character, key, readPolicy)
	if err != nil {
		return nil, fmt.Errorf("open character: %w", err)
	}

	chat.ID = uuid.NewString()
	chat.UserID = userID
	if fieldcrypt.IsBlank(chat.Title) {
		chat.Title = opened.Name
	}

	var first *models.Message
	if !fieldcrypt.IsBlank(opened.FirstMessage) {
		first = &models.Message{ID: uuid.NewString(), ChatID: chat.ID, Role: RoleAssistant,
			Content: opened.FirstMessage, IsPrivate: chat.IsPrivate}
		chat.LastMessage = opened.FirstMessage
	}

	sealedChat, err := fieldcrypt.Seal(ctx, s.codec, fieldcrypt.KindChat, chat, key)
	if err != nil {
		return nil, fmt.Errorf("seal chat: %w", err)
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		stored, err := s.repomanager.Chats(tx).Create(ctx, &sealedChat)
		if err != nil {
			return err
		}
		chat.CreatedAt, chat.UpdatedAt = stored.CreatedAt, stored.UpdatedAt

		if first != nil {
			sealedMsg, err := fieldcrypt.Seal(ctx, s.codec, fieldcrypt.KindMessage, *first, key)
			if err != nil {
				return fmt.Errorf("seal message: %w", err)
			}
			if _, err := s.repomanager.Messages(tx).Create(ctx, &sealedMsg); err != nil {
				return err
			}
		}
		return s.repomanager.Characters(tx).IncrementChats(ctx, chat.CharacterID)
	})
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

func (s *ChatService) Get(ctx context.Context, userID, id string) (*models.Chat, error) {
	key, err := sessionKey(ctx)
	if err != nil {
		return nil, err
	}
	stored, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return s.open(ctx, stored, key)
}

func (s *ChatService) List(ctx context.Context, userID string) ([]*models.Chat, error) {
	key, err := sessionKey(ctx)
	if err != nil {
		return nil, err
	}

	stored, err := s.repomanager.Chats(s.db).ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	result := make([]*models.Chat, 0, len(stored))
	for _, c := range stored {
		opened, err := s.open(ctx, c, key)
		if err != nil {
			return nil, err
		}
		result = append(result, opened)
	}
	return result, nil
}

// AddMessage appends a message to a chat the caller owns. The message takes
// the chat's privacy. content may arrive already encrypted by the client, in
// which case it is stored as is.
func (s *ChatService) AddMessage(ctx context.Context, userID, chatID, role, content string) (*models.Message, error) {
	if role != RoleUser && role != RoleAssistant {
		return nil, common.ErrorValidation
	}
	key, err := sessionKey(ctx)
	if err != nil {
		return nil, err
	}

	stored, err := s.owned(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}
	chat, err := fieldcrypt.Open(ctx, s.codec, fieldcrypt.KindChat, *stored, key, readPolicy)
	if err != nil {
		return nil, fmt.Errorf("open chat: %w", err)
	}

	msg := models.Message{ID: uuid.NewString(), ChatID: chatID, Role: role, Content: content, IsPrivate: chat.IsPrivate}
	sealedMsg, err := fieldcrypt.Seal(ctx, s.codec, fieldcrypt.KindMessage, msg, key)
	if err != nil {
		return nil, fmt.Errorf("seal message: %w", err)
	}

	chat.LastMessage = content
	sealedChat, err := fieldcrypt.Seal(ctx, s.codec, fieldcrypt.KindChat, chat, key)
	if err != nil {
		return nil, fmt.Errorf("seal chat: %w", err)
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		created, err := s.repomanager.Messages(tx).Create(ctx, &sealedMsg)
		if err != nil {
			return err
		}
		msg.CreatedAt = created.CreatedAt
		return s.repomanager.Chats(tx).Update(ctx, &sealedChat)
	})
	if err != nil {
		return nil, err
	}

	// A client-encrypted message is handed back in plain text too.
	msg.Content = s.codec.DecryptBackwardsCompatible(ctx, msg.Content, key)
	return &msg, nil
}

func (s *ChatService) Messages(ctx context.Context, userID, chatID string) ([]*models.Message, error) {
	key, err := sessionKey(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.owned(ctx, userID, chatID); err != nil {
		return nil, err
	}

	stored, err := s.repomanager.Messages(s.db).ListByChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	result := make([]*models.Message, 0, len(stored))
	for _, m := range stored {
		opened, err := fieldcrypt.Open(ctx, s.codec, fieldcrypt.KindMessage, *m, key, readPolicy)
		if err != nil {
			return nil, fmt.Errorf("open message: %w", err)
		}
		migrateOnRead(ctx, &s.base, fieldcrypt.KindMessage, *m, opened, key, func(sealed models.Message) error {
			return s.repomanager.Messages(s.db).Update(ctx, &sealed)
		})
		result = append(result, &opened)
	}
	return result, nil
}

func (s *ChatService) owned(ctx context.Context, userID, id string) (*models.Chat, error) {
	stored, err := s.repomanager.Chats(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if stored.UserID != userID {
		return nil, common.ErrorNotFound
	}
	return stored, nil
}

func (s *ChatService) open(ctx context.Context, stored *models.Chat, key cryptox.Key) (*models.Chat, error) {
	opened, err := fieldcrypt.Open(ctx, s.codec, fieldcrypt.KindChat, *stored, key, readPolicy)
	if err != nil {
		return nil, fmt.Errorf("open chat: %w", err)
	}
	migrateOnRead(ctx, &s.base, fieldcrypt.KindChat, *stored, opened, key, func(sealed models.Chat) error {
		return s.repomanager.Chats(s.db).Update(ctx, &sealed)
	})
	return &opened, nil
}
