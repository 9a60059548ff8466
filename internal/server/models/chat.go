package models

import "time"

type Chat struct {
	ID             string    `db:"id" json:"id"`
	UserID         string    `db:"user_id" json:"user_id"`
	CharacterID    string    `db:"character_id" json:"character_id"`
	PersonaID      string    `db:"persona_id" json:"persona_id,omitempty"`
	Title          string    `db:"title" json:"title"`
	Description    string    `db:"description" json:"description"`
	LastMessage    string    `db:"last_message" json:"last_message"`
	DynamicBook    string    `db:"dynamic_book" json:"dynamic_book"`
	NegativePrompt string    `db:"negative_prompt" json:"negative_prompt"`
	IsPrivate      bool      `db:"is_private" json:"is_private"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

func (c Chat) Private() bool { return c.IsPrivate }

// Message is one turn of a chat. Its privacy follows the chat it belongs to.
// Browsers may send Content already encrypted.
type Message struct {
	ID        string    `db:"id" json:"id"`
	ChatID    string    `db:"chat_id" json:"chat_id"`
	Role      string    `db:"role" json:"role"`
	Content   string    `db:"content" json:"content"`
	IsPrivate bool      `db:"is_private" json:"is_private"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

func (m Message) Private() bool { return m.IsPrivate }
