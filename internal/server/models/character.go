package models

import "time"

// Character is an authored persona the user chats with.
type Character struct {
	ID           string    `db:"id" json:"id"`
	OwnerID      string    `db:"owner_id" json:"owner_id"`
	Name         string    `db:"name" json:"name"`
	Description  string    `db:"description" json:"description"`
	Intro        string    `db:"intro" json:"intro"`
	Bio          string    `db:"bio" json:"bio"`
	Book         string    `db:"book" json:"book"`
	ImageLink    string    `db:"image_link" json:"image_link"`
	Personality  string    `db:"personality" json:"personality"`
	SystemPrompt string    `db:"system_prompt" json:"system_prompt"`
	ImagePrompt  string    `db:"image_prompt" json:"image_prompt"`
	FirstMessage string    `db:"first_message" json:"first_message"`
	SpeakerLink  string    `db:"speaker_link" json:"speaker_link"`
	Scenario     string    `db:"scenario" json:"scenario"`
	IsPrivate    bool      `db:"is_private" json:"is_private"`
	Chats        int64     `db:"chats" json:"chats"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

func (c Character) Private() bool { return c.IsPrivate }
