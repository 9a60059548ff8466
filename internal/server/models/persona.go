package models

import "time"

// Persona is the identity the user plays as inside a chat.
type Persona struct {
	ID         string    `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"user_id"`
	FullName   string    `db:"full_name" json:"full_name"`
	Bio        string    `db:"bio" json:"bio"`
	AvatarLink string    `db:"avatar_link" json:"avatar_link"`
	IsPrivate  bool      `db:"is_private" json:"is_private"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

func (p Persona) Private() bool { return p.IsPrivate }
