// Package models defines the records chatvault persists. The `db` tags name
// the columns and are also the field names used by the encryption manifests.
package models

import "time"

// User is a local account of the identity store. The email doubles as the
// salt of the user's field key and must never change.
type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	Username     string    `db:"username" json:"username"`
	PasswordHash []byte    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
