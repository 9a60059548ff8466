package models

// Profile holds the public-facing account details plus the user's
// third-party provider credentials.
type Profile struct {
	UserID     string   `db:"user_id" json:"user_id"`
	Username   string   `db:"username" json:"username"`
	FirstName  string   `db:"first_name" json:"first_name"`
	LastName   string   `db:"last_name" json:"last_name"`
	Bio        string   `db:"bio" json:"bio"`
	AvatarLink string   `db:"avatar_link" json:"avatar_link"`
	IsPrivate  bool     `db:"is_private" json:"is_private"`
	APIKeys    []APIKey `db:"-" json:"api_keys"`
}

func (p Profile) Private() bool { return p.IsPrivate }

// APIKey is a provider credential. EncryptedAPIKey is opaque to provider
// code; only the profile codec knows its encoding.
type APIKey struct {
	ID              string `db:"id" json:"id"`
	UserID          string `db:"user_id" json:"user_id"`
	Provider        string `db:"provider" json:"provider"`
	EncryptedAPIKey string `db:"encrypted_api_key" json:"encrypted_api_key"`
}

// Private is always true: provider credentials are sensitive whatever the
// profile visibility is.
func (APIKey) Private() bool { return true }
