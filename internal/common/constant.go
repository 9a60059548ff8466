package common

const (
	// SessionCookieName carries the signed session token (user id + email).
	SessionCookieName = "session"

	// KeyCookieName carries the hex-encoded, password-derived field key.
	KeyCookieName = "encryption_key"

	// KeyCookieMaxAge is the lifetime of the key cookie, one year in seconds.
	KeyCookieMaxAge = 31536000
)
