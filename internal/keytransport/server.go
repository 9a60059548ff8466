package keytransport

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/chatvault/internal/common"
	"github.com/dmitrijs2005/chatvault/internal/cryptox"
)

// CookieOptions tunes the key cookie. Secure should only be false for local
// development over plain HTTP.
type CookieOptions struct {
	Path   string
	Domain string
	Secure bool
}

// DefaultCookieOptions is what production uses.
var DefaultCookieOptions = CookieOptions{Path: "/", Secure: true}

// ServerTransport reads the key from one request and writes changes to the
// matching response. Create one per request.
type ServerTransport struct {
	w    http.ResponseWriter
	r    *http.Request
	opts CookieOptions
}

func NewServerTransport(w http.ResponseWriter, r *http.Request, opts CookieOptions) *ServerTransport {
	if opts.Path == "" {
		opts.Path = "/"
	}
	return &ServerTransport{w: w, r: r, opts: opts}
}

// Get returns the key from the request cookie. A missing or undecodable
// cookie yields ErrKeyUnavailable.
func (t *ServerTransport) Get(ctx context.Context) (cryptox.Key, error) {
	c, err := t.r.Cookie(common.KeyCookieName)
	if err != nil || c.Value == "" {
		return cryptox.Key{}, ErrKeyUnavailable
	}
	key, err := cryptox.ParseKey(c.Value)
	if err != nil {
		return cryptox.Key{}, fmt.Errorf("%w: %v", ErrKeyUnavailable, err)
	}
	return key, nil
}

// Set derives the key and stores it in a year-long strict cookie. The key is
// returned so the login request can use it right away.
func (t *ServerTransport) Set(ctx context.Context, password, salt string) (cryptox.Key, error) {
	key := cryptox.DeriveKey(password, salt)
	t.write(key.String(), common.KeyCookieMaxAge)
	return key, nil
}

// Clear overwrites the cookie with an empty, already expired value.
func (t *ServerTransport) Clear(ctx context.Context) error {
	t.write("", -1)
	return nil
}

func (t *ServerTransport) write(value string, maxAge int) {
	c := &http.Cookie{
		Name:     common.KeyCookieName,
		Value:    value,
		Path:     t.opts.Path,
		Domain:   t.opts.Domain,
		MaxAge:   maxAge,
		Secure:   t.opts.Secure,
		SameSite: http.SameSiteStrictMode,
	}
	// net/http has no Priority attribute.
	t.w.Header().Add("Set-Cookie", c.String()+"; Priority=High")
}
