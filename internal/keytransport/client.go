package keytransport

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/dmitrijs2005/chatvault/internal/common"
	"github.com/dmitrijs2005/chatvault/internal/cryptox"
)

// ClientTransport reads the key cookie from a cookie jar for one site. There
// is no redirect on the client side: every failure is returned and the caller
// has to prompt for a new login.
type ClientTransport struct {
	jar  http.CookieJar
	site *url.URL
}

func NewClientTransport(jar http.CookieJar, site *url.URL) *ClientTransport {
	return &ClientTransport{jar: jar, site: site}
}

// GetHex returns the raw hex value of the key cookie.
func (t *ClientTransport) GetHex(ctx context.Context) (string, error) {
	if t.jar == nil || t.site == nil {
		return "", ErrNoClientContext
	}
	for _, c := range t.jar.Cookies(t.site) {
		if c.Name == common.KeyCookieName && c.Value != "" {
			return c.Value, nil
		}
	}
	return "", ErrKeyUnavailable
}

func (t *ClientTransport) Get(ctx context.Context) (cryptox.Key, error) {
	h, err := t.GetHex(ctx)
	if err != nil {
		return cryptox.Key{}, err
	}
	key, err := cryptox.ParseKey(h)
	if err != nil {
		return cryptox.Key{}, fmt.Errorf("%w: %v", ErrKeyUnavailable, err)
	}
	return key, nil
}

func (t *ClientTransport) Set(ctx context.Context, password, salt string) (cryptox.Key, error) {
	if t.jar == nil || t.site == nil {
		return cryptox.Key{}, ErrNoClientContext
	}
	key := cryptox.DeriveKey(password, salt)
	t.jar.SetCookies(t.site, []*http.Cookie{t.cookie(key.String(), common.KeyCookieMaxAge)})
	return key, nil
}

func (t *ClientTransport) Clear(ctx context.Context) error {
	if t.jar == nil || t.site == nil {
		return ErrNoClientContext
	}
	t.jar.SetCookies(t.site, []*http.Cookie{t.cookie("", -1)})
	return nil
}

func (t *ClientTransport) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     common.KeyCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		Secure:   t.site.Scheme == "https",
		SameSite: http.SameSiteStrictMode,
	}
}
