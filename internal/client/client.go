// Package client is a Go client of the chatvault HTTP API.
//
// It keeps the session and key cookies in a cookie jar, the way a browser
// does, and encrypts message content with the key cookie before it leaves
// the process. Server errors are mapped to the sentinel errors in common and
// keytransport so callers can match them with errors.Is.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/chatvault/internal/common"
	"github.com/dmitrijs2005/chatvault/internal/cryptox"
	"github.com/dmitrijs2005/chatvault/internal/keytransport"
	"github.com/dmitrijs2005/chatvault/internal/logging"
	"github.com/dmitrijs2005/chatvault/internal/netx"
	"github.com/dmitrijs2005/chatvault/internal/server/models"
)

// logoutPath is where the server sends a request whose key cookie is gone.
const logoutPath = "/auth/logout"

// Upload is a presigned image upload slot.
type Upload struct {
	StorageKey string    `json:"storage_key"`
	URL        string    `json:"url"`
	ExpiresAt  time.Time `json:"expires_at"`
}

type Client struct {
	base   *url.URL
	http   *http.Client
	keys   *keytransport.ClientTransport
	codec  *cryptox.Codec
	logger logging.Logger
}

// New returns a client for the server at baseURL. hc may be nil; it is
// copied, given a cookie jar if it has none and told not to follow redirects.
func New(baseURL string, hc *http.Client, logger logging.Logger) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("base url: %w", err)
	}

	var h http.Client
	if hc != nil {
		h = *hc
	}
	if h.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		h.Jar = jar
	}
	h.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	return &Client{
		base:   base,
		http:   &h,
		keys:   keytransport.NewClientTransport(h.Jar, base),
		codec:  cryptox.NewCodec(logger),
		logger: logger.With("module", "client"),
	}, nil
}

func (c *Client) Register(ctx context.Context, email, username, password string) error {
	in := map[string]string{"email": email, "username": username, "password": password}
	return c.do(ctx, http.MethodPost, "/auth/register", in, nil)
}

// Login stores the session and key cookies the server sets.
func (c *Client) Login(ctx context.Context, email, password string) error {
	in := map[string]string{"email": email, "password": password}
	return c.do(ctx, http.MethodPost, "/auth/login", in, nil)
}

// Logout clears the cookies locally even when the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, logoutPath, nil, nil)
	if cerr := c.keys.Clear(ctx); cerr != nil {
		return cerr
	}
	return err
}

// Key returns the field key from the cookie jar.
func (c *Client) Key(ctx context.Context) (cryptox.Key, error) {
	return c.keys.Get(ctx)
}

// SendMessage encrypts content with the session key and posts it as a user
// message. The server answers with the decrypted message.
func (c *Client) SendMessage(ctx context.Context, chatID, content string) (*models.Message, error) {
	key, err := c.keys.Get(ctx)
	if err != nil {
		return nil, err
	}
	enc, err := c.codec.Encrypt(ctx, content, key)
	if err != nil {
		return nil, err
	}

	in := map[string]string{"role": "user", "content": enc}
	var out models.Message
	if err := c.do(ctx, http.MethodPost, "/chats/"+url.PathEscape(chatID)+"/messages", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Messages(ctx context.Context, chatID string) ([]models.Message, error) {
	var out []models.Message
	if err := c.do(ctx, http.MethodGet, "/chats/"+url.PathEscape(chatID)+"/messages", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UploadImage asks the server for a presigned slot and stores data in it.
func (c *Client) UploadImage(ctx context.Context, data []byte, contentType string) (*Upload, error) {
	var up Upload
	if err := c.do(ctx, http.MethodPost, "/uploads/images", nil, &up); err != nil {
		return nil, err
	}
	// No jar: host-bound cookies would reach an object store on the API's host.
	storage := &http.Client{Transport: c.http.Transport, Timeout: c.http.Timeout}
	if err := netx.UploadToPresignedURL(ctx, storage, up.URL, data, contentType); err != nil {
		return nil, err
	}
	c.logger.Info(ctx, "image uploaded", "storage_key", up.StorageKey)
	return &up, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.JoinPath(path).String(), body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := mapStatus(resp); err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func mapStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusFound && strings.HasSuffix(resp.Header.Get("Location"), logoutPath):
		return keytransport.ErrKeyUnavailable
	case resp.StatusCode == http.StatusUnauthorized:
		return common.ErrorUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return common.ErrorNotFound
	case resp.StatusCode == http.StatusBadRequest:
		return fmt.Errorf("%w: %s", common.ErrorValidation, errorMessage(resp))
	case resp.StatusCode == http.StatusConflict:
		return common.ErrorAlreadyExists
	case resp.StatusCode >= 300:
		return fmt.Errorf("unexpected status %s: %s", resp.Status, errorMessage(resp))
	}
	return nil
}

func errorMessage(resp *http.Response) string {
	var e struct {
		Error string `json:"error"`
	}
	b, _ := io.ReadAll(resp.Body)
	if json.Unmarshal(b, &e) == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(b))
}
