// Package keytransport carries the password-derived field key from the login
// request to every later request of the session, through a cookie.
//
// The same cookie is read on both sides: ServerTransport works on an incoming
// request and outgoing response, ClientTransport on a client-side cookie jar
// (the Go stand-in for the browser's cookie store, used by clients that
// encrypt messages before sending them). Both decode the identical bytes.
package keytransport

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/chatvault/internal/cryptox"
)

var (
	// ErrKeyUnavailable means no usable key cookie is present: the session's
	// password-derived material was never set or has expired. Servers recover
	// by sending the user to re-authenticate.
	ErrKeyUnavailable = errors.New("encryption key unavailable")

	// ErrNoClientContext is returned by a ClientTransport that has no cookie
	// store to read from.
	ErrNoClientContext = errors.New("no client cookie store")
)

// Transport stores, loads and clears the session key.
type Transport interface {
	Get(ctx context.Context) (cryptox.Key, error)
	Set(ctx context.Context, password, salt string) (cryptox.Key, error)
	Clear(ctx context.Context) error
}
