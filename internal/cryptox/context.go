package cryptox

import "context"

type keyCtxKey struct{}

// WithKey returns a child context carrying key for the rest of the request.
func WithKey(ctx context.Context, key Key) context.Context {
	return context.WithValue(ctx, keyCtxKey{}, key)
}

// KeyFromContext returns the key stored by WithKey.
func KeyFromContext(ctx context.Context) (Key, bool) {
	k, ok := ctx.Value(keyCtxKey{}).(Key)
	return k, ok
}
