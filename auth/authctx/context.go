// Package authctx propagates the authenticated login through the request
// context. The value exists only for the duration of one request.
package authctx

import "context"

// contextKey is an unexported type to prevent collisions with other packages.
type contextKey struct{}

var loginKey = contextKey{}

// WithLogin stores the authenticated login in the context.
func WithLogin(ctx context.Context, login string) context.Context {
	return context.WithValue(ctx, loginKey, login)
}

// Login retrieves the authenticated login from the context. The second
// return value is false for unauthenticated requests.
func Login(ctx context.Context) (string, bool) {
	login, ok := ctx.Value(loginKey).(string)
	return login, ok && login != ""
}
