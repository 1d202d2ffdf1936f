package auth

import "context"

// Identity is the authenticated caller of an engine operation.
type Identity struct {
	UserID string
}

type identityKey struct{}

// WithIdentity returns a context carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext extracts the caller identity. ok is false for anonymous
// contexts.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok && id.UserID != ""
}

// UserID returns the caller's user ID, or "" if anonymous.
func UserID(ctx context.Context) string {
	id, _ := FromContext(ctx)
	return id.UserID
}
