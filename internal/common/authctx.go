package common

import "context"

type userIDKey struct{}

// WithUserID records the authenticated viewer on the context. Handlers treat
// an absent value as an anonymous viewer and price without Prime discounts.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey{}, id)
}

// UserID returns the authenticated viewer's id, if any.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey{}).(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}
