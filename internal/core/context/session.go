package context

import "context"

// SessionContext identifies the order-entry session a request operates on.
type SessionContext struct {
	SessionID string
	Channel   string
	ClientID  string
}

type sessionContextKey struct{}

// WithSession adds SessionContext to context.
func WithSession(ctx context.Context, s *SessionContext) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, s)
}

// GetSession returns SessionContext from context.
func GetSession(ctx context.Context) *SessionContext {
	if v, ok := ctx.Value(sessionContextKey{}).(*SessionContext); ok {
		return v
	}
	return nil
}
