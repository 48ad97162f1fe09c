package auth

import "context"

type contextKey string

const (
	contextKeySession contextKey = "session"
	contextKeyClient  contextKey = "client"
)

// Client describes the browser that opened a session.
type Client struct {
	UserAgent string
	IPAddress string
}

func WithSession(ctx context.Context, session *Session) context.Context {
	return context.WithValue(ctx, contextKeySession, session)
}

func SessionFromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(contextKeySession).(*Session)
	return s, ok && s != nil
}

// WithClient attaches request metadata recorded on sessions created with ctx.
func WithClient(ctx context.Context, client Client) context.Context {
	return context.WithValue(ctx, contextKeyClient, client)
}

func clientFromContext(ctx context.Context) Client {
	c, _ := ctx.Value(contextKeyClient).(Client)
	return c
}
