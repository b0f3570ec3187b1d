package pipeline

import "context"

type sessionKey struct{}

// WithSessionID attaches a session id to ctx. Runs started with the returned
// context log under that id and copy it onto their output.
func WithSessionID(ctx context.Context, sessionId string) context.Context {
	return context.WithValue(ctx, sessionKey{}, sessionId)
}

func sessionFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(sessionKey{}).(string); ok {
		return s
	}
	return ""
}
