package safesubmit

import "context"

type contextKey string

const contextKeyToken contextKey = "idempotencyToken"

// WithToken returns a new context carrying the idempotency token.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, contextKeyToken, token)
}

// TokenFromContext retrieves the idempotency token the middleware attached
// for an accepted request. Bypassed requests carry none.
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(contextKeyToken).(string)
	return token, ok && token != ""
}
