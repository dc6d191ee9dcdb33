package auth

import "context"

type contextKey string

const keyPrefixContextKey contextKey = "admin_key_prefix"

// ContextWithKeyPrefix records which admin key authorized the request.
func ContextWithKeyPrefix(ctx context.Context, prefix string) context.Context {
	return context.WithValue(ctx, keyPrefixContextKey, prefix)
}

// KeyPrefixFromContext returns the admin key prefix, or "" when the gate is off.
func KeyPrefixFromContext(ctx context.Context) string {
	prefix, _ := ctx.Value(keyPrefixContextKey).(string)
	return prefix
}
