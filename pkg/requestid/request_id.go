// Package requestid generates request IDs and carries them through a
// request context.
package requestid

import (
	"context"

	"github.com/google/uuid"
)

// Header is the HTTP header carrying the request ID, both inbound and
// towards the upstream.
const Header = "X-Request-ID"

type contextKey struct{}

// GenerateRequestID returns a random (version 4) UUID string.
func GenerateRequestID() string {
	return uuid.NewString()
}

// NewContext returns a copy of ctx carrying id
func NewContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the request ID stored in ctx, or "" if there is none
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(contextKey{}).(string)
	return id
}
