// Package authctx carries a verified caller identity through a request's
// context. The carrier is mutable so middleware installed outside the auth
// stage (access logging in particular) can observe the identity resolved
// deeper in the pipeline.
package authctx

import (
	"context"

	"marketplace-gateway/internal/platform/authjwt"
)

type ctxKey struct{}

// carrier holds the claims slot. A request is handled by one goroutine, so
// plain assignment is safe here.
type carrier struct {
	claims *authjwt.Claims
}

// Inject returns a context able to carry claims set later in the pipeline.
// Calling it twice is a no-op.
func Inject(ctx context.Context) context.Context {
	if _, ok := ctx.Value(ctxKey{}).(*carrier); ok {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, &carrier{})
}

// WithClaims records verified claims in ctx, injecting a carrier if needed.
func WithClaims(ctx context.Context, c *authjwt.Claims) context.Context {
	ctx = Inject(ctx)
	if cr, ok := ctx.Value(ctxKey{}).(*carrier); ok {
		cr.claims = c
	}
	return ctx
}

// FromContext returns the verified claims, if the request is authenticated.
func FromContext(ctx context.Context) (*authjwt.Claims, bool) {
	cr, ok := ctx.Value(ctxKey{}).(*carrier)
	if !ok || cr.claims == nil {
		return nil, false
	}
	return cr.claims, true
}

// UserID returns the authenticated user id, if present.
func UserID(ctx context.Context) (string, bool) {
	c, ok := FromContext(ctx)
	if !ok || c.UserID == "" {
		return "", false
	}
	return c.UserID, true
}
