package httpmw

import (
	"net/http"

	"go.uber.org/zap"
)

// Middleware is a standard net/http middleware signature.
type Middleware func(http.Handler) http.Handler

// Chain is an explicit ordered list of request-handling stages. The first
// element is the outermost wrapper; each stage either calls the next handler
// or short-circuits with a response.
type Chain []Middleware

// Then applies the chain to h and returns the wrapped handler.
func (c Chain) Then(h http.Handler) http.Handler {
	for i := len(c) - 1; i >= 0; i-- {
		if c[i] == nil {
			continue
		}
		h = c[i](h)
	}
	return h
}

// Append returns a new chain with additional middleware appended (as new
// innermost entries).
func (c Chain) Append(mw ...Middleware) Chain {
	out := make(Chain, 0, len(c)+len(mw))
	out = append(out, c...)
	out = append(out, mw...)
	return out
}

// WithWrap adapts Wrap(service, log, next) into a Middleware.
func WithWrap(service string, log *zap.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return Wrap(service, log, next)
	}
}

// WithRecover adapts Recover(log, next) into a Middleware.
func WithRecover(log *zap.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return Recover(log, next)
	}
}

// WithInFlightLimit adapts InFlightLimit(max, next) into a Middleware.
func WithInFlightLimit(max int) Middleware {
	return func(next http.Handler) http.Handler {
		return InFlightLimit(max, next)
	}
}
