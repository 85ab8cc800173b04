package httpmw

import (
	"net/http"

	"go.uber.org/zap"
)

// EdgePolicy defines the default middleware policy for the gateway's public
// listener. It is configuration-driven so the stack stays an explicit ordered
// list instead of hand-nested wrappers.
//
// Note there is no per-request timeout stage: http.TimeoutHandler buffers the
// whole response, which would break streaming relays to upstreams.
type EdgePolicy struct {
	// ServiceName is used for OpenTelemetry span names + access log fields.
	ServiceName string

	// MaxInFlight limits concurrent requests processed by the server handler.
	MaxInFlight int

	// Outer is applied outside the default edge chain (even before RequestID
	// and Recover). Use sparingly.
	Outer Chain

	// Leaf is applied closest to the dispatch handler, inside the default
	// edge chain. Typical examples: metrics, request validation.
	Leaf Chain
}

// DefaultEdge returns the default edge chain, excluding Wrap() and excluding
// any leaf middleware.
func DefaultEdge(log *zap.Logger, maxInFlight int) Chain {
	if maxInFlight <= 0 {
		maxInFlight = 1024
	}

	return Chain{
		RequestID,
		WithRecover(log),
		SecurityHeaders,
		WithInFlightLimit(maxInFlight),
	}
}

// BuildEdgeHandler composes a policy-driven middleware stack around next.
//
// Final order (outer -> inner):
//
//	Outer..., Wrap, RequestID, Recover, SecurityHeaders, InFlightLimit, Leaf..., next
func BuildEdgeHandler(log *zap.Logger, p EdgePolicy, next http.Handler) http.Handler {
	if p.ServiceName == "" {
		p.ServiceName = "gateway"
	}

	leaf := p.Leaf.Then(next)
	h := DefaultEdge(log, p.MaxInFlight).Then(leaf)

	// Standard tracing + access logging sits outside the default policy chain.
	h = WithWrap(p.ServiceName, log)(h)

	return p.Outer.Then(h)
}
