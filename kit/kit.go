// Package kit provides the transport-agnostic endpoint layer shared by the
// HTTP API and the MCP tool surface: a request is decoded by the transport,
// handed to an Endpoint, and the response encoded back. Middleware composes
// around endpoints regardless of which transport invoked them.
package kit

import "context"

// Endpoint is a single operation: typed request in, typed response out.
// Transports assert the concrete request type after their decode step.
type Endpoint func(ctx context.Context, request any) (any, error)

// Middleware wraps an Endpoint with cross-cutting behaviour.
type Middleware func(Endpoint) Endpoint

// Chain composes middleware so the first argument is outermost.
func Chain(outer Middleware, others ...Middleware) Middleware {
	return func(next Endpoint) Endpoint {
		for i := len(others) - 1; i >= 0; i-- {
			next = others[i](next)
		}
		return outer(next)
	}
}
