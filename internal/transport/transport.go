// Package transport provides the listening side of a debugger session.
// A Listener decides how the socket an engine connects to is bound;
// what flows over the accepted connection is the protocol layer's job.
package transport

import (
	"context"
	"net"
)

// Listener opens the socket a debugging engine connects back to.
type Listener interface {
	// Listen binds and returns a listener ready to Accept.
	Listen(ctx context.Context) (net.Listener, error)

	// Addr returns the address Listen binds, for messages.
	Addr() string
}

// ListenerFunc adapts a function to a Listener.
type ListenerFunc func(ctx context.Context) (net.Listener, error)

// Listen calls f.
func (f ListenerFunc) Listen(ctx context.Context) (net.Listener, error) { return f(ctx) }

// Addr returns a placeholder, since the address is whatever f binds.
func (f ListenerFunc) Addr() string { return "custom" }
