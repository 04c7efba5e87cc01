// Package capability defines what the CLI does with an engine once it
// has connected.  Each Capability encapsulates a single behaviour
// (relay commands typed on stdin, run a fixed command list) and
// operates on a Session rather than a Connection, which keeps
// capabilities testable and decoupled from the socket.
package capability

import (
	"context"
	"io"

	"dbgpc/internal/session"
)

// Capability drives a single debugger session.  Implementations
// include Console (interactive) and Batch (scripted).
type Capability interface {
	// Handle runs the capability against the given session.  It
	// blocks until its work is done, the engine goes away or the
	// context is cancelled.
	Handle(ctx context.Context, sess *session.Session) error
}

// InputOpener is implemented by capabilities that read the user's
// input.  A server opens the input once per run, before its first
// session, so a line typed between sessions reaches the next one.  The
// returned Closer is closed when the run ends.
type InputOpener interface {
	Open(stdin io.Reader) (io.Closer, error)
}
