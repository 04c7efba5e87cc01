// Package core is the orchestration layer.  It composes the protocol
// connection, the session and a capability into a complete run of the
// CLI and provides a builder that assembles it from a Config.
//
// Architecture layers (bottom → top):
//
//	transport  →  dbgp  →  session  →  capability  →  core  →  cmd (CLI)
package core

import "context"

// Mode represents a complete operational mode of dbgpc.  Each mode
// owns its full lifecycle from binding the listener to teardown.
type Mode interface {
	Run(ctx context.Context) error
}
