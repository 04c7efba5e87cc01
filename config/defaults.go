package config

import (
	"time"

	"dbgpc/internal/dbgp"
)

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across CLI flags and environment variable loading.

const (
	// DefaultPort is the port DBGp engines connect back to.
	DefaultPort = 9000

	// DefaultFraming frames outbound commands with a length prefix.
	DefaultFraming = "length"

	// DefaultOutputDepth is how many commands may wait for the socket.
	DefaultOutputDepth = dbgp.DefaultOutputDepth

	// DefaultMaxPacketSize bounds a single inbound packet.
	DefaultMaxPacketSize = dbgp.DefaultMaxPacketSize

	// DefaultListenAttempts is how many times to try binding the port
	// before giving up.
	DefaultListenAttempts = 5

	// DefaultFailureLimit is how many sessions in a row may fail before
	// a keep-open server pauses.
	DefaultFailureLimit = 5

	// DefaultFailureCooldown is how long that pause lasts.
	DefaultFailureCooldown = 10 * time.Second
)
