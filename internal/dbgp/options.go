package dbgp

import (
	"github.com/go-logr/logr"

	"dbgpc/internal/metrics"
	"dbgpc/internal/transport"
)

// DefaultOutputDepth is how many framed commands may wait for the
// socket writer before the queue stops draining.
const DefaultOutputDepth = 8

// Options tune a Connection.  The zero value listens on every
// interface, frames commands with a length prefix and logs nothing.
type Options struct {
	// Host is the bind address.  Ignored when Listener is set.
	Host string

	// Listener overrides how the listening socket is opened.
	Listener transport.Listener

	// Log receives connection events.  V(1) logs every packet.
	Log logr.Logger

	// Metrics counts packets, commands and bytes.  May be nil.
	Metrics *metrics.Collector

	// Framing selects the outbound command framing.
	Framing Framing

	// OutputDepth bounds the writes handed to the socket writer at once.
	OutputDepth int

	// MaxPacketSize bounds inbound packets.  Zero means
	// DefaultMaxPacketSize.
	MaxPacketSize int

	// BootstrapCommands are sent when the init packet arrives, before
	// the delegate sees it.  Typical use is feature_set.
	BootstrapCommands []string

	// Loop, when set, is where delegate calls are delivered.  Otherwise
	// they run on the connection's own event goroutine.
	Loop *Loop

	// Modes restricts delivery on Loop to these run modes.
	Modes []Mode
}

func (o *Options) outputDepth() int {
	if o.OutputDepth > 0 {
		return o.OutputDepth
	}
	return DefaultOutputDepth
}
