// Package dbgp implements the client side of the DBGp debugger wire
// protocol: a Connection listens for a debugging engine, reassembles the
// engine's length-framed XML packets, and sends commands tagged with
// transaction IDs.
//
// Components (leaves first):
//
//	Framer        →  length-prefixed stream to discrete payloads
//	Transactions  →  monotonically increasing command IDs
//	WriteQueue    →  FIFO of framed commands, drained on write-ready
//	Connection    →  socket lifecycle and event loop owning the above
//	Loop / Relay  →  delivery of delegate calls on the consumer's goroutine
//
// Every packet has the shape
//
//	<decimal length> NUL <payload of exactly length bytes> NUL
//
// and completion is decided by counting bytes, so a payload may contain
// NUL bytes of its own.
//
// A Connection owns one event-loop goroutine.  Accept, read and write
// completion are produced by pump goroutines that only post events to
// that loop, so all protocol state is touched from a single goroutine.
// The only shared structure is the WriteQueue, which Send fills from any
// goroutine and the loop drains.
//
// A Connection is single-use: after the engine disconnects, an error
// tears the session down, or Close is called, a new Connection is
// needed for the next session.
package dbgp
