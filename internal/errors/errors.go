// Package errors provides domain-specific error types for dbgpc.
//
// These types carry structured context (operation, address, stream offset,
// retryability) so that delegates and the CLI can decide how to react to a
// failure without parsing message strings.
package errors

import (
	"errors"
	"fmt"
	"net"
	"syscall"
)

// ── Sentinel errors ──────────────────────────────────────────────────

var (
	ErrClosed         = errors.New("connection is closed")
	ErrNotConnected   = errors.New("not connected")
	ErrAlreadyStarted = errors.New("connection already started")
	ErrOutputFull     = errors.New("output channel has no capacity")
	ErrTimeout        = errors.New("operation timed out")
)

// ── Structured error types ───────────────────────────────────────────

// NetworkError represents a failure in a socket operation.
type NetworkError struct {
	Op        string // operation: "listen", "accept", "read", "write"
	Addr      string // network address involved
	Err       error  // underlying error
	Retryable bool   // whether the caller should retry
}

func (e *NetworkError) Error() string {
	s := fmt.Sprintf("%s %s: %v", e.Op, e.Addr, e.Err)
	if e.Retryable {
		s += " (retryable)"
	}
	return s
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ProtocolError reports a violation of the DBGp packet framing. The
// connection that produced it cannot be resynchronised.
type ProtocolError struct {
	Offset int64  // byte offset in the inbound stream
	Msg    string // what was wrong
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("dbgp framing at byte %d: %s", e.Offset, e.Msg)
}

// ParseError reports an assembled packet that is not well-formed XML.
type ParseError struct {
	Size int   // payload length
	Err  error // decoder error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("dbgp packet (%d bytes) is not valid XML: %v", e.Size, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ConfigError represents an invalid configuration value.
type ConfigError struct {
	Field   string      // config field name
	Value   interface{} // the invalid value (nil if missing)
	Message string      // human-readable explanation
	Hint    string      // suggestion for the user (optional)
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("config: --%s", e.Field)
	if e.Value != nil {
		msg += fmt.Sprintf("=%v", e.Value)
	}
	msg += ": " + e.Message
	if e.Hint != "" {
		msg += "\n  hint: " + e.Hint
	}
	return msg
}

// ── Constructors ─────────────────────────────────────────────────────

// Wrap creates a NetworkError, automatically detecting retryability
// from the underlying error.
func Wrap(op, addr string, err error) *NetworkError {
	return &NetworkError{
		Op:        op,
		Addr:      addr,
		Err:       err,
		Retryable: classifyRetryable(err),
	}
}

// Protocolf creates a ProtocolError at the given stream offset.
func Protocolf(offset int64, format string, args ...interface{}) *ProtocolError {
	return &ProtocolError{Offset: offset, Msg: fmt.Sprintf(format, args...)}
}

// ── Classification helpers ───────────────────────────────────────────

// IsRetryable reports whether err is worth retrying.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var ne *NetworkError
	if errors.As(err, &ne) {
		return ne.Retryable
	}
	return classifyRetryable(err)
}

// IsFatal reports whether err ends the session it was raised on. Parse
// errors are scoped to a single packet; everything else is fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var pe *ParseError
	return !errors.As(err, &pe)
}

// classifyRetryable inspects standard library error types.  A port
// still held by another process may be released; a bad address or a
// privileged port will not fix itself.
func classifyRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, syscall.EADDRINUSE) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Temporary() //nolint:staticcheck // Temporary is deprecated but still useful
	}
	return false
}

// ── Re-exports for convenience ───────────────────────────────────────

// Is is [errors.Is].
func Is(err, target error) bool { return errors.Is(err, target) }
