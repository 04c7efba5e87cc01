package dbgp

import (
	"strconv"

	dbgperr "dbgpc/internal/errors"
)

// DefaultMaxPacketSize bounds the declared length of an inbound packet.
const DefaultMaxPacketSize = 64 << 20

// maxLengthDigits is enough for any length up to DefaultMaxPacketSize
// and short enough that the accumulator cannot overflow an int.
const maxLengthDigits = 10

// initialPayloadCap bounds what a length prefix alone can make the
// framer allocate.  Larger payloads grow as their bytes arrive.
const initialPayloadCap = 64 << 10

// Framing selects how outbound commands are delimited.
type Framing int

const (
	// FramingLength prefixes commands with their length, exactly like
	// inbound packets.
	FramingLength Framing = iota
	// FramingNUL sends bare NUL-terminated commands, which is what most
	// engines in the wild (Xdebug, Komodo engines) expect.
	FramingNUL
)

func (f Framing) String() string {
	switch f {
	case FramingLength:
		return "length"
	case FramingNUL:
		return "nul"
	default:
		return "unknown"
	}
}

// ParseFraming maps a configuration string onto a Framing.
func ParseFraming(s string) (Framing, bool) {
	switch s {
	case "length", "":
		return FramingLength, true
	case "nul", "null":
		return FramingNUL, true
	}
	return 0, false
}

type framerState int

const (
	stateLength framerState = iota
	statePayload
	stateTrailer
)

// Framer reassembles packets from a byte stream that arrives in chunks
// of arbitrary size.  The zero value is ready to use.
type Framer struct {
	// MaxSize rejects packets declaring a larger payload.  Zero means
	// DefaultMaxPacketSize.
	MaxSize int

	state   framerState
	size    int
	digits  int
	payload []byte
	offset  int64
}

// Feed consumes p and calls emit once per completed payload, in stream
// order.  A payload handed to emit is owned by the callee.  Feed stops
// and returns the first error emit returns.  Malformed framing yields a
// *errors.ProtocolError and resets the framer.
func (f *Framer) Feed(p []byte, emit func(payload []byte) error) error {
	for len(p) > 0 {
		switch f.state {
		case stateLength:
			b := p[0]
			p = p[1:]
			f.offset++
			if err := f.lengthByte(b); err != nil {
				f.Reset()
				return err
			}

		case statePayload:
			n := f.size - len(f.payload)
			if n > len(p) {
				n = len(p)
			}
			f.payload = append(f.payload, p[:n]...)
			p = p[n:]
			f.offset += int64(n)
			if len(f.payload) == f.size {
				f.state = stateTrailer
			}

		case stateTrailer:
			b := p[0]
			p = p[1:]
			f.offset++
			if b != 0 {
				err := dbgperr.Protocolf(f.offset-1, "expected NUL after %d-byte payload, got %q", f.size, b)
				f.Reset()
				return err
			}
			payload := f.payload
			f.clear()
			if err := emit(payload); err != nil {
				return err
			}
		}
	}
	return nil
}

func (f *Framer) lengthByte(b byte) error {
	switch {
	case b >= '0' && b <= '9':
		if f.digits == maxLengthDigits {
			return dbgperr.Protocolf(f.offset-1, "length prefix longer than %d digits", maxLengthDigits)
		}
		f.size = f.size*10 + int(b-'0')
		f.digits++
		if f.size > f.maxSize() {
			return dbgperr.Protocolf(f.offset-1, "declared length exceeds %d bytes", f.maxSize())
		}
	case b == 0:
		if f.digits == 0 {
			return dbgperr.Protocolf(f.offset-1, "empty length prefix")
		}
		f.payload = make([]byte, 0, min(f.size, initialPayloadCap))
		if f.size == 0 {
			f.state = stateTrailer
		} else {
			f.state = statePayload
		}
	default:
		return dbgperr.Protocolf(f.offset-1, "unexpected byte %q in length prefix", b)
	}
	return nil
}

func (f *Framer) maxSize() int {
	if f.MaxSize > 0 {
		return f.MaxSize
	}
	return DefaultMaxPacketSize
}

// Pending reports whether a packet is partially assembled.
func (f *Framer) Pending() bool {
	return f.state != stateLength || f.digits > 0
}

// Reset discards any partial packet.  The stream offset is kept so that
// later errors still report absolute positions.
func (f *Framer) Reset() { f.clear() }

func (f *Framer) clear() {
	f.state = stateLength
	f.size = 0
	f.digits = 0
	f.payload = nil
}

// AppendFrame appends payload to dst in packet form.
func AppendFrame(dst, payload []byte) []byte {
	dst = strconv.AppendInt(dst, int64(len(payload)), 10)
	dst = append(dst, 0)
	dst = append(dst, payload...)
	return append(dst, 0)
}

// appendCommand appends one outbound command using the given framing.
func appendCommand(dst []byte, command string, framing Framing) []byte {
	if framing == FramingNUL {
		dst = append(dst, command...)
		return append(dst, 0)
	}
	dst = strconv.AppendInt(dst, int64(len(command)), 10)
	dst = append(dst, 0)
	dst = append(dst, command...)
	return append(dst, 0)
}
