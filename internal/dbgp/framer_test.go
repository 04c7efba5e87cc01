package dbgp

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	dbgperr "dbgpc/internal/errors"
)

func collect(t *testing.T, f *Framer, chunks ...[]byte) []string {
	t.Helper()
	var out []string
	for _, c := range chunks {
		err := f.Feed(c, func(p []byte) error {
			out = append(out, string(p))
			return nil
		})
		require.NoError(t, err)
	}
	return out
}

func TestFramer_TwoMessagesInOneRead(t *testing.T) {
	var f Framer
	got := collect(t, &f, []byte("5\x00abcde\x003\x00xyz\x00"))
	require.Equal(t, []string{"abcde", "xyz"}, got)
	require.False(t, f.Pending())
}

func TestFramer_BoundaryInsensitive(t *testing.T) {
	stream := []byte("5\x00abcde\x003\x00xyz\x000\x00\x0011\x00<a>\x00\x00x</a>\x00\x00")
	want := collect(t, &Framer{}, stream)
	require.Len(t, want, 4)

	for split := 1; split < len(stream); split++ {
		got := collect(t, &Framer{}, stream[:split], stream[split:])
		require.Equal(t, want, got, "split at %d", split)
	}

	// One byte at a time.
	var chunks [][]byte
	for i := range stream {
		chunks = append(chunks, stream[i:i+1])
	}
	require.Equal(t, want, collect(t, &Framer{}, chunks...))
}

func TestFramer_RoundTripEmbeddedNUL(t *testing.T) {
	payloads := [][]byte{
		[]byte("plain"),
		[]byte("\x00"),
		[]byte("\x00\x00\x00"),
		[]byte("12\x00fake\x00frame"),
		{},
		bytes.Repeat([]byte{'x', 0}, 5000),
	}

	var stream []byte
	for _, p := range payloads {
		stream = AppendFrame(stream, p)
	}

	var got [][]byte
	var f Framer
	err := f.Feed(stream, func(p []byte) error {
		got = append(got, p)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, got, len(payloads))
	for i := range payloads {
		require.True(t, bytes.Equal(payloads[i], got[i]), "payload %d", i)
	}
}

func TestFramer_PayloadsAreNotAliased(t *testing.T) {
	buf := []byte("3\x00abc\x00")
	var got []byte
	var f Framer
	require.NoError(t, f.Feed(buf, func(p []byte) error { got = p; return nil }))

	copy(buf, "XXXXXXX")
	require.Equal(t, "abc", string(got))
}

func TestFramer_ProtocolErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		max   int
	}{
		{"non-digit", "1a\x00", 0},
		{"empty length", "\x00abc", 0},
		{"too many digits", "12345678901\x00", 0},
		{"over max size", "100\x00", 64},
		{"missing trailer", "3\x00abcX", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Framer{MaxSize: tt.max}
			err := f.Feed([]byte(tt.input), func([]byte) error {
				t.Fatal("nothing should be emitted")
				return nil
			})
			var pe *dbgperr.ProtocolError
			require.ErrorAs(t, err, &pe)
			require.False(t, f.Pending(), "framer should reset after an error")
		})
	}
}

func TestFramer_ErrorOffset(t *testing.T) {
	var f Framer
	err := f.Feed([]byte("2\x00ok\x00x"), func([]byte) error { return nil })
	var pe *dbgperr.ProtocolError
	require.ErrorAs(t, err, &pe)
	require.EqualValues(t, 5, pe.Offset)
}

func TestFramer_EmitErrorStops(t *testing.T) {
	stop := errors.New("stop")
	var n int
	var f Framer
	err := f.Feed([]byte("1\x00a\x001\x00b\x00"), func([]byte) error {
		n++
		return stop
	})
	require.ErrorIs(t, err, stop)
	require.Equal(t, 1, n)
}

func TestAppendCommand(t *testing.T) {
	require.Equal(t, "12\x00status -i 1\x00",
		string(appendCommand(nil, "status -i 1", FramingLength)))
	require.Equal(t, "status -i 1\x00",
		string(appendCommand(nil, "status -i 1", FramingNUL)))
}

func TestParseFraming(t *testing.T) {
	tests := []struct {
		in   string
		want Framing
		ok   bool
	}{
		{"", FramingLength, true},
		{"length", FramingLength, true},
		{"nul", FramingNUL, true},
		{"null", FramingNUL, true},
		{"xml", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseFraming(tt.in)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("ParseFraming(%q) = %v, %v", tt.in, got, ok)
		}
	}
}

func TestFramer_LengthPrefixDoesNotReserveDeclaredSize(t *testing.T) {
	var f Framer
	require.Empty(t, collect(t, &f, []byte("60000000\x00")))
	require.True(t, f.Pending())
	require.LessOrEqual(t, cap(f.payload), initialPayloadCap)
}

func TestFramer_LargePayloadGrows(t *testing.T) {
	payload := bytes.Repeat([]byte("<x>\x00</x>"), 40000) // larger than the initial capacity
	stream := AppendFrame(nil, payload)

	var f Framer
	var chunks [][]byte
	for len(stream) > 0 {
		n := min(len(stream), 4096)
		chunks = append(chunks, stream[:n])
		stream = stream[n:]
	}
	got := collect(t, &f, chunks...)
	require.Len(t, got, 1)
	require.Equal(t, string(payload), got[0])
}
