package util

import (
	"io"
	"testing"
)

// BenchmarkBufPool measures pooled read chunks against fresh
// allocation.
func BenchmarkBufPool(b *testing.B) {
	b.Run("pool", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			buf := GetBuf()
			_ = (*buf)[0]
			PutBuf(buf)
		}
	})
	b.Run("alloc", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			buf := make([]byte, ReadBufSize)
			_ = buf[0]
		}
	})
}

// BenchmarkLogger_Suppressed measures a debug call below the level,
// the common case on the packet path.
func BenchmarkLogger_Suppressed(b *testing.B) {
	l := NewLogger(0)
	l.SetOutput(io.Discard)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		l.Debug("received %d bytes", i)
	}
}
