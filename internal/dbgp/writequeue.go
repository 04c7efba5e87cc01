package dbgp

import (
	"sync"

	"github.com/valyala/bytebufferpool"
)

// PendingWrite is one framed outbound command.
type PendingWrite struct {
	ID      int
	Command string
	Frame   *bytebufferpool.ByteBuffer
}

// NewPendingWrite frames command into a pooled buffer.
func NewPendingWrite(id int, command string, framing Framing) *PendingWrite {
	buf := bytebufferpool.Get()
	buf.B = appendCommand(buf.B, command, framing)
	return &PendingWrite{ID: id, Command: command, Frame: buf}
}

// Bytes returns the framed command.
func (w *PendingWrite) Bytes() []byte {
	if w.Frame == nil {
		return nil
	}
	return w.Frame.B
}

// Release returns the frame buffer to the pool.  The write must not be
// used afterwards.
func (w *PendingWrite) Release() {
	if w.Frame != nil {
		bytebufferpool.Put(w.Frame)
		w.Frame = nil
	}
}

// Output is the write side of a transport as seen by the WriteQueue.
type Output interface {
	// Writable reports whether the output can take another write now.
	Writable() bool
	// Write hands w to the output, which takes ownership of it.
	Write(w *PendingWrite) error
}

// WriteQueue holds outbound commands until the output has capacity.
// Commands leave in the order they were enqueued, each exactly once.
type WriteQueue struct {
	mu    sync.Mutex
	items []*PendingWrite
}

// Enqueue appends w to the tail of the queue.  It never blocks on I/O.
func (q *WriteQueue) Enqueue(w *PendingWrite) {
	q.mu.Lock()
	q.items = append(q.items, w)
	q.mu.Unlock()
}

// Len returns the number of queued writes.
func (q *WriteQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Drain hands queued writes to out for as long as out is writable.  It
// returns the number of writes handed over.  A write that fails is
// still considered sent; the error is returned and draining stops.
func (q *WriteQueue) Drain(out Output) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := 0
	for len(q.items) > 0 && out.Writable() {
		w := q.items[0]
		q.items[0] = nil
		q.items = q.items[1:]
		n++
		if err := out.Write(w); err != nil {
			return n, err
		}
	}
	if len(q.items) == 0 {
		q.items = nil
	}
	return n, nil
}

// Abandon drops every queued write and returns how many there were.
func (q *WriteQueue) Abandon() int {
	q.mu.Lock()
	items := q.items
	q.items = nil
	q.mu.Unlock()

	for _, w := range items {
		w.Release()
	}
	return len(items)
}
