package dbgp

import "sync/atomic"

// Relay forwards Delegate calls to a target on another execution
// context.  Each call is posted to the target's Loop and returns at
// once; calls are delivered in the order they were made.
type Relay struct {
	target  Delegate
	loop    *Loop
	modes   []Mode
	stopped atomic.Bool
}

// NewRelay returns a Relay delivering to target on loop, in the given
// modes (any mode if none are given).
func NewRelay(target Delegate, loop *Loop, modes ...Mode) *Relay {
	return &Relay{target: target, loop: loop, modes: modes}
}

// Stop discards every call not yet delivered, including calls already
// posted to the loop.
func (r *Relay) Stop() { r.stopped.Store(true) }

// Stopped reports whether Stop was called.
func (r *Relay) Stopped() bool { return r.stopped.Load() }

func (r *Relay) post(call func(d Delegate)) {
	if r.stopped.Load() {
		return
	}
	r.loop.Post(func() {
		if r.stopped.Load() {
			return
		}
		call(r.target)
	}, r.modes...)
}

func (r *Relay) OnAccept(c *Connection) {
	r.post(func(d Delegate) { d.OnAccept(c) })
}

func (r *Relay) OnClose(c *Connection) {
	r.post(func(d Delegate) { d.OnClose(c) })
}

func (r *Relay) OnInit(c *Connection, doc *Document) {
	r.post(func(d Delegate) { d.OnInit(c, doc) })
}

func (r *Relay) OnResponse(c *Connection, doc *Document) {
	r.post(func(d Delegate) { d.OnResponse(c, doc) })
}

func (r *Relay) OnError(c *Connection, err error) {
	r.post(func(d Delegate) { d.OnError(c, err) })
}
