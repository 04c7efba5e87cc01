package dbgp

import (
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/go-logr/logr"

	dbgperr "dbgpc/internal/errors"
	"dbgpc/internal/metrics"
	"dbgpc/internal/transport"
	"dbgpc/util"
)

// Connection is one debugger session: it listens on a port, accepts a
// single engine and exchanges packets with it.  A Connection is
// single-use; once closed a new session needs a new Connection.
//
// All state except the write queue belongs to the connection's event
// goroutine.  Accept, read and write happen on helper goroutines that
// post their results to it.
type Connection struct {
	port     int
	opts     Options
	log      logr.Logger
	metrics  *metrics.Collector
	listen   transport.Listener
	delegate Delegate
	relay    *Relay

	txns  Transactions
	queue WriteQueue

	// Event goroutine only.
	events        *Loop
	framer        Framer
	out           *chanOutput
	initDelivered bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	done   chan struct{}

	started   atomic.Bool
	connected atomic.Bool
	closed    atomic.Bool
	abandoned atomic.Bool
	closeOnce sync.Once

	// sendMu keeps transaction IDs in queue order.
	sendMu sync.Mutex

	resMu    sync.Mutex
	listener net.Listener
	conn     net.Conn
	addr     net.Addr
	remote   net.Addr
}

// NewConnection returns a Connection for port.  It does not listen
// until Connect is called.  d may be nil.
func NewConnection(port int, d Delegate, opts Options) *Connection {
	if d == nil {
		d = BaseDelegate{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Connection{
		port:    port,
		opts:    opts,
		log:     opts.Log.WithValues("port", port),
		metrics: opts.Metrics,
		listen:  opts.Listener,
		events:  NewLoop(),
		framer:  Framer{MaxSize: opts.MaxPacketSize},
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	if c.listen == nil {
		c.listen = &transport.TCPListener{Host: opts.Host, Port: port}
	}

	var target Delegate = gatedDelegate{c: c, d: d}
	if opts.Loop != nil {
		c.relay = NewRelay(target, opts.Loop, opts.Modes...)
		target = c.relay
	}
	c.delegate = target
	return c
}

// Connect starts listening and returns once the socket is bound.  The
// engine is accepted in the background and reported through OnAccept.
// A bind failure is returned, reported through OnError, and leaves the
// connection closed.  Cancelling ctx closes the connection.
func (c *Connection) Connect(ctx context.Context) error {
	if c.closed.Load() {
		return dbgperr.ErrClosed
	}
	if !c.started.CompareAndSwap(false, true) {
		return dbgperr.ErrAlreadyStarted
	}

	ln, err := c.listen.Listen(ctx)
	if err != nil {
		nerr := dbgperr.Wrap("listen", c.listen.Addr(), err)
		c.log.Error(nerr, "cannot listen")
		c.metrics.RecordError(nerr.Error())
		c.delegate.OnError(c, nerr)
		c.shutdown()
		return nerr
	}

	c.resMu.Lock()
	if c.closed.Load() {
		c.resMu.Unlock()
		ln.Close()
		return dbgperr.ErrClosed
	}
	c.listener = ln
	c.addr = ln.Addr()
	c.goroutine(func() { c.events.Run(c.ctx) })
	c.goroutine(func() {
		conn, err := ln.Accept()
		c.events.Post(func() { c.onAccept(conn, err) })
	})
	c.goroutine(func() {
		select {
		case <-ctx.Done():
			c.Close()
		case <-c.ctx.Done():
		}
	})
	c.resMu.Unlock()

	c.log.V(0).Info("listening", "addr", ln.Addr().String())
	return nil
}

// goroutine starts fn as one of the connection's goroutines.  Callers
// hold resMu and have checked closed, so Done cannot fire before fn is
// counted.
func (c *Connection) goroutine(fn func()) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		fn()
	}()
}

// Send formats a command, gives it the next transaction ID and queues
// it.  It returns the ID without waiting for the write.  With no args
// format is used as is.
func (c *Connection) Send(format string, args ...interface{}) (int, error) {
	command := format
	if len(args) > 0 {
		command = fmt.Sprintf(format, args...)
	}
	command = strings.TrimSpace(command)
	if command == "" {
		return 0, fmt.Errorf("dbgp: empty command")
	}

	c.sendMu.Lock()
	if c.closed.Load() {
		c.sendMu.Unlock()
		return 0, dbgperr.ErrClosed
	}
	id := c.txns.Next()
	command = InsertTransactionID(command, id)
	c.queue.Enqueue(NewPendingWrite(id, command, c.opts.Framing))
	c.sendMu.Unlock()

	c.metrics.CommandQueued()
	c.log.V(1).Info("queued", "id", id, "command", command)
	c.events.Post(c.onWritable)
	return id, nil
}

// Close ends the session.  It is safe to call from any goroutine and
// more than once.  No delegate call is delivered after Close, including
// calls already scheduled on a Loop.  Use Done to wait for the
// connection's goroutines to exit.
func (c *Connection) Close() error {
	c.abandoned.Store(true)
	if c.relay != nil {
		c.relay.Stop()
	}
	c.shutdown()
	return nil
}

// Done is closed once the connection is closed and all its goroutines
// have exited.
func (c *Connection) Done() <-chan struct{} { return c.done }

// Port returns the bound port once listening, else the requested one.
func (c *Connection) Port() int {
	if a := c.Addr(); a != nil {
		return util.PortOf(a)
	}
	return c.port
}

// Addr returns the listening address, or nil before Connect.
func (c *Connection) Addr() net.Addr {
	c.resMu.Lock()
	defer c.resMu.Unlock()
	return c.addr
}

// RemoteAddr returns the engine's address, or nil before accept.
func (c *Connection) RemoteAddr() net.Addr {
	c.resMu.Lock()
	defer c.resMu.Unlock()
	return c.remote
}

// Connected reports whether an engine is attached.  It never becomes
// true again after the session ends.
func (c *Connection) Connected() bool { return c.connected.Load() }

// LastSent returns the transaction ID of the last command written.
func (c *Connection) LastSent() int { return c.txns.LastSent() }

// LastReceived returns the transaction ID of the last response.
func (c *Connection) LastReceived() int { return c.txns.LastReceived() }

// ── event goroutine ──────────────────────────────────────────────────

func (c *Connection) onAccept(conn net.Conn, err error) {
	if err != nil {
		if c.closed.Load() {
			return
		}
		c.teardown(dbgperr.Wrap("accept", c.listen.Addr(), err))
		return
	}

	c.resMu.Lock()
	if c.closed.Load() {
		c.resMu.Unlock()
		conn.Close()
		return
	}
	c.conn = conn
	c.remote = conn.RemoteAddr()
	// One engine per connection: later dials are refused.
	c.listener.Close()
	c.listener = nil

	c.out = &chanOutput{
		ch: make(chan *PendingWrite, c.opts.outputDepth()),
		onWrite: func(w *PendingWrite) {
			c.txns.Sent(w.ID)
			c.metrics.CommandSent()
		},
	}
	ch := c.out.ch
	c.goroutine(func() { c.readPump(conn) })
	c.goroutine(func() { c.writePump(conn, ch) })
	c.connected.Store(true)
	c.resMu.Unlock()

	c.metrics.SessionOpened()
	c.log.V(0).Info("engine connected", "remote", conn.RemoteAddr().String())

	c.delegate.OnAccept(c)
	c.onWritable()
}

func (c *Connection) readPump(conn net.Conn) {
	for {
		buf := util.GetBuf()
		n, err := conn.Read(*buf)
		if n > 0 {
			chunk := (*buf)[:n]
			c.events.Post(func() {
				c.onRead(chunk)
				util.PutBuf(buf)
			})
		} else {
			util.PutBuf(buf)
		}
		if err != nil {
			c.events.Post(func() { c.onReadError(err) })
			return
		}
	}
}

func (c *Connection) writePump(conn net.Conn, ch <-chan *PendingWrite) {
	for {
		select {
		case w := <-ch:
			if c.closed.Load() {
				w.Release()
				return
			}
			n, err := conn.Write(w.Bytes())
			c.metrics.BytesSent(int64(n))
			w.Release()
			if err != nil {
				c.events.Post(func() { c.onWriteError(err) })
				return
			}
			c.events.Post(c.onWritable)
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Connection) onRead(chunk []byte) {
	if c.closed.Load() {
		return
	}
	c.metrics.BytesReceived(int64(len(chunk)))
	err := c.framer.Feed(chunk, c.dispatch)
	if err != nil && !dbgperr.Is(err, dbgperr.ErrClosed) {
		c.teardown(err)
	}
}

func (c *Connection) dispatch(payload []byte) error {
	if c.closed.Load() {
		return dbgperr.ErrClosed
	}
	c.metrics.PacketReceived()
	c.log.V(1).Info("received", "bytes", len(payload))

	doc, err := ParseDocument(payload)
	if err != nil {
		c.log.Error(err, "dropping packet")
		c.metrics.RecordError(err.Error())
		c.delegate.OnError(c, err)
		return nil
	}
	if id, ok := doc.TransactionID(); ok {
		c.txns.Received(id)
	}

	if !c.initDelivered {
		c.initDelivered = true
		for _, cmd := range c.opts.BootstrapCommands {
			if _, err := c.Send(cmd); err != nil {
				c.log.Error(err, "bootstrap command not sent", "command", cmd)
			}
		}
		c.delegate.OnInit(c, doc)
		return nil
	}
	c.delegate.OnResponse(c, doc)
	return nil
}

func (c *Connection) onWritable() {
	if c.out == nil || c.closed.Load() {
		return
	}
	if _, err := c.queue.Drain(c.out); err != nil {
		c.teardown(dbgperr.Wrap("write", c.remoteString(), err))
	}
}

func (c *Connection) onReadError(err error) {
	if c.closed.Load() {
		return
	}
	if dbgperr.Is(err, io.EOF) {
		if c.framer.Pending() {
			c.teardown(dbgperr.Protocolf(c.framer.offset, "connection closed inside a packet"))
			return
		}
		c.log.V(0).Info("engine closed the connection")
		c.teardown(nil)
		return
	}
	c.teardown(dbgperr.Wrap("read", c.remoteString(), err))
}

func (c *Connection) onWriteError(err error) {
	if c.closed.Load() {
		return
	}
	c.teardown(dbgperr.Wrap("write", c.remoteString(), err))
}

// teardown reports err, if any, then OnClose, and releases everything.
func (c *Connection) teardown(err error) {
	if c.closed.Load() {
		return
	}
	if err != nil {
		c.log.Error(err, "session failed")
		c.metrics.RecordError(err.Error())
		c.delegate.OnError(c, err)
	}
	wasConnected := c.connected.Load()
	c.shutdown()
	if wasConnected {
		c.delegate.OnClose(c)
	}
}

func (c *Connection) remoteString() string {
	if a := c.RemoteAddr(); a != nil {
		return a.String()
	}
	return c.listen.Addr()
}

// shutdown releases the listener, socket and queued writes and stops
// every goroutine.  It does not wait for them.
func (c *Connection) shutdown() {
	c.closeOnce.Do(func() {
		c.sendMu.Lock()
		c.closed.Store(true)
		n := c.queue.Abandon()
		c.sendMu.Unlock()

		c.cancel()

		c.resMu.Lock()
		wasConnected := c.connected.Swap(false)
		if c.listener != nil {
			c.listener.Close()
			c.listener = nil
		}
		if c.conn != nil {
			c.conn.Close()
		}
		c.resMu.Unlock()

		c.metrics.CommandsAbandoned(n)
		if wasConnected {
			c.metrics.SessionClosed()
			c.log.V(0).Info("session closed", "sent", c.txns.LastSent(), "received", c.txns.LastReceived())
		}

		go func() {
			c.wg.Wait()
			close(c.done)
		}()
	})
}

// chanOutput hands writes to the write pump through a bounded channel.
// It is only written from the event goroutine, so a length check is
// enough to know a send will not block.
type chanOutput struct {
	ch      chan *PendingWrite
	onWrite func(w *PendingWrite)
}

func (o *chanOutput) Writable() bool { return len(o.ch) < cap(o.ch) }

func (o *chanOutput) Write(w *PendingWrite) error {
	if o.onWrite != nil {
		o.onWrite(w)
	}
	select {
	case o.ch <- w:
		return nil
	default:
		w.Release()
		return dbgperr.ErrOutputFull
	}
}

// gatedDelegate drops every call once the connection has been closed
// by its owner.  It is checked at delivery time, so calls already
// queued on a Loop are dropped too.
type gatedDelegate struct {
	c *Connection
	d Delegate
}

func (g gatedDelegate) OnAccept(c *Connection) {
	if !g.c.abandoned.Load() {
		g.d.OnAccept(c)
	}
}

func (g gatedDelegate) OnClose(c *Connection) {
	if !g.c.abandoned.Load() {
		g.d.OnClose(c)
	}
}

func (g gatedDelegate) OnInit(c *Connection, doc *Document) {
	if !g.c.abandoned.Load() {
		g.d.OnInit(c, doc)
	}
}

func (g gatedDelegate) OnResponse(c *Connection, doc *Document) {
	if !g.c.abandoned.Load() {
		g.d.OnResponse(c, doc)
	}
}

func (g gatedDelegate) OnError(c *Connection, err error) {
	if !g.c.abandoned.Load() {
		g.d.OnError(c, err)
	}
}
