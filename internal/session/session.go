// Package session is the consumer side of one debugger connection.
//
// A Session is the dbgp.Delegate the CLI hands to a Connection.  It
// prints every packet the engine sends, keeps the init packet, and
// matches responses to the commands that asked for them so that
// capabilities can drive the engine one request at a time.
package session

import (
	"context"
	"fmt"
	"io"
	"sync"

	"dbgpc/internal/dbgp"
	dbgperr "dbgpc/internal/errors"
	"dbgpc/util"
)

// Session encapsulates the runtime context for a single engine
// connection.  Capabilities operate on sessions rather than on the
// Connection, which keeps them testable without a socket.
type Session struct {
	Stdin  io.Reader
	Stdout io.Writer
	Logger *util.Logger

	// Indent prints packets as indented XML instead of raw payloads.
	Indent bool

	mu      sync.Mutex
	sender  Sender
	init    *dbgp.Document
	pending map[int]chan *dbgp.Document
	err     error

	initCh   chan struct{}
	initOnce sync.Once
	done     chan struct{}
	doneOnce sync.Once
}

// Sender is the part of a Connection a Session drives.
type Sender interface {
	Send(format string, args ...interface{}) (int, error)
	Close() error
}

var _ dbgp.Delegate = (*Session)(nil)

// New creates a Session bound to the given I/O pair.
func New(stdin io.Reader, stdout io.Writer, logger *util.Logger) *Session {
	return &Session{
		Stdin:   stdin,
		Stdout:  stdout,
		Logger:  logger,
		pending: make(map[int]chan *dbgp.Document),
		initCh:  make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Attach sets the connection commands are sent on.  OnAccept does this
// for a live Connection.
func (s *Session) Attach(sender Sender) {
	s.mu.Lock()
	s.sender = sender
	s.mu.Unlock()
}

// ── dbgp.Delegate ────────────────────────────────────────────────────

// OnAccept attaches the connection.
func (s *Session) OnAccept(c *dbgp.Connection) {
	s.Attach(c)
	if a := c.RemoteAddr(); a != nil {
		s.Logger.Info("engine connected from %s", a)
	}
}

// OnInit prints and keeps the init packet.
func (s *Session) OnInit(_ *dbgp.Connection, doc *dbgp.Document) {
	if info, ok := doc.Init(); ok {
		s.Logger.Verbose("session %q: %s %s, %s", info.IDEKey, info.Engine, info.EngineVersion, info.FileURI)
	}
	s.print(doc)

	s.mu.Lock()
	s.init = doc
	s.mu.Unlock()
	s.initOnce.Do(func() { close(s.initCh) })
}

// OnResponse prints doc and hands it to whoever is waiting for its
// transaction ID.
func (s *Session) OnResponse(_ *dbgp.Connection, doc *dbgp.Document) {
	s.print(doc)

	id, ok := doc.TransactionID()
	if !ok {
		return
	}
	s.mu.Lock()
	ch := s.pending[id]
	delete(s.pending, id)
	s.mu.Unlock()
	if ch != nil {
		ch <- doc
	}
}

// OnError logs err.  Errors that end the session are kept for Err.
func (s *Session) OnError(_ *dbgp.Connection, err error) {
	s.Logger.Error("%v", err)
	if !dbgperr.IsFatal(err) {
		return
	}
	s.mu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.mu.Unlock()
}

// OnClose marks the session done.
func (s *Session) OnClose(*dbgp.Connection) {
	s.Logger.Verbose("engine disconnected")
	s.finish()
}

func (s *Session) finish() {
	s.doneOnce.Do(func() { close(s.done) })
}

// ── consumer API ─────────────────────────────────────────────────────

// Done is closed when the engine goes away or the session is closed.
func (s *Session) Done() <-chan struct{} { return s.done }

// Err returns the error that ended the session, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// InitPacket returns the init packet, or nil before it arrives.
func (s *Session) InitPacket() *dbgp.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.init
}

// Init waits for the init packet.
func (s *Session) Init(ctx context.Context) (*dbgp.Document, error) {
	select {
	case <-s.initCh:
		return s.InitPacket(), nil
	case <-s.done:
		if doc := s.InitPacket(); doc != nil {
			return doc, nil
		}
		return nil, s.endedErr()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Send queues a command without waiting for its response.
func (s *Session) Send(format string, args ...interface{}) (int, error) {
	sender, err := s.attached()
	if err != nil {
		return 0, err
	}
	return sender.Send(format, args...)
}

// Call sends a command and waits for the response carrying its
// transaction ID.
func (s *Session) Call(ctx context.Context, format string, args ...interface{}) (*dbgp.Document, error) {
	ch := make(chan *dbgp.Document, 1)

	// Hold mu across Send so OnResponse cannot look for the ID before
	// it is registered.
	s.mu.Lock()
	if s.sender == nil {
		s.mu.Unlock()
		return nil, dbgperr.ErrNotConnected
	}
	id, err := s.sender.Send(format, args...)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.pending[id] = ch
	s.mu.Unlock()

	select {
	case doc := <-ch:
		return doc, nil
	case <-s.done:
		select {
		case doc := <-ch:
			return doc, nil
		default:
		}
		s.forget(id)
		return nil, s.endedErr()
	case <-ctx.Done():
		s.forget(id)
		return nil, ctx.Err()
	}
}

// Close ends the session and closes its connection.
func (s *Session) Close() error {
	s.mu.Lock()
	sender := s.sender
	s.mu.Unlock()

	s.finish()
	if sender != nil {
		return sender.Close()
	}
	return nil
}

func (s *Session) attached() (Sender, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sender == nil {
		return nil, dbgperr.ErrNotConnected
	}
	return s.sender, nil
}

func (s *Session) forget(id int) {
	s.mu.Lock()
	delete(s.pending, id)
	s.mu.Unlock()
}

func (s *Session) endedErr() error {
	if err := s.Err(); err != nil {
		return fmt.Errorf("session ended: %w", err)
	}
	return dbgperr.ErrClosed
}

func (s *Session) print(doc *dbgp.Document) {
	if s.Stdout == nil {
		return
	}
	var out string
	if s.Indent {
		out = doc.Indent()
	} else {
		out = string(doc.Raw) + "\n"
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	io.WriteString(s.Stdout, out) //nolint:errcheck
}
