package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync/atomic"
	"time"

	"dbgpc/internal/capability"
	"dbgpc/internal/dbgp"
	dbgperr "dbgpc/internal/errors"
	"dbgpc/internal/metrics"
	"dbgpc/internal/retry"
	"dbgpc/internal/session"
	"dbgpc/internal/transport"
	"dbgpc/util"
)

// ServeMode listens for a debugging engine and runs a capability on
// the session it opens.  With KeepOpen it serves sessions one after
// another, each on a fresh Connection.
type ServeMode struct {
	Host     string
	Port     int
	KeepOpen bool
	// Timeout bounds the wait for an engine to connect (0 = forever).
	Timeout time.Duration

	Framing       dbgp.Framing
	OutputDepth   int
	MaxPacketSize int
	InitCommands  []string

	Capability capability.Capability
	Backoff    *retry.Backoff
	// Breaker pauses a KeepOpen server after repeated failed sessions.
	Breaker *retry.Breaker
	Logger     *util.Logger
	Metrics    *metrics.Collector

	// Indent prints packets as indented XML.
	Indent bool

	// Stdin/Stdout default to os.Stdin/os.Stdout when nil.
	Stdin  io.Reader
	Stdout io.Writer

	// Listener overrides the TCP listener built from Host and Port.
	Listener transport.Listener

	// Ready, when set, is called with the bound address of every
	// session before it waits for an engine.
	Ready func(addr net.Addr)
}

func (m *ServeMode) stdin() io.Reader {
	if m.Stdin != nil {
		return m.Stdin
	}
	return os.Stdin
}

func (m *ServeMode) stdout() io.Writer {
	if m.Stdout != nil {
		return m.Stdout
	}
	return os.Stdout
}

func (m *ServeMode) backoff() *retry.Backoff {
	if m.Backoff != nil {
		return m.Backoff
	}
	return retry.DefaultBackoff()
}

// Run serves one session, or sessions until ctx is cancelled when
// KeepOpen is set.
func (m *ServeMode) Run(ctx context.Context) error {
	defer func() {
		m.Logger.Debug("metrics: %s", m.Metrics.JSON())
	}()

	// Input outlives sessions so nothing typed between two of them is
	// lost.
	if in, ok := m.Capability.(capability.InputOpener); ok {
		closer, err := in.Open(m.stdin())
		if err != nil {
			return err
		}
		defer closer.Close()
	}

	for {
		if d := m.Breaker.Wait(); d > 0 {
			m.Logger.Warn("%d sessions failed in a row, pausing %s", m.Breaker.Failures(), d.Round(time.Second))
			select {
			case <-time.After(d):
			case <-ctx.Done():
				return nil
			}
		}

		err := m.serveOne(ctx)
		if ctx.Err() != nil {
			return nil
		}

		var le *listenError
		switch {
		case errors.As(err, &le):
			return le.err
		case !m.KeepOpen:
			return err
		case err != nil:
			m.Logger.Warn("session ended: %v", err)
		}
		m.Breaker.Record(err)
	}
}

// listenError marks a failure to bind, which ends even a KeepOpen run.
type listenError struct{ err error }

func (e *listenError) Error() string { return e.err.Error() }
func (e *listenError) Unwrap() error { return e.err }

func (m *ServeMode) serveOne(ctx context.Context) error {
	loop := dbgp.NewLoop()
	sess := session.New(m.stdin(), m.stdout(), m.Logger.Named("session"))
	sess.Indent = m.Indent

	conn, err := m.connect(ctx, sess, loop)
	if err != nil {
		return &listenError{err: err}
	}
	if m.Ready != nil {
		m.Ready(conn.Addr())
	}
	m.Logger.Info("listening on %s", conn.Addr())

	capCtx, cancelCap := context.WithCancel(ctx)
	defer cancelCap()

	var timedOut atomic.Bool
	if m.Timeout > 0 {
		timer := time.AfterFunc(m.Timeout, func() {
			if !conn.Connected() {
				timedOut.Store(true)
				cancelCap()
			}
		})
		defer timer.Stop()
	}

	// Delegate calls run here, on the serving goroutine, while the
	// capability drives the session from its own.
	loopCtx, stopLoop := context.WithCancel(context.Background())
	capErr := make(chan error, 1)
	go func() {
		defer stopLoop()
		capErr <- m.Capability.Handle(capCtx, sess)
	}()
	loop.Run(loopCtx) //nolint:errcheck // always the cancellation error

	err = <-capErr
	conn.Close()
	<-conn.Done()

	if timedOut.Load() {
		return fmt.Errorf("no engine connected within %s: %w", m.Timeout, dbgperr.ErrTimeout)
	}
	if err == nil {
		err = sess.Err()
	}
	return err
}

// connect binds a Connection for sess, retrying with backoff while the
// port is held by someone else.  Other bind failures end at once.
// Each attempt uses a new Connection since a failed one is closed.
func (m *ServeMode) connect(ctx context.Context, sess *session.Session, loop *dbgp.Loop) (*dbgp.Connection, error) {
	var conn *dbgp.Connection
	err := m.backoff().Do(ctx, func(attempt int) error {
		c := dbgp.NewConnection(m.Port, sess, dbgp.Options{
			Host:              m.Host,
			Listener:          m.Listener,
			Log:               m.Logger.Named("dbgp").Logr(),
			Metrics:           m.Metrics,
			Framing:           m.Framing,
			OutputDepth:       m.OutputDepth,
			MaxPacketSize:     m.MaxPacketSize,
			BootstrapCommands: m.InitCommands,
			Loop:              loop,
		})
		if err := c.Connect(ctx); err != nil {
			// Drop the OnError already posted for this attempt.
			c.Close()
			if ctx.Err() != nil || !dbgperr.IsRetryable(err) {
				return retry.Permanent(err)
			}
			m.Logger.Warn("attempt %d: %v", attempt, err)
			return err
		}
		conn = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return conn, nil
}
