package capability

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"

	dbgperr "dbgpc/internal/errors"
	"dbgpc/internal/session"
)

// Console relays commands typed on the session's stdin to the engine,
// one line per command, waiting for each response before reading the
// next.  Responses are printed by the session itself.
//
// One Console serves every session of a run.  Its input is opened once
// and shared, so sessions take lines in turn.
type Console struct {
	// Interactive reads through a line editor with history and
	// command completion.  Only useful when stdin is a terminal.
	Interactive bool
	// HistoryFile keeps interactive history across runs ("" = none).
	HistoryFile string

	mu    sync.Mutex
	input *lineSource
}

var _ InputOpener = (*Console)(nil)

// Open starts reading stdin.  Later calls return the same input.
func (c *Console) Open(stdin io.Reader) (io.Closer, error) {
	return c.source(stdin)
}

func (c *Console) source(stdin io.Reader) (*lineSource, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.input != nil {
		return c.input, nil
	}
	if c.Interactive {
		src, err := newReadlineSource(c.HistoryFile)
		if err != nil {
			return nil, err
		}
		c.input = src
	} else {
		c.input = newScannerSource(stdin)
	}
	return c.input, nil
}

// Handle waits for the init packet and then relays input until it is
// exhausted or the engine disconnects.
func (c *Console) Handle(ctx context.Context, sess *session.Session) error {
	if _, err := sess.Init(ctx); err != nil {
		return err
	}
	src, err := c.source(sess.Stdin)
	if err != nil {
		return err
	}

	for {
		select {
		case line, ok := <-src.lines:
			if !ok {
				if src.err != nil {
					sess.Logger.Warn("read command: %v", src.err)
				}
				sess.Logger.Verbose("stdin closed, ending session")
				return nil
			}
			line = strings.TrimSpace(line)
			switch {
			case line == "" || strings.HasPrefix(line, "#"):
				continue
			case line == "quit" || line == "exit":
				return nil
			}
			doc, err := sess.Call(ctx, line)
			if err != nil {
				if dbgperr.Is(err, dbgperr.ErrClosed) {
					return nil
				}
				return err
			}
			if eerr := doc.Err(); eerr != nil {
				sess.Logger.Warn("%s: %v", doc.Command(), eerr)
			}
		case <-sess.Done():
			return sess.Err()
		case <-ctx.Done():
			return nil
		}
	}
}

// lineSource delivers input lines from one reader goroutine.  A line
// is only taken off the reader when a session receives it.
type lineSource struct {
	lines chan string
	stop  chan struct{}
	once  sync.Once
	// err is the read error that ended the input, set before lines is
	// closed.
	err     error
	closeFn func() error
}

func newLineSource() *lineSource {
	return &lineSource{
		lines: make(chan string),
		stop:  make(chan struct{}),
	}
}

// deliver hands line to a session, or reports false once closed.
func (l *lineSource) deliver(line string) bool {
	select {
	case l.lines <- line:
		return true
	case <-l.stop:
		return false
	}
}

// Close stops delivery.  A reader blocked on a plain stdin stays
// blocked until the next line or EOF, then exits.
func (l *lineSource) Close() error {
	var err error
	l.once.Do(func() {
		close(l.stop)
		if l.closeFn != nil {
			err = l.closeFn()
		}
	})
	return err
}

func newScannerSource(r io.Reader) *lineSource {
	l := newLineSource()
	go func() {
		defer close(l.lines)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			if !l.deliver(sc.Text()) {
				return
			}
		}
		l.err = sc.Err()
	}()
	return l
}
