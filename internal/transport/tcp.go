package transport

import (
	"context"
	"net"
	"time"

	"dbgpc/util"
)

// TCPListener binds a TCP port, optionally on a specific host.
type TCPListener struct {
	Host      string
	Port      int           // 0 = ephemeral
	KeepAlive time.Duration // applied to accepted connections (0 = OS default)
}

// Listen binds the configured address.
func (l *TCPListener) Listen(ctx context.Context) (net.Listener, error) {
	lc := net.ListenConfig{KeepAlive: l.KeepAlive}
	return lc.Listen(ctx, "tcp", l.Addr())
}

// Addr returns "host:port".
func (l *TCPListener) Addr() string {
	return util.FormatAddr(l.Host, l.Port)
}
