package util

import (
	"net"
	"testing"
)

func TestFormatAddr(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{"127.0.0.1", 9000, "127.0.0.1:9000"},
		{"::1", 9003, "[::1]:9003"},
		{"", 9000, ":9000"},
	}
	for _, tt := range tests {
		if got := FormatAddr(tt.host, tt.port); got != tt.want {
			t.Errorf("FormatAddr(%q, %d) = %q, want %q", tt.host, tt.port, got, tt.want)
		}
	}
}

func TestPortOf(t *testing.T) {
	if got := PortOf(&net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 9000}); got != 9000 {
		t.Errorf("PortOf(TCPAddr) = %d, want 9000", got)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	if got := PortOf(ln.Addr()); got < 1 || got > 65535 {
		t.Errorf("PortOf(listener) = %d out of range", got)
	}
}

func TestFindFreePort(t *testing.T) {
	port, err := FindFreePort()
	if err != nil {
		t.Fatal(err)
	}
	if port < 1 || port > 65535 {
		t.Errorf("port %d out of range", port)
	}
}
