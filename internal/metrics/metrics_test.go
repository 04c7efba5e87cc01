package metrics

import (
	"encoding/json"
	"testing"
)

func TestCollector_Sessions(t *testing.T) {
	c := New()

	c.SessionOpened()
	c.SessionOpened()
	if c.ActiveSessions() != 2 {
		t.Errorf("active = %d, want 2", c.ActiveSessions())
	}

	c.SessionClosed()
	if c.ActiveSessions() != 1 {
		t.Errorf("active = %d, want 1", c.ActiveSessions())
	}
	if c.TotalSessions() != 2 {
		t.Errorf("total should remain 2, got %d", c.TotalSessions())
	}
}

func TestCollector_Commands(t *testing.T) {
	c := New()

	c.CommandQueued()
	c.CommandQueued()
	c.CommandQueued()
	c.CommandSent()

	if c.CommandsOut() != 1 {
		t.Errorf("out = %d, want 1", c.CommandsOut())
	}
	if c.CommandsPending() != 2 {
		t.Errorf("pending = %d, want 2", c.CommandsPending())
	}

	c.CommandsAbandoned(2)
	if c.CommandsPending() != 0 {
		t.Errorf("pending after abandon = %d, want 0", c.CommandsPending())
	}
}

func TestCollector_Bytes(t *testing.T) {
	c := New()

	c.BytesReceived(1024)
	c.BytesSent(512)
	c.BytesReceived(100)
	c.PacketReceived()

	if c.TotalBytesIn() != 1124 {
		t.Errorf("bytes in = %d, want 1124", c.TotalBytesIn())
	}
	if c.TotalBytesOut() != 512 {
		t.Errorf("bytes out = %d, want 512", c.TotalBytesOut())
	}
	if c.PacketsIn() != 1 {
		t.Errorf("packets in = %d, want 1", c.PacketsIn())
	}
}

func TestCollector_Snapshot(t *testing.T) {
	c := New()
	c.SessionOpened()
	c.BytesReceived(100)
	c.BytesSent(50)
	c.RecordError("framing")

	snap := c.Snapshot()
	if snap.SessionsActive != 1 {
		t.Errorf("snap active = %d", snap.SessionsActive)
	}
	if snap.BytesIn != 100 {
		t.Errorf("snap bytes in = %d", snap.BytesIn)
	}
	if snap.ErrorsTotal != 1 {
		t.Errorf("snap errors = %d", snap.ErrorsTotal)
	}
	if snap.LastErrorMessage != "framing" {
		t.Errorf("snap error msg = %q", snap.LastErrorMessage)
	}
}

func TestCollector_JSON(t *testing.T) {
	c := New()
	c.SessionOpened()
	c.BytesSent(42)

	raw := c.JSON()
	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		t.Fatalf("JSON parse error: %v", err)
	}
	if snap.SessionsActive != 1 {
		t.Errorf("JSON active = %d", snap.SessionsActive)
	}
	if snap.BytesOut != 42 {
		t.Errorf("JSON bytes out = %d", snap.BytesOut)
	}
}

func TestNilCollector_NoOps(t *testing.T) {
	var c *Collector

	c.SessionOpened()
	c.SessionClosed()
	c.PacketReceived()
	c.CommandQueued()
	c.CommandSent()
	c.CommandsAbandoned(3)
	c.BytesReceived(100)
	c.BytesSent(100)
	c.RecordError("test")

	if c.ActiveSessions() != 0 || c.PacketsIn() != 0 || c.ErrorCount() != 0 {
		t.Error("nil collector should return 0")
	}
	if c.JSON() == "" {
		t.Error("nil JSON should return valid JSON")
	}
}
