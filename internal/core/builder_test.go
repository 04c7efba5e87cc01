package core

import (
	"testing"
	"time"

	"dbgpc/config"
	"dbgpc/internal/capability"
	"dbgpc/internal/dbgp"
	"dbgpc/util"
)

// TestBuild_Console verifies that Build serves an interactive console
// when no commands are given.
func TestBuild_Console(t *testing.T) {
	cfg := config.Default()
	logger := util.NewLogger(0)

	mode, err := Build(cfg, logger)
	if err != nil {
		t.Fatal(err)
	}
	sm, ok := mode.(*ServeMode)
	if !ok {
		t.Fatalf("expected *ServeMode, got %T", mode)
	}
	if con, ok := sm.Capability.(*capability.Console); !ok {
		t.Errorf("expected *capability.Console, got %T", sm.Capability)
	} else if con.Interactive {
		t.Error("console should not be interactive by default")
	}
	if sm.Port != config.DefaultPort {
		t.Errorf("Port = %d, want %d", sm.Port, config.DefaultPort)
	}
	if sm.Framing != dbgp.FramingLength {
		t.Errorf("Framing = %v, want length", sm.Framing)
	}
}

// TestBuild_Batch verifies that -c commands select a Batch.
func TestBuild_Batch(t *testing.T) {
	cfg := config.Default()
	cfg.Commands = []string{"status", "run"}
	cfg.StopOnError = true
	cfg.Framing = "nul"
	cfg.Timeout = 3 * time.Second

	mode, err := Build(cfg, util.NewLogger(0))
	if err != nil {
		t.Fatal(err)
	}
	sm := mode.(*ServeMode)
	b, ok := sm.Capability.(*capability.Batch)
	if !ok {
		t.Fatalf("expected *capability.Batch, got %T", sm.Capability)
	}
	if len(b.Commands) != 2 || !b.StopOnError {
		t.Errorf("unexpected batch %+v", b)
	}
	if sm.Framing != dbgp.FramingNUL {
		t.Errorf("Framing = %v, want nul", sm.Framing)
	}
	if sm.Timeout != 3*time.Second {
		t.Errorf("Timeout = %v", sm.Timeout)
	}
}

// TestBuild_BadFraming verifies an unknown framing is rejected.
func TestBuild_BadFraming(t *testing.T) {
	cfg := config.Default()
	cfg.Framing = "xml"
	if _, err := Build(cfg, util.NewLogger(0)); err == nil {
		t.Fatal("expected error for unknown framing")
	}
}

// TestBuild_InteractiveConsole verifies the console picks up line
// editing settings.
func TestBuild_InteractiveConsole(t *testing.T) {
	cfg := config.Default()
	cfg.Interactive = true
	cfg.HistoryFile = "/tmp/dbgpc_history"

	mode, err := Build(cfg, util.NewLogger(0))
	if err != nil {
		t.Fatal(err)
	}
	con := mode.(*ServeMode).Capability.(*capability.Console)
	if !con.Interactive || con.HistoryFile != "/tmp/dbgpc_history" {
		t.Errorf("unexpected console %+v", con)
	}
}

// TestBuild_KeepOpenBreaker verifies only keep-open servers get a
// session breaker.
func TestBuild_KeepOpenBreaker(t *testing.T) {
	cfg := config.Default()
	mode, err := Build(cfg, util.NewLogger(0))
	if err != nil {
		t.Fatal(err)
	}
	if mode.(*ServeMode).Breaker != nil {
		t.Error("single-session mode should not have a breaker")
	}

	cfg.KeepOpen = true
	mode, err = Build(cfg, util.NewLogger(0))
	if err != nil {
		t.Fatal(err)
	}
	b := mode.(*ServeMode).Breaker
	if b == nil || b.MaxFailures != config.DefaultFailureLimit {
		t.Errorf("unexpected breaker %+v", b)
	}
}
