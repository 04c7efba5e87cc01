package config

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

// ── ParseCommandList ─────────────────────────────────────────────────

func TestParseCommandList(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"single", "status", []string{"status"}},
		{"several", "feature_set -n max_depth -v 2; step_into", []string{"feature_set -n max_depth -v 2", "step_into"}},
		{"empty entries", ";;run; ;", []string{"run"}},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseCommandList(tt.input); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

// ── Validation ───────────────────────────────────────────────────────

func TestValidate(t *testing.T) {
	valid := func(mod func(c *Config)) Config {
		c := *Default()
		mod(&c)
		return c
	}

	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", *Default(), false},
		{"ephemeral port", valid(func(c *Config) { c.Port = 0 }), false},
		{"nul framing", valid(func(c *Config) { c.Framing = "nul" }), false},
		{"batch", valid(func(c *Config) { c.Commands = []string{"run"}; c.StopOnError = true }), false},
		{"port too large", valid(func(c *Config) { c.Port = 70000 }), true},
		{"negative port", valid(func(c *Config) { c.Port = -1 }), true},
		{"bad framing", valid(func(c *Config) { c.Framing = "xml" }), true},
		{"zero depth", valid(func(c *Config) { c.OutputDepth = 0 }), true},
		{"tiny packets", valid(func(c *Config) { c.MaxPacketSize = 10 }), true},
		{"negative timeout", valid(func(c *Config) { c.Timeout = -time.Second }), true},
		{"negative attempts", valid(func(c *Config) { c.ListenAttempts = -1 }), true},
		{"stop-on-error without commands", valid(func(c *Config) { c.StopOnError = true }), true},
		{"NUL in command", valid(func(c *Config) { c.InitCommands = []string{"status\x00run"} }), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr = %v", err, tt.wantErr)
			}
		})
	}
}

// TestValidate_ErrorMessages verifies that Validate returns actionable
// error messages with hints.
func TestValidate_ErrorMessages(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantSub string // substring expected in error
	}{
		{
			name:    "port has hint",
			cfg:     Config{Port: 99999, Framing: "length", OutputDepth: 1, MaxPacketSize: 1024},
			wantSub: "hint:",
		},
		{
			name:    "framing names the flag",
			cfg:     Config{Port: 9000, Framing: "json", OutputDepth: 1, MaxPacketSize: 1024},
			wantSub: "--framing=json",
		},
		{
			name:    "NUL is shown escaped",
			cfg:     Config{Port: 9000, Framing: "nul", OutputDepth: 1, MaxPacketSize: 1024, Commands: []string{"a\x00b"}},
			wantSub: `a\0b`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q should contain %q", err.Error(), tt.wantSub)
			}
		})
	}
}
