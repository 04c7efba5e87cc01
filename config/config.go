// Package config defines the runtime configuration for dbgpc and the
// helpers that parse and validate it.
package config

import (
	"strings"
	"time"

	dbgperr "dbgpc/internal/errors"
)

// Config holds every tuneable for a dbgpc run.
type Config struct {
	// ── Listener ─────────────────────────────────────────────────────
	Host           string // bind address ("" = every interface)
	Port           int    // port engines connect back to
	KeepOpen       bool   // serve sessions one after another
	Timeout        time.Duration
	ListenAttempts int // binds tried before giving up (0 = unlimited)

	// ── Protocol ─────────────────────────────────────────────────────
	Framing       string // "length" or "nul"
	OutputDepth   int
	MaxPacketSize int
	InitCommands  []string // sent as soon as the init packet arrives

	// ── Session ──────────────────────────────────────────────────────
	Commands    []string // -c: run these instead of the console
	StopOnError bool
	Interactive bool   // line editing for the console (stdin is a terminal)
	HistoryFile string // console history ("" = none)

	// ── Output ───────────────────────────────────────────────────────
	Verbose int
	Indent  bool
	DryRun  bool
}

// Default returns a Config populated from defaults.go.
func Default() *Config {
	return &Config{
		Port:           DefaultPort,
		ListenAttempts: DefaultListenAttempts,
		Framing:        DefaultFraming,
		OutputDepth:    DefaultOutputDepth,
		MaxPacketSize:  DefaultMaxPacketSize,
	}
}

// ParseCommandList splits a ';'-separated list of DBGp commands,
// dropping empty entries.
func ParseCommandList(s string) []string {
	var out []string
	for _, c := range strings.Split(s, ";") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// ── Validation ───────────────────────────────────────────────────────

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return &dbgperr.ConfigError{
			Field:   "port",
			Value:   c.Port,
			Message: "out of range 0-65535",
			Hint:    "DBGp engines connect to 9000 (Xdebug 2) or 9003 (Xdebug 3) by default",
		}
	}

	switch c.Framing {
	case "length", "nul":
	default:
		return &dbgperr.ConfigError{
			Field:   "framing",
			Value:   c.Framing,
			Message: "unknown framing",
			Hint:    `use "length" for length-prefixed commands or "nul" for engines that expect bare NUL-terminated ones`,
		}
	}

	if c.OutputDepth < 1 {
		return &dbgperr.ConfigError{
			Field:   "output-depth",
			Value:   c.OutputDepth,
			Message: "must be at least 1",
		}
	}

	if c.MaxPacketSize < 64 {
		return &dbgperr.ConfigError{
			Field:   "max-packet",
			Value:   c.MaxPacketSize,
			Message: "too small to hold an init packet",
			Hint:    "the default is 64 MiB",
		}
	}

	if c.Timeout < 0 {
		return &dbgperr.ConfigError{
			Field:   "wait",
			Value:   c.Timeout,
			Message: "must not be negative",
		}
	}

	if c.ListenAttempts < 0 {
		return &dbgperr.ConfigError{
			Field:   "listen-attempts",
			Value:   c.ListenAttempts,
			Message: "must not be negative",
			Hint:    "use 0 to retry until interrupted",
		}
	}

	if c.StopOnError && len(c.Commands) == 0 {
		return &dbgperr.ConfigError{
			Field:   "stop-on-error",
			Message: "only applies to a command list",
			Hint:    "pass commands with -c",
		}
	}

	for _, cmd := range append(append([]string(nil), c.InitCommands...), c.Commands...) {
		if strings.ContainsRune(cmd, 0) {
			return &dbgperr.ConfigError{
				Field:   "command",
				Value:   strings.ReplaceAll(cmd, "\x00", `\0`),
				Message: "commands cannot contain NUL bytes",
			}
		}
	}

	return nil
}
