package config

// loader.go - configuration loading from environment variables.
//
// Precedence order (highest wins):
//   1. CLI flags  (handled by cmd/root.go)
//   2. Environment variables  (this file)
//   3. Defaults   (defaults.go)

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ── Environment variable mapping ─────────────────────────────────────
//
// Every supported env var uses the DBGPC_ prefix.  Boolean values
// accept "1", "true", "yes" (case-insensitive).  Command lists are
// separated by ';'.

// LoadFromEnv overlays environment variables onto cfg.  Only non-empty
// env vars override the existing value.  This should be called BEFORE
// CLI flag parsing so that flags take precedence.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("DBGPC_HOST"); v != "" {
		cfg.Host = v
	}
	if v := envInt("DBGPC_PORT"); v > 0 {
		cfg.Port = v
	}
	if envBool("DBGPC_KEEP_OPEN") {
		cfg.KeepOpen = true
	}
	if v := envInt("DBGPC_TIMEOUT"); v > 0 {
		cfg.Timeout = secondsDuration(v)
	}
	if v := envInt("DBGPC_LISTEN_ATTEMPTS"); v > 0 {
		cfg.ListenAttempts = v
	}

	// Protocol
	if v := os.Getenv("DBGPC_FRAMING"); v != "" {
		cfg.Framing = strings.ToLower(v)
	}
	if v := envInt("DBGPC_OUTPUT_DEPTH"); v > 0 {
		cfg.OutputDepth = v
	}
	if v := envInt("DBGPC_MAX_PACKET"); v > 0 {
		cfg.MaxPacketSize = v
	}
	if v := os.Getenv("DBGPC_INIT_COMMANDS"); v != "" {
		cfg.InitCommands = ParseCommandList(v)
	}

	// Session
	if v := os.Getenv("DBGPC_COMMANDS"); v != "" {
		cfg.Commands = ParseCommandList(v)
	}
	if envBool("DBGPC_STOP_ON_ERROR") {
		cfg.StopOnError = true
	}
	if v := os.Getenv("DBGPC_HISTORY"); v != "" {
		cfg.HistoryFile = v
	}

	// Output
	if v := envInt("DBGPC_VERBOSE"); v > 0 {
		cfg.Verbose = v
	}
}

// ── helpers ──────────────────────────────────────────────────────────

func envInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func envBool(key string) bool {
	v := strings.ToLower(os.Getenv(key))
	return v == "1" || v == "true" || v == "yes"
}

func secondsDuration(sec int) time.Duration {
	return time.Duration(sec) * time.Second
}
