// Package cmd wires up the CLI flags and dispatches to the serving core.
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	flag "github.com/spf13/pflag"
	"golang.org/x/term"

	"dbgpc/config"
	"dbgpc/internal/core"
	"dbgpc/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X dbgpc/cmd.version=1.1.0"
var version = "1.0.0" //nolint:gochecknoglobals

// Execute parses args and runs dbgpc.
func Execute(ctx context.Context, args []string) error {
	cfg := config.Default()
	config.LoadFromEnv(cfg)

	fs := flag.NewFlagSet("dbgpc", flag.ContinueOnError)

	// ── listener ─────────────────────────────────────────────────
	fs.IntVarP(&cfg.Port, "port", "p", cfg.Port, "Port engines connect to")
	fs.StringVarP(&cfg.Host, "bind", "b", cfg.Host, "Address to listen on (default: all interfaces)")
	fs.BoolVarP(&cfg.KeepOpen, "keep-open", "k", cfg.KeepOpen, "Serve sessions one after another")
	fs.IntVar(&cfg.ListenAttempts, "listen-attempts", cfg.ListenAttempts, "Binds to try before giving up (0 = unlimited)")

	timeoutSec := int(cfg.Timeout / time.Second)
	fs.IntVarP(&timeoutSec, "wait", "w", timeoutSec, "Seconds to wait for an engine (0 = forever)")

	// ── protocol ─────────────────────────────────────────────────
	fs.StringVar(&cfg.Framing, "framing", cfg.Framing, `Command framing: "length" or "nul"`)
	fs.IntVar(&cfg.OutputDepth, "output-depth", cfg.OutputDepth, "Commands that may wait for the socket")
	fs.IntVar(&cfg.MaxPacketSize, "max-packet", cfg.MaxPacketSize, "Largest inbound packet in bytes")

	var initCmds, cmds []string
	fs.StringArrayVar(&initCmds, "init-cmd", nil, "Command sent when the engine connects (repeatable)")

	// ── session ──────────────────────────────────────────────────
	fs.StringArrayVarP(&cmds, "command", "c", nil, "Run command instead of the console (repeatable)")
	fs.BoolVar(&cfg.StopOnError, "stop-on-error", cfg.StopOnError, "Stop a command list at the first engine error")
	fs.StringVar(&cfg.HistoryFile, "history", cfg.HistoryFile, "Console history file")

	// ── output ───────────────────────────────────────────────────
	fs.CountVarP(&cfg.Verbose, "verbose", "v", "Increase verbosity (repeatable)")
	var raw bool
	fs.BoolVar(&raw, "raw", false, "Print packets exactly as received")
	fs.BoolVar(&cfg.DryRun, "dry-run", false, "Validate the configuration and exit")

	var showVersion, showHelp bool
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&showHelp, "help", "h", false, "Show this help")

	fs.Usage = func() { printUsage(fs) }

	// ── parse ────────────────────────────────────────────────────
	if err := fs.Parse(args); err != nil {
		return err
	}

	if showHelp {
		printUsage(fs)
		return nil
	}
	if showVersion {
		fmt.Printf("dbgpc %s\n", version)
		return nil
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected argument %q (use --help for usage)", fs.Arg(0))
	}

	cfg.Timeout = time.Duration(timeoutSec) * time.Second
	if len(initCmds) > 0 {
		cfg.InitCommands = initCmds
	}
	if len(cmds) > 0 {
		cfg.Commands = cmds
	}
	cfg.Indent = !raw && term.IsTerminal(int(os.Stdout.Fd()))
	cfg.Interactive = len(cfg.Commands) == 0 && term.IsTerminal(int(os.Stdin.Fd()))

	// ── validate ─────────────────────────────────────────────────
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.DryRun {
		fmt.Fprintf(os.Stderr, "dbgpc: configuration ok, would listen on %s\n", util.FormatAddr(cfg.Host, cfg.Port))
		return nil
	}

	// ── build and run ────────────────────────────────────────────
	logger := util.NewLogger(cfg.Verbose)
	mode, err := core.Build(cfg, logger)
	if err != nil {
		return err
	}
	return mode.Run(ctx)
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintf(os.Stderr, `dbgpc - DBGp debugger client v%s

Listens for a debugging engine (Xdebug, Komodo, ...) and relays DBGp
commands to it.  Lines read from stdin are sent as commands and every
packet the engine returns is printed.

Usage:
  dbgpc [options]                             Interactive console
  dbgpc -c <command> [-c <command>...]        Run a command list

Options:
`, version)
	fs.PrintDefaults()
	fmt.Fprintf(os.Stderr, `
Environment:
  DBGPC_HOST, DBGPC_PORT, DBGPC_KEEP_OPEN, DBGPC_TIMEOUT, DBGPC_FRAMING,
  DBGPC_INIT_COMMANDS, DBGPC_COMMANDS (';'-separated), DBGPC_HISTORY,
  DBGPC_VERBOSE ...

Examples:
  dbgpc -p 9003                               Console on the Xdebug 3 port
  dbgpc -k -v                                 Serve requests one by one
  dbgpc -c 'step_into' -c 'stack_get'         Scripted session
  dbgpc --init-cmd 'feature_set -n max_depth -v 3'
`)
}
