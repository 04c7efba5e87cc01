package core

import (
	"dbgpc/config"
	"dbgpc/internal/capability"
	"dbgpc/internal/dbgp"
	dbgperr "dbgpc/internal/errors"
	"dbgpc/internal/metrics"
	"dbgpc/internal/retry"
	"dbgpc/util"
)

// Build constructs the Mode for the given configuration.
func Build(cfg *config.Config, logger *util.Logger) (Mode, error) {
	framing, ok := dbgp.ParseFraming(cfg.Framing)
	if !ok {
		return nil, &dbgperr.ConfigError{
			Field:   "framing",
			Value:   cfg.Framing,
			Message: "unknown framing",
			Hint:    "use \"length\" or \"nul\"",
		}
	}

	return &ServeMode{
		Host:          cfg.Host,
		Port:          cfg.Port,
		KeepOpen:      cfg.KeepOpen,
		Timeout:       cfg.Timeout,
		Framing:       framing,
		OutputDepth:   cfg.OutputDepth,
		MaxPacketSize: cfg.MaxPacketSize,
		InitCommands:  cfg.InitCommands,
		Capability:    buildCapability(cfg),
		Backoff:       buildBackoff(cfg),
		Breaker:       buildBreaker(cfg, logger),
		Logger:        logger,
		Metrics:       metrics.New(),
		Indent:        cfg.Indent,
	}, nil
}

// buildCapability selects the per-session behaviour.
func buildCapability(cfg *config.Config) capability.Capability {
	if len(cfg.Commands) > 0 {
		return &capability.Batch{
			Commands:    cfg.Commands,
			StopOnError: cfg.StopOnError,
		}
	}
	return &capability.Console{
		Interactive: cfg.Interactive,
		HistoryFile: cfg.HistoryFile,
	}
}

func buildBackoff(cfg *config.Config) *retry.Backoff {
	b := retry.DefaultBackoff()
	b.MaxAttempts = cfg.ListenAttempts
	return b
}

// buildBreaker returns nil unless sessions are served one after another.
func buildBreaker(cfg *config.Config, logger *util.Logger) *retry.Breaker {
	if !cfg.KeepOpen {
		return nil
	}
	return &retry.Breaker{
		MaxFailures: config.DefaultFailureLimit,
		Cooldown:    config.DefaultFailureCooldown,
		OnStateChange: func(from, to retry.State) {
			logger.Verbose("session breaker %s -> %s", from, to)
		},
	}
}
