// Riskgate - transaction risk decision engine
package main

import (
	"context"
	"os"

	"github.com/jlowen/riskgate/internal/config"
	"github.com/jlowen/riskgate/internal/logging"
	"github.com/jlowen/riskgate/internal/server"
	"github.com/jlowen/riskgate/internal/traces"
)

// Build info - set by ldflags
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	logger := logging.New("info", "text")

	logger.Info("starting riskgate",
		"version", Version,
		"commit", Commit,
		"build_time", BuildTime,
	)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	format := "json"
	if cfg.IsDevelopment() {
		format = "text"
	}
	logger = logging.New(cfg.LogLevel, format)

	logger.Info("configuration loaded",
		"env", cfg.Env,
		"policy_version", cfg.PolicyVersion,
		"rules_version", cfg.RulesVersion,
		"allowed_corridors", cfg.AllowedCorridors,
	)

	ctx := context.Background()

	shutdownTraces, err := traces.Init(ctx, cfg.OTLPEndpoint, logger)
	if err != nil {
		logger.Error("failed to init tracing", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTraces(context.Background()) }()

	srv, err := server.New(cfg, server.WithLogger(logger))
	if err != nil {
		logger.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
