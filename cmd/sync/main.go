// Command sync runs one fixture reconciliation cycle and prints its summary
// as JSON. It exits non-zero when the cycle fails.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	sonic "github.com/bytedance/sonic"
	"github.com/joho/godotenv"

	"github.com/riskibarqy/fixture-reconciler/internal/app"
	"github.com/riskibarqy/fixture-reconciler/internal/config"
	"github.com/riskibarqy/fixture-reconciler/internal/observability"
	"github.com/riskibarqy/fixture-reconciler/internal/platform/logging"
)

func main() {
	os.Exit(run())
}

func run() int {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Default().Error("load config", "error", err)
		return 1
	}

	logger := logging.NewJSON(cfg.LogLevel).With("service", cfg.ServiceName, "env", cfg.AppEnv, "command", "sync")
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		logger.Error("init uptrace", "error", err)
		return 1
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	rt, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("build app", "error", err)
		return 1
	}
	defer func() { _ = rt.Close() }()

	result, runErr := rt.SyncService.RunCycle(ctx)

	out, err := sonic.ConfigStd.MarshalIndent(result, "", "  ")
	if err != nil {
		logger.Error("encode cycle result", "error", err)
		return 1
	}
	fmt.Fprintln(os.Stdout, string(out))

	if runErr != nil {
		logger.Error("sync cycle failed", "cycle_id", result.CycleID, "error", runErr)
		return 1
	}
	return 0
}
