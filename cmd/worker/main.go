// Command worker runs the ledger listener: it polls the custody ledger for
// trigger events and converts them into claims without any inbound HTTP
// surface.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"claimsgate/internal/ledger"
	"claimsgate/internal/platform/config"
	"claimsgate/internal/platform/logger"
	"claimsgate/internal/platform/metrics"
	"claimsgate/internal/worker"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	client := ledger.NewClient(cfg.Ledger)

	w := worker.New(client, cfg.Worker, cfg.Ledger.Producer, log, m)
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("worker exited", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
