// Command server runs the claims adjudication HTTP API. main wires
// dependencies and owns the process lifecycle; business logic lives in the
// internal service packages.
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"claimsgate/internal/audit"
	"claimsgate/internal/events"
	"claimsgate/internal/ledger"
	"claimsgate/internal/orchestrator"
	"claimsgate/internal/platform/config"
	"claimsgate/internal/platform/httpserver"
	"claimsgate/internal/platform/logger"
	"claimsgate/internal/platform/metrics"
	platformredis "claimsgate/internal/platform/redis"
	"claimsgate/internal/provenance"
	"claimsgate/internal/salvage"
	httptransport "claimsgate/internal/transport/http"
	"claimsgate/internal/warranty"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	// Audit store: postgres when configured, in-memory otherwise.
	var auditStore audit.Store
	if cfg.Postgres.DSN != "" {
		db, err := sql.Open("postgres", cfg.Postgres.DSN)
		if err != nil {
			log.Error("open postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Error("postgres unreachable", "error", err)
			os.Exit(1)
		}
		auditStore = audit.NewPostgres(db)
		log.Info("audit store: postgres")
	} else {
		auditStore = audit.NewInMemoryStore()
		log.Info("audit store: in-memory")
	}
	auditSvc := audit.NewService(auditStore, log, m)

	// Idempotency store: redis when configured, in-memory otherwise.
	var idemStore events.IdempotencyStore = events.NewMemoryIdempotencyStore()
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connect", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		idemStore = events.NewRedisIdempotencyStore(redisClient.Client)
		log.Info("idempotency store: redis")
	}

	// Event bus: kafka when seeds are configured, in-process otherwise.
	var bus events.Bus = events.NewMemoryBus()
	if len(cfg.Kafka.Seeds) > 0 {
		kafkaBus, err := events.NewKafkaBus(cfg.Kafka)
		if err != nil {
			log.Error("kafka connect", "error", err)
			os.Exit(1)
		}
		bus = kafkaBus
		log.Info("event bus: kafka", "topic", cfg.Kafka.Topic)
	}
	defer bus.Close()

	ledgerClient := ledger.NewClient(cfg.Ledger)
	verifier := ledger.NewHTTPVerifier(cfg.Ledger)

	warrantyStore := warranty.NewInMemoryStore()
	detector := warranty.NewDetector(warrantyStore, log)

	recorder := events.NewRecorder(idemStore, bus, cfg.Events.ResultTTL, log)
	salvageSvc := salvage.NewService(salvage.NewInMemoryStore(), auditSvc, ledgerClient, cfg.Ledger.Producer, log)

	// A nil *HTTPScorer must stay a nil interface so the service falls back
	// to its heuristic.
	var scorer provenance.Scorer
	if hs := provenance.NewHTTPScorer(cfg.Provenance); hs != nil {
		scorer = hs
	}
	provenanceSvc := provenance.NewService(scorer, ledgerClient, log)

	pipeline := orchestrator.New(verifier, auditSvc, detector, bus, ledgerClient, cfg.Ledger.Producer, log, m)

	handler := httptransport.NewHandler(pipeline, auditSvc, recorder, detector, warrantyStore, salvageSvc, provenanceSvc, log)
	srv := httpserver.New(cfg.Server.Addr, httptransport.NewRouter(handler))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("claims gateway listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
