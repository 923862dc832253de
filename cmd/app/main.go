// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	campusperks "campus-perks"
	"campus-perks/internal/config"
	pg "campus-perks/internal/infra/db/postgres"
	"campus-perks/internal/infra/events"
	"campus-perks/internal/infra/logging"
	"campus-perks/internal/infra/metrics"
	red "campus-perks/internal/infra/redis"
	"campus-perks/internal/infra/sched"
	"campus-perks/internal/infra/web"
	"campus-perks/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Runtime.Dev {
		log.Printf("[DEV MODE] Enabled")
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)

	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("timezone: %v", err)
	}

	// ---- Migrations + Postgres ----
	migrationsFS, err := fs.Sub(campusperks.MigrationsFS, "migrations")
	if err != nil {
		log.Fatalf("migrations: %v", err)
	}
	if err := pg.RunMigrations(cfg.Database.URL, migrationsFS); err != nil {
		log.Fatalf("migrations: %v", err)
	}
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer redisClient.Close()

	// ---- Repositories + adapters ----
	entRepo := pg.NewEntitlementRepo(pool)
	redRepo := pg.NewRedemptionRepo(pool)
	offerRepo := pg.NewOfferRepo(pool)
	txManager := pg.NewTxManager(pool)
	tokenStore := red.NewTokenStore(redisClient)
	emitter := events.NewLogEmitter(logger)

	// ---- Engine ----
	engine := usecase.NewRedemptionUseCase(
		entRepo, redRepo, offerRepo, tokenStore, txManager, emitter,
		loc, cfg.Redemption.ProofTTL, cfg.Redemption.VoidWindow, logger,
	)

	metrics.MustRegister()

	// ---- Housekeeping ----
	worker := sched.NewExpiryWorker(cfg.Scheduler.ExpirySweepInterval, engine, logger)
	go func() {
		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("expiry worker exited")
		}
	}()

	// ---- HTTP ----
	server := web.NewServer(engine, cfg.Server.MerchantAPIKey, logger)
	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: server.Routes(),
	}
	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("http server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server failed")
			cancel()
		}
	}()

	// ---- Shutdown ----
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	select {
	case s := <-sig:
		logger.Info().Str("signal", s.String()).Msg("shutting down")
	case <-ctx.Done():
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
}
