package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	ucport "campus-perks/internal/domain/ports/usecase"
	"campus-perks/internal/infra/metrics"
)

// ExpiryWorker periodically rewrites the persisted state of lapsed
// entitlements to expired. Reporting hygiene only: the engine's guards apply
// lazy expiry on every read and never depend on this sweep.
type ExpiryWorker struct {
	interval time.Duration
	engine   ucport.RedemptionEngine
	log      *zerolog.Logger
}

func NewExpiryWorker(interval time.Duration, engine ucport.RedemptionEngine, logger *zerolog.Logger) *ExpiryWorker {
	l := logger.With().Str("component", "ExpiryWorker").Logger()
	return &ExpiryWorker{interval: interval, engine: engine, log: &l}
}

func (w *ExpiryWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("starting expiry worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("stopping expiry worker")
			return ctx.Err()
		case <-ticker.C:
			n, err := w.engine.SweepExpired(ctx)
			if err != nil {
				w.log.Error().Err(err).Msg("expiry sweep failed")
				continue
			}
			if n > 0 {
				metrics.IncEntitlementsExpired(n)
				w.log.Info().Int64("count", n).Msg("entitlements marked expired")
			}
		}
	}
}
