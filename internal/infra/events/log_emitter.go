package events

import (
	"context"
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"campus-perks/internal/domain/ports/adapter"
	"campus-perks/internal/infra/metrics"
)

var _ adapter.EventEmitter = (*LogEmitter)(nil)

// LogEmitter writes lifecycle events as structured log records for the
// downstream analytics/notification pipeline to consume. Emit never fails
// the triggering operation: errors stay inside the emitter.
type LogEmitter struct {
	log *zerolog.Logger
}

func NewLogEmitter(logger *zerolog.Logger) *LogEmitter {
	l := logger.With().Str("component", "events").Logger()
	return &LogEmitter{log: &l}
}

func (e *LogEmitter) Emit(ctx context.Context, ev adapter.Event) {
	if ev.ID == "" {
		ev.ID = newEventID(ev.OccurredAt)
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now()
	}
	e.log.Info().
		Str("event_id", ev.ID).
		Str("event_type", string(ev.Type)).
		Time("occurred_at", ev.OccurredAt).
		Fields(map[string]interface{}{"payload": ev.Payload}).
		Msg("lifecycle event")
	metrics.IncEventEmitted(string(ev.Type))
}

// newEventID returns a ULID so event streams sort by emission time.
func newEventID(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return ulid.MustNew(ulid.Timestamp(t), rand.Reader).String()
}
