package adapter

import (
	"context"
	"time"
)

type EventType string

const (
	EventClaim               EventType = "claim"
	EventRedemptionConfirmed EventType = "redemption_confirmed"
	EventRedemptionVoided    EventType = "redemption_voided"
)

// Event is a structured lifecycle record emitted after each state change.
// The core only emits; storage and fan-out are external concerns.
type Event struct {
	ID         string // sortable stream id
	Type       EventType
	OccurredAt time.Time
	Payload    map[string]interface{}
}

// EventEmitter is the hex port for the analytics/notification pipeline.
// Emit is fire-and-forget: implementations must never propagate failures
// back into the triggering operation.
type EventEmitter interface {
	Emit(ctx context.Context, ev Event)
}
