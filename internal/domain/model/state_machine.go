package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"campus-perks/internal/domain"
)

// InvalidTransitionError identifies the current state and the attempted
// target of an illegal transition. It unwraps to domain.ErrInvalidState.
type InvalidTransitionError struct {
	From EntitlementState
	To   EntitlementState
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %q to %q", e.From, e.To)
}

func (e *InvalidTransitionError) Unwrap() error { return domain.ErrInvalidState }

// legal transitions; expiry is handled separately as a lazy pre-check.
var transitions = map[EntitlementState]map[EntitlementState]bool{
	StateActive:              {StatePendingConfirmation: true},
	StatePendingConfirmation: {StateActive: true, StateUsed: true},
	StateUsed:                {StateVoided: true},
}

// StateMachine is the sole authority for entitlement state changes. It is
// pure: callers pass the clock in and persist the mutated entitlement.
type StateMachine struct {
	loc        *time.Location
	voidWindow time.Duration
}

func NewStateMachine(loc *time.Location, voidWindow time.Duration) *StateMachine {
	if loc == nil {
		loc = time.UTC
	}
	if voidWindow <= 0 {
		voidWindow = 2 * time.Hour
	}
	return &StateMachine{loc: loc, voidWindow: voidWindow}
}

// EffectiveState applies the lazy expiry rule: a non-terminal entitlement
// whose expiry has passed is EXPIRED regardless of the persisted field.
func (m *StateMachine) EffectiveState(e *Entitlement, now time.Time) EntitlementState {
	if !e.State.Terminal() && now.After(e.ExpiresAt) {
		return StateExpired
	}
	return e.State
}

func (m *StateMachine) step(e *Entitlement, to EntitlementState, now time.Time) error {
	cur := m.EffectiveState(e, now)
	if cur == StateExpired && e.State != StateExpired {
		return fmt.Errorf("entitlement %s: %w", e.ID, domain.ErrExpired)
	}
	if !transitions[cur][to] {
		return &InvalidTransitionError{From: cur, To: to}
	}
	e.State = to
	return nil
}

// BeginValidation moves ACTIVE -> PENDING_CONFIRMATION on a successful proof
// validation. Token freshness is the caller's responsibility; expiry of the
// entitlement itself is re-checked here.
func (m *StateMachine) BeginValidation(e *Entitlement, now time.Time) error {
	return m.step(e, StatePendingConfirmation, now)
}

// CancelValidation is the only user-initiated exit from PENDING_CONFIRMATION,
// returning the entitlement to ACTIVE.
func (m *StateMachine) CancelValidation(e *Entitlement, now time.Time) error {
	return m.step(e, StateActive, now)
}

// Confirm moves PENDING_CONFIRMATION -> USED and stamps UsedAt. The captured
// bill must be present and non-negative.
func (m *StateMachine) Confirm(e *Entitlement, bill decimal.Decimal, now time.Time) error {
	if bill.IsNegative() {
		return fmt.Errorf("bill amount %s: %w", bill, domain.ErrInvalidAmount)
	}
	if err := m.step(e, StateUsed, now); err != nil {
		return err
	}
	at := now
	e.UsedAt = &at
	return nil
}

// Void moves USED -> VOIDED when the reversal window is still open: no later
// than the configured window after UsedAt, and on the same calendar day.
func (m *StateMachine) Void(e *Entitlement, now time.Time) error {
	cur := m.EffectiveState(e, now)
	if !transitions[cur][StateVoided] {
		return &InvalidTransitionError{From: cur, To: StateVoided}
	}
	if e.UsedAt == nil || now.Sub(*e.UsedAt) > m.voidWindow {
		return domain.ErrVoidWindowExpired
	}
	if !SameCalendarDay(now, *e.UsedAt, m.loc) {
		return domain.ErrVoidWrongDay
	}
	e.State = StateVoided
	at := now
	e.VoidedAt = &at
	return nil
}

// Expire rewrites the persisted state of a lapsed entitlement. Guards never
// rely on this; it exists for reporting accuracy (see the housekeeping sweep).
func (m *StateMachine) Expire(e *Entitlement, now time.Time) error {
	if e.State.Terminal() {
		return &InvalidTransitionError{From: e.State, To: StateExpired}
	}
	if !now.After(e.ExpiresAt) {
		return fmt.Errorf("entitlement %s not yet past expiry: %w", e.ID, domain.ErrInvalidState)
	}
	e.State = StateExpired
	return nil
}
