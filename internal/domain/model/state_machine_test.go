package model

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"campus-perks/internal/domain"
)

func newTestEntitlement(t *testing.T, now time.Time) *Entitlement {
	t.Helper()
	e, err := NewEntitlement(uuid.NewString(), uuid.NewString(), uuid.NewString(), "device-1", now, time.UTC)
	if err != nil {
		t.Fatalf("NewEntitlement: %v", err)
	}
	return e
}

func TestNewEntitlement_ExpiresAtEndOfClaimDay(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)
	e := newTestEntitlement(t, now)

	if e.State != StateActive {
		t.Fatalf("expected active, got %s", e.State)
	}
	if !SameCalendarDay(e.ExpiresAt, now, time.UTC) {
		t.Fatalf("expiry %s not on claim day", e.ExpiresAt)
	}
	nextDay := now.AddDate(0, 0, 1).Truncate(24 * time.Hour)
	if !e.ExpiresAt.Before(nextDay) {
		t.Fatalf("expiry %s crossed into the next day", e.ExpiresAt)
	}
}

func TestStateMachine_FullLifecycle(t *testing.T) {
	t.Parallel()

	sm := NewStateMachine(time.UTC, 2*time.Hour)
	now := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	e := newTestEntitlement(t, now)

	if err := sm.BeginValidation(e, now.Add(time.Minute)); err != nil {
		t.Fatalf("BeginValidation: %v", err)
	}
	if e.State != StatePendingConfirmation {
		t.Fatalf("expected pending_confirmation, got %s", e.State)
	}

	confirmAt := now.Add(2 * time.Minute)
	if err := sm.Confirm(e, decimal.NewFromInt(100), confirmAt); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if e.State != StateUsed || e.UsedAt == nil || !e.UsedAt.Equal(confirmAt) {
		t.Fatalf("expected used at %s, got state=%s used_at=%v", confirmAt, e.State, e.UsedAt)
	}

	voidAt := confirmAt.Add(30 * time.Minute)
	if err := sm.Void(e, voidAt); err != nil {
		t.Fatalf("Void: %v", err)
	}
	if e.State != StateVoided || e.VoidedAt == nil {
		t.Fatalf("expected voided, got %s", e.State)
	}
}

func TestStateMachine_CancelValidation(t *testing.T) {
	t.Parallel()

	sm := NewStateMachine(time.UTC, 2*time.Hour)
	now := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	e := newTestEntitlement(t, now)

	if err := sm.BeginValidation(e, now); err != nil {
		t.Fatalf("BeginValidation: %v", err)
	}
	if err := sm.CancelValidation(e, now); err != nil {
		t.Fatalf("CancelValidation: %v", err)
	}
	if e.State != StateActive {
		t.Fatalf("expected active after cancel, got %s", e.State)
	}
}

func TestStateMachine_IllegalTransitions(t *testing.T) {
	t.Parallel()

	sm := NewStateMachine(time.UTC, 2*time.Hour)
	now := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		run  func(e *Entitlement) error
	}{
		{"confirm active", func(e *Entitlement) error { return sm.Confirm(e, decimal.NewFromInt(10), now) }},
		{"cancel active", func(e *Entitlement) error { return sm.CancelValidation(e, now) }},
		{"void active", func(e *Entitlement) error { return sm.Void(e, now) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newTestEntitlement(t, now)
			err := tc.run(e)
			if !errors.Is(err, domain.ErrInvalidState) {
				t.Fatalf("expected ErrInvalidState got %v", err)
			}
			if e.State != StateActive {
				t.Fatalf("state mutated to %s on failed transition", e.State)
			}
			var ite *InvalidTransitionError
			if errors.As(err, &ite) && ite.From != StateActive {
				t.Fatalf("error names wrong current state: %v", err)
			}
		})
	}
}

func TestStateMachine_LazyExpiry(t *testing.T) {
	t.Parallel()

	sm := NewStateMachine(time.UTC, 2*time.Hour)
	now := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	e := newTestEntitlement(t, now)

	nextDay := now.AddDate(0, 0, 1)
	if got := sm.EffectiveState(e, nextDay); got != StateExpired {
		t.Fatalf("expected effective expired, got %s", got)
	}
	// Persisted state has not been rewritten.
	if e.State != StateActive {
		t.Fatalf("persisted state changed to %s", e.State)
	}

	err := sm.BeginValidation(e, nextDay)
	if !errors.Is(err, domain.ErrExpired) {
		t.Fatalf("expected ErrExpired got %v", err)
	}

	if err := sm.Expire(e, nextDay); err != nil {
		t.Fatalf("Expire: %v", err)
	}
	if e.State != StateExpired {
		t.Fatalf("expected expired, got %s", e.State)
	}
}

func TestStateMachine_VoidWindow(t *testing.T) {
	t.Parallel()

	sm := NewStateMachine(time.UTC, 2*time.Hour)
	now := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

	used := func(usedAt time.Time) *Entitlement {
		e := newTestEntitlement(t, now)
		e.State = StateUsed
		e.UsedAt = &usedAt
		return e
	}

	usedAt := now
	if err := sm.Void(used(usedAt), usedAt.Add(time.Hour+59*time.Minute)); err != nil {
		t.Fatalf("void at 1h59m should succeed: %v", err)
	}

	err := sm.Void(used(usedAt), usedAt.Add(2*time.Hour+time.Minute))
	if !errors.Is(err, domain.ErrVoidWindowExpired) {
		t.Fatalf("void at 2h01m: expected ErrVoidWindowExpired got %v", err)
	}
}

func TestStateMachine_VoidRejectedAcrossMidnight(t *testing.T) {
	t.Parallel()

	sm := NewStateMachine(time.UTC, 2*time.Hour)
	claimAt := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	usedAt := time.Date(2025, 3, 10, 23, 30, 0, 0, time.UTC)

	e := newTestEntitlement(t, claimAt)
	e.State = StateUsed
	e.UsedAt = &usedAt
	// Keep the entitlement itself unexpired so only the day guard fires.
	e.ExpiresAt = usedAt.Add(6 * time.Hour)

	// 1h after use but on the next calendar day.
	err := sm.Void(e, time.Date(2025, 3, 11, 0, 30, 0, 0, time.UTC))
	if !errors.Is(err, domain.ErrVoidWrongDay) {
		t.Fatalf("expected ErrVoidWrongDay got %v", err)
	}
}

func TestSameCalendarDay_Timezones(t *testing.T) {
	t.Parallel()

	// 23:30 UTC on the 10th and 00:30 UTC on the 11th are the same day
	// in a UTC-2 zone.
	loc := time.FixedZone("UTC-2", -2*60*60)
	a := time.Date(2025, 3, 10, 23, 30, 0, 0, time.UTC)
	b := time.Date(2025, 3, 11, 0, 30, 0, 0, time.UTC)

	if SameCalendarDay(a, b, time.UTC) {
		t.Fatalf("expected different days in UTC")
	}
	if !SameCalendarDay(a, b, loc) {
		t.Fatalf("expected same day in UTC-2")
	}
}
