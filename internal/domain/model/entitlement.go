package model

import (
	"time"

	"campus-perks/internal/domain"
)

type EntitlementState string

const (
	StateActive              EntitlementState = "active"
	StatePendingConfirmation EntitlementState = "pending_confirmation"
	StateUsed                EntitlementState = "used"
	StateVoided              EntitlementState = "voided"
	StateExpired             EntitlementState = "expired"
)

// Terminal reports whether no further transition may leave the state.
func (s EntitlementState) Terminal() bool {
	return s == StateUsed || s == StateVoided || s == StateExpired
}

// Entitlement is a user's time-boxed, single-use right to redeem one offer.
// Rows are never deleted; terminal states are retained for audit.
type Entitlement struct {
	ID        string // UUID
	UserID    string // UUID, supplied by the identity layer only
	OfferID   string // UUID
	DeviceID  string // optional fraud signal bound at claim time
	State     EntitlementState
	ClaimedAt time.Time
	ExpiresAt time.Time  // end of the claim day
	UsedAt    *time.Time // set once on confirmation
	VoidedAt  *time.Time // set once on void
}

// NewEntitlement creates an ACTIVE entitlement expiring at the end of the
// claim day in the given zone.
func NewEntitlement(id, userID, offerID, deviceID string, now time.Time, loc *time.Location) (*Entitlement, error) {
	if id == "" || userID == "" || offerID == "" || loc == nil {
		return nil, domain.ErrInvalidArgument
	}
	return &Entitlement{
		ID:        id,
		UserID:    userID,
		OfferID:   offerID,
		DeviceID:  deviceID,
		State:     StateActive,
		ClaimedAt: now,
		ExpiresAt: EndOfDay(now, loc),
	}, nil
}

// EndOfDay returns the last instant of t's calendar day in loc.
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// SameCalendarDay reports whether a and b fall on the same calendar day in loc.
func SameCalendarDay(a, b time.Time, loc *time.Location) bool {
	al, bl := a.In(loc), b.In(loc)
	ay, am, ad := al.Date()
	by, bm, bd := bl.Date()
	return ay == by && am == bm && ad == bd
}

// DayKey formats t's calendar day in loc for use in quota keys.
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}
