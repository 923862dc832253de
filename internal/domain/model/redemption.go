package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Redemption is the immutable financial record of a completed in-person
// transaction. It is written exactly once during confirmation and mutated at
// most once thereafter (void); identifiers are denormalized so analytics can
// read it without touching the entitlement's mutable state.
type Redemption struct {
	ID            string // UUID
	EntitlementID string // 1:1 with the entitlement that produced it
	MerchantID    string
	OfferID       string
	UserID        string

	TotalBillAmount decimal.Decimal
	DiscountAmount  decimal.Decimal
	FinalAmount     decimal.Decimal

	OfferType  OfferType // snapshot of the pricing model used
	RedeemedAt time.Time

	IsVoided   bool
	VoidedAt   *time.Time
	VoidReason *string // persisted verbatim for audit
}
