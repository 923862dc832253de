package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"campus-perks/internal/domain/model"
)

type ValidationStatus string

const (
	ValidationPass ValidationStatus = "PASS"
	ValidationFail ValidationStatus = "FAIL"
)

type ClaimResult struct {
	EntitlementID string    `json:"entitlement_id"`
	ExpiresAt     time.Time `json:"expires_at"`
}

type ProofResult struct {
	Token      string    `json:"proof_token"`
	ExpiresAt  time.Time `json:"expires_at"`
	TTLSeconds int       `json:"ttl_seconds"`
}

// ValidationDisplay carries the denormalized fields the merchant device shows
// while the student is at the counter.
type ValidationDisplay struct {
	OfferTitle   string          `json:"offer_title"`
	MerchantName string          `json:"merchant_name"`
	OfferType    model.OfferType `json:"offer_type"`
}

type ValidationResult struct {
	Status        ValidationStatus   `json:"status"`
	Reason        string             `json:"reason,omitempty"`
	EntitlementID string             `json:"entitlement_id,omitempty"`
	Display       *ValidationDisplay `json:"display_fields,omitempty"`
}

type ConfirmResult struct {
	RedemptionID   string          `json:"redemption_id"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	FinalAmount    decimal.Decimal `json:"final_amount"`
	Savings        decimal.Decimal `json:"savings"`
}

type VoidResult struct {
	VoidedAt time.Time `json:"voided_at"`
}

// RedemptionEngine defines the redemption operations needed by external
// surfaces (HTTP handlers, background workers).
type RedemptionEngine interface {
	Claim(ctx context.Context, userID, offerID, deviceID string) (*ClaimResult, error)
	IssueProof(ctx context.Context, entitlementID, userID string) (*ProofResult, error)
	ValidateProof(ctx context.Context, token string) (*ValidationResult, error)
	CancelValidation(ctx context.Context, entitlementID, userID string) error
	Confirm(ctx context.Context, entitlementID string, bill decimal.Decimal, override *decimal.Decimal) (*ConfirmResult, error)
	Void(ctx context.Context, entitlementID, reason string) (*VoidResult, error)

	GetEntitlement(ctx context.Context, entitlementID, userID string) (*model.Entitlement, error)
	ListUserEntitlements(ctx context.Context, userID string, state model.EntitlementState) ([]*model.Entitlement, error)
	ListMerchantRedemptions(ctx context.Context, merchantID string, from, to time.Time) ([]*model.Redemption, error)

	SweepExpired(ctx context.Context) (int64, error)
}
