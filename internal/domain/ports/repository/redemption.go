package repository

import (
	"context"
	"time"

	"campus-perks/internal/domain/model"
)

// RedemptionRepository is the port for the financial record side of the ledger.
type RedemptionRepository interface {
	Insert(ctx context.Context, tx Tx, r *model.Redemption) error
	FindByEntitlementID(ctx context.Context, tx Tx, entitlementID string) (*model.Redemption, error)

	// MarkVoided sets the void fields exactly once; voided rows are never unset.
	MarkVoided(ctx context.Context, tx Tx, entitlementID, reason string, at time.Time) error

	ListByMerchant(ctx context.Context, tx Tx, merchantID string, from, to time.Time) ([]*model.Redemption, error)
}
