package repository

import (
	"context"
	"time"

	"campus-perks/internal/domain/model"
)

// EntitlementRepository is the port for the entitlement side of the ledger.
//
// Insert relies on the ledger's partial unique constraint over
// (user, offer, calendar day of claimed_at) excluding voided rows; a
// violation surfaces as domain.ErrDailyLimitExceeded and is the sole
// linearization point for concurrent claims.
type EntitlementRepository interface {
	Insert(ctx context.Context, tx Tx, e *model.Entitlement) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Entitlement, error)
	Update(ctx context.Context, tx Tx, e *model.Entitlement) error
	FindByUser(ctx context.Context, tx Tx, userID string, state model.EntitlementState) ([]*model.Entitlement, error)

	// MarkLapsedExpired rewrites the persisted state of non-terminal rows whose
	// expiry has passed. Housekeeping only; guards never depend on it.
	MarkLapsedExpired(ctx context.Context, tx Tx, now time.Time) (int64, error)
}
