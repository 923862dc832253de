package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shopspring/decimal"

	"campus-perks/internal/domain"
	"campus-perks/internal/domain/model"
	"campus-perks/internal/domain/ports/repository"
)

var _ repository.RedemptionRepository = (*redemptionRepo)(nil)

type redemptionRepo struct {
	pool *pgxpool.Pool
}

func NewRedemptionRepo(pool *pgxpool.Pool) *redemptionRepo {
	return &redemptionRepo{pool: pool}
}

// Monetary columns travel as text on both directions: NUMERIC never touches
// a float, and decimal.NewFromString round-trips exactly.
const redemptionCols = `id, entitlement_id, merchant_id, offer_id, user_id,
       total_bill_amount::text, discount_amount::text, final_amount::text,
       offer_type, redeemed_at, is_voided, voided_at, void_reason`

func (r *redemptionRepo) Insert(ctx context.Context, tx repository.Tx, red *model.Redemption) error {
	const q = `
INSERT INTO redemptions (
  id, entitlement_id, merchant_id, offer_id, user_id,
  total_bill_amount, discount_amount, final_amount, offer_type, redeemed_at
) VALUES ($1,$2,$3,$4,$5,$6::numeric,$7::numeric,$8::numeric,$9,$10);`

	_, err := execSQL(ctx, r.pool, tx, q,
		red.ID, red.EntitlementID, red.MerchantID, red.OfferID, red.UserID,
		red.TotalBillAmount.String(), red.DiscountAmount.String(), red.FinalAmount.String(),
		string(red.OfferType), red.RedeemedAt)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *redemptionRepo) FindByEntitlementID(ctx context.Context, tx repository.Tx, entitlementID string) (*model.Redemption, error) {
	const q = `SELECT ` + redemptionCols + ` FROM redemptions WHERE entitlement_id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, entitlementID)
	if err != nil {
		return nil, err
	}
	return scanRedemption(row)
}

func (r *redemptionRepo) MarkVoided(ctx context.Context, tx repository.Tx, entitlementID, reason string, at time.Time) error {
	const q = `
UPDATE redemptions
   SET is_voided=TRUE, voided_at=$2, void_reason=$3
 WHERE entitlement_id=$1 AND is_voided=FALSE;`

	tag, err := execSQL(ctx, r.pool, tx, q, entitlementID, at, reason)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return err
		}
		return domain.ErrOperationFailed
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *redemptionRepo) ListByMerchant(ctx context.Context, tx repository.Tx, merchantID string, from, to time.Time) ([]*model.Redemption, error) {
	const q = `
SELECT ` + redemptionCols + `
  FROM redemptions
 WHERE merchant_id=$1 AND redeemed_at >= $2 AND redeemed_at < $3
 ORDER BY redeemed_at DESC;`

	rows, err := queryRows(ctx, r.pool, tx, q, merchantID, from, to)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.Redemption
	for rows.Next() {
		red, err := scanRedemption(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, red)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func scanRedemption(row pgx.Row) (*model.Redemption, error) {
	red := &model.Redemption{}
	var bill, discount, final, offerType string
	if err := row.Scan(&red.ID, &red.EntitlementID, &red.MerchantID, &red.OfferID, &red.UserID,
		&bill, &discount, &final, &offerType, &red.RedeemedAt,
		&red.IsVoided, &red.VoidedAt, &red.VoidReason); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	var err error
	if red.TotalBillAmount, err = decimal.NewFromString(bill); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	if red.DiscountAmount, err = decimal.NewFromString(discount); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	if red.FinalAmount, err = decimal.NewFromString(final); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	red.OfferType = model.OfferType(offerType)
	return red, nil
}
