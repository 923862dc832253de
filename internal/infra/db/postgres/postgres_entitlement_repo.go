package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"campus-perks/internal/domain"
	"campus-perks/internal/domain/model"
	"campus-perks/internal/domain/ports/repository"
)

var _ repository.EntitlementRepository = (*entitlementRepo)(nil)

type entitlementRepo struct {
	pool *pgxpool.Pool
}

func NewEntitlementRepo(pool *pgxpool.Pool) *entitlementRepo {
	return &entitlementRepo{pool: pool}
}

const entitlementCols = `id, user_id, offer_id, COALESCE(device_id,''), state, claimed_at, expires_at, used_at, voided_at`

// Insert creates the row for a fresh claim. The partial unique index over
// (user_id, offer_id, day of claimed_at) excluding voided rows is the
// linearization point for concurrent claims: a 23505 from it is the expected
// loser outcome and maps to ErrDailyLimitExceeded.
func (r *entitlementRepo) Insert(ctx context.Context, tx repository.Tx, e *model.Entitlement) error {
	const q = `
INSERT INTO entitlements (id, user_id, offer_id, device_id, state, claimed_at, expires_at)
VALUES ($1,$2,$3,NULLIF($4,''),$5,$6,$7);`

	_, err := execSQL(ctx, r.pool, tx, q, e.ID, e.UserID, e.OfferID, e.DeviceID, string(e.State), e.ClaimedAt, e.ExpiresAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrDailyLimitExceeded
		}
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *entitlementRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Entitlement, error) {
	const q = `SELECT ` + entitlementCols + ` FROM entitlements WHERE id=$1;`
	return r.queryOne(ctx, tx, q, id)
}

func (r *entitlementRepo) Update(ctx context.Context, tx repository.Tx, e *model.Entitlement) error {
	const q = `
UPDATE entitlements
   SET state=$2, used_at=$3, voided_at=$4, updated_at=NOW()
 WHERE id=$1;`

	tag, err := execSQL(ctx, r.pool, tx, q, e.ID, string(e.State), e.UsedAt, e.VoidedAt)
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

func (r *entitlementRepo) FindByUser(ctx context.Context, tx repository.Tx, userID string, state model.EntitlementState) ([]*model.Entitlement, error) {
	q := `SELECT ` + entitlementCols + ` FROM entitlements WHERE user_id=$1`
	args := []interface{}{userID}
	if state != "" {
		q += ` AND state=$2`
		args = append(args, string(state))
	}
	q += ` ORDER BY claimed_at DESC;`

	rows, err := queryRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.Entitlement
	for rows.Next() {
		e, err := scanEntitlement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func (r *entitlementRepo) MarkLapsedExpired(ctx context.Context, tx repository.Tx, now time.Time) (int64, error) {
	const q = `
UPDATE entitlements
   SET state='expired', updated_at=NOW()
 WHERE state IN ('active','pending_confirmation')
   AND expires_at < $1;`

	tag, err := execSQL(ctx, r.pool, tx, q, now)
	if err != nil {
		return 0, domain.ErrOperationFailed
	}
	return tag.RowsAffected(), nil
}

func (r *entitlementRepo) queryOne(ctx context.Context, tx repository.Tx, sql string, args ...interface{}) (*model.Entitlement, error) {
	row, err := pickRow(ctx, r.pool, tx, sql, args...)
	if err != nil {
		return nil, err
	}
	return scanEntitlement(row)
}

func scanEntitlement(row pgx.Row) (*model.Entitlement, error) {
	e := &model.Entitlement{}
	var state string
	if err := row.Scan(&e.ID, &e.UserID, &e.OfferID, &e.DeviceID, &state, &e.ClaimedAt, &e.ExpiresAt, &e.UsedAt, &e.VoidedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	e.State = model.EntitlementState(state)
	return e, nil
}
