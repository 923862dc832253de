package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shopspring/decimal"

	"campus-perks/internal/domain"
	"campus-perks/internal/domain/model"
	"campus-perks/internal/domain/ports/repository"
)

var _ repository.OfferRepository = (*offerRepo)(nil)

// offerRepo reads catalog snapshots. The catalog tables are owned by the
// offers service; this repo never writes them.
type offerRepo struct {
	pool *pgxpool.Pool
}

func NewOfferRepo(pool *pgxpool.Pool) *offerRepo {
	return &offerRepo{pool: pool}
}

func (r *offerRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Offer, error) {
	const q = `
SELECT o.id, o.merchant_id, m.name, o.title, o.offer_type,
       o.percentage_value::text, o.item_price::text, o.original_price::text, o.bundle_price::text,
       o.starts_at, o.ends_at, o.is_active
  FROM offers o
  JOIN merchants m ON m.id = o.merchant_id
 WHERE o.id=$1;`

	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}

	o := &model.Offer{}
	var offerType string
	var pct, item, orig, bundle *string
	if err := row.Scan(&o.ID, &o.MerchantID, &o.MerchantName, &o.Title, &offerType,
		&pct, &item, &orig, &bundle, &o.StartsAt, &o.EndsAt, &o.Active); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}

	pricing, err := buildPricing(model.OfferType(offerType), pct, item, orig, bundle)
	if err != nil {
		return nil, err
	}
	o.Pricing = pricing
	return o, nil
}

// buildPricing maps the catalog's flat pricing columns onto the tagged
// Pricing variant for the offer type. Missing fields for the declared type
// are a data error, not a zero value.
func buildPricing(t model.OfferType, pct, item, orig, bundle *string) (model.Pricing, error) {
	switch t {
	case model.OfferTypePercentage:
		v, err := parseNumeric(pct)
		if err != nil {
			return nil, err
		}
		return model.PercentagePricing{Percent: v}, nil
	case model.OfferTypeBogo:
		v, err := parseNumeric(item)
		if err != nil {
			return nil, err
		}
		return model.BogoPricing{ItemPrice: v}, nil
	case model.OfferTypeBundle:
		op, err := parseNumeric(orig)
		if err != nil {
			return nil, err
		}
		bp, err := parseNumeric(bundle)
		if err != nil {
			return nil, err
		}
		return model.BundlePricing{OriginalPrice: op, BundlePrice: bp}, nil
	default:
		return nil, domain.ErrReadDatabaseRow
	}
}

func parseNumeric(s *string) (decimal.Decimal, error) {
	if s == nil {
		return decimal.Decimal{}, domain.ErrReadDatabaseRow
	}
	v, err := decimal.NewFromString(*s)
	if err != nil {
		return decimal.Decimal{}, domain.ErrReadDatabaseRow
	}
	return v, nil
}
