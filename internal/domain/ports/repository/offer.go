package repository

import (
	"context"

	"campus-perks/internal/domain/model"
)

// OfferRepository reads catalog snapshots. The catalog is externally owned;
// this core never writes through this port.
type OfferRepository interface {
	FindByID(ctx context.Context, tx Tx, id string) (*model.Offer, error)
}
