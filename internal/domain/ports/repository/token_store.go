package repository

import (
	"context"
	"time"

	"campus-perks/internal/domain/model"
)

// TokenStore is the port for the ephemeral key/value store holding proof
// tokens and daily claim markers.
type TokenStore interface {
	// PutProof stores the payload under the token value with the given TTL.
	PutProof(ctx context.Context, token string, payload *model.ProofToken, ttl time.Duration) error

	// ConsumeProof atomically reads and deletes the token. A miss (absent or
	// expired) returns domain.ErrInvalidToken. Implementations MUST use a
	// single atomic primitive: check-then-delete is a race and disallowed.
	ConsumeProof(ctx context.Context, token string) (*model.ProofToken, error)

	// SetDailyMarker records an advisory claim marker for (user, offer, day)
	// expiring after ttl. Best-effort in front of the ledger constraint.
	SetDailyMarker(ctx context.Context, userID, offerID, day string, ttl time.Duration) error

	// HasDailyMarker reports whether a marker exists for (user, offer, day).
	HasDailyMarker(ctx context.Context, userID, offerID, day string) (bool, error)

	// ClearDailyMarker removes the marker so a corrective re-claim after a
	// void is not blocked by the advisory layer.
	ClearDailyMarker(ctx context.Context, userID, offerID, day string) error
}
