package model

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// ProofToken is the ephemeral payload stored against a token value. It lives
// only in the token store and is consumed on first successful validation.
type ProofToken struct {
	EntitlementID string    `json:"entitlement_id"`
	UserID        string    `json:"user_id"`
	OfferID       string    `json:"offer_id"`
	DeviceID      string    `json:"device_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewProofTokenValue returns a 256-bit random token encoded as hex. The token
// value doubles as the store key, so it must be unguessable.
func NewProofTokenValue() (string, error) {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}
