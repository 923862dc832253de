package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OfferType string

const (
	OfferTypePercentage OfferType = "percentage"
	OfferTypeBogo       OfferType = "bogo"
	OfferTypeBundle     OfferType = "bundle"
)

// Pricing is the tagged pricing configuration of an offer. Exactly one
// concrete type exists per OfferType; the savings calculator switches over
// them so a new offer type is a compile-visible change, not a string compare.
type Pricing interface {
	OfferType() OfferType
}

// PercentagePricing discounts a fixed percentage of the bill.
type PercentagePricing struct {
	Percent decimal.Decimal
}

// BogoPricing deducts the recorded price of one unit (buy one, get one).
type BogoPricing struct {
	ItemPrice decimal.Decimal
}

// BundlePricing replaces the bill with a fixed bundle price.
type BundlePricing struct {
	OriginalPrice decimal.Decimal
	BundlePrice   decimal.Decimal
}

func (PercentagePricing) OfferType() OfferType { return OfferTypePercentage }
func (BogoPricing) OfferType() OfferType       { return OfferTypeBogo }
func (BundlePricing) OfferType() OfferType     { return OfferTypeBundle }

// Offer is a read-only snapshot of a catalog record. The redemption core
// consumes it for eligibility and pricing and never writes it back.
type Offer struct {
	ID           string // UUID
	MerchantID   string // UUID
	MerchantName string
	Title        string
	Pricing      Pricing
	StartsAt     *time.Time
	EndsAt       *time.Time
	Active       bool
}

// EligibleAt reports whether the offer can be claimed at the given instant,
// with a human-readable reason when it cannot.
func (o *Offer) EligibleAt(now time.Time) (bool, string) {
	if !o.Active {
		return false, "offer is inactive"
	}
	if o.StartsAt != nil && now.Before(*o.StartsAt) {
		return false, "offer has not started yet"
	}
	if o.EndsAt != nil && now.After(*o.EndsAt) {
		return false, "offer validity window has ended"
	}
	return true, ""
}
