package model

import (
	"fmt"

	"github.com/shopspring/decimal"

	"campus-perks/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// Savings is the financial outcome of a confirmation.
type Savings struct {
	Discount   decimal.Decimal
	Final      decimal.Decimal
	Overridden bool // final came from a merchant override, not the formula
}

// ComputeSavings maps an offer's pricing configuration and the captured bill
// to (discount, final). All results are rounded to currency precision with
// banker's rounding; negative outcomes are rejected, never clamped.
//
// When override is non-nil it wins: final = override and the discount is
// recomputed as bill - final. This is the merchant escape hatch for edge
// cases and is flagged so callers can log it distinctly.
func ComputeSavings(p Pricing, bill decimal.Decimal, override *decimal.Decimal) (Savings, error) {
	if bill.IsNegative() {
		return Savings{}, fmt.Errorf("bill amount %s: %w", bill, domain.ErrInvalidAmount)
	}
	bill = bill.RoundBank(2)

	if override != nil {
		final := override.RoundBank(2)
		discount := bill.Sub(final)
		if final.IsNegative() || discount.IsNegative() {
			return Savings{}, fmt.Errorf("override %s against bill %s: %w", final, bill, domain.ErrInvalidAmount)
		}
		return Savings{Discount: discount, Final: final, Overridden: true}, nil
	}

	var discount, final decimal.Decimal
	switch pr := p.(type) {
	case PercentagePricing:
		discount = bill.Mul(pr.Percent).Div(hundred).RoundBank(2)
		final = bill.Sub(discount)
	case BogoPricing:
		discount = pr.ItemPrice.RoundBank(2)
		if discount.GreaterThan(bill) {
			discount = bill // cannot exceed the bill
		}
		final = bill.Sub(discount)
	case BundlePricing:
		// The bundle replaces the bill: discount and final derive solely from
		// the configured prices, whatever total the merchant keyed in. The
		// captured bill is still recorded for audit; callers flag divergence.
		discount = pr.OriginalPrice.Sub(pr.BundlePrice).RoundBank(2)
		final = pr.BundlePrice.RoundBank(2)
	default:
		return Savings{}, fmt.Errorf("unknown pricing %T: %w", p, domain.ErrInvalidArgument)
	}

	if discount.IsNegative() || final.IsNegative() {
		return Savings{}, fmt.Errorf("computed discount %s / final %s: %w", discount, final, domain.ErrInvalidAmount)
	}
	return Savings{Discount: discount, Final: final}, nil
}
