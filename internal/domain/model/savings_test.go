package model

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"campus-perks/internal/domain"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestComputeSavings_Percentage(t *testing.T) {
	t.Parallel()

	s, err := ComputeSavings(PercentagePricing{Percent: dec("20")}, dec("100.00"), nil)
	if err != nil {
		t.Fatalf("ComputeSavings returned error: %v", err)
	}
	if !s.Discount.Equal(dec("20.00")) {
		t.Fatalf("expected discount 20.00 got %s", s.Discount)
	}
	if !s.Final.Equal(dec("80.00")) {
		t.Fatalf("expected final 80.00 got %s", s.Final)
	}
	if !s.Discount.Add(s.Final).Equal(dec("100.00")) {
		t.Fatalf("discount+final != bill: %s + %s", s.Discount, s.Final)
	}
}

func TestComputeSavings_PercentageRoundsHalfEven(t *testing.T) {
	t.Parallel()

	// 50% of 0.05 is 0.025; banker's rounding gives 0.02, not 0.03.
	s, err := ComputeSavings(PercentagePricing{Percent: dec("50")}, dec("0.05"), nil)
	if err != nil {
		t.Fatalf("ComputeSavings returned error: %v", err)
	}
	if !s.Discount.Equal(dec("0.02")) {
		t.Fatalf("expected discount 0.02 got %s", s.Discount)
	}
	if !s.Final.Equal(dec("0.03")) {
		t.Fatalf("expected final 0.03 got %s", s.Final)
	}
}

func TestComputeSavings_Bogo(t *testing.T) {
	t.Parallel()

	s, err := ComputeSavings(BogoPricing{ItemPrice: dec("50.00")}, dec("100.00"), nil)
	if err != nil {
		t.Fatalf("ComputeSavings returned error: %v", err)
	}
	if !s.Discount.Equal(dec("50.00")) || !s.Final.Equal(dec("50.00")) {
		t.Fatalf("expected 50.00/50.00 got %s/%s", s.Discount, s.Final)
	}
}

func TestComputeSavings_BogoCappedAtBill(t *testing.T) {
	t.Parallel()

	s, err := ComputeSavings(BogoPricing{ItemPrice: dec("50.00")}, dec("30.00"), nil)
	if err != nil {
		t.Fatalf("ComputeSavings returned error: %v", err)
	}
	if !s.Discount.Equal(dec("30.00")) {
		t.Fatalf("expected discount capped at 30.00 got %s", s.Discount)
	}
	if !s.Final.IsZero() {
		t.Fatalf("expected final 0 got %s", s.Final)
	}
}

func TestComputeSavings_Bundle(t *testing.T) {
	t.Parallel()

	pricing := BundlePricing{OriginalPrice: dec("100.00"), BundlePrice: dec("75.00")}
	for _, bill := range []string{"100.00", "80.00", "120.00"} {
		s, err := ComputeSavings(pricing, dec(bill), nil)
		if err != nil {
			t.Fatalf("bill %s: %v", bill, err)
		}
		if !s.Discount.Equal(dec("25.00")) || !s.Final.Equal(dec("75.00")) {
			t.Fatalf("bill %s: expected 25.00/75.00 got %s/%s", bill, s.Discount, s.Final)
		}
	}
}

func TestComputeSavings_BundleNegativeDiscountRejected(t *testing.T) {
	t.Parallel()

	_, err := ComputeSavings(BundlePricing{OriginalPrice: dec("50.00"), BundlePrice: dec("75.00")}, dec("75.00"), nil)
	if !errors.Is(err, domain.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount got %v", err)
	}
}

func TestComputeSavings_NegativeBillRejected(t *testing.T) {
	t.Parallel()

	_, err := ComputeSavings(PercentagePricing{Percent: dec("20")}, dec("-1.00"), nil)
	if !errors.Is(err, domain.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount got %v", err)
	}
}

func TestComputeSavings_Override(t *testing.T) {
	t.Parallel()

	override := dec("70.00")
	s, err := ComputeSavings(PercentagePricing{Percent: dec("20")}, dec("100.00"), &override)
	if err != nil {
		t.Fatalf("ComputeSavings returned error: %v", err)
	}
	if !s.Overridden {
		t.Fatalf("expected Overridden flag")
	}
	if !s.Final.Equal(dec("70.00")) {
		t.Fatalf("expected final 70.00 got %s", s.Final)
	}
	if !s.Discount.Equal(dec("30.00")) {
		t.Fatalf("expected discount recomputed to 30.00 got %s", s.Discount)
	}
}

func TestComputeSavings_OverrideAboveBillRejected(t *testing.T) {
	t.Parallel()

	override := dec("130.00")
	_, err := ComputeSavings(PercentagePricing{Percent: dec("20")}, dec("100.00"), &override)
	if !errors.Is(err, domain.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount got %v", err)
	}
}
