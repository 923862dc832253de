// File: internal/usecase/redemption_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"campus-perks/internal/domain"
	"campus-perks/internal/domain/model"
	"campus-perks/internal/domain/ports/adapter"
	"campus-perks/internal/domain/ports/repository"
	ucport "campus-perks/internal/domain/ports/usecase"
	"campus-perks/internal/infra/metrics"
)

var _ ucport.RedemptionEngine = (*RedemptionUseCase)(nil)

// RedemptionUseCase orchestrates the entitlement lifecycle: claim, proof
// issuance, merchant validation, confirmation, and void. All cross-request
// coordination happens through the ledger and the token store; the engine
// itself keeps no shared state and is safe to invoke from any goroutine.
type RedemptionUseCase struct {
	ents    repository.EntitlementRepository
	reds    repository.RedemptionRepository
	offers  repository.OfferRepository
	tokens  repository.TokenStore
	txm     repository.TransactionManager
	emitter adapter.EventEmitter

	sm       *model.StateMachine
	loc      *time.Location
	proofTTL time.Duration
	log      *zerolog.Logger
}

func NewRedemptionUseCase(
	ents repository.EntitlementRepository,
	reds repository.RedemptionRepository,
	offers repository.OfferRepository,
	tokens repository.TokenStore,
	txm repository.TransactionManager,
	emitter adapter.EventEmitter,
	loc *time.Location,
	proofTTL, voidWindow time.Duration,
	logger *zerolog.Logger,
) *RedemptionUseCase {
	if loc == nil {
		loc = time.UTC
	}
	if proofTTL <= 0 {
		proofTTL = 30 * time.Second
	}
	l := logger.With().Str("component", "RedemptionUseCase").Logger()
	return &RedemptionUseCase{
		ents:     ents,
		reds:     reds,
		offers:   offers,
		tokens:   tokens,
		txm:      txm,
		emitter:  emitter,
		sm:       model.NewStateMachine(loc, voidWindow),
		loc:      loc,
		proofTTL: proofTTL,
		log:      &l,
	}
}

// Claim grants the user a single-use entitlement for the offer, enforcing the
// one-per-day quota. The Redis marker is only a fast path; the ledger's
// unique constraint is the authoritative guard, so a constraint violation is
// an expected outcome and maps to ErrDailyLimitExceeded without retry.
func (uc *RedemptionUseCase) Claim(ctx context.Context, userID, offerID, deviceID string) (*ucport.ClaimResult, error) {
	if userID == "" || offerID == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()

	offer, err := uc.offers.FindByID(ctx, repository.NoTX, offerID)
	if err != nil {
		return nil, fmt.Errorf("claim: load offer: %w", err)
	}
	if ok, reason := offer.EligibleAt(now); !ok {
		metrics.IncClaim("not_eligible")
		return nil, fmt.Errorf("claim: %s: %w", reason, domain.ErrOfferNotEligible)
	}

	day := model.DayKey(now, uc.loc)
	if has, err := uc.tokens.HasDailyMarker(ctx, userID, offerID, day); err != nil {
		// Advisory layer only; the ledger constraint still protects us.
		uc.log.Warn().Err(err).Msg("daily marker check failed, falling through to ledger")
	} else if has {
		metrics.IncClaim("daily_limit")
		return nil, fmt.Errorf("claim: %w", domain.ErrDailyLimitExceeded)
	}

	ent, err := model.NewEntitlement(uuid.NewString(), userID, offerID, deviceID, now, uc.loc)
	if err != nil {
		return nil, fmt.Errorf("claim: %w", err)
	}
	if err := uc.ents.Insert(ctx, repository.NoTX, ent); err != nil {
		if errors.Is(err, domain.ErrDailyLimitExceeded) {
			metrics.IncClaim("daily_limit")
		}
		return nil, fmt.Errorf("claim: %w", err)
	}

	if err := uc.tokens.SetDailyMarker(ctx, userID, offerID, day, time.Until(ent.ExpiresAt)); err != nil {
		uc.log.Warn().Err(err).Str("entitlement_id", ent.ID).Msg("daily marker write failed")
	}

	metrics.IncClaim("ok")
	uc.emit(ctx, adapter.EventClaim, map[string]interface{}{
		"entitlement_id": ent.ID,
		"user_id":        ent.UserID,
		"offer_id":       ent.OfferID,
		"device_id":      ent.DeviceID,
		"expires_at":     ent.ExpiresAt,
	})
	return &ucport.ClaimResult{EntitlementID: ent.ID, ExpiresAt: ent.ExpiresAt}, nil
}

// IssueProof mints a short-lived single-use token for an ACTIVE entitlement
// owned by the caller. The entitlement itself is not mutated.
func (uc *RedemptionUseCase) IssueProof(ctx context.Context, entitlementID, userID string) (*ucport.ProofResult, error) {
	now := time.Now()
	ent, err := uc.ents.FindByID(ctx, repository.NoTX, entitlementID)
	if err != nil {
		return nil, fmt.Errorf("issue proof: %w", err)
	}
	if ent.UserID != userID {
		return nil, fmt.Errorf("issue proof: %w", domain.ErrNotOwner)
	}
	switch eff := uc.sm.EffectiveState(ent, now); eff {
	case model.StateActive:
		// ok
	case model.StateExpired:
		return nil, fmt.Errorf("issue proof: %w", domain.ErrExpired)
	default:
		return nil, fmt.Errorf("issue proof: state %q: %w", eff, domain.ErrInvalidState)
	}

	token, err := model.NewProofTokenValue()
	if err != nil {
		return nil, fmt.Errorf("issue proof: generate token: %w", err)
	}
	payload := &model.ProofToken{
		EntitlementID: ent.ID,
		UserID:        ent.UserID,
		OfferID:       ent.OfferID,
		DeviceID:      ent.DeviceID,
		CreatedAt:     now,
	}
	if err := uc.tokens.PutProof(ctx, token, payload, uc.proofTTL); err != nil {
		return nil, fmt.Errorf("issue proof: %w", err)
	}

	metrics.IncProofIssued()
	return &ucport.ProofResult{
		Token:      token,
		ExpiresAt:  now.Add(uc.proofTTL),
		TTLSeconds: int(uc.proofTTL / time.Second),
	}, nil
}

// ValidateProof consumes the token (atomic read-and-delete) and moves the
// entitlement ACTIVE -> PENDING_CONFIRMATION. A miss is a normal outcome and
// yields a FAIL result, not an error. Once consumed the token is never
// restored, even when a later guard fails: re-issuing a fresh proof is the
// only recovery path, which keeps replay off the table.
func (uc *RedemptionUseCase) ValidateProof(ctx context.Context, token string) (*ucport.ValidationResult, error) {
	now := time.Now()
	payload, err := uc.tokens.ConsumeProof(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidToken) {
			metrics.IncProofValidation("invalid_token")
			return &ucport.ValidationResult{Status: ucport.ValidationFail, Reason: "invalid or expired token"}, nil
		}
		return nil, fmt.Errorf("validate proof: %w", err)
	}

	ent, err := uc.ents.FindByID(ctx, repository.NoTX, payload.EntitlementID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			metrics.IncProofValidation("missing_entitlement")
			return &ucport.ValidationResult{Status: ucport.ValidationFail, Reason: "entitlement not found"}, nil
		}
		return nil, fmt.Errorf("validate proof: %w", err)
	}

	if err := uc.sm.BeginValidation(ent, now); err != nil {
		metrics.IncProofValidation("guard_failed")
		return &ucport.ValidationResult{
			Status:        ucport.ValidationFail,
			Reason:        err.Error(),
			EntitlementID: ent.ID,
		}, nil
	}
	if err := uc.ents.Update(ctx, repository.NoTX, ent); err != nil {
		return nil, fmt.Errorf("validate proof: persist transition: %w", err)
	}

	res := &ucport.ValidationResult{Status: ucport.ValidationPass, EntitlementID: ent.ID}
	if offer, err := uc.offers.FindByID(ctx, repository.NoTX, ent.OfferID); err != nil {
		uc.log.Warn().Err(err).Str("offer_id", ent.OfferID).Msg("display fields unavailable")
	} else {
		res.Display = &ucport.ValidationDisplay{
			OfferTitle:   offer.Title,
			MerchantName: offer.MerchantName,
			OfferType:    offer.Pricing.OfferType(),
		}
	}
	metrics.IncProofValidation("pass")
	return res, nil
}

// CancelValidation is the explicit PENDING_CONFIRMATION -> ACTIVE exit, used
// when the merchant abandons a scan before confirming.
func (uc *RedemptionUseCase) CancelValidation(ctx context.Context, entitlementID, userID string) error {
	now := time.Now()
	ent, err := uc.ents.FindByID(ctx, repository.NoTX, entitlementID)
	if err != nil {
		return fmt.Errorf("cancel validation: %w", err)
	}
	if ent.UserID != userID {
		return fmt.Errorf("cancel validation: %w", domain.ErrNotOwner)
	}
	if err := uc.sm.CancelValidation(ent, now); err != nil {
		return fmt.Errorf("cancel validation: %w", err)
	}
	if err := uc.ents.Update(ctx, repository.NoTX, ent); err != nil {
		return fmt.Errorf("cancel validation: %w", err)
	}
	return nil
}

// Confirm computes the savings, moves PENDING_CONFIRMATION -> USED and writes
// the redemption record. The state transition and the redemption insert
// commit in one transaction: a failure leaves the entitlement untransitioned.
func (uc *RedemptionUseCase) Confirm(ctx context.Context, entitlementID string, bill decimal.Decimal, override *decimal.Decimal) (*ucport.ConfirmResult, error) {
	now := time.Now()
	ent, err := uc.ents.FindByID(ctx, repository.NoTX, entitlementID)
	if err != nil {
		return nil, fmt.Errorf("confirm: %w", err)
	}
	offer, err := uc.offers.FindByID(ctx, repository.NoTX, ent.OfferID)
	if err != nil {
		return nil, fmt.Errorf("confirm: load offer: %w", err)
	}

	savings, err := model.ComputeSavings(offer.Pricing, bill, override)
	if err != nil {
		return nil, fmt.Errorf("confirm: %w", err)
	}
	if err := uc.sm.Confirm(ent, bill, now); err != nil {
		return nil, fmt.Errorf("confirm: %w", err)
	}

	red := &model.Redemption{
		ID:              uuid.NewString(),
		EntitlementID:   ent.ID,
		MerchantID:      offer.MerchantID,
		OfferID:         ent.OfferID,
		UserID:          ent.UserID,
		TotalBillAmount: bill.RoundBank(2),
		DiscountAmount:  savings.Discount,
		FinalAmount:     savings.Final,
		OfferType:       offer.Pricing.OfferType(),
		RedeemedAt:      *ent.UsedAt,
	}
	err = uc.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := uc.ents.Update(ctx, tx, ent); err != nil {
			return err
		}
		return uc.reds.Insert(ctx, tx, red)
	})
	if err != nil {
		return nil, fmt.Errorf("confirm: %w", err)
	}

	if savings.Overridden {
		uc.log.Warn().
			Str("entitlement_id", ent.ID).
			Str("final", savings.Final.String()).
			Str("discount", savings.Discount.String()).
			Msg("merchant override applied instead of pricing formula")
	}
	if !savings.Overridden && !savings.Discount.Add(savings.Final).Equal(red.TotalBillAmount) {
		// Only bundle pricing can get here: its amounts come from the
		// configured prices, not the bill the merchant keyed in.
		uc.log.Warn().
			Str("entitlement_id", ent.ID).
			Str("bill", red.TotalBillAmount.String()).
			Str("discount", savings.Discount.String()).
			Str("final", savings.Final.String()).
			Msg("captured bill diverges from offer pricing")
	}

	metrics.IncConfirmed(string(red.OfferType))
	metrics.ObserveSavings(savings.Discount.InexactFloat64())
	uc.emit(ctx, adapter.EventRedemptionConfirmed, map[string]interface{}{
		"redemption_id":  red.ID,
		"entitlement_id": ent.ID,
		"user_id":        ent.UserID,
		"offer_id":       ent.OfferID,
		"merchant_id":    red.MerchantID,
		"savings":        savings.Discount.String(),
		"final_amount":   savings.Final.String(),
	})
	return &ucport.ConfirmResult{
		RedemptionID:   red.ID,
		DiscountAmount: savings.Discount,
		FinalAmount:    savings.Final,
		Savings:        savings.Discount,
	}, nil
}

// Void reverses a redemption inside the reversal window (same calendar day,
// within the configured duration of UsedAt). The entitlement flip and the
// redemption void fields commit together. The daily marker is cleared so the
// ledger's voided-rows exclusion can permit one corrective re-claim.
func (uc *RedemptionUseCase) Void(ctx context.Context, entitlementID, reason string) (*ucport.VoidResult, error) {
	if reason == "" {
		return nil, fmt.Errorf("void: reason is required: %w", domain.ErrInvalidArgument)
	}
	now := time.Now()
	ent, err := uc.ents.FindByID(ctx, repository.NoTX, entitlementID)
	if err != nil {
		return nil, fmt.Errorf("void: %w", err)
	}
	if err := uc.sm.Void(ent, now); err != nil {
		return nil, fmt.Errorf("void: %w", err)
	}

	err = uc.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := uc.ents.Update(ctx, tx, ent); err != nil {
			return err
		}
		return uc.reds.MarkVoided(ctx, tx, ent.ID, reason, *ent.VoidedAt)
	})
	if err != nil {
		return nil, fmt.Errorf("void: %w", err)
	}

	day := model.DayKey(ent.ClaimedAt, uc.loc)
	if err := uc.tokens.ClearDailyMarker(ctx, ent.UserID, ent.OfferID, day); err != nil {
		uc.log.Warn().Err(err).Str("entitlement_id", ent.ID).Msg("daily marker clear failed")
	}

	metrics.IncVoided()
	uc.emit(ctx, adapter.EventRedemptionVoided, map[string]interface{}{
		"entitlement_id": ent.ID,
		"user_id":        ent.UserID,
		"offer_id":       ent.OfferID,
		"reason":         reason,
		"voided_at":      *ent.VoidedAt,
	})
	return &ucport.VoidResult{VoidedAt: *ent.VoidedAt}, nil
}

// GetEntitlement returns the caller's entitlement with lazy expiry applied.
func (uc *RedemptionUseCase) GetEntitlement(ctx context.Context, entitlementID, userID string) (*model.Entitlement, error) {
	ent, err := uc.ents.FindByID(ctx, repository.NoTX, entitlementID)
	if err != nil {
		return nil, err
	}
	if ent.UserID != userID {
		return nil, domain.ErrNotOwner
	}
	ent.State = uc.sm.EffectiveState(ent, time.Now())
	return ent, nil
}

// ListUserEntitlements returns the user's entitlements, optionally filtered
// by state, with lazy expiry applied to each row.
func (uc *RedemptionUseCase) ListUserEntitlements(ctx context.Context, userID string, state model.EntitlementState) ([]*model.Entitlement, error) {
	// Filter after the lazy expiry rewrite, not in SQL: a lapsed row whose
	// persisted state still reads "active" must surface as expired.
	ents, err := uc.ents.FindByUser(ctx, repository.NoTX, userID, "")
	if err != nil {
		return nil, err
	}
	now := time.Now()
	out := ents[:0]
	for _, e := range ents {
		e.State = uc.sm.EffectiveState(e, now)
		if state != "" && e.State != state {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// ListMerchantRedemptions is the validator history read path.
func (uc *RedemptionUseCase) ListMerchantRedemptions(ctx context.Context, merchantID string, from, to time.Time) ([]*model.Redemption, error) {
	return uc.reds.ListByMerchant(ctx, repository.NoTX, merchantID, from, to)
}

// SweepExpired rewrites persisted state of lapsed rows. Reporting hygiene
// only; every guard re-derives expiry from ExpiresAt.
func (uc *RedemptionUseCase) SweepExpired(ctx context.Context) (int64, error) {
	return uc.ents.MarkLapsedExpired(ctx, repository.NoTX, time.Now())
}

func (uc *RedemptionUseCase) emit(ctx context.Context, t adapter.EventType, payload map[string]interface{}) {
	if uc.emitter == nil {
		return
	}
	uc.emitter.Emit(ctx, adapter.Event{Type: t, OccurredAt: time.Now(), Payload: payload})
}
