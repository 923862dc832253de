package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"campus-perks/internal/domain"
	"campus-perks/internal/domain/model"
	"campus-perks/internal/infra/logging"
)

type claimRequest struct {
	DeviceID string `json:"device_id,omitempty"`
}

func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	var req claimRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	res, err := s.engine.Claim(r.Context(), userIDFrom(r), chi.URLParam(r, "offerID"), req.DeviceID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleIssueProof(w http.ResponseWriter, r *http.Request) {
	res, err := s.engine.IssueProof(r.Context(), chi.URLParam(r, "id"), userIDFrom(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleCancelValidation(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.CancelValidation(r.Context(), chi.URLParam(r, "id"), userIDFrom(r)); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetEntitlement(w http.ResponseWriter, r *http.Request) {
	ent, err := s.engine.GetEntitlement(r.Context(), chi.URLParam(r, "id"), userIDFrom(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entitlementResponse(ent))
}

func (s *Server) handleListEntitlements(w http.ResponseWriter, r *http.Request) {
	state := model.EntitlementState(r.URL.Query().Get("state"))
	ents, err := s.engine.ListUserEntitlements(r.Context(), userIDFrom(r), state)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]map[string]interface{}, 0, len(ents))
	for _, e := range ents {
		out = append(out, entitlementResponse(e))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"entitlements": out})
}

type validateRequest struct {
	ProofToken string `json:"proof_token"`
}

func (s *Server) handleValidateProof(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProofToken == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	res, err := s.engine.ValidateProof(r.Context(), req.ProofToken)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	// FAIL is a normal outcome of the protocol, still a 200.
	writeJSON(w, http.StatusOK, res)
}

type confirmRequest struct {
	TotalBillAmount  decimal.Decimal  `json:"total_bill_amount"`
	DiscountedAmount *decimal.Decimal `json:"discounted_amount,omitempty"`
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	res, err := s.engine.Confirm(r.Context(), chi.URLParam(r, "id"), req.TotalBillAmount, req.DiscountedAmount)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

type voidRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) handleVoid(w http.ResponseWriter, r *http.Request) {
	var req voidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	res, err := s.engine.Void(r.Context(), chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleMerchantRedemptions(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	reds, err := s.engine.ListMerchantRedemptions(r.Context(), chi.URLParam(r, "merchantID"), from, to)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]map[string]interface{}, 0, len(reds))
	for _, red := range reds {
		out = append(out, redemptionResponse(red))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"redemptions": out})
}

func parseRange(r *http.Request) (time.Time, time.Time, error) {
	now := time.Now()
	from, to := now.AddDate(0, 0, -30), now
	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("invalid 'from' timestamp")
		}
		from = t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("invalid 'to' timestamp")
		}
		to = t
	}
	return from, to, nil
}

func entitlementResponse(e *model.Entitlement) map[string]interface{} {
	return map[string]interface{}{
		"id":         e.ID,
		"offer_id":   e.OfferID,
		"state":      e.State,
		"claimed_at": e.ClaimedAt,
		"expires_at": e.ExpiresAt,
		"used_at":    e.UsedAt,
		"voided_at":  e.VoidedAt,
	}
}

func redemptionResponse(red *model.Redemption) map[string]interface{} {
	return map[string]interface{}{
		"id":                red.ID,
		"entitlement_id":    red.EntitlementID,
		"offer_id":          red.OfferID,
		"user_id":           red.UserID,
		"total_bill_amount": red.TotalBillAmount,
		"discount_amount":   red.DiscountAmount,
		"final_amount":      red.FinalAmount,
		"offer_type":        red.OfferType,
		"redeemed_at":       red.RedeemedAt,
		"is_voided":         red.IsVoided,
		"voided_at":         red.VoidedAt,
		"void_reason":       red.VoidReason,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto HTTP statuses; infrastructure errors
// stay opaque 500s.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrInvalidAmount):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotOwner):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrInvalidToken):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrDailyLimitExceeded), errors.Is(err, domain.ErrInvalidState):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrExpired):
		status = http.StatusGone
	case errors.Is(err, domain.ErrOfferNotEligible),
		errors.Is(err, domain.ErrVoidWindowExpired),
		errors.Is(err, domain.ErrVoidWrongDay):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		logging.With(r.Context(), s.log).Error().Err(err).Msg("request failed")
		http.Error(w, "Internal server error", status)
		return
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
