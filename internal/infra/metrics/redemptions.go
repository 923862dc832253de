package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	claimsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "perks_claims_total",
			Help: "Claim attempts by outcome (ok, daily_limit, not_eligible).",
		},
		[]string{"outcome"},
	)

	proofsIssuedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "perks_proofs_issued_total",
			Help: "Proof tokens issued.",
		},
	)

	proofValidationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "perks_proof_validations_total",
			Help: "Proof validation attempts by result.",
		},
		[]string{"result"},
	)

	confirmedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "perks_redemptions_confirmed_total",
			Help: "Confirmed redemptions by offer type.",
		},
		[]string{"offer_type"},
	)

	voidedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "perks_redemptions_voided_total",
			Help: "Voided redemptions.",
		},
	)

	savingsAmount = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "perks_savings_amount",
			Help:    "Per-redemption savings distribution in currency units.",
			Buckets: []float64{1, 2.5, 5, 10, 25, 50, 100, 250, 500},
		},
	)

	eventsEmittedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "perks_events_emitted_total",
			Help: "Lifecycle events emitted by type.",
		},
		[]string{"type"},
	)

	entitlementsExpiredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "perks_entitlements_expired_total",
			Help: "Entitlements rewritten to expired by the housekeeping sweep.",
		},
	)
)

func init() {
	register(
		claimsTotal,
		proofsIssuedTotal,
		proofValidationsTotal,
		confirmedTotal,
		voidedTotal,
		savingsAmount,
		eventsEmittedTotal,
		entitlementsExpiredTotal,
	)
}

func IncClaim(outcome string)          { claimsTotal.WithLabelValues(outcome).Inc() }
func IncProofIssued()                  { proofsIssuedTotal.Inc() }
func IncProofValidation(result string) { proofValidationsTotal.WithLabelValues(result).Inc() }
func IncConfirmed(offerType string)    { confirmedTotal.WithLabelValues(offerType).Inc() }
func IncVoided()                       { voidedTotal.Inc() }
func ObserveSavings(amount float64)    { savingsAmount.Observe(amount) }
func IncEventEmitted(t string)         { eventsEmittedTotal.WithLabelValues(t).Inc() }

func IncEntitlementsExpired(n int64) {
	entitlementsExpiredTotal.Add(float64(n))
}
