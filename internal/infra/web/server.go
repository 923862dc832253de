package web

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	ucport "campus-perks/internal/domain/ports/usecase"
	"campus-perks/internal/infra/logging"
)

// Server exposes the redemption boundary over HTTP.
//
// Student-side routes trust the X-User-ID header: authentication lives in the
// identity layer upstream, which verifies the caller and forwards the opaque
// user id. Merchant-side routes use a bearer key.
type Server struct {
	engine ucport.RedemptionEngine
	apiKey string
	log    *zerolog.Logger
}

func NewServer(engine ucport.RedemptionEngine, merchantAPIKey string, logger *zerolog.Logger) *Server {
	l := logger.With().Str("component", "web").Logger()
	return &Server{engine: engine, apiKey: merchantAPIKey, log: &l}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.traceMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Student-facing surface.
		r.Group(func(r chi.Router) {
			r.Use(s.identityMiddleware)
			r.Post("/offers/{offerID}/claim", s.handleClaim)
			r.Get("/entitlements", s.handleListEntitlements)
			r.Get("/entitlements/{id}", s.handleGetEntitlement)
			r.Post("/entitlements/{id}/proof", s.handleIssueProof)
			r.Post("/entitlements/{id}/cancel", s.handleCancelValidation)
		})

		// Merchant-facing surface (validator PWA).
		r.Group(func(r chi.Router) {
			r.Use(s.merchantAuthMiddleware)
			r.Post("/validate", s.handleValidateProof)
			r.Post("/entitlements/{id}/confirm", s.handleConfirm)
			r.Post("/entitlements/{id}/void", s.handleVoid)
			r.Get("/merchants/{merchantID}/redemptions", s.handleMerchantRedemptions)
		})
	})
	return r
}

type ctxKey string

const ctxUserID ctxKey = "user_id"

// traceMiddleware copies the request id into the logging context so every
// record written for this request carries a trace_id.
func (s *Server) traceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reqID := middleware.GetReqID(r.Context()); reqID != "" {
			r = r.WithContext(logging.WithTraceID(r.Context(), reqID))
		}
		next.ServeHTTP(w, r)
	})
}

// identityMiddleware extracts the verified user id forwarded by the identity
// layer. Requests without it never reach a handler.
func (s *Server) identityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get("X-User-ID")
		if userID == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), ctxUserID, userID)
		ctx = logging.WithUserID(ctx, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userIDFrom(r *http.Request) string {
	v, _ := r.Context().Value(ctxUserID).(string)
	return v
}

// merchantAuthMiddleware provides simple bearer token authentication for the
// merchant API.
func (s *Server) merchantAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey == "" {
			s.log.Error().Msg("merchant API key is not configured")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || strings.ToLower(tokenParts[0]) != "bearer" {
			http.Error(w, "Unauthorized: Malformed token", http.StatusUnauthorized)
			return
		}
		if tokenParts[1] != s.apiKey {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
