// File: internal/usecase/mocks_test.go
package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"

	"campus-perks/internal/domain"
	"campus-perks/internal/domain/model"
	"campus-perks/internal/domain/ports/adapter"
	"campus-perks/internal/domain/ports/repository"
)

// memEntitlementRepo mimics the ledger including the partial unique
// constraint over (user, offer, day) excluding voided rows.
type memEntitlementRepo struct {
	mu    sync.Mutex
	store map[string]*model.Entitlement
}

func newMemEntitlementRepo() *memEntitlementRepo {
	return &memEntitlementRepo{store: make(map[string]*model.Entitlement)}
}

func quotaKey(e *model.Entitlement) string {
	return fmt.Sprintf("%s|%s|%s", e.UserID, e.OfferID, model.DayKey(e.ClaimedAt, time.UTC))
}

func (m *memEntitlementRepo) Insert(ctx context.Context, tx repository.Tx, e *model.Entitlement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.store {
		if other.State != model.StateVoided && quotaKey(other) == quotaKey(e) {
			return domain.ErrDailyLimitExceeded
		}
	}
	cp := *e
	m.store[e.ID] = &cp
	return nil
}

func (m *memEntitlementRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Entitlement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *memEntitlementRepo) Update(ctx context.Context, tx repository.Tx, e *model.Entitlement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[e.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *e
	m.store[e.ID] = &cp
	return nil
}

func (m *memEntitlementRepo) FindByUser(ctx context.Context, tx repository.Tx, userID string, state model.EntitlementState) ([]*model.Entitlement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Entitlement
	for _, e := range m.store {
		if e.UserID != userID {
			continue
		}
		if state != "" && e.State != state {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memEntitlementRepo) MarkLapsedExpired(ctx context.Context, tx repository.Tx, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, e := range m.store {
		if !e.State.Terminal() && now.After(e.ExpiresAt) {
			e.State = model.StateExpired
			n++
		}
	}
	return n, nil
}

type memRedemptionRepo struct {
	mu    sync.Mutex
	store map[string]*model.Redemption // by entitlement id
}

func newMemRedemptionRepo() *memRedemptionRepo {
	return &memRedemptionRepo{store: make(map[string]*model.Redemption)}
}

func (m *memRedemptionRepo) Insert(ctx context.Context, tx repository.Tx, r *model.Redemption) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[r.EntitlementID]; ok {
		return domain.ErrOperationFailed
	}
	cp := *r
	m.store[r.EntitlementID] = &cp
	return nil
}

func (m *memRedemptionRepo) FindByEntitlementID(ctx context.Context, tx repository.Tx, entitlementID string) (*model.Redemption, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.store[entitlementID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memRedemptionRepo) MarkVoided(ctx context.Context, tx repository.Tx, entitlementID, reason string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.store[entitlementID]
	if !ok || r.IsVoided {
		return domain.ErrNotFound
	}
	r.IsVoided = true
	r.VoidedAt = &at
	r.VoidReason = &reason
	return nil
}

func (m *memRedemptionRepo) ListByMerchant(ctx context.Context, tx repository.Tx, merchantID string, from, to time.Time) ([]*model.Redemption, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Redemption
	for _, r := range m.store {
		if r.MerchantID != merchantID || r.RedeemedAt.Before(from) || !r.RedeemedAt.Before(to) {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	return out, nil
}

type memOfferRepo struct {
	mu    sync.RWMutex
	store map[string]*model.Offer
}

func newMemOfferRepo(offers ...*model.Offer) *memOfferRepo {
	m := &memOfferRepo{store: make(map[string]*model.Offer)}
	for _, o := range offers {
		m.store[o.ID] = o
	}
	return m
}

func (m *memOfferRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Offer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

type tokenEntry struct {
	payload   model.ProofToken
	expiresAt time.Time
}

// memTokenStore honors TTLs and keeps consume atomic under its lock.
type memTokenStore struct {
	mu      sync.Mutex
	proofs  map[string]tokenEntry
	markers map[string]time.Time
	now     func() time.Time
}

func newMemTokenStore() *memTokenStore {
	return &memTokenStore{
		proofs:  make(map[string]tokenEntry),
		markers: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (m *memTokenStore) PutProof(ctx context.Context, token string, payload *model.ProofToken, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.proofs[token] = tokenEntry{payload: *payload, expiresAt: m.now().Add(ttl)}
	return nil
}

func (m *memTokenStore) ConsumeProof(ctx context.Context, token string) (*model.ProofToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.proofs[token]
	delete(m.proofs, token)
	if !ok || m.now().After(entry.expiresAt) {
		return nil, domain.ErrInvalidToken
	}
	cp := entry.payload
	return &cp, nil
}

func markerID(userID, offerID, day string) string {
	return userID + "|" + offerID + "|" + day
}

func (m *memTokenStore) SetDailyMarker(ctx context.Context, userID, offerID, day string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ttl <= 0 {
		return nil
	}
	m.markers[markerID(userID, offerID, day)] = m.now().Add(ttl)
	return nil
}

func (m *memTokenStore) HasDailyMarker(ctx context.Context, userID, offerID, day string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	exp, ok := m.markers[markerID(userID, offerID, day)]
	return ok && m.now().Before(exp), nil
}

func (m *memTokenStore) ClearDailyMarker(ctx context.Context, userID, offerID, day string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.markers, markerID(userID, offerID, day))
	return nil
}

// memTxManager runs the callback without a real transaction; the mem repos
// are already atomic per call.
type memTxManager struct{}

func (memTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, repository.NoTX)
}

// captureEmitter records emitted events for assertions.
type captureEmitter struct {
	mu     sync.Mutex
	events []adapter.Event
}

func (c *captureEmitter) Emit(ctx context.Context, ev adapter.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func (c *captureEmitter) byType(t adapter.EventType) []adapter.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []adapter.Event
	for _, ev := range c.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}
