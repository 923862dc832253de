package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"campus-perks/internal/domain"
	"campus-perks/internal/domain/model"
	"campus-perks/internal/domain/ports/repository"
)

var _ repository.TokenStore = (*TokenStore)(nil)

// TokenStore keeps proof tokens and daily claim markers in Redis. Both rely
// on server-side expiry; proof consumption uses GETDEL so two concurrent
// validations can never both observe the same token.
type TokenStore struct {
	client RedisClient
}

func NewTokenStore(client RedisClient) *TokenStore {
	return &TokenStore{client: client}
}

func proofKey(token string) string {
	return "proof:" + token
}

func markerKey(userID, offerID, day string) string {
	return fmt.Sprintf("daily_claim:%s:%s:%s", userID, offerID, day)
}

func (s *TokenStore) PutProof(ctx context.Context, token string, payload *model.ProofToken, ttl time.Duration) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, proofKey(token), data, ttl)
}

func (s *TokenStore) ConsumeProof(ctx context.Context, token string) (*model.ProofToken, error) {
	data, err := s.client.GetDel(ctx, proofKey(token))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrInvalidToken
		}
		return nil, err
	}
	var payload model.ProofToken
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		return nil, fmt.Errorf("decode proof payload: %w", err)
	}
	return &payload, nil
}

func (s *TokenStore) SetDailyMarker(ctx context.Context, userID, offerID, day string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil // day already over, nothing worth marking
	}
	_, err := s.client.SetNX(ctx, markerKey(userID, offerID, day), 1, ttl)
	return err
}

func (s *TokenStore) HasDailyMarker(ctx context.Context, userID, offerID, day string) (bool, error) {
	n, err := s.client.Exists(ctx, markerKey(userID, offerID, day))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *TokenStore) ClearDailyMarker(ctx context.Context, userID, offerID, day string) error {
	return s.client.Del(ctx, markerKey(userID, offerID, day))
}
