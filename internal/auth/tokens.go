package auth

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/stockroom-app/stockroom/internal/shared"
)

// ErrTokenInvalid indicates an unknown or expired bearer token.
var ErrTokenInvalid = errors.New("auth: invalid token")

// TokenStore keeps opaque bearer tokens in Redis with a TTL.
type TokenStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTokenStore constructs a TokenStore.
func NewTokenStore(client *redis.Client, ttl time.Duration) *TokenStore {
	return &TokenStore{client: client, ttl: ttl}
}

type tokenPayload struct {
	ActorID int64  `json:"actor_id"`
	Email   string `json:"email"`
}

// Issue creates a fresh token for the actor.
func (s *TokenStore) Issue(ctx context.Context, actor shared.Actor) (string, time.Time, error) {
	token := uuid.NewString()
	data, err := json.Marshal(tokenPayload{ActorID: actor.ID, Email: actor.Email})
	if err != nil {
		return "", time.Time{}, err
	}
	if err := s.client.Set(ctx, s.key(token), data, s.ttl).Err(); err != nil {
		return "", time.Time{}, err
	}
	return token, time.Now().Add(s.ttl), nil
}

// Resolve maps a token back to its actor.
func (s *TokenStore) Resolve(ctx context.Context, token string) (shared.Actor, error) {
	if token == "" {
		return shared.Actor{}, ErrTokenInvalid
	}
	data, err := s.client.Get(ctx, s.key(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return shared.Actor{}, ErrTokenInvalid
		}
		return shared.Actor{}, err
	}
	var payload tokenPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return shared.Actor{}, ErrTokenInvalid
	}
	return shared.Actor{ID: payload.ActorID, Email: payload.Email}, nil
}

// Revoke deletes a token.
func (s *TokenStore) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.client.Del(ctx, s.key(token)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

// TTL exposes the configured token lifetime.
func (s *TokenStore) TTL() time.Duration {
	return s.ttl
}

func (s *TokenStore) key(token string) string {
	return "token:" + token
}
