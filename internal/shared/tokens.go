package shared

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// TokenStore keeps bearer tokens for logged-in users in Redis.
type TokenStore struct {
	client *redis.Client
	ttl    time.Duration
}

type tokenPayload struct {
	UserID     int64  `json:"user_id"`
	Name       string `json:"name"`
	Department string `json:"department"`
}

// NewTokenStore constructs a TokenStore.
func NewTokenStore(client *redis.Client, ttl time.Duration) *TokenStore {
	return &TokenStore{client: client, ttl: ttl}
}

// Issue creates a token bound to the actor and persists it with the
// configured TTL.
func (ts *TokenStore) Issue(ctx context.Context, actor Actor) (string, error) {
	token := generateToken()
	data, err := json.Marshal(tokenPayload{UserID: actor.UserID, Name: actor.Name, Department: actor.Department})
	if err != nil {
		return "", err
	}
	if err := ts.client.Set(ctx, ts.redisKey(token), data, ts.ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// Resolve loads the actor for a token, refreshing the TTL on hit.
func (ts *TokenStore) Resolve(ctx context.Context, token string) (*Actor, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}
	data, err := ts.client.Get(ctx, ts.redisKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	var payload tokenPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	_ = ts.client.Expire(ctx, ts.redisKey(token), ts.ttl).Err()
	return &Actor{UserID: payload.UserID, Name: payload.Name, Department: payload.Department}, nil
}

// Revoke deletes a token, typically on logout.
func (ts *TokenStore) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := ts.client.Del(ctx, ts.redisKey(token)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

// TTL exposes the configured token lifetime.
func (ts *TokenStore) TTL() time.Duration {
	return ts.ttl
}

func (ts *TokenStore) redisKey(token string) string {
	return "token:" + token
}

func generateToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return uuid.NewString()
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
