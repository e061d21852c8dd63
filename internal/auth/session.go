package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	SessionTTL    = 24 * time.Hour
	SessionCookie = "session_id"
)

// ErrNoSession means the token resolves to nothing: never issued,
// expired, or destroyed.
var ErrNoSession = errors.New("no session")

// State is the server-side session payload keyed by the opaque token.
// Flash messages are one-shot notices cleared by the next render.
type State struct {
	UserID string   `json:"user_id"`
	Flash  []string `json:"flash,omitempty"`
}

// Carrier associates an opaque per-browser token with server-side State
// across requests. Save and Destroy complete before any response that
// depends on them; a destroyed token never resolves again.
type Carrier interface {
	Create(ctx context.Context, state State) (string, error)
	Get(ctx context.Context, token string) (State, error)
	Save(ctx context.Context, token string, state State) error
	Destroy(ctx context.Context, token string) error
}

// RedisCarrier stores session state in Redis with a rolling TTL.
type RedisCarrier struct {
	rdb *redis.Client
}

func NewRedisCarrier(rdb *redis.Client) *RedisCarrier {
	return &RedisCarrier{rdb: rdb}
}

func sessionKey(token string) string { return "session:" + token }

// Create issues a fresh token and stores the state under it.
func (c *RedisCarrier) Create(ctx context.Context, state State) (string, error) {
	token := uuid.NewString()
	if err := c.Save(ctx, token, state); err != nil {
		return "", err
	}
	return token, nil
}

// Get returns the state for a token, or ErrNoSession.
func (c *RedisCarrier) Get(ctx context.Context, token string) (State, error) {
	raw, err := c.rdb.Get(ctx, sessionKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return State{}, ErrNoSession
	}
	if err != nil {
		return State{}, fmt.Errorf("session get: %w", err)
	}
	var st State
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return State{}, fmt.Errorf("session decode: %w", err)
	}
	return st, nil
}

// Save writes the state and refreshes the TTL.
func (c *RedisCarrier) Save(ctx context.Context, token string, state State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("session encode: %w", err)
	}
	if err := c.rdb.Set(ctx, sessionKey(token), raw, SessionTTL).Err(); err != nil {
		return fmt.Errorf("session save: %w", err)
	}
	return nil
}

// Destroy invalidates the token server-side. A stale cookie carrying it
// afterward resolves to no identity.
func (c *RedisCarrier) Destroy(ctx context.Context, token string) error {
	if err := c.rdb.Del(ctx, sessionKey(token)).Err(); err != nil {
		return fmt.Errorf("session destroy: %w", err)
	}
	return nil
}
