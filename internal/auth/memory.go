package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryCarrier keeps session state in process memory. Used by tests and
// single-instance development runs; production uses RedisCarrier.
type MemoryCarrier struct {
	mu       sync.Mutex
	sessions map[string]memorySession
	ttl      time.Duration
	now      func() time.Time
}

type memorySession struct {
	state   State
	expires time.Time
}

func NewMemoryCarrier() *MemoryCarrier {
	return &MemoryCarrier{
		sessions: make(map[string]memorySession),
		ttl:      SessionTTL,
		now:      time.Now,
	}
}

func (c *MemoryCarrier) Create(ctx context.Context, state State) (string, error) {
	token := uuid.NewString()
	return token, c.Save(ctx, token, state)
}

func (c *MemoryCarrier) Get(_ context.Context, token string) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[token]
	if !ok || c.now().After(s.expires) {
		delete(c.sessions, token)
		return State{}, ErrNoSession
	}
	return s.state, nil
}

func (c *MemoryCarrier) Save(_ context.Context, token string, state State) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions[token] = memorySession{state: state, expires: c.now().Add(c.ttl)}
	return nil
}

func (c *MemoryCarrier) Destroy(_ context.Context, token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, token)
	return nil
}
