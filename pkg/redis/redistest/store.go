// Package redistest provides an in-memory stand-in for the Redis-backed
// session storage used by the cart and confirmation packages.
package redistest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rowncoffee/rown-backend/pkg/redis"
)

// Store implements redis.SessionStore and redis.IdempotencyStore in memory.
type Store struct {
	mu      sync.Mutex
	data    map[string]string
	ttls    map[string]time.Duration
	GetErr  error
	SetErr  error
	Writes  int
	Deletes int
}

func NewStore() *Store {
	return &Store{
		data: make(map[string]string),
		ttls: make(map[string]time.Duration),
	}
}

func (s *Store) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.GetErr != nil {
		return "", s.GetErr
	}
	v, ok := s.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (s *Store) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SetErr != nil {
		return s.SetErr
	}
	s.data[key] = stringify(value)
	s.ttls[key] = ttl
	s.Writes++
	return nil
}

func (s *Store) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SetErr != nil {
		return false, s.SetErr
	}
	if _, exists := s.data[key]; exists {
		return false, nil
	}
	s.data[key] = stringify(value)
	s.ttls[key] = ttl
	s.Writes++
	return true, nil
}

func (s *Store) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.data, key)
		delete(s.ttls, key)
	}
	s.Deletes++
	return nil
}

func (s *Store) CartKey(sessionID string) string {
	return redis.BuildKey("cart", sessionID)
}

func (s *Store) HandoffKey(sessionID string) string {
	return redis.BuildKey("handoff", sessionID)
}

func (s *Store) IdempotencyKey(scope, id string) string {
	return redis.BuildKey("idempotency", scope, id)
}

// Raw returns the stored value for assertions.
func (s *Store) Raw(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok
}

// TTL returns the expiry recorded for key.
func (s *Store) TTL(key string) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ttls[key]
}

// Put seeds a raw value without counting it as a write.
func (s *Store) Put(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}

// ErrUnavailable simulates a Redis outage.
var ErrUnavailable = errors.New("redis: connection refused")

func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}

var (
	_ redis.SessionStore     = (*Store)(nil)
	_ redis.IdempotencyStore = (*Store)(nil)
)
