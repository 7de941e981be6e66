package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/erp/pos/internal/domain/sales"
	"github.com/redis/go-redis/v9"
)

// RedisCartStore keeps checkout session carts in Redis with a sliding TTL
type RedisCartStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRedisCartStore creates a cart store on a shared client
func NewRedisCartStore(client *redis.Client, ttl time.Duration) *RedisCartStore {
	return &RedisCartStore{client: client, keyPrefix: cartKeyPrefix, ttl: ttl}
}

// Get returns the session cart, or an empty cart when none is stored
func (s *RedisCartStore) Get(ctx context.Context, sessionID string) (*sales.Cart, error) {
	data, err := s.client.Get(ctx, s.keyPrefix+sessionID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return sales.NewCart(sessionID), nil
		}
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return decodeCart(sessionID, data)
}

// Save stores the cart and renews its TTL
func (s *RedisCartStore) Save(ctx context.Context, cart *sales.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("failed to marshal cart: %w", err)
	}
	if err := s.client.Set(ctx, s.keyPrefix+cart.SessionID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

// Delete removes the session cart
func (s *RedisCartStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.keyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	return nil
}

// MemoryCartStore keeps carts in process memory. Carts are copied on the way
// in and out so callers never share a cart through the store.
type MemoryCartStore struct {
	mu    sync.Mutex
	carts map[string]cartEntry
	ttl   time.Duration
	now   func() time.Time
}

type cartEntry struct {
	data      []byte
	expiresAt time.Time
}

// NewMemoryCartStore creates an in-memory cart store. A zero ttl never expires.
func NewMemoryCartStore(ttl time.Duration) *MemoryCartStore {
	return &MemoryCartStore{carts: make(map[string]cartEntry), ttl: ttl, now: time.Now}
}

// Get implements sales.CartRepository
func (s *MemoryCartStore) Get(_ context.Context, sessionID string) (*sales.Cart, error) {
	s.mu.Lock()
	e, ok := s.carts[sessionID]
	if ok && s.ttl > 0 && s.now().After(e.expiresAt) {
		delete(s.carts, sessionID)
		ok = false
	}
	s.mu.Unlock()

	if !ok {
		return sales.NewCart(sessionID), nil
	}
	return decodeCart(sessionID, e.data)
}

// Save implements sales.CartRepository
func (s *MemoryCartStore) Save(_ context.Context, cart *sales.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("failed to marshal cart: %w", err)
	}
	s.mu.Lock()
	s.carts[cart.SessionID] = cartEntry{data: data, expiresAt: s.now().Add(s.ttl)}
	s.mu.Unlock()
	return nil
}

// Delete implements sales.CartRepository
func (s *MemoryCartStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.carts, sessionID)
	s.mu.Unlock()
	return nil
}

func decodeCart(sessionID string, data []byte) (*sales.Cart, error) {
	cart := sales.NewCart(sessionID)
	if err := json.Unmarshal(data, cart); err != nil {
		return nil, fmt.Errorf("failed to decode cart %s: %w", sessionID, err)
	}
	return cart, nil
}

var (
	_ sales.CartRepository = (*RedisCartStore)(nil)
	_ sales.CartRepository = (*MemoryCartStore)(nil)
)
