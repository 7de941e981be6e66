package cache

import (
	"fmt"
	"time"

	"github.com/erp/pos/internal/domain/sales"
	"github.com/erp/pos/internal/domain/shared"
	"github.com/erp/pos/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// StoreFactory creates the session stores based on configuration
type StoreFactory struct {
	redisConfig           config.RedisConfig
	cartTTL               time.Duration
	logger                *zap.Logger
	allowInMemoryFallback bool
	dial                  func(config.RedisConfig) (*redis.Client, error)
}

// StoreFactoryOption is a functional option for configuring the factory
type StoreFactoryOption func(*StoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to in-memory stores when Redis is unavailable.
// Default is true.
func WithInMemoryFallback(allow bool) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// Stores bundles the stores built by the factory.
// Client is nil when the in-memory stores are in use.
type Stores struct {
	Carts       sales.CartRepository
	Idempotency shared.IdempotencyStore
	Client      *redis.Client
}

// Close releases the Redis client, if any
func (s *Stores) Close() error {
	_ = s.Idempotency.Close()
	if s.Client != nil {
		return s.Client.Close()
	}
	return nil
}

// NewStoreFactory creates a new factory
func NewStoreFactory(cfg config.RedisConfig, cartTTL time.Duration, opts ...StoreFactoryOption) *StoreFactory {
	f := &StoreFactory{
		redisConfig:           cfg,
		cartTTL:               cartTTL,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
		dial:                  NewRedisClient,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateInMemoryStores creates process-local stores.
// They do not share carts or idempotency keys across server instances.
func (f *StoreFactory) CreateInMemoryStores() *Stores {
	return &Stores{
		Carts:       NewMemoryCartStore(f.cartTTL),
		Idempotency: NewInMemoryIdempotencyStore(),
	}
}

// CreateStores uses Redis when it is enabled and reachable, falling back to
// in-memory stores if allowed
func (f *StoreFactory) CreateStores() (*Stores, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("Redis disabled, using in-memory cart and idempotency stores")
		return f.CreateInMemoryStores(), nil
	}

	client, err := f.dial(f.redisConfig)
	if err == nil {
		f.logger.Info("Using Redis cart and idempotency stores", zap.String("addr", f.redisConfig.Addr()))
		return &Stores{
			Carts:       NewRedisCartStore(client, f.cartTTL),
			Idempotency: NewRedisIdempotencyStore(client, ""),
			Client:      client,
		}, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis required for session stores but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory cart and idempotency stores. "+
		"Carts will not be shared between server instances.",
		zap.Error(err),
	)
	return f.CreateInMemoryStores(), nil
}
