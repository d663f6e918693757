package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/alchemorsel/ingredients/internal/domain/ingredient"
	"github.com/alchemorsel/ingredients/internal/infrastructure/config"
)

// ErrCircuitOpen is returned while the breaker rejects Redis calls
var ErrCircuitOpen = errors.New("redis circuit breaker is open")

// RedisCache shares normalized results between service replicas. Every
// failure degrades to a cache miss; normalization never waits on Redis
// longer than the operation timeout.
type RedisCache struct {
	client    redis.UniversalClient
	prefix    string
	ttl       time.Duration
	opTimeout time.Duration
	breaker   *CircuitBreaker
	logger    *zap.Logger
}

// NewRedisCache creates the cache and checks the connection once
func NewRedisCache(cfg config.RedisConfig, ttl time.Duration, logger *zap.Logger) (*RedisCache, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("redis.addrs is required")
	}

	// A single address gives a plain client, several a cluster client
	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:        cfg.Addrs,
		Password:     cfg.Password,
		DB:           cfg.Database,
		MaxRetries:   cfg.MaxRetries,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.OpTimeout,
		WriteTimeout: cfg.OpTimeout,
	})

	c := newRedisCache(client, cfg, ttl, logger)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout+cfg.OpTimeout)
	defer cancel()
	if err := c.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis result cache initialized",
		zap.Strings("addrs", cfg.Addrs),
		zap.Int("database", cfg.Database),
		zap.String("prefix", cfg.KeyPrefix),
	)
	return c, nil
}

func newRedisCache(client redis.UniversalClient, cfg config.RedisConfig, ttl time.Duration, logger *zap.Logger) *RedisCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisCache{
		client:    client,
		prefix:    cfg.KeyPrefix,
		ttl:       ttl,
		opTimeout: cfg.OpTimeout,
		breaker:   NewCircuitBreaker(cfg.BreakerFailures, cfg.BreakerTimeout),
		logger:    logger.Named("redis-cache"),
	}
}

// Ping tests the Redis connection
func (c *RedisCache) Ping(ctx context.Context) error {
	if !c.breaker.AllowRequest() {
		return ErrCircuitOpen
	}
	if err := c.client.Ping(ctx).Err(); err != nil {
		c.breaker.RecordFailure()
		return err
	}
	c.breaker.RecordSuccess()
	return nil
}

// Get returns a cached result. Errors are logged and reported as a miss.
func (c *RedisCache) Get(key string) (ingredient.NormalizedIngredient, bool) {
	var value ingredient.NormalizedIngredient
	if !c.breaker.AllowRequest() {
		return value, false
	}

	ctx, cancel := c.opContext()
	defer cancel()

	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		c.breaker.RecordSuccess()
		return value, false
	}
	if err != nil {
		c.breaker.RecordFailure()
		c.logger.Warn("Redis GET failed", zap.String("key", key), zap.Error(err))
		return value, false
	}
	c.breaker.RecordSuccess()

	if err := json.Unmarshal(data, &value); err != nil {
		c.logger.Warn("Discarding undecodable cache entry", zap.String("key", key), zap.Error(err))
		return ingredient.NormalizedIngredient{}, false
	}
	return value, true
}

// Set stores a result with the cache TTL
func (c *RedisCache) Set(key string, value ingredient.NormalizedIngredient) {
	if !c.breaker.AllowRequest() {
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("Failed to encode cache entry", zap.String("key", key), zap.Error(err))
		return
	}

	ctx, cancel := c.opContext()
	defer cancel()

	if err := c.client.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		c.breaker.RecordFailure()
		c.logger.Warn("Redis SET failed", zap.String("key", key), zap.Error(err))
		return
	}
	c.breaker.RecordSuccess()
}

// Clear deletes every key under the cache prefix
func (c *RedisCache) Clear() {
	if !c.breaker.AllowRequest() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*c.opTimeout)
	defer cancel()

	deleted, err := c.deletePrefix(ctx)
	if err != nil {
		c.breaker.RecordFailure()
		c.logger.Warn("Failed to clear Redis cache", zap.Error(err))
		return
	}
	c.breaker.RecordSuccess()
	c.logger.Debug("Redis cache cleared", zap.Int("keys", deleted))
}

func (c *RedisCache) deletePrefix(ctx context.Context) (int, error) {
	deleted := 0
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 500).Iterator()
	batch := make([]string, 0, 500)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := c.client.Del(ctx, batch...).Err(); err != nil {
			return err
		}
		deleted += len(batch)
		batch = batch[:0]
		return nil
	}

	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			if err := flush(); err != nil {
				return deleted, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return deleted, err
	}
	return deleted, flush()
}

// Close releases the connection pool
func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), c.opTimeout)
}

// CircuitState represents circuit breaker states
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

// CircuitBreaker stops calling Redis after repeated failures and retries
// once the timeout has passed
type CircuitBreaker struct {
	maxFailures     int
	timeout         time.Duration
	failures        int
	lastFailureTime time.Time
	state           CircuitState
	now             func() time.Time
	mu              sync.Mutex
}

// NewCircuitBreaker creates a closed breaker
func NewCircuitBreaker(maxFailures int, timeout time.Duration) *CircuitBreaker {
	if maxFailures < 1 {
		maxFailures = 5
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &CircuitBreaker{
		maxFailures: maxFailures,
		timeout:     timeout,
		state:       CircuitClosed,
		now:         time.Now,
	}
}

// AllowRequest reports whether a call may go through. An open breaker
// moves to half-open once the timeout has passed.
func (cb *CircuitBreaker) AllowRequest() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed, CircuitHalfOpen:
		return true
	case CircuitOpen:
		if cb.now().Sub(cb.lastFailureTime) > cb.timeout {
			cb.state = CircuitHalfOpen
			return true
		}
		return false
	default:
		return false
	}
}

// RecordSuccess records a successful operation
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures = 0
	cb.state = CircuitClosed
}

// RecordFailure records a failed operation
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
	cb.lastFailureTime = cb.now()

	// a failed probe reopens at once
	if cb.state == CircuitHalfOpen || cb.failures >= cb.maxFailures {
		cb.state = CircuitOpen
	}
}

// State returns the current state
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}
