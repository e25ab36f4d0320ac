package sessions

import (
	"context"
	"fmt"
	"sync"
	"time"

	apperrors "github.com/jrsteele09/vinylogger/internal/errors"
	"github.com/redis/go-redis/v9"
)

// ReplayGuard remembers consumed flash IDs until the flash would have expired anyway.
type ReplayGuard interface {
	// MarkConsumed records id. It returns ErrFlashConsumed when id was already recorded.
	MarkConsumed(ctx context.Context, id string, expiresAt time.Time) error
	// IsConsumed reports whether id has been recorded and has not yet expired.
	IsConsumed(ctx context.Context, id string) (bool, error)
}

var (
	_ ReplayGuard = (*MemoryReplayGuard)(nil)
	_ ReplayGuard = (*RedisReplayGuard)(nil)
)

// MemoryReplayGuard is a thread-safe in-memory ReplayGuard for a single instance.
// Expired IDs are purged on each call.
type MemoryReplayGuard struct {
	mu       sync.Mutex
	consumed map[string]time.Time
	nowTime  func() time.Time
}

// MemoryGuardOption modifies a MemoryReplayGuard.
type MemoryGuardOption func(*MemoryReplayGuard)

// WithGuardTime sets the clock used to purge expired IDs (primarily for testing)
func WithGuardTime(nowFunc func() time.Time) MemoryGuardOption {
	return func(g *MemoryReplayGuard) {
		g.nowTime = nowFunc
	}
}

// NewMemoryReplayGuard creates an empty in-memory guard
func NewMemoryReplayGuard(options ...MemoryGuardOption) *MemoryReplayGuard {
	g := &MemoryReplayGuard{
		consumed: make(map[string]time.Time),
		nowTime:  time.Now,
	}
	for _, opt := range options {
		opt(g)
	}
	return g
}

func (g *MemoryReplayGuard) MarkConsumed(_ context.Context, id string, expiresAt time.Time) error {
	if id == "" {
		return fmt.Errorf("[MemoryReplayGuard MarkConsumed] id cannot be empty")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.nowTime()
	for key, expiry := range g.consumed {
		if !expiry.After(now) {
			delete(g.consumed, key)
		}
	}

	if _, exists := g.consumed[id]; exists {
		return apperrors.ErrFlashConsumed
	}
	g.consumed[id] = expiresAt
	return nil
}

func (g *MemoryReplayGuard) IsConsumed(_ context.Context, id string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	expiry, exists := g.consumed[id]
	return exists && expiry.After(g.nowTime()), nil
}

// Len reports how many IDs are currently remembered.
func (g *MemoryReplayGuard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.consumed)
}

const replayKeyPrefix = "vinylogger:flash:"

// RedisReplayGuard shares consumed flash IDs between instances through Redis.
type RedisReplayGuard struct {
	client *redis.Client
}

// NewRedisReplayGuard creates a Redis-backed guard.
func NewRedisReplayGuard(client *redis.Client) *RedisReplayGuard {
	return &RedisReplayGuard{client: client}
}

func (g *RedisReplayGuard) MarkConsumed(ctx context.Context, id string, expiresAt time.Time) error {
	if id == "" {
		return fmt.Errorf("[RedisReplayGuard MarkConsumed] id cannot be empty")
	}

	ttl := time.Until(expiresAt)
	if ttl < time.Second {
		ttl = time.Second
	}
	stored, err := g.client.SetNX(ctx, replayKeyPrefix+id, 1, ttl).Result()
	if err != nil {
		return fmt.Errorf("[RedisReplayGuard MarkConsumed] redis setnx: %w", err)
	}
	if !stored {
		return apperrors.ErrFlashConsumed
	}
	return nil
}

func (g *RedisReplayGuard) IsConsumed(ctx context.Context, id string) (bool, error) {
	n, err := g.client.Exists(ctx, replayKeyPrefix+id).Result()
	if err != nil {
		return false, fmt.Errorf("[RedisReplayGuard IsConsumed] redis exists: %w", err)
	}
	return n > 0, nil
}

// NewRedisClient parses a redis:// URL and verifies the connection.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrConfiguration, "[NewRedisClient] invalid REDIS_URL: %v", err)
	}

	client := redis.NewClient(options)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("[NewRedisClient] ping redis: %w", err)
	}
	return client, nil
}
