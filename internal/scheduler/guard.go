package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// RunGuard lets exactly one caller claim a given day
type RunGuard interface {
	TryAcquire(ctx context.Context, day string) (bool, error)
}

// MemoryGuard keeps claimed days in process memory
type MemoryGuard struct {
	mu   sync.Mutex
	days map[string]struct{}
}

// NewMemoryGuard creates an in-memory guard
func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{days: make(map[string]struct{})}
}

func (g *MemoryGuard) TryAcquire(ctx context.Context, day string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.days[day]; ok {
		return false, nil
	}
	g.days[day] = struct{}{}
	return true, nil
}

const (
	guardKeyPrefix = "crop-irrigation:scheduled-run:"
	guardTTL       = 48 * time.Hour
)

// RedisGuard claims days with SETNX so that several instances share one run
type RedisGuard struct {
	client *redis.Client
}

// NewRedisGuard creates a guard backed by client
func NewRedisGuard(client *redis.Client) *RedisGuard {
	return &RedisGuard{client: client}
}

func (g *RedisGuard) TryAcquire(ctx context.Context, day string) (bool, error) {
	return g.client.SetNX(ctx, guardKeyPrefix+day, time.Now().UTC().Format(time.RFC3339), guardTTL).Result()
}
