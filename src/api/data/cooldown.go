package data

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// CooldownWindow is the server-enforced minimum interval between a member's
// consecutive actions on one proposal.
const CooldownWindow = 60 * time.Second

// Cooldowns tracks per-member per-proposal action windows.
type Cooldowns interface {
	// Touch starts the window if the member is outside it. Inside the
	// window it reports ok=false and the remaining wait.
	Touch(ctx context.Context, memberID, proposalID string) (remaining time.Duration, ok bool, err error)
	// Active reports whether the member is currently inside the window.
	Active(ctx context.Context, memberID, proposalID string) (bool, error)
	// Release clears the window, undoing a Touch whose action failed.
	Release(ctx context.Context, memberID, proposalID string) error
}

type redisCooldowns struct {
	rdb    *redis.Client
	window time.Duration
}

func NewRedisCooldowns(rdb *redis.Client) Cooldowns {
	return &redisCooldowns{rdb: rdb, window: CooldownWindow}
}

func cooldownKey(memberID, proposalID string) string {
	return fmt.Sprintf("cooldown:%s:%s", proposalID, memberID)
}

func (c *redisCooldowns) Touch(ctx context.Context, memberID, proposalID string) (time.Duration, bool, error) {
	key := cooldownKey(memberID, proposalID)
	ok, err := c.rdb.SetNX(ctx, key, 1, c.window).Result()
	if err != nil {
		return 0, false, err
	}
	if ok {
		return 0, true, nil
	}
	ttl, err := c.rdb.TTL(ctx, key).Result()
	if err != nil || ttl < 0 {
		ttl = c.window
	}
	return ttl, false, nil
}

func (c *redisCooldowns) Active(ctx context.Context, memberID, proposalID string) (bool, error) {
	ttl, err := c.rdb.TTL(ctx, cooldownKey(memberID, proposalID)).Result()
	if err != nil {
		return false, err
	}
	return ttl > 0, nil
}

func (c *redisCooldowns) Release(ctx context.Context, memberID, proposalID string) error {
	return c.rdb.Del(ctx, cooldownKey(memberID, proposalID)).Err()
}

// memoryCooldowns is the single-process fallback used when Redis is not
// configured, and in tests.
type memoryCooldowns struct {
	mu     sync.Mutex
	window time.Duration
	last   map[string]time.Time
}

func NewMemoryCooldowns(window time.Duration) Cooldowns {
	return &memoryCooldowns{
		window: window,
		last:   make(map[string]time.Time),
	}
}

func (c *memoryCooldowns) Touch(_ context.Context, memberID, proposalID string) (time.Duration, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cooldownKey(memberID, proposalID)
	lastUse, exists := c.last[key]
	if !exists || time.Since(lastUse) >= c.window {
		c.last[key] = time.Now()
		return 0, true, nil
	}
	return c.window - time.Since(lastUse), false, nil
}

func (c *memoryCooldowns) Active(_ context.Context, memberID, proposalID string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	lastUse, exists := c.last[cooldownKey(memberID, proposalID)]
	return exists && time.Since(lastUse) < c.window, nil
}

func (c *memoryCooldowns) Release(_ context.Context, memberID, proposalID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.last, cooldownKey(memberID, proposalID))
	return nil
}
