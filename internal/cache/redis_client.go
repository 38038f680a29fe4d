package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/redis/go-redis/v9"

	"github.com/codescope/codescope-go/internal/config"
)

// Client is a cache-aside wrapper over Redis. The cache is an
// accelerant, never a dependency: a disabled or unreachable Redis turns
// every lookup into a miss and every store into a no-op. Unavailability
// is logged once, then stays quiet.
type Client struct {
	client *redis.Client
	logger *slog.Logger
	ttl    time.Duration

	unavailableOnce sync.Once
}

// New creates the cache client. Construction never fails; when the
// backend is disabled or unreachable the client degrades to a
// pass-through. The initial ping is best-effort connectivity logging.
func New(ctx context.Context, cfg config.CacheConfig) *Client {
	logger := slog.Default().With("component", "cache")

	c := &Client{
		logger: logger,
		ttl:    cfg.TTL,
	}
	if c.ttl <= 0 {
		c.ttl = 15 * time.Minute
	}

	if !cfg.Enabled {
		logger.Debug("result cache disabled by config")
		return c
	}

	c.client = redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password, // Empty string if no password
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := c.client.Ping(pingCtx).Err(); err != nil {
		c.noteUnavailable(err)
	} else {
		logger.Info("result cache connected", "addr", cfg.Addr)
	}

	return c
}

// Close closes the underlying connection if one was created.
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Enabled reports whether a backend client exists. It does not imply
// the backend is reachable right now.
func (c *Client) Enabled() bool {
	return c.client != nil
}

// Get retrieves a cached value by key and unmarshals it into target.
// Returns true only on a clean hit; a disabled cache, a backend error,
// or a corrupt entry all read as a miss.
func (c *Client) Get(ctx context.Context, key string, target interface{}) bool {
	if c.client == nil {
		return false
	}

	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		c.logger.Debug("cache miss", "key", key)
		return false
	}
	if err != nil {
		c.noteUnavailable(err)
		return false
	}

	if err := json.Unmarshal([]byte(val), target); err != nil {
		// Corrupt entry: drop it so the next write replaces it.
		c.logger.Debug("cache entry corrupt, evicting", "key", key, "error", err)
		c.client.Del(ctx, key)
		return false
	}

	c.logger.Debug("cache hit", "key", key)
	return true
}

// Set stores a value under the default TTL. Returns true if the value
// was stored.
func (c *Client) Set(ctx context.Context, key string, value interface{}) bool {
	return c.SetWithTTL(ctx, key, value, c.ttl)
}

// SetWithTTL stores a JSON-marshaled value with an explicit TTL.
func (c *Client) SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) bool {
	if c.client == nil {
		return false
	}

	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Debug("cache value not marshalable", "key", key, "error", err)
		return false
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		c.noteUnavailable(err)
		return false
	}

	c.logger.Debug("cache set", "key", key, "ttl", ttl)
	return true
}

// Delete removes one key.
func (c *Client) Delete(ctx context.Context, key string) bool {
	if c.client == nil {
		return false
	}
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.noteUnavailable(err)
		return false
	}
	return true
}

// DeletePattern removes every key matching a glob pattern and returns
// the number deleted.
func (c *Client) DeletePattern(ctx context.Context, pattern string) int64 {
	if c.client == nil {
		return 0
	}

	var cursor uint64
	var keys []string
	for {
		batch, next, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			c.noteUnavailable(err)
			return 0
		}
		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			break
		}
	}

	if len(keys) == 0 {
		return 0
	}

	deleted, err := c.client.Del(ctx, keys...).Result()
	if err != nil {
		c.noteUnavailable(err)
		return 0
	}

	c.logger.Debug("cache pattern delete", "pattern", pattern, "deleted", deleted)
	return deleted
}

// InvalidateProject drops every cached result derived from one
// project's index. Called after any write that changes the index.
func (c *Client) InvalidateProject(ctx context.Context, projectID string) int64 {
	n := c.DeletePattern(ctx, fmt.Sprintf("filectx:%s:*", projectID))
	n += c.DeletePattern(ctx, fmt.Sprintf("search:%s:*", projectID))
	return n
}

func (c *Client) noteUnavailable(err error) {
	c.unavailableOnce.Do(func() {
		c.logger.Warn("result cache unavailable, continuing without it", "error", err)
	})
}

// FileContextKey keys a cached file-context result.
func FileContextKey(projectID, filePath string) string {
	return fmt.Sprintf("filectx:%s:%s", projectID, filePath)
}

// SearchKey keys a cached semantic-search result. The query text is
// hashed so arbitrary queries stay within Redis key limits.
func SearchKey(projectID, query string) string {
	return fmt.Sprintf("search:%s:%016x", projectID, xxhash.Sum64String(query))
}
