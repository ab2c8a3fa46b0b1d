package assessments

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wellmind/practice-platform/pkg/logging"
)

const defaultDefinitionTTL = 12 * time.Hour

// DefinitionCache keeps immutable test definitions in redis so repeated
// submissions skip the question join. Misses and redis failures fall
// through to postgres; the cache never fails a request.
type DefinitionCache struct {
	redis  *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// NewDefinitionCache creates a cache with the given TTL.
func NewDefinitionCache(client *redis.Client, ttl time.Duration, logger *logging.Logger) *DefinitionCache {
	if client == nil {
		panic("assessments: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = defaultDefinitionTTL
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &DefinitionCache{redis: client, ttl: ttl, logger: logger.WithComponent("assessment-cache")}
}

// Get returns the cached definition, or nil on miss or error.
func (c *DefinitionCache) Get(ctx context.Context, testID string) *Test {
	if c == nil {
		return nil
	}
	data, err := c.redis.Get(ctx, definitionKey(testID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("definition cache read failed", "test_id", testID, "error", err)
		}
		return nil
	}
	var t Test
	if err := json.Unmarshal(data, &t); err != nil {
		c.logger.Warn("definition cache decode failed", "test_id", testID, "error", err)
		return nil
	}
	return &t
}

// Put stores the definition; failures are logged and ignored.
func (c *DefinitionCache) Put(ctx context.Context, t *Test) {
	if c == nil || t == nil {
		return
	}
	data, err := json.Marshal(t)
	if err != nil {
		c.logger.Warn("definition cache encode failed", "test_id", t.ID, "error", err)
		return
	}
	if err := c.redis.Set(ctx, definitionKey(t.ID), data, c.ttl).Err(); err != nil {
		c.logger.Warn("definition cache write failed", "test_id", t.ID, "error", err)
	}
}

func definitionKey(testID string) string {
	return "assessments:test:" + testID
}
