package capability

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/pricofy/translation-dispatcher/internal/domain"
	"github.com/pricofy/translation-dispatcher/internal/logger"
	"github.com/pricofy/translation-dispatcher/internal/translator"
)

// Cache stores string values with a TTL.
type Cache interface {
	// Get returns the value for key; ok is false on a miss.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// RedisCache is a Cache backed by Redis.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a RedisCache.
func NewRedisCache(addr, password string, db int) *RedisCache {
	return &RedisCache{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

// Get implements Cache.
func (c *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// Set implements Cache.
func (c *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

// Close closes the Redis connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Cached memoises detections and translations of a capability. Identical
// concurrent calls share one backend request. Cache failures are logged and
// otherwise ignored.
type Cached struct {
	next  translator.Capability
	cache Cache
	ttl   time.Duration
	group singleflight.Group
	log   *logrus.Entry
}

// CachedBatch is Cached over a batch capability.
type CachedBatch struct {
	*Cached
	batch translator.BatchCapability
}

// WithCache wraps next. The result keeps batch support when next has it.
func WithCache(next translator.Capability, cache Cache, ttl time.Duration, log *logrus.Logger) translator.Capability {
	c := &Cached{
		next:  next,
		cache: cache,
		ttl:   ttl,
		log:   logger.OrDefault(log).WithField("component", "translation-cache"),
	}
	if batch, ok := next.(translator.BatchCapability); ok {
		return &CachedBatch{Cached: c, batch: batch}
	}
	return c
}

func hashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func detectionKey(text string) string {
	return "detection:" + hashText(text)
}

func translationKey(text string, from, to domain.Language) string {
	return fmt.Sprintf("translation:%s:%s:%s", from.Code(), to.Code(), hashText(text))
}

func (c *Cached) lookup(ctx context.Context, key string) (string, bool) {
	val, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.log.WithError(err).Warn("Cache lookup failed")
		return "", false
	}
	return val, ok
}

func (c *Cached) store(ctx context.Context, key, value string) {
	if err := c.cache.Set(ctx, key, value, c.ttl); err != nil {
		c.log.WithError(err).Warn("Cache store failed")
	}
}

// DetectLanguage implements translator.Capability.
func (c *Cached) DetectLanguage(ctx context.Context, text string) (domain.Language, error) {
	key := detectionKey(text)
	if val, ok := c.lookup(ctx, key); ok {
		return domain.ParseLanguage(val), nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		lang, err := c.next.DetectLanguage(ctx, text)
		if err != nil {
			return nil, err
		}
		if lang.IsSet() {
			c.store(ctx, key, lang.String())
		}
		return lang, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(domain.Language), nil
}

// Translate implements translator.Capability.
func (c *Cached) Translate(ctx context.Context, text string, from, to domain.Language) (string, error) {
	key := translationKey(text, from, to)
	if val, ok := c.lookup(ctx, key); ok {
		return val, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		translated, err := c.next.Translate(ctx, text, from, to)
		if err != nil {
			return nil, err
		}
		c.store(ctx, key, translated)
		return translated, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// TranslateBatch implements translator.BatchCapability. Only cache misses
// are sent to the backend, in one call.
func (c *CachedBatch) TranslateBatch(ctx context.Context, texts []string, from, to domain.Language) ([]string, error) {
	out := make([]string, len(texts))
	var missTexts []string
	var missIndexes []int

	for i, text := range texts {
		if val, ok := c.lookup(ctx, translationKey(text, from, to)); ok {
			out[i] = val
			continue
		}
		missTexts = append(missTexts, text)
		missIndexes = append(missIndexes, i)
	}

	if len(missTexts) == 0 {
		return out, nil
	}

	translated, err := c.batch.TranslateBatch(ctx, missTexts, from, to)
	if err != nil {
		return nil, err
	}
	if len(translated) != len(missTexts) {
		return nil, fmt.Errorf("got %d translations for %d texts", len(translated), len(missTexts))
	}

	for k, i := range missIndexes {
		out[i] = translated[k]
		c.store(ctx, translationKey(missTexts[k], from, to), translated[k])
	}
	return out, nil
}
