// Package cache adds a Redis read-through layer in front of a
// store.RecordRepo.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/abhisek/quizzly/internal/logger"
	"github.com/abhisek/quizzly/internal/store"
)

// Observer receives lookup results: "hit", "miss" or "error".
type Observer interface {
	ObserveCache(result string)
}

// Option customizes a RecordCache.
type Option func(*RecordCache)

func WithLogger(l *logger.Logger) Option {
	return func(c *RecordCache) { c.log = l }
}

func WithObserver(o Observer) Option {
	return func(c *RecordCache) { c.observer = o }
}

// RecordCache implements store.RecordRepo. Records are cached as JSON
// under quiz-record:{id}. Redis failures fall through to the backing
// repo; they never fail a request on their own.
type RecordCache struct {
	client   *redis.Client
	repo     store.RecordRepo
	ttl      time.Duration
	sf       singleflight.Group
	log      *logger.Logger
	observer Observer

	mu  sync.Mutex
	rnd *rand.Rand
}

var _ store.RecordRepo = (*RecordCache)(nil)

// New wraps repo. A ttl of zero stores entries without expiry.
func New(client *redis.Client, repo store.RecordRepo, ttl time.Duration, opts ...Option) *RecordCache {
	c := &RecordCache{
		client: client,
		repo:   repo,
		ttl:    ttl,
		log:    logger.Nop(),
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Create stores the record and primes the cache with it.
func (c *RecordCache) Create(ctx context.Context, rec store.NewRecord) (*store.Record, error) {
	created, err := c.repo.Create(ctx, rec)
	if err != nil {
		return nil, err
	}
	c.put(ctx, created)
	return created, nil
}

// Get serves from Redis when possible. Concurrent misses for one id
// share a single backing lookup.
func (c *RecordCache) Get(ctx context.Context, id string) (*store.Record, error) {
	id, err := store.NormalizeID(id)
	if err != nil {
		return nil, err
	}

	if rec, ok := c.lookup(ctx, id); ok {
		c.observe("hit")
		return rec, nil
	}
	c.observe("miss")

	v, err, _ := c.sf.Do(id, func() (any, error) {
		if rec, ok := c.lookup(ctx, id); ok {
			return rec, nil
		}
		rec, err := c.repo.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		c.put(ctx, rec)
		return rec, nil
	})
	if err != nil {
		return nil, err
	}
	// Callers may mutate the record; hand out copies.
	rec := *v.(*store.Record)
	return &rec, nil
}

// Touch updates the backing repo and drops the cached copy.
func (c *RecordCache) Touch(ctx context.Context, id string) error {
	if err := c.repo.Touch(ctx, id); err != nil {
		return err
	}
	if err := c.client.Del(ctx, Key(id)).Err(); err != nil {
		c.log.Warn("cache invalidate failed", "id", id, "error", err)
	}
	return nil
}

// List is not cached.
func (c *RecordCache) List(ctx context.Context, limit int) ([]store.Record, error) {
	return c.repo.List(ctx, limit)
}

// Key returns the Redis key for a record id.
func Key(id string) string {
	return "quiz-record:" + id
}

func (c *RecordCache) lookup(ctx context.Context, id string) (*store.Record, bool) {
	b, err := c.client.Get(ctx, Key(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.observe("error")
			c.log.Warn("cache read failed", "id", id, "error", err)
		}
		return nil, false
	}
	var rec store.Record
	if err := json.Unmarshal(b, &rec); err != nil {
		c.log.Warn("dropping undecodable cache entry", "id", id, "error", err)
		_ = c.client.Del(ctx, Key(id)).Err()
		return nil, false
	}
	return &rec, true
}

func (c *RecordCache) put(ctx context.Context, rec *store.Record) {
	b, err := json.Marshal(rec)
	if err != nil {
		c.log.Warn("cache encode failed", "id", rec.ID, "error", err)
		return
	}
	if err := c.client.Set(ctx, Key(rec.ID), b, c.ttlWithJitter()).Err(); err != nil {
		c.observe("error")
		c.log.Warn("cache write failed", "id", rec.ID, "error", err)
	}
}

// ttlWithJitter spreads expiry by up to a tenth of the ttl.
func (c *RecordCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

func (c *RecordCache) observe(result string) {
	if c.observer != nil {
		c.observer.ObserveCache(result)
	}
}
