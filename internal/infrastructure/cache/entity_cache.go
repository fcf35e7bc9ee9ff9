// Package cache keeps committed entities in redis for reads by id.
package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"userstore.backend/internal/domain/entities"
	domainRepos "userstore.backend/internal/domain/repositories"
	"userstore.backend/pkg/logger"
	"userstore.backend/pkg/redis"
)

var (
	setValue = redis.Set
	getValue = redis.Get
	delValue = redis.Del
)

// EntityCache caches entities of kind T by id. Redis failures are logged
// and treated as misses.
//
// generation is bumped by every commit invalidation. A store read started
// before a commit must not be written back after it.
type EntityCache[T entities.Entity] struct {
	prefix  string
	ttl     time.Duration
	newItem func() T

	mu         sync.RWMutex
	generation uint64
}

// NewEntityCache creates a cache storing keys as "<prefix>:<id>"
func NewEntityCache[T entities.Entity](prefix string, ttl time.Duration, newItem func() T) *EntityCache[T] {
	return &EntityCache[T]{prefix: prefix, ttl: ttl, newItem: newItem}
}

// Key returns the redis key for id
func (c *EntityCache[T]) Key(id int64) string {
	return c.prefix + ":" + strconv.FormatInt(id, 10)
}

// Get returns the cached entity for id
func (c *EntityCache[T]) Get(ctx context.Context, id int64) (T, bool) {
	var zero T
	if !redis.Enabled() {
		return zero, false
	}

	raw, err := getValue(ctx, c.Key(id))
	if err != nil {
		if !redis.IsMiss(err) {
			logger.Warn(ctx, "Cache read failed", zap.String("key", c.Key(id)), zap.Error(err))
		}
		return zero, false
	}

	item := c.newItem()
	if err := json.Unmarshal([]byte(raw), item); err != nil {
		logger.Warn(ctx, "Cache entry corrupt", zap.String("key", c.Key(id)), zap.Error(err))
		return zero, false
	}
	return item, true
}

// Generation returns the current invalidation generation. Take it before
// reading the store and hand it to PutIfCurrent.
func (c *EntityCache[T]) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

// PutIfCurrent stores e unless a commit invalidation ran since gen was taken
func (c *EntityCache[T]) PutIfCurrent(ctx context.Context, e T, gen uint64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.generation != gen {
		logger.Debug(ctx, "Cache write skipped, entry may be stale", zap.String("prefix", c.prefix))
		return false
	}
	c.Put(ctx, e)
	return true
}

// Put stores e under its id
func (c *EntityCache[T]) Put(ctx context.Context, e T) {
	if !redis.Enabled() || entities.IsNil(e) || e.GetID() == 0 {
		return
	}
	payload, err := json.Marshal(e)
	if err != nil {
		logger.Warn(ctx, "Cache encode failed", zap.Int64("id", e.GetID()), zap.Error(err))
		return
	}
	if err := setValue(ctx, c.Key(e.GetID()), payload, c.ttl); err != nil {
		logger.Warn(ctx, "Cache write failed", zap.String("key", c.Key(e.GetID())), zap.Error(err))
	}
}

// Invalidate drops the entries for ids
func (c *EntityCache[T]) Invalidate(ctx context.Context, ids ...int64) {
	if !redis.Enabled() || len(ids) == 0 {
		return
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, c.Key(id))
	}
	if err := delValue(ctx, keys...); err != nil {
		logger.Warn(ctx, "Cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

// InvalidateCommitted is a commit hook dropping every committed entity of kind T
func (c *EntityCache[T]) InvalidateCommitted(ctx context.Context, result domainRepos.CommitResult) {
	var ids []int64
	for _, e := range result.Entities() {
		if _, ok := e.(T); ok && e.GetID() != 0 {
			ids = append(ids, e.GetID())
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.Invalidate(ctx, ids...)
}
