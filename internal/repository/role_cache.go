package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/identity-service/internal/domain"
)

const roleCachePrefix = "identity:roles:"

// CachedRoleRepository serves role lookups from Redis and falls back to the
// wrapped directory on any cache error. Deletes go to the directory and then
// drop every cached entry.
type CachedRoleRepository struct {
	inner  RoleAdminRepository
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedRoleRepository wraps inner with a Redis read-through cache.
func NewCachedRoleRepository(inner RoleAdminRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedRoleRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedRoleRepository{inner: inner, client: client, ttl: ttl, logger: logger}
}

func (c *CachedRoleRepository) GetByID(ctx context.Context, id int) (*domain.Role, error) {
	key := fmt.Sprintf("%sid:%d", roleCachePrefix, id)
	var role domain.Role
	if c.get(ctx, key, &role) {
		return &role, nil
	}
	found, err := c.inner.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, found)
	return found, nil
}

func (c *CachedRoleRepository) GetByName(ctx context.Context, name string) (*domain.Role, error) {
	key := roleCachePrefix + "name:" + strings.ToLower(name)
	var role domain.Role
	if c.get(ctx, key, &role) && role.Name == name {
		return &role, nil
	}
	found, err := c.inner.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, found)
	return found, nil
}

func (c *CachedRoleRepository) GetAll(ctx context.Context) ([]domain.Role, error) {
	key := roleCachePrefix + "all"
	var roles []domain.Role
	if c.get(ctx, key, &roles) {
		return roles, nil
	}
	found, err := c.inner.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, found)
	return found, nil
}

// Delete removes the role from the directory and invalidates the cache. A
// failed invalidation is logged; stale entries expire with the TTL.
func (c *CachedRoleRepository) Delete(ctx context.Context, id int) error {
	if err := c.inner.Delete(ctx, id); err != nil {
		return err
	}
	if err := c.Invalidate(ctx); err != nil {
		c.logger.Warn("role cache invalidation failed", zap.Int("role_id", id), zap.Error(err))
	}
	return nil
}

// Invalidate drops every cached role entry.
func (c *CachedRoleRepository) Invalidate(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, roleCachePrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *CachedRoleRepository) get(ctx context.Context, key string, dest any) bool {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug("role cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		c.logger.Warn("role cache entry corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (c *CachedRoleRepository) set(ctx context.Context, key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Debug("role cache write failed", zap.String("key", key), zap.Error(err))
	}
}
