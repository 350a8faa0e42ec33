// Package cache holds the Redis-backed doctor directory cache. The directory
// is the hottest read path (every visitor lists doctors before booking) and
// changes rarely, so it is cached whole and invalidated on any doctor
// mutation.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"docbook/pkg/logger"
	"docbook/pkg/model"
)

const doctorListKey = "doctors:all"

type DoctorCache struct {
	rdb *redis.Client
	ttl time.Duration
	log *logger.Logger
}

// NewDoctorCache returns a cache handle. A nil rdb yields a disabled cache
// whose lookups always miss, so callers never branch on Redis availability.
func NewDoctorCache(rdb *redis.Client, ttl time.Duration, log *logger.Logger) *DoctorCache {
	return &DoctorCache{rdb: rdb, ttl: ttl, log: log}
}

func (c *DoctorCache) GetDoctors(ctx context.Context) ([]*model.Doctor, bool) {
	if c.rdb == nil {
		return nil, false
	}

	raw, err := c.rdb.Get(ctx, doctorListKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn("Doctor cache read failed", "error", err)
		}
		return nil, false
	}

	var doctors []*model.Doctor
	if err := json.Unmarshal(raw, &doctors); err != nil {
		c.log.Warn("Doctor cache held invalid payload, dropping it", "error", err)
		c.Invalidate(ctx)
		return nil, false
	}
	return doctors, true
}

func (c *DoctorCache) SetDoctors(ctx context.Context, doctors []*model.Doctor) {
	if c.rdb == nil {
		return
	}

	raw, err := json.Marshal(doctors)
	if err != nil {
		c.log.Warn("Failed to encode doctors for cache", "error", err)
		return
	}
	if err := c.rdb.Set(ctx, doctorListKey, raw, c.ttl).Err(); err != nil {
		c.log.Warn("Doctor cache write failed", "error", err)
	}
}

func (c *DoctorCache) Invalidate(ctx context.Context) {
	if c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, doctorListKey).Err(); err != nil {
		c.log.Warn("Doctor cache invalidation failed", "error", err)
	}
}
