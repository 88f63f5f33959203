package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/seo-optimizer/seoscan/errs"
	"github.com/seo-optimizer/seoscan/models"
)

// RedisLimiter applies the same rules as StoreLimiter with state kept in
// Redis, so several API instances share it. The cooldown is a key with a TTL,
// the window a sorted set scored by unix milliseconds. Both are written by
// Record, after an analysis is stored.
//
// Redis failures let the request through.
type RedisLimiter struct {
	client *redis.Client
	logger *slog.Logger
	now    func() time.Time
}

func NewRedisClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}

func NewRedisLimiter(client *redis.Client, log *slog.Logger) *RedisLimiter {
	return &RedisLimiter{client: client, logger: logger(log), now: time.Now}
}

func cooldownKey(projectID string) string {
	return "seoscan:cooldown:" + projectID
}

func windowKey(projectID string) string {
	return "seoscan:window:" + projectID
}

func (l *RedisLimiter) Allow(ctx context.Context, project models.Project) error {
	now := l.now()

	cooling, err := l.client.Exists(ctx, cooldownKey(project.ID)).Result()
	if err != nil {
		return l.failOpen(project.ID, "exists", err)
	}
	if cooling > 0 {
		return errs.New(errs.RateLimited, fmt.Sprintf("project %s is cooling down", project.ID))
	}

	wkey := windowKey(project.ID)
	cutoff := strconv.FormatInt(now.Add(-Window).UnixMilli(), 10)
	if err := l.client.ZRemRangeByScore(ctx, wkey, "-inf", "("+cutoff).Err(); err != nil {
		return l.failOpen(project.ID, "zremrangebyscore", err)
	}

	n, err := l.client.ZCard(ctx, wkey).Result()
	if err != nil {
		return l.failOpen(project.ID, "zcard", err)
	}
	if n > MaxPerWindow {
		return errs.New(errs.RateLimited, fmt.Sprintf("project %s has %d analyses in the last %s", project.ID, n, Window))
	}
	return nil
}

// Record starts the cooldown and adds the analysis to the window.
func (l *RedisLimiter) Record(ctx context.Context, projectID string, at time.Time) error {
	atMS := at.UnixMilli()
	wkey := windowKey(projectID)

	if err := l.client.Set(ctx, cooldownKey(projectID), atMS, Cooldown).Err(); err != nil {
		return fmt.Errorf("set cooldown: %w", err)
	}
	member := redis.Z{Score: float64(atMS), Member: strconv.FormatInt(at.UnixNano(), 10)}
	if err := l.client.ZAdd(ctx, wkey, member).Err(); err != nil {
		return fmt.Errorf("add to window: %w", err)
	}
	if err := l.client.Expire(ctx, wkey, Window).Err(); err != nil {
		return fmt.Errorf("expire window: %w", err)
	}
	return nil
}

func (l *RedisLimiter) failOpen(projectID, op string, err error) error {
	l.logger.Warn("rate limiter unavailable, allowing request",
		"project_id", projectID, "op", op, "error", err)
	return nil
}
