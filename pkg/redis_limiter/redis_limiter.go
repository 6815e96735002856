package redis_limiter

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// RedisLimiter 基于Redis的并发限制器
// 用于限制单个用户同时进行的上传数
type RedisLimiter struct {
	client        *redis.Client
	maxConcurrent int
	keyPrefix     string
	ttl           time.Duration
	logger        *logrus.Logger
}

// NewRedisLimiter 创建基于Redis的并发限制器
func NewRedisLimiter(client *redis.Client, maxConcurrent int, keyPrefix string, ttl time.Duration, logger *logrus.Logger) *RedisLimiter {
	return &RedisLimiter{
		client:        client,
		maxConcurrent: maxConcurrent,
		keyPrefix:     keyPrefix,
		ttl:           ttl,
		logger:        logger,
	}
}

// ErrLimitReached 并发槽位已满
var ErrLimitReached = fmt.Errorf("并发上传数已达上限")

// Acquire 获取并发槽位
func (rl *RedisLimiter) Acquire(ctx context.Context, key string) error {
	redisKey := rl.keyPrefix + key

	// 使用Lua脚本确保原子性操作：
	// 未超限则 INCR 并刷新过期时间，否则返回超限值表示失败
	script := redis.NewScript(
		`local current = redis.call('GET', KEYS[1])
		if current == false then
			current = 0
		else
			current = tonumber(current)
		end

		if current >= tonumber(ARGV[1]) then
			return current + 1
		end

		local newCount = redis.call('INCR', KEYS[1])
		redis.call('EXPIRE', KEYS[1], tonumber(ARGV[2]))
		return newCount`,
	)

	result, err := script.Run(ctx, rl.client, []string{redisKey}, rl.maxConcurrent, int(rl.ttl.Seconds())).Result()
	if err != nil {
		return fmt.Errorf("执行Lua脚本失败: %w", err)
	}

	newCount := int(result.(int64))
	if newCount > rl.maxConcurrent {
		rl.logger.WithFields(logrus.Fields{
			"key":     key,
			"current": newCount - 1,
			"max":     rl.maxConcurrent,
		}).Warn("上传槽位已满")
		return ErrLimitReached
	}

	return nil
}

// Release 释放并发槽位
func (rl *RedisLimiter) Release(ctx context.Context, key string) {
	redisKey := rl.keyPrefix + key

	// 计数减到0时删除key，否则刷新过期时间
	script := redis.NewScript(
		`local count = redis.call('DECR', KEYS[1])
		if tonumber(count) <= 0 then
			redis.call('DEL', KEYS[1])
			return 0
		else
			redis.call('EXPIRE', KEYS[1], tonumber(ARGV[1]))
			return count
		end`,
	)

	if _, err := script.Run(ctx, rl.client, []string{redisKey}, int(rl.ttl.Seconds())).Result(); err != nil {
		rl.logger.WithField("key", key).Warnf("释放上传槽位失败: %v", err)
	}
}

// GetCurrent 获取当前并发数
func (rl *RedisLimiter) GetCurrent(ctx context.Context, key string) (int, error) {
	redisKey := rl.keyPrefix + key
	current, err := rl.client.Get(ctx, redisKey).Int()
	if err != nil && err != redis.Nil {
		return 0, fmt.Errorf("获取当前并发数失败: %w", err)
	}
	if err == redis.Nil {
		return 0, nil
	}
	return current, nil
}
