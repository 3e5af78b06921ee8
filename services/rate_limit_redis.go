package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/crystal-dz/storefront_api/model"
	"github.com/crystal-dz/storefront_api/services/repositories"
	"github.com/redis/go-redis/v9"
)

const redisLimitKeyPrefix = "ratelimit:order:"

// checkLimitScript mirrors check_ip_rate_limit: the window starts at the first
// order, the counter resets once start+window has passed, and the key expires
// with the window. Time is read from the Redis server.
const checkLimitScript = `
local key = KEYS[1]
local max = %[1]d
local window = %[2]d
local now = tonumber(redis.call('TIME')[1])

local count = tonumber(redis.call('HGET', key, 'count') or '0')
local start = tonumber(redis.call('HGET', key, 'window_start') or now)

if start + window <= now then
  count = 0
  start = now
end

if count >= max then
  return {0, 0, start + window}
end

count = count + 1
redis.call('HSET', key, 'count', count, 'window_start', start, 'last_order_at', now)
redis.call('EXPIREAT', key, start + window)

return {1, max - count, start + window}
`

// RedisLimitStore keeps the order counters in Redis hashes and evaluates the
// policy in a single script call.
type RedisLimitStore struct {
	client    *redis.Client
	check     *redis.Script
	maxOrders int
	window    time.Duration
}

func NewRedisLimitStore(client *redis.Client, maxOrders int, window time.Duration) *RedisLimitStore {
	return &RedisLimitStore{
		client:    client,
		check:     redis.NewScript(fmt.Sprintf(checkLimitScript, maxOrders, int64(window/time.Second))),
		maxOrders: maxOrders,
		window:    window,
	}
}

func (s *RedisLimitStore) Name() string {
	return "redis"
}

func (s *RedisLimitStore) Check(ctx context.Context, ip string) (repositories.LimitDecision, error) {
	res, err := s.check.Run(ctx, s.client, []string{redisLimitKeyPrefix + ip}).Int64Slice()
	if err != nil {
		return repositories.LimitDecision{}, fmt.Errorf("rate limit script: %w", err)
	}
	if len(res) != 3 {
		return repositories.LimitDecision{}, repositories.ErrNoDecision
	}

	return repositories.LimitDecision{
		Allowed:   res[0] == 1,
		Remaining: int(res[1]),
		ResetTime: time.Unix(res[2], 0).UTC(),
	}, nil
}

func (s *RedisLimitStore) Reset(ctx context.Context, ip string) error {
	return s.client.Del(ctx, redisLimitKeyPrefix+ip).Err()
}

func (s *RedisLimitStore) Counts(ctx context.Context) (tracked, limited int64, err error) {
	rows, err := s.scan(ctx)
	if err != nil {
		return 0, 0, err
	}

	cutoff := time.Now().Add(-s.window)
	for _, row := range rows {
		tracked++
		if row.OrderCount >= s.maxOrders && row.WindowStart.After(cutoff) {
			limited++
		}
	}
	return tracked, limited, nil
}

func (s *RedisLimitStore) List(ctx context.Context, limit, offset int) ([]model.IPTracking, int64, error) {
	rows, err := s.scan(ctx)
	if err != nil {
		return nil, 0, err
	}

	total := int64(len(rows))
	if offset >= len(rows) {
		return []model.IPTracking{}, total, nil
	}
	end := offset + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[offset:end], total, nil
}

func (s *RedisLimitStore) scan(ctx context.Context) ([]model.IPTracking, error) {
	var rows []model.IPTracking

	iter := s.client.Scan(ctx, 0, redisLimitKeyPrefix+"*", 200).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		fields, err := s.client.HGetAll(ctx, key).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return nil, err
		}
		if len(fields) == 0 {
			// expired between SCAN and HGETALL
			continue
		}
		rows = append(rows, trackingFromHash(strings.TrimPrefix(key, redisLimitKeyPrefix), fields))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan rate limit keys: %w", err)
	}
	return rows, nil
}

func trackingFromHash(ip string, fields map[string]string) model.IPTracking {
	count, _ := strconv.Atoi(fields["count"])
	start, _ := strconv.ParseInt(fields["window_start"], 10, 64)

	row := model.IPTracking{
		IPAddress:   ip,
		OrderCount:  count,
		WindowStart: time.Unix(start, 0).UTC(),
	}
	if last, err := strconv.ParseInt(fields["last_order_at"], 10, 64); err == nil {
		at := time.Unix(last, 0).UTC()
		row.LastOrderAt = &at
		row.UpdatedAt = at
	}
	return row
}
