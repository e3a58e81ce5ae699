package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"route-optimizer-service/internal/ports"
)

// Redis backed leg cache. Each origin maps to a hash whose fields are
// destination keys and whose values encode "km|min". Entries expire so
// stale road data eventually refreshes.
type RedisLegCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisLegCache(client *redis.Client, ttl time.Duration) *RedisLegCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisLegCache{client: client, ttl: ttl}
}

func legKey(origin string) string { return "leg:" + origin }

func (r *RedisLegCache) GetMany(
	ctx context.Context,
	origin string,
	destinations []string,
) (map[string]ports.LegResult, error) {
	if origin == "" {
		return nil, errors.New("get leg cache: origin must not be empty")
	}
	if len(destinations) == 0 {
		return map[string]ports.LegResult{}, nil
	}

	vals, err := r.client.HMGet(ctx, legKey(origin), destinations...).Result()
	if err != nil {
		return nil, fmt.Errorf("get leg cache: hmget: %w", err)
	}

	out := make(map[string]ports.LegResult, len(destinations))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		leg, err := decodeLeg(s)
		if err != nil {
			return nil, fmt.Errorf("get leg cache dest=%q: %w", destinations[i], err)
		}
		out[destinations[i]] = leg
	}
	return out, nil
}

func (r *RedisLegCache) PutMany(ctx context.Context, origin string, results map[string]ports.LegResult) error {
	if origin == "" {
		return errors.New("insert leg cache: origin must not be empty")
	}
	if len(results) == 0 {
		return nil
	}

	fields := make(map[string]string, len(results))
	for dest, leg := range results {
		if strings.TrimSpace(dest) == "" {
			return errors.New("insert leg cache: empty destination key")
		}
		fields[dest] = encodeLeg(leg)
	}

	key := legKey(origin)
	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("insert leg cache: pipeline: %w", err)
	}
	return nil
}

func encodeLeg(leg ports.LegResult) string {
	return strconv.FormatFloat(leg.DistanceKm, 'f', -1, 64) + "|" +
		strconv.FormatFloat(leg.DurationMin, 'f', -1, 64)
}

func decodeLeg(s string) (ports.LegResult, error) {
	km, min, found := strings.Cut(s, "|")
	if !found {
		return ports.LegResult{}, fmt.Errorf("malformed cache value %q", s)
	}
	d, err := strconv.ParseFloat(km, 64)
	if err != nil {
		return ports.LegResult{}, fmt.Errorf("malformed distance in %q", s)
	}
	t, err := strconv.ParseFloat(min, 64)
	if err != nil {
		return ports.LegResult{}, fmt.Errorf("malformed duration in %q", s)
	}
	return ports.LegResult{DistanceKm: d, DurationMin: t}, nil
}
