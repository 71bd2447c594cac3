package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"quote-tracker/internal/market"
)

const (
	DefaultKeyPrefix = "quote:"
	latestSegment    = "latest:"
	lastRunKey       = "control:last_run"
)

// RedisLatest keeps one record per symbol. Each write is a single SET of
// the full record, so readers observe either the old or the new value.
type RedisLatest struct {
	client redis.Cmdable
	prefix string
}

func NewRedisLatest(client redis.Cmdable, prefix string) *RedisLatest {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisLatest{client: client, prefix: prefix}
}

func (r *RedisLatest) key(symbol string) string {
	return r.prefix + latestSegment + symbol
}

func (r *RedisLatest) PutLatest(ctx context.Context, q market.Quote) error {
	if q.Symbol == "" {
		return ErrEmptySymbol
	}
	payload, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("marshal quote: %w", err)
	}
	if err := r.client.Set(ctx, r.key(q.Symbol), payload, 0).Err(); err != nil {
		return fmt.Errorf("redis set latest %s: %w", q.Symbol, err)
	}
	return nil
}

func (r *RedisLatest) GetLatest(ctx context.Context, symbol string) (market.Quote, bool, error) {
	payload, err := r.client.Get(ctx, r.key(symbol)).Bytes()
	if errors.Is(err, redis.Nil) {
		return market.Quote{}, false, nil
	}
	if err != nil {
		return market.Quote{}, false, fmt.Errorf("redis get latest %s: %w", symbol, err)
	}
	var q market.Quote
	if err := json.Unmarshal(payload, &q); err != nil {
		return market.Quote{}, false, fmt.Errorf("decode latest %s: %w", symbol, err)
	}
	return q, true, nil
}

// LastRun returns the completion time of the previous ingestion cycle.
func (r *RedisLatest) LastRun(ctx context.Context) (time.Time, bool, error) {
	v, err := r.client.Get(ctx, r.prefix+lastRunKey).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("redis get last run: %w", err)
	}
	sec, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse last run %q: %w", v, err)
	}
	return time.Unix(sec, 0), true, nil
}

func (r *RedisLatest) MarkRun(ctx context.Context, at time.Time) error {
	if err := r.client.Set(ctx, r.prefix+lastRunKey, strconv.FormatInt(at.Unix(), 10), 0).Err(); err != nil {
		return fmt.Errorf("redis set last run: %w", err)
	}
	return nil
}

func (r *RedisLatest) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
