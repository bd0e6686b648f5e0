package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"kifu/internal/config"
	apperrors "kifu/internal/errors"
)

const (
	redisKeyPrefix = "kifu:record:"
	redisIndexKey  = "kifu:records"
)

// RedisStore keeps records as JSON values with a TTL. A set indexes the IDs.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to Redis and pings it.
func NewRedisStore(ctx context.Context, cfg config.RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctxPing).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	return &RedisStore{client: client, ttl: cfg.TTL}, nil
}

func (r *RedisStore) Put(ctx context.Context, rec StoredRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode record %s: %w", rec.ID, err)
	}
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, redisKeyPrefix+rec.ID, data, r.ttl)
	pipe.SAdd(ctx, redisIndexKey, rec.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store record %s: %w", rec.ID, err)
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, id string) (StoredRecord, error) {
	data, err := r.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return StoredRecord{}, apperrors.ErrRecordNotFound
		}
		return StoredRecord{}, fmt.Errorf("failed to load record %s: %w", id, err)
	}
	var rec StoredRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return StoredRecord{}, fmt.Errorf("failed to decode record %s: %w", id, err)
	}
	return rec, nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	n, err := r.client.Del(ctx, redisKeyPrefix+id).Result()
	if err != nil {
		return fmt.Errorf("failed to delete record %s: %w", id, err)
	}
	r.client.SRem(ctx, redisIndexKey, id)
	if n == 0 {
		return apperrors.ErrRecordNotFound
	}
	return nil
}

// List returns the indexed records that have not expired, pruning the rest
// from the index.
func (r *RedisStore) List(ctx context.Context) ([]StoredRecord, error) {
	ids, err := r.client.SMembers(ctx, redisIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	out := make([]StoredRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := r.Get(ctx, id)
		if errors.Is(err, apperrors.ErrRecordNotFound) {
			r.client.SRem(ctx, redisIndexKey, id)
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	sortRecords(out)
	return out, nil
}

func (r *RedisStore) Close(context.Context) error {
	return r.client.Close()
}
