package viewcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"trialwatch.app/engine/internal/model"
)

const maxWatchRetries = 5

type RedisConfig struct {
	Prefix string
	TTL    time.Duration
}

// RedisClient is the part of go-redis the cache uses; *redis.Client
// satisfies it.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Watch(ctx context.Context, fn func(*redis.Tx) error, keys ...string) error
}

// Redis stores each partition's thread as a JSON array under its own key.
// Read-modify-write cycles run under WATCH so concurrent writers cannot drop
// each other's comments.
type Redis struct {
	client RedisClient
	cfg    RedisConfig
}

func NewRedis(client RedisClient, cfg RedisConfig) *Redis {
	if cfg.Prefix == "" {
		cfg.Prefix = "trialwatch"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Minute
	}
	return &Redis{client: client, cfg: cfg}
}

func (r *Redis) key(p Partition, taskID int64) string {
	return fmt.Sprintf("%s:comments:%s:%d", r.cfg.Prefix, p, taskID)
}

func (r *Redis) Get(ctx context.Context, p Partition, taskID int64) ([]model.TaskComment, bool, error) {
	raw, err := r.client.Get(ctx, r.key(p, taskID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("reading cached comments: %w", err)
	}

	var comments []model.TaskComment
	if err := json.Unmarshal(raw, &comments); err != nil {
		// A corrupt entry is treated as a miss and dropped.
		key := r.key(p, taskID)
		slog.WarnContext(ctx, "discarding undecodable comment cache entry", "key", key, "error", err)
		if delErr := r.client.Del(ctx, key).Err(); delErr != nil {
			slog.WarnContext(ctx, "failed to drop undecodable comment cache entry", "key", key, "error", delErr)
		}
		return nil, false, nil
	}
	return comments, true, nil
}

func (r *Redis) MergeInto(ctx context.Context, p Partition, taskID int64, comments []model.TaskComment) ([]model.TaskComment, error) {
	var merged []model.TaskComment
	err := r.update(ctx, r.key(p, taskID), func(existing []model.TaskComment, present bool) ([]model.TaskComment, bool) {
		merged = Merge(existing, comments)
		return merged, true
	})
	if err != nil {
		return nil, err
	}
	return merged, nil
}

func (r *Redis) Append(ctx context.Context, p Partition, taskID int64, comment model.TaskComment) error {
	return r.update(ctx, r.key(p, taskID), func(existing []model.TaskComment, present bool) ([]model.TaskComment, bool) {
		if !present {
			return nil, false
		}
		return Merge(existing, []model.TaskComment{comment}), true
	})
}

func (r *Redis) Invalidate(ctx context.Context, taskID int64) error {
	keys := make([]string, 0, len(Partitions))
	for _, p := range Partitions {
		keys = append(keys, r.key(p, taskID))
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("invalidating comment cache: %w", err)
	}
	return nil
}

// update applies fn to the entry at key inside an optimistic transaction.
// fn returns write=false to leave the key untouched.
func (r *Redis) update(ctx context.Context, key string, fn func(existing []model.TaskComment, present bool) ([]model.TaskComment, bool)) error {
	txf := func(tx *redis.Tx) error {
		var existing []model.TaskComment
		present := true
		raw, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
			present = false
		case err != nil:
			return err
		default:
			if err := json.Unmarshal(raw, &existing); err != nil {
				existing, present = nil, false
			}
		}

		next, write := fn(existing, present)
		if !write {
			return nil
		}
		data, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("encoding comments: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, r.cfg.TTL)
			return nil
		})
		return err
	}

	for i := 0; i < maxWatchRetries; i++ {
		err := r.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return fmt.Errorf("updating comment cache: %w", err)
		}
		return nil
	}
	return fmt.Errorf("updating comment cache: %w", redis.TxFailedErr)
}
