package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/dhifafaz/birthday-reminder/internal/domain"
)

// Redis key names, carried over from the first deployment so an upgraded
// process can drain a queue written by the old one.
const (
	keyTasks        = "birthdayMessages"
	keyTaskPayloads = "birthdayMessages:payloads"
	keySent         = "sentMessages"
	keyFailed       = "failedMessages"
	keyFailedRetry  = "failedRetryMessages"
)

// RedisStore is the durable delayed task store and outcome sets. Tasks live
// in a sorted set scored by due-time millis with the user id as member; the
// serialized payload sits in a companion hash keyed by user id, which keeps
// rank lookups and exact removals O(log n) regardless of payload contents.
type RedisStore struct {
	client *redis.Client
}

var (
	_ domain.TaskQueue    = (*RedisStore)(nil)
	_ domain.OutcomeStore = (*RedisStore)(nil)
)

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) Insert(ctx context.Context, task *domain.NotificationTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.ZAdd(ctx, keyTasks, &redis.Z{Score: float64(task.DueAtMillis), Member: task.UserID})
	pipe.HSet(ctx, keyTaskPayloads, task.UserID, payload)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

func (r *RedisStore) Remove(ctx context.Context, task *domain.NotificationTask) error {
	pipe := r.client.TxPipeline()
	pipe.ZRem(ctx, keyTasks, task.UserID)
	pipe.HDel(ctx, keyTaskPayloads, task.UserID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("remove task: %w", err)
	}
	return nil
}

func (r *RedisStore) Due(ctx context.Context, now time.Time) ([]*domain.NotificationTask, error) {
	userIDs, err := r.client.ZRangeByScore(ctx, keyTasks, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("range due tasks: %w", err)
	}
	if len(userIDs) == 0 {
		return nil, nil
	}

	// ZRangeByScore returns members in ascending score order; decode in
	// place to preserve earliest-due-first processing.
	payloads, err := r.client.HMGet(ctx, keyTaskPayloads, userIDs...).Result()
	if err != nil {
		return nil, fmt.Errorf("load task payloads: %w", err)
	}

	tasks := make([]*domain.NotificationTask, 0, len(payloads))
	for i, raw := range payloads {
		str, okStr := raw.(string)
		if !okStr {
			// Payload missing for a queued member; skip rather than fail
			// the whole cycle.
			continue
		}
		var task domain.NotificationTask
		if err := json.Unmarshal([]byte(str), &task); err != nil {
			return nil, fmt.Errorf("unmarshal task for user %s: %w", userIDs[i], err)
		}
		tasks = append(tasks, &task)
	}
	return tasks, nil
}

func (r *RedisStore) Contains(ctx context.Context, userID string) (bool, error) {
	err := r.client.ZRank(ctx, keyTasks, userID).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("rank lookup: %w", err)
	}
	return true, nil
}

func (r *RedisStore) MarkSent(ctx context.Context, userID string) error {
	if err := r.client.SAdd(ctx, keySent, userID).Err(); err != nil {
		return fmt.Errorf("mark sent: %w", err)
	}
	return nil
}

func (r *RedisStore) WasSent(ctx context.Context, userID string) (bool, error) {
	sent, err := r.client.SIsMember(ctx, keySent, userID).Result()
	if err != nil {
		return false, fmt.Errorf("sent lookup: %w", err)
	}
	return sent, nil
}

func (r *RedisStore) RecordFailed(ctx context.Context, task *domain.NotificationTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal failed task: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.SAdd(ctx, keyFailedRetry, task.UserID)
	pipe.HSet(ctx, keyFailed, task.UserID, payload)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record failed task: %w", err)
	}
	return nil
}

func (r *RedisStore) FailedUserIDs(ctx context.Context) ([]string, error) {
	userIDs, err := r.client.SMembers(ctx, keyFailedRetry).Result()
	if err != nil {
		return nil, fmt.Errorf("list failed users: %w", err)
	}
	return userIDs, nil
}

func (r *RedisStore) FailedTask(ctx context.Context, userID string) (*domain.NotificationTask, error) {
	raw, err := r.client.HGet(ctx, keyFailed, userID).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load failed task: %w", err)
	}

	var task domain.NotificationTask
	if err := json.Unmarshal([]byte(raw), &task); err != nil {
		return nil, fmt.Errorf("unmarshal failed task: %w", err)
	}
	return &task, nil
}

func (r *RedisStore) ClearFailed(ctx context.Context, userID string) error {
	pipe := r.client.TxPipeline()
	pipe.SRem(ctx, keyFailedRetry, userID)
	pipe.HDel(ctx, keyFailed, userID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("clear failed entry: %w", err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
