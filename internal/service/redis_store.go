package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/pupilnest/pupilnest-backend/internal/config"
	"github.com/pupilnest/pupilnest-backend/internal/model"
	"github.com/redis/go-redis/v9"
)

// ─── Answer key ────────────────────────────────────────────────────────

// RedisAnswerKeyCache keeps question id -> correct answer in one Redis hash.
type RedisAnswerKeyCache struct {
	rdb *redis.Client
}

func NewRedisAnswerKeyCache(rdb *redis.Client) *RedisAnswerKeyCache {
	return &RedisAnswerKeyCache{rdb: rdb}
}

// Lookup returns the cached answers of ids. Missing ids are absent from the map.
func (c *RedisAnswerKeyCache) Lookup(ctx context.Context, ids []int) (map[int]string, error) {
	fields := make([]string, len(ids))
	for i, id := range ids {
		fields[i] = strconv.Itoa(id)
	}
	vals, err := c.rdb.HMGet(ctx, config.CacheKey.AnswerKeyHash(), fields...).Result()
	if err != nil {
		return nil, fmt.Errorf("hmget answer key: %w", err)
	}

	found := make(map[int]string, len(ids))
	for i, v := range vals {
		if s, ok := v.(string); ok {
			found[ids[i]] = s
		}
	}
	return found, nil
}

// Store writes answers into the hash.
func (c *RedisAnswerKeyCache) Store(ctx context.Context, answers map[int]string) error {
	values := make(map[string]interface{}, len(answers))
	for id, v := range answers {
		values[strconv.Itoa(id)] = v
	}
	return c.rdb.HSet(ctx, config.CacheKey.AnswerKeyHash(), values).Err()
}

// Replace swaps the whole hash for answers in one MULTI/EXEC, dropping ids
// that are no longer stored.
func (c *RedisAnswerKeyCache) Replace(ctx context.Context, answers map[int]string) error {
	key := config.CacheKey.AnswerKeyHash()
	values := make(map[string]interface{}, len(answers))
	for id, v := range answers {
		values[strconv.Itoa(id)] = v
	}
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(values) > 0 {
			pipe.HSet(ctx, key, values)
		}
		return nil
	})
	return err
}

// ─── Result events ─────────────────────────────────────────────────────

// RedisResultPublisher queues a result for the stats worker and announces it on the feed.
type RedisResultPublisher struct {
	rdb *redis.Client
}

func NewRedisResultPublisher(rdb *redis.Client) *RedisResultPublisher {
	return &RedisResultPublisher{rdb: rdb}
}

func (p *RedisResultPublisher) Publish(ctx context.Context, ev model.ResultEvent) error {
	raw, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	pipe := p.rdb.Pipeline()
	pipe.RPush(ctx, config.WorkerKey.PersistStatsQueue, raw)
	pipe.Publish(ctx, config.CacheKey.ResultFeedChannel(), raw)
	_, err = pipe.Exec(ctx)
	return err
}

// ─── Login sessions ────────────────────────────────────────────────────

// RedisSessionStore holds the JTI of each student's current login.
type RedisSessionStore struct {
	rdb *redis.Client
}

func NewRedisSessionStore(rdb *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb}
}

func (s *RedisSessionStore) Set(ctx context.Context, studentID int, jti string, ttl time.Duration) error {
	return s.rdb.Set(ctx, config.CacheKey.StudentSessionKey(studentID), jti, ttl).Err()
}

// Get returns ErrNoSession when the student is not logged in.
func (s *RedisSessionStore) Get(ctx context.Context, studentID int) (string, error) {
	jti, err := s.rdb.Get(ctx, config.CacheKey.StudentSessionKey(studentID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNoSession
	}
	return jti, err
}

func (s *RedisSessionStore) Delete(ctx context.Context, studentID int) error {
	return s.rdb.Del(ctx, config.CacheKey.StudentSessionKey(studentID)).Err()
}

// ─── Report summaries ──────────────────────────────────────────────────

// RedisSummaryCache caches each student's report summary as JSON.
type RedisSummaryCache struct {
	rdb *redis.Client
}

func NewRedisSummaryCache(rdb *redis.Client) *RedisSummaryCache {
	return &RedisSummaryCache{rdb: rdb}
}

// Get reports false on a cache miss.
func (c *RedisSummaryCache) Get(ctx context.Context, studentID int) (*model.ReportSummary, bool, error) {
	raw, err := c.rdb.Get(ctx, config.CacheKey.StudentReportSummaryKey(studentID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var summary model.ReportSummary
	if err := json.Unmarshal(raw, &summary); err != nil {
		return nil, false, fmt.Errorf("unmarshal summary: %w", err)
	}
	return &summary, true, nil
}

func (c *RedisSummaryCache) Set(ctx context.Context, studentID int, summary *model.ReportSummary, ttl time.Duration) error {
	raw, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	return c.rdb.Set(ctx, config.CacheKey.StudentReportSummaryKey(studentID), raw, ttl).Err()
}

// Invalidate drops the cached summaries of the given students.
func (c *RedisSummaryCache) Invalidate(ctx context.Context, studentIDs ...int) error {
	if len(studentIDs) == 0 {
		return nil
	}
	keys := make([]string, len(studentIDs))
	for i, id := range studentIDs {
		keys[i] = config.CacheKey.StudentReportSummaryKey(id)
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// ─── Results feed ──────────────────────────────────────────────────────

// RedisResultFeed subscribes to the channel RedisResultPublisher announces results on.
type RedisResultFeed struct {
	rdb *redis.Client
}

func NewRedisResultFeed(rdb *redis.Client) *RedisResultFeed {
	return &RedisResultFeed{rdb: rdb}
}

// Subscribe returns raw result events until ctx is done or the returned
// close func is called. The channel is closed afterwards.
func (f *RedisResultFeed) Subscribe(ctx context.Context) (<-chan []byte, func() error, error) {
	pubsub := f.rdb.Subscribe(ctx, config.CacheKey.ResultFeedChannel())
	// Wait for the subscription confirmation so connection errors surface here.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("subscribe results feed: %w", err)
	}

	out := make(chan []byte, 16)
	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			select {
			case out <- []byte(msg.Payload):
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, pubsub.Close, nil
}
