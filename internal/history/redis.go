package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"
)

var _ Store = (*RedisStore)(nil)

type RedisOptions struct {
	Client     *redis.Client
	Prefix     string
	MaxRecords int
	TTL        time.Duration
	Logger     *slog.Logger
}

// RedisStore keeps each record as JSON under its own key and the per-user
// order in a list of ids, newest at the head.
type RedisStore struct {
	client *redis.Client
	prefix string
	limit  int
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisStore(opts RedisOptions) *RedisStore {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "archviz:history"
	}
	limit := opts.MaxRecords
	if limit <= 0 {
		limit = DefaultMaxRecords
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &RedisStore{client: opts.Client, prefix: prefix, limit: limit, ttl: opts.TTL, logger: logger}
}

// Lists and records live under separate namespaces. User and record ids are
// query-escaped so a ":" inside them cannot address another key.
func (s *RedisStore) listKey(userID string) string {
	return fmt.Sprintf("%s:list:%s", s.prefix, url.QueryEscape(userID))
}

func (s *RedisStore) recordKey(userID, id string) string {
	return fmt.Sprintf("%s:rec:%s:%s", s.prefix, url.QueryEscape(userID), url.QueryEscape(id))
}

func (s *RedisStore) Append(ctx context.Context, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal history record: %w", err)
	}

	listKey := s.listKey(rec.UserID)
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.recordKey(rec.UserID, rec.ID), data, s.ttl)
	pipe.LPush(ctx, listKey, rec.ID)
	overflow := pipe.LRange(ctx, listKey, int64(s.limit), -1)
	pipe.LTrim(ctx, listKey, 0, int64(s.limit-1))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append history record: %w", err)
	}

	if ids := overflow.Val(); len(ids) > 0 {
		keys := make([]string, 0, len(ids))
		for _, id := range ids {
			keys = append(keys, s.recordKey(rec.UserID, id))
		}
		if err := s.client.Del(ctx, keys...).Err(); err != nil {
			s.logger.Warn("failed to delete trimmed history records", "err", err, "user_id", rec.UserID, "count", len(keys))
		}
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context, userID string, limit int) ([]Record, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}
	ids, err := s.client.LRange(ctx, s.listKey(userID), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("list history ids: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, s.recordKey(userID, id))
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load history records: %w", err)
	}

	out := make([]Record, 0, len(vals))
	for i, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(str), &rec); err != nil {
			s.logger.Warn("skipping undecodable history record", "err", err, "key", keys[i])
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *RedisStore) Get(ctx context.Context, userID, id string) (Record, error) {
	data, err := s.client.Get(ctx, s.recordKey(userID, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("get history record: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("decode history record: %w", err)
	}
	return rec, nil
}
