// Package redisstore keeps message records in Redis hashes with a TTL and a
// sorted-set index ordered by creation time.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/freema/convcom/internal/message"
	"github.com/freema/convcom/internal/redisclient"
)

// Store implements message.Store on Redis.
type Store struct {
	redis *redisclient.Client
	ttl   time.Duration
}

var _ message.Store = (*Store)(nil)

// New creates a store. A zero ttl keeps records forever.
func New(rdb *redisclient.Client, ttl time.Duration) *Store {
	return &Store{redis: rdb, ttl: ttl}
}

// Save writes the record hash and indexes it.
func (s *Store) Save(ctx context.Context, r *message.Record) error {
	fields, err := recordToHash(r)
	if err != nil {
		return err
	}

	key := s.redis.Key("record", r.ID)
	pipe := s.redis.Unwrap().TxPipeline()
	pipe.HSet(ctx, key, fields)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	pipe.ZAdd(ctx, s.indexKey(), redis.Z{Score: float64(r.CreatedAt.UnixMicro()), Member: r.ID})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("saving record in redis: %w", err)
	}
	return nil
}

// Get loads one record.
func (s *Store) Get(ctx context.Context, id string) (*message.Record, error) {
	fields, err := s.redis.Unwrap().HGetAll(ctx, s.redis.Key("record", id)).Result()
	if err != nil {
		return nil, fmt.Errorf("getting record from redis: %w", err)
	}
	if len(fields) == 0 {
		return nil, message.ErrRecordNotFound
	}
	return hashToRecord(fields)
}

// List returns the newest records. Index entries whose hash has expired are
// pruned on the way.
func (s *Store) List(ctx context.Context, limit int) ([]*message.Record, error) {
	ids, err := s.redis.Unwrap().ZRevRange(ctx, s.indexKey(), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("listing record index: %w", err)
	}
	if len(ids) == 0 {
		return []*message.Record{}, nil
	}

	pipe := s.redis.Unwrap().Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, s.redis.Key("record", id))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("loading records: %w", err)
	}

	records := make([]*message.Record, 0, len(ids))
	var expired []interface{}
	for i, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			expired = append(expired, ids[i])
			continue
		}
		r, err := hashToRecord(fields)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}

	if len(expired) > 0 {
		s.redis.Unwrap().ZRem(ctx, s.indexKey(), expired...)
	}
	return records, nil
}

// Ping checks Redis connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.redis.Ping(ctx)
}

// Close is a no-op; the Redis client is owned by the caller.
func (s *Store) Close() error {
	return nil
}

func (s *Store) indexKey() string {
	return s.redis.Key("records")
}

func recordToHash(r *message.Record) (map[string]interface{}, error) {
	c, err := json.Marshal(r.Commit)
	if err != nil {
		return nil, fmt.Errorf("encoding commit: %w", err)
	}

	fields := map[string]interface{}{
		"id":         r.ID,
		"source":     string(r.Source),
		"commit":     string(c),
		"message":    r.Message,
		"breaking":   strconv.FormatBool(r.Breaking),
		"created_at": r.CreatedAt.Format(time.RFC3339Nano),
	}
	if r.TraceID != "" {
		fields["trace_id"] = r.TraceID
	}
	return fields, nil
}

func hashToRecord(fields map[string]string) (*message.Record, error) {
	r := &message.Record{
		ID:      fields["id"],
		Source:  message.Source(fields["source"]),
		Message: fields["message"],
		TraceID: fields["trace_id"],
	}
	var err error
	if r.Breaking, err = strconv.ParseBool(fields["breaking"]); err != nil {
		return nil, fmt.Errorf("decoding breaking flag of record %s: %w", r.ID, err)
	}
	if r.CreatedAt, err = time.Parse(time.RFC3339Nano, fields["created_at"]); err != nil {
		return nil, fmt.Errorf("decoding created_at of record %s: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(fields["commit"]), &r.Commit); err != nil {
		return nil, fmt.Errorf("decoding commit of record %s: %w", r.ID, err)
	}
	return r, nil
}
