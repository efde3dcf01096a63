package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when a token has no session or buffer record.
var ErrNotFound = errors.New("session not found")

// Key namespaces in the shared store. The session record and the output
// buffer of one token live and die together.
const (
	sessionKeyPrefix = "sessions::"
	bufferKeyPrefix  = "buffers::"
)

// TTL on both records; refreshed on every PutSession so orphaned sessions
// expire together with their buffers.
const recordTTL = 5 * time.Minute

// Store is the shared key/value state behind all workers. AppendBuffer is
// the only synchronization primitive the core relies on: it must be atomic
// under concurrent appenders. A full PutBuffer is not atomic with respect
// to concurrent appends; the dispatcher's flush protocol compensates.
type Store interface {
	PutSession(ctx context.Context, s Session) error
	GetSession(ctx context.Context, token string) (Session, error)
	PutBuffer(ctx context.Context, token string, buf []byte) error
	GetBuffer(ctx context.Context, token string) ([]byte, error)
	AppendBuffer(ctx context.Context, token string, buf []byte) error
	ListTokens(ctx context.Context) ([]string, error)
	Drop(ctx context.Context, token string) error
}

// RedisStore implements Store on Redis. Buffers are plain byte strings so
// AppendBuffer maps to the atomic APPEND command.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore connects to Redis using a URL like redis://host:port/db.
func NewRedisStore(url string) (*RedisStore, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	return &RedisStore{rdb: redis.NewClient(opt)}, nil
}

// Ping verifies the connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("pinging redis: %w", err)
	}
	return nil
}

// Close releases the client.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

func (s *RedisStore) PutSession(ctx context.Context, sess Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("serializing session %q: %w", sess.Token, err)
	}
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, sessionKeyPrefix+sess.Token, data, recordTTL)
	pipe.Expire(ctx, bufferKeyPrefix+sess.Token, recordTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("storing session %q: %w", sess.Token, err)
	}
	return nil
}

func (s *RedisStore) GetSession(ctx context.Context, token string) (Session, error) {
	data, err := s.rdb.Get(ctx, sessionKeyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("loading session %q: %w", token, err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return Session{}, fmt.Errorf("deserializing session %q: %w", token, err)
	}
	return sess, nil
}

func (s *RedisStore) PutBuffer(ctx context.Context, token string, buf []byte) error {
	if err := s.rdb.Set(ctx, bufferKeyPrefix+token, buf, recordTTL).Err(); err != nil {
		return fmt.Errorf("storing buffer %q: %w", token, err)
	}
	return nil
}

func (s *RedisStore) GetBuffer(ctx context.Context, token string) ([]byte, error) {
	data, err := s.rdb.Get(ctx, bufferKeyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading buffer %q: %w", token, err)
	}
	return data, nil
}

func (s *RedisStore) AppendBuffer(ctx context.Context, token string, buf []byte) error {
	if err := s.rdb.Append(ctx, bufferKeyPrefix+token, string(buf)).Err(); err != nil {
		return fmt.Errorf("appending to buffer %q: %w", token, err)
	}
	return nil
}

func (s *RedisStore) ListTokens(ctx context.Context) ([]string, error) {
	var tokens []string
	iter := s.rdb.Scan(ctx, 0, sessionKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		tokens = append(tokens, strings.TrimPrefix(iter.Val(), sessionKeyPrefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scanning sessions: %w", err)
	}
	return tokens, nil
}

func (s *RedisStore) Drop(ctx context.Context, token string) error {
	if err := s.rdb.Del(ctx, sessionKeyPrefix+token, bufferKeyPrefix+token).Err(); err != nil {
		return fmt.Errorf("dropping session %q: %w", token, err)
	}
	return nil
}
