package auth

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultSessionPrefix = "session:"

// RedisSessionStore keeps one serialized session record per user identifier
// in Redis. The client is an explicit dependency injected at construction
// time; there is no package-level connection.
//
// Every failure that is not a plain cache miss is reported as
// ErrUpstreamUnavailable so a cache outage is never mistaken for a mass
// logout.
type RedisSessionStore struct {
	client redis.UniversalClient
	prefix string
	logger Logger
}

var _ SessionStore = (*RedisSessionStore)(nil)

// RedisStoreOption customizes a RedisSessionStore.
type RedisStoreOption func(*RedisSessionStore)

// WithStorePrefix overrides the key prefix used for session entries.
func WithStorePrefix(prefix string) RedisStoreOption {
	return func(s *RedisSessionStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithStoreLogger overrides the store logger.
func WithStoreLogger(logger Logger) RedisStoreOption {
	return func(s *RedisSessionStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewRedisSessionStore wraps an existing Redis client.
func NewRedisSessionStore(client redis.UniversalClient, opts ...RedisStoreOption) *RedisSessionStore {
	s := &RedisSessionStore{
		client: client,
		prefix: defaultSessionPrefix,
		logger: defLogger{},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// DialSessionStore connects to Redis at addr and verifies the connection
// before returning, so a misconfigured cache endpoint fails at startup
// rather than on the first login.
func DialSessionStore(ctx context.Context, addr string, opts ...RedisStoreOption) (*RedisSessionStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	store := NewRedisSessionStore(client, opts...)

	if err := store.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}

	return store, nil
}

// Get fetches the session record for a user identifier. A missing entry is
// ErrSessionExpired; any other failure is ErrUpstreamUnavailable.
func (s *RedisSessionStore) Get(ctx context.Context, userID string) (*SessionRecord, error) {
	payload, err := s.client.Get(ctx, s.key(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionExpired
		}
		s.logger.Error("session store get failed", "user_id", userID, "error", err)
		return nil, ErrUpstreamUnavailable
	}

	record := &SessionRecord{}
	if err := json.Unmarshal(payload, record); err != nil {
		s.logger.Error("session store entry corrupt", "user_id", userID, "error", err)
		return nil, ErrUpstreamUnavailable
	}

	return record, nil
}

// Save writes the session record with the given TTL, unconditionally
// overwriting any previous entry for the same user identifier.
func (s *RedisSessionStore) Save(ctx context.Context, userID string, record *SessionRecord, ttl time.Duration) error {
	payload, err := json.Marshal(record)
	if err != nil {
		s.logger.Error("session record encode failed", "user_id", userID, "error", err)
		return ErrUpstreamUnavailable
	}

	if err := s.client.Set(ctx, s.key(userID), payload, ttl).Err(); err != nil {
		s.logger.Error("session store set failed", "user_id", userID, "error", err)
		return ErrUpstreamUnavailable
	}

	return nil
}

// Delete removes the session entry. Deleting an absent entry is not an
// error, which keeps logout idempotent.
func (s *RedisSessionStore) Delete(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, s.key(userID)).Err(); err != nil {
		s.logger.Error("session store delete failed", "user_id", userID, "error", err)
		return ErrUpstreamUnavailable
	}
	return nil
}

// Ping verifies the cache connection.
func (s *RedisSessionStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		s.logger.Error("session store ping failed", "error", err)
		return ErrUpstreamUnavailable
	}
	return nil
}

// Close releases the underlying client.
func (s *RedisSessionStore) Close() error {
	return s.client.Close()
}

func (s *RedisSessionStore) key(userID string) string {
	return s.prefix + userID
}
