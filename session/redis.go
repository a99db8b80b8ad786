package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/tailored-agentic-units/rxdesk/core/protocol"
)

// RedisStore keeps each session as a Redis list of JSON-encoded exchanges.
// Appends run inside MULTI/EXEC so concurrent writers to one session are
// serialized by the server.
type RedisStore struct {
	rdb    redis.UniversalClient
	window int
	cfg    Config
}

// NewRedisStore wraps an existing client. Zero values in cfg fall back to
// DefaultConfig.
func NewRedisStore(rdb redis.UniversalClient, cfg Config) *RedisStore {
	def := DefaultConfig()
	def.Merge(&cfg)
	return &RedisStore{rdb: rdb, window: def.Window, cfg: def}
}

func (s *RedisStore) key(sessionID string) string {
	return s.cfg.KeyPrefix + sessionID
}

func (s *RedisStore) Append(ctx context.Context, sessionID string, ex protocol.Exchange) error {
	if sessionID == "" {
		return ErrEmptySessionID
	}
	data, err := json.Marshal(ex)
	if err != nil {
		return fmt.Errorf("%w: encode exchange: %v", ErrBackend, err)
	}

	key := s.key(sessionID)
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, data)
		pipe.LTrim(ctx, key, -int64(s.window), -1)
		if s.cfg.IdleTTL > 0 {
			pipe.Expire(ctx, key, s.cfg.IdleTTL)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: append %s: %v", ErrBackend, sessionID, err)
	}
	return nil
}

func (s *RedisStore) Recent(ctx context.Context, sessionID string, n int) ([]protocol.Exchange, error) {
	n = clamp(n, s.window)
	if n == 0 || sessionID == "" {
		return []protocol.Exchange{}, nil
	}

	raw, err := s.rdb.LRange(ctx, s.key(sessionID), -int64(n), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrBackend, sessionID, err)
	}

	out := make([]protocol.Exchange, 0, len(raw))
	for _, item := range raw {
		var ex protocol.Exchange
		if err := json.Unmarshal([]byte(item), &ex); err != nil {
			return nil, fmt.Errorf("%w: decode %s: %v", ErrBackend, sessionID, err)
		}
		out = append(out, ex)
	}
	return out, nil
}

func (s *RedisStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.rdb.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("%w: clear %s: %v", ErrBackend, sessionID, err)
	}
	return nil
}

// Close releases the underlying client.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
