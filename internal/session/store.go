package session

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "baytna:session:"

// Store tracks live sessions in Redis so logout and deactivation take effect
// before the JWT expires. A Store built with a nil client is disabled and
// treats every session as live.
type Store struct {
	rdb *redis.Client
}

func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

func (s *Store) Enabled() bool {
	return s != nil && s.rdb != nil
}

func sessionKey(sid string) string { return keyPrefix + sid }

func userKey(userID uint64) string { return keyPrefix + "user:" + strconv.FormatUint(userID, 10) }

func (s *Store) Create(ctx context.Context, sid string, userID uint64, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, sessionKey(sid), userID, ttl)
	pipe.SAdd(ctx, userKey(userID), sid)
	pipe.Expire(ctx, userKey(userID), ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// Lookup reports the user a session belongs to. When the store is disabled
// it returns ok=true with userID 0 and callers rely on the token claims.
func (s *Store) Lookup(ctx context.Context, sid string) (uint64, bool, error) {
	if !s.Enabled() {
		return 0, true, nil
	}
	val, err := s.rdb.Get(ctx, sessionKey(sid)).Uint64()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("lookup session: %w", err)
	}
	return val, true, nil
}

func (s *Store) Revoke(ctx context.Context, sid string) error {
	if !s.Enabled() {
		return nil
	}
	userID, err := s.rdb.Get(ctx, sessionKey(sid)).Uint64()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, sessionKey(sid))
	if err == nil {
		pipe.SRem(ctx, userKey(userID), sid)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// RevokeUser ends every session of a user, used when an account is
// deactivated or deleted.
func (s *Store) RevokeUser(ctx context.Context, userID uint64) error {
	if !s.Enabled() {
		return nil
	}
	sids, err := s.rdb.SMembers(ctx, userKey(userID)).Result()
	if err != nil {
		return fmt.Errorf("revoke user sessions: %w", err)
	}
	keys := make([]string, 0, len(sids)+1)
	for _, sid := range sids {
		keys = append(keys, sessionKey(sid))
	}
	keys = append(keys, userKey(userID))
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("revoke user sessions: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}
	return s.rdb.Ping(ctx).Err()
}
