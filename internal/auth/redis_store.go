package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	sessionKeyPrefix = "nowest-backend-session||"
	tokensSetKey     = "nowest-backend-sessions"
)

// RedisStore keeps sessions in redis, shared across server instances.
// Entries carry a server-side TTL as a safety net; the Manager still owns
// the expiry decision on lookup.
type RedisStore struct {
	redisClient *redis.Client
	keyTTL      time.Duration
}

func NewRedisStore(redisClient *redis.Client, keyTTL time.Duration) *RedisStore {
	return &RedisStore{
		redisClient: redisClient,
		keyTTL:      keyTTL,
	}
}

func (s *RedisStore) Put(ctx context.Context, session Session) error {
	sessionKey := sessionKeyPrefix + session.Token
	sessionVal := fmt.Sprintf("%d:%d", session.AdminID, session.CreatedAt.Unix())
	if err := s.redisClient.Set(ctx, sessionKey, sessionVal, s.keyTTL).Err(); err != nil {
		return fmt.Errorf("set session: %w", err)
	}

	// add token to the index of sessions
	if err := s.redisClient.SAdd(ctx, tokensSetKey, session.Token).Err(); err != nil {
		return fmt.Errorf("add session token to index: %w", err)
	}

	return nil
}

func (s *RedisStore) Get(ctx context.Context, token string) (Session, bool, error) {
	sessionKey := sessionKeyPrefix + token
	cmd := s.redisClient.Get(ctx, sessionKey)
	if err := cmd.Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return Session{}, false, nil
		}
		return Session{}, false, fmt.Errorf("get session: %w", err)
	}

	session, err := parseSessionValue(token, cmd.Val())
	if err != nil {
		return Session{}, false, err
	}
	return session, true, nil
}

func (s *RedisStore) Delete(ctx context.Context, token string) error {
	sessionKey := sessionKeyPrefix + token
	if err := s.redisClient.Del(ctx, sessionKey).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	if err := s.redisClient.SRem(ctx, tokensSetKey, token).Err(); err != nil {
		return fmt.Errorf("remove session token from index: %w", err)
	}

	return nil
}

func (s *RedisStore) Tokens(ctx context.Context) ([]string, error) {
	cmd := s.redisClient.SMembers(ctx, tokensSetKey)
	if err := cmd.Err(); err != nil {
		return nil, fmt.Errorf("get session tokens: %w", err)
	}
	return cmd.Val(), nil
}

func parseSessionValue(token, val string) (Session, error) {
	parts := strings.SplitN(val, ":", 2)
	if len(parts) != 2 {
		return Session{}, fmt.Errorf("malformed session value [%s]", val)
	}

	adminID, err := strconv.Atoi(parts[0])
	if err != nil {
		return Session{}, fmt.Errorf("malformed session admin id: %w", err)
	}
	createdAtUnix, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return Session{}, fmt.Errorf("malformed session timestamp: %w", err)
	}

	return Session{
		Token:     token,
		AdminID:   adminID,
		CreatedAt: time.Unix(createdAtUnix, 0),
	}, nil
}
