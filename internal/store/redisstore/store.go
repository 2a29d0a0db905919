package redisstore

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store keeps the one-time login codes for the passwordless email-link flow.
type Store struct {
	rdb *redis.Client
}

func New(addr, password string, db int) *Store {
	return &Store{rdb: redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})}
}

func loginCodeKey(email string) string {
	return "login_code:" + email
}

func (s *Store) SetLoginCode(ctx context.Context, email, code string, ttl time.Duration) error {
	return s.rdb.Set(ctx, loginCodeKey(email), code, ttl).Err()
}

// GetLoginCode returns redis.Nil when no code is pending for the address.
func (s *Store) GetLoginCode(ctx context.Context, email string) (string, error) {
	return s.rdb.Get(ctx, loginCodeKey(email)).Result()
}

func (s *Store) DeleteLoginCode(ctx context.Context, email string) error {
	return s.rdb.Del(ctx, loginCodeKey(email)).Err()
}

func (s *Store) Close() error {
	return s.rdb.Close()
}
