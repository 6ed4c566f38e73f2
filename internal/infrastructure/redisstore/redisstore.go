// Package redisstore implements the expiring stores on Redis.
package redisstore

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/social-account-service/internal/application"
	"github.com/oksasatya/social-account-service/pkg/helpers"
)

// VerificationStore keys records as email_verification:{env}:{hashed_email}.
type VerificationStore struct {
	rdb redis.Cmdable
	env string
}

func NewVerificationStore(rdb redis.Cmdable, env string) *VerificationStore {
	return &VerificationStore{rdb: rdb, env: env}
}

func (s *VerificationStore) Put(ctx context.Context, hashedEmail string, rec application.VerificationRecord, ttl time.Duration) error {
	return helpers.RedisSetJSON(ctx, s.rdb, helpers.KeyEmailVerification(s.env, hashedEmail), rec, ttl)
}

func (s *VerificationStore) Get(ctx context.Context, hashedEmail string) (*application.VerificationRecord, bool, error) {
	var rec application.VerificationRecord
	ok, err := helpers.RedisGetJSON(ctx, s.rdb, helpers.KeyEmailVerification(s.env, hashedEmail), &rec)
	if err != nil || !ok {
		return nil, false, err
	}
	return &rec, true, nil
}

type OAuthStateStore struct {
	rdb redis.Cmdable
	env string
}

func NewOAuthStateStore(rdb redis.Cmdable, env string) *OAuthStateStore {
	return &OAuthStateStore{rdb: rdb, env: env}
}

func (s *OAuthStateStore) Save(ctx context.Context, id, state string, ttl time.Duration) error {
	return s.rdb.Set(ctx, helpers.KeyOAuthState(s.env, id), state, ttl).Err()
}

func (s *OAuthStateStore) Take(ctx context.Context, id string) (string, bool, error) {
	return helpers.RedisGetDel(ctx, s.rdb, helpers.KeyOAuthState(s.env, id))
}

// NotificationLedger marks keys with SETNX so a notification is sent once
// per key within ttl.
type NotificationLedger struct {
	rdb redis.Cmdable
	env string
	ttl time.Duration
}

func NewNotificationLedger(rdb redis.Cmdable, env string, ttl time.Duration) *NotificationLedger {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &NotificationLedger{rdb: rdb, env: env, ttl: ttl}
}

func (l *NotificationLedger) MarkOnce(ctx context.Context, key string) (bool, error) {
	return l.rdb.SetNX(ctx, helpers.KeyNotification(l.env, key), time.Now().UTC().Format(time.RFC3339), l.ttl).Result()
}

// Release forgets a mark so a failed send can be retried.
func (l *NotificationLedger) Release(ctx context.Context, key string) error {
	return helpers.RedisDel(ctx, l.rdb, helpers.KeyNotification(l.env, key))
}

var (
	_ application.VerificationStore  = (*VerificationStore)(nil)
	_ application.OAuthStateStore    = (*OAuthStateStore)(nil)
	_ application.NotificationLedger = (*NotificationLedger)(nil)
)
