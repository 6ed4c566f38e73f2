package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/social-account-service/internal/application"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestVerificationStore_PutGetExpire(t *testing.T) {
	mr, rdb := newRedis(t)
	s := NewVerificationStore(rdb, "test")
	ctx := context.Background()

	rec := application.VerificationRecord{Token: "0123456789abcdef0123456789abcdef", Email: "test@example.com"}
	require.NoError(t, s.Put(ctx, "hash", rec, time.Minute))
	assert.True(t, mr.Exists("email_verification:test:hash"))

	got, ok, err := s.Get(ctx, "hash")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, rec, *got)

	// newer issuance overwrites
	rec2 := rec
	rec2.Token = "fedcba9876543210fedcba9876543210"
	require.NoError(t, s.Put(ctx, "hash", rec2, time.Minute))
	got, _, _ = s.Get(ctx, "hash")
	assert.Equal(t, rec2.Token, got.Token)

	mr.FastForward(2 * time.Minute)
	_, ok, err = s.Get(ctx, "hash")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = s.Get(ctx, "never")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerificationStore_EnvNamespaces(t *testing.T) {
	_, rdb := newRedis(t)
	ctx := context.Background()
	prod := NewVerificationStore(rdb, "prod")
	stage := NewVerificationStore(rdb, "stage")

	require.NoError(t, prod.Put(ctx, "h", application.VerificationRecord{Token: "t", Email: "e"}, time.Minute))
	_, ok, err := stage.Get(ctx, "h")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOAuthStateStore_TakeOnce(t *testing.T) {
	_, rdb := newRedis(t)
	s := NewOAuthStateStore(rdb, "test")
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "id1", "state-abc", time.Minute))
	v, ok, err := s.Take(ctx, "id1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "state-abc", v)

	_, ok, err = s.Take(ctx, "id1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNotificationLedger_MarkOnce(t *testing.T) {
	_, rdb := newRedis(t)
	l := NewNotificationLedger(rdb, "test", time.Hour)
	ctx := context.Background()

	first, err := l.MarkOnce(ctx, "re_agreement:2:u1")
	require.NoError(t, err)
	assert.True(t, first)

	again, err := l.MarkOnce(ctx, "re_agreement:2:u1")
	require.NoError(t, err)
	assert.False(t, again)

	other, err := l.MarkOnce(ctx, "re_agreement:2:u2")
	require.NoError(t, err)
	assert.True(t, other)
}

func TestNotificationLedger_Release(t *testing.T) {
	_, rdb := newRedis(t)
	l := NewNotificationLedger(rdb, "test", time.Hour)
	ctx := context.Background()

	first, err := l.MarkOnce(ctx, "re_agreement:2:u1")
	require.NoError(t, err)
	require.True(t, first)

	require.NoError(t, l.Release(ctx, "re_agreement:2:u1"))
	again, err := l.MarkOnce(ctx, "re_agreement:2:u1")
	require.NoError(t, err)
	assert.True(t, again)
}
