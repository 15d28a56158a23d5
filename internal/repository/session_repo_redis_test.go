package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisRepo(t *testing.T, ttl time.Duration) (*RedisSessionRepo, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisSessionRepo(client, ttl), mr
}

func TestRedisSessionRepo_Lifecycle(t *testing.T) {
	repo, mr := newRedisRepo(t, 0)
	ctx := context.Background()

	s, err := repo.Create(ctx, "admin")
	require.NoError(t, err)
	assert.True(t, mr.Exists("session:"+s.ID.String()))

	got, err := repo.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, "admin", got.Username)
	assert.WithinDuration(t, s.CreatedAt, got.CreatedAt, time.Second)

	require.NoError(t, repo.Delete(ctx, s.ID))
	assert.False(t, mr.Exists("session:"+s.ID.String()))

	_, err = repo.GetByID(ctx, s.ID)
	assert.True(t, errors.Is(err, ErrSessionNotFound))
}

func TestRedisSessionRepo_UnknownID(t *testing.T) {
	repo, _ := newRedisRepo(t, 0)

	_, err := repo.GetByID(context.Background(), uuid.New())
	assert.True(t, errors.Is(err, ErrSessionNotFound))
}

func TestRedisSessionRepo_DeleteUnknownIsNoop(t *testing.T) {
	repo, _ := newRedisRepo(t, 0)
	assert.NoError(t, repo.Delete(context.Background(), uuid.New()))
}

func TestRedisSessionRepo_NoTTLKeepsSession(t *testing.T) {
	repo, mr := newRedisRepo(t, 0)
	ctx := context.Background()

	s, err := repo.Create(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), mr.TTL("session:"+s.ID.String()))

	mr.FastForward(30 * 24 * time.Hour)

	_, err = repo.GetByID(ctx, s.ID)
	assert.NoError(t, err)
}

func TestRedisSessionRepo_TTLExpiry(t *testing.T) {
	repo, mr := newRedisRepo(t, time.Hour)
	ctx := context.Background()

	s, err := repo.Create(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, time.Hour, mr.TTL("session:"+s.ID.String()))

	mr.FastForward(59 * time.Minute)
	_, err = repo.GetByID(ctx, s.ID)
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)
	_, err = repo.GetByID(ctx, s.ID)
	assert.True(t, errors.Is(err, ErrSessionNotFound))
}

func TestRedisSessionRepo_CorruptRecord(t *testing.T) {
	repo, mr := newRedisRepo(t, 0)
	id := uuid.New()
	require.NoError(t, mr.Set("session:"+id.String(), "{not json"))

	_, err := repo.GetByID(context.Background(), id)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrSessionNotFound))
}

func TestRedisSessionRepo_ServerDown(t *testing.T) {
	repo, mr := newRedisRepo(t, 0)
	mr.Close()

	_, err := repo.GetByID(context.Background(), uuid.New())
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrSessionNotFound))
}
