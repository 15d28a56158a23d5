package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"emergency-response/internal/models"
)

// ErrSessionNotFound is returned when a session id is unknown or has expired.
var ErrSessionNotFound = errors.New("session not found")

// MemorySessionRepo keeps sessions in process memory. Sessions are lost on
// restart.
type MemorySessionRepo struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*models.Session
}

func NewMemorySessionRepo() *MemorySessionRepo {
	return &MemorySessionRepo{sessions: make(map[uuid.UUID]*models.Session)}
}

func (r *MemorySessionRepo) Create(ctx context.Context, username string) (*models.Session, error) {
	s := &models.Session{ID: uuid.New(), Username: username, CreatedAt: time.Now()}

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()

	return s, nil
}

func (r *MemorySessionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	copied := *s
	return &copied, nil
}

func (r *MemorySessionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
	return nil
}

// RedisSessionRepo stores sessions as JSON under "session:<id>", shared by
// every server process pointed at the same Redis.
type RedisSessionRepo struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewRedisSessionRepo creates a Redis-backed repo. A zero ttl keeps sessions
// until logout.
func NewRedisSessionRepo(client *redis.Client, ttl time.Duration) *RedisSessionRepo {
	return &RedisSessionRepo{redis: client, ttl: ttl}
}

func sessionKey(id uuid.UUID) string {
	return "session:" + id.String()
}

func (r *RedisSessionRepo) Create(ctx context.Context, username string) (*models.Session, error) {
	s := &models.Session{ID: uuid.New(), Username: username, CreatedAt: time.Now()}

	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode session: %w", err)
	}

	if err := r.redis.Set(ctx, sessionKey(s.ID), data, r.ttl).Err(); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	return s, nil
}

func (r *RedisSessionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	data, err := r.redis.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var s models.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &s, nil
}

func (r *RedisSessionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.redis.Del(ctx, sessionKey(id)).Err()
}
