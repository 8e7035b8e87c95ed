package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"tracks-login/internal/domain"
)

// SessionStore guarda sesiones por id. ttl <= 0 significa sin expiracion.
type SessionStore interface {
	Save(ctx context.Context, session domain.Session, ttl time.Duration) error
	// Get devuelve ErrSessionNotFound si la sesion no existe o ya expiro.
	Get(ctx context.Context, id string) (domain.Session, error)
	Delete(ctx context.Context, id string) error
}

type memorySessionEntry struct {
	session   domain.Session
	expiresAt time.Time
}

type memorySessionStore struct {
	mu    sync.Mutex
	items map[string]memorySessionEntry
	now   func() time.Time
}

func NewMemorySessionStore() SessionStore {
	return newMemorySessionStore(time.Now)
}

func newMemorySessionStore(now func() time.Time) *memorySessionStore {
	return &memorySessionStore{
		items: make(map[string]memorySessionEntry),
		now:   now,
	}
}

func (s *memorySessionStore) Save(_ context.Context, session domain.Session, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if strings.TrimSpace(session.ID) == "" {
		return nil
	}
	entry := memorySessionEntry{session: session}
	if ttl > 0 {
		entry.expiresAt = s.now().UTC().Add(ttl)
	}
	s.items[session.ID] = entry
	return nil
}

func (s *memorySessionStore) Get(_ context.Context, id string) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.items[id]
	if !ok {
		return domain.Session{}, ErrSessionNotFound
	}
	if !entry.expiresAt.IsZero() && !s.now().UTC().Before(entry.expiresAt) {
		delete(s.items, id)
		return domain.Session{}, ErrSessionNotFound
	}
	return entry.session, nil
}

func (s *memorySessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
	return nil
}

type redisSessionClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type redisSessionStore struct {
	client  redisSessionClient
	prefix  string
	timeout time.Duration
}

func NewRedisSessionStore(client *redis.Client) SessionStore {
	if client == nil {
		return nil
	}
	return &redisSessionStore{
		client:  client,
		prefix:  "auth:session:",
		timeout: 500 * time.Millisecond,
	}
}

func (s *redisSessionStore) Save(ctx context.Context, session domain.Session, ttl time.Duration) error {
	id := strings.TrimSpace(session.ID)
	if id == "" {
		return nil
	}
	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}
	if ttl < 0 {
		ttl = 0
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.client.Set(ctx, s.prefix+id, payload, ttl).Err()
}

func (s *redisSessionStore) Get(ctx context.Context, id string) (domain.Session, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Session{}, ErrSessionNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	raw, err := s.client.Get(ctx, s.prefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Session{}, ErrSessionNotFound
		}
		return domain.Session{}, err
	}
	var session domain.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		// Un valor corrupto no puede autenticar a nadie.
		return domain.Session{}, ErrSessionNotFound
	}
	return session, nil
}

func (s *redisSessionStore) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.client.Del(ctx, s.prefix+id).Err()
}
