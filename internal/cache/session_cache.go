// Package cache holds the Redis-backed short-lived session state: a resume
// cache for session progress and storage for the pending attention check
// between serve and grade.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cultural-survey/backend/internal/attention"
	"github.com/cultural-survey/backend/internal/models"
)

// ErrNotFound is returned when a key is absent or expired.
var ErrNotFound = errors.New("cache: not found")

const (
	sessionTTL      = 30 * time.Minute
	pendingCheckTTL = 15 * time.Minute
)

type SessionCache interface {
	SetSession(ctx context.Context, session *models.Session) error
	GetSession(ctx context.Context, sessionID string) (*models.Session, error)
	DeleteSession(ctx context.Context, sessionID string) error

	SetPendingCheck(ctx context.Context, sessionID string, check *attention.Check) error
	GetPendingCheck(ctx context.Context, sessionID string) (*attention.Check, error)
	DeletePendingCheck(ctx context.Context, sessionID string) error
}

type sessionCache struct {
	client *redis.Client
}

func NewSessionCache(client *redis.Client) SessionCache {
	return &sessionCache{client: client}
}

func (c *sessionCache) SetSession(ctx context.Context, session *models.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, "session:"+session.SessionID, data, sessionTTL).Err()
}

func (c *sessionCache) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	data, err := c.client.Get(ctx, "session:"+sessionID).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var session models.Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *sessionCache) DeleteSession(ctx context.Context, sessionID string) error {
	return c.client.Del(ctx, "session:"+sessionID).Err()
}

func (c *sessionCache) SetPendingCheck(ctx context.Context, sessionID string, check *attention.Check) error {
	data, err := json.Marshal(check)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, "attncheck:"+sessionID, data, pendingCheckTTL).Err()
}

func (c *sessionCache) GetPendingCheck(ctx context.Context, sessionID string) (*attention.Check, error) {
	data, err := c.client.Get(ctx, "attncheck:"+sessionID).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var check attention.Check
	if err := json.Unmarshal([]byte(data), &check); err != nil {
		return nil, err
	}
	return &check, nil
}

func (c *sessionCache) DeletePendingCheck(ctx context.Context, sessionID string) error {
	return c.client.Del(ctx, "attncheck:"+sessionID).Err()
}

// ── In-memory fallback ───────────────────────────────────

// NewMemoryCache returns a process-local SessionCache used when Redis is
// not configured. TTLs are not enforced; entries are overwritten or
// explicitly deleted.
func NewMemoryCache() SessionCache {
	return &memoryCache{
		sessions: map[string]*models.Session{},
		checks:   map[string]*attention.Check{},
	}
}

type memoryCache struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
	checks   map[string]*attention.Check
}

func (m *memoryCache) SetSession(_ context.Context, session *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *session
	m.sessions[session.SessionID] = &copied
	return nil
}

func (m *memoryCache) GetSession(_ context.Context, sessionID string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *session
	return &copied, nil
}

func (m *memoryCache) DeleteSession(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}

func (m *memoryCache) SetPendingCheck(_ context.Context, sessionID string, check *attention.Check) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *check
	m.checks[sessionID] = &copied
	return nil
}

func (m *memoryCache) GetPendingCheck(_ context.Context, sessionID string) (*attention.Check, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	check, ok := m.checks[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *check
	return &copied, nil
}

func (m *memoryCache) DeletePendingCheck(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.checks, sessionID)
	return nil
}
