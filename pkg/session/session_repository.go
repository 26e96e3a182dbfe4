package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/maximthomas/gortas-session/pkg/log"
	"github.com/sirupsen/logrus"
)

type sessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	DeleteSession(ctx context.Context, id string) error
	GetSession(ctx context.Context, id string) (Session, error)
	UpdateSession(ctx context.Context, session Session) error
	Close() error
}

type memoryEntry struct {
	session   Session
	expiresAt time.Time
}

type inMemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]memoryEntry
	lifetime time.Duration
	now      func() time.Time
	done     chan struct{}
	once     sync.Once
	logger   logrus.FieldLogger
}

func (sr *inMemorySessionRepository) CreateSession(_ context.Context, session Session) (Session, error) {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	session.CreatedAt = sr.now()
	sr.mu.Lock()
	sr.sessions[session.ID] = memoryEntry{session: session.clone(), expiresAt: session.CreatedAt.Add(sr.lifetime)}
	sr.mu.Unlock()
	return session, nil
}

func (sr *inMemorySessionRepository) DeleteSession(_ context.Context, id string) error {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	if _, ok := sr.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(sr.sessions, id)
	return nil
}

func (sr *inMemorySessionRepository) GetSession(_ context.Context, id string) (Session, error) {
	sr.mu.RLock()
	defer sr.mu.RUnlock()
	e, ok := sr.sessions[id]
	if !ok || e.expiresAt.Before(sr.now()) {
		return Session{}, ErrSessionNotFound
	}
	return e.session.clone(), nil
}

func (sr *inMemorySessionRepository) UpdateSession(_ context.Context, session Session) error {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	if _, ok := sr.sessions[session.ID]; !ok {
		return ErrSessionNotFound
	}
	sr.sessions[session.ID] = memoryEntry{session: session.clone(), expiresAt: sr.now().Add(sr.lifetime)}
	return nil
}

func (sr *inMemorySessionRepository) Close() error {
	sr.once.Do(func() { close(sr.done) })
	return nil
}

func (sr *inMemorySessionRepository) removeExpired() int {
	now := sr.now()
	sr.mu.Lock()
	defer sr.mu.Unlock()
	var removed int
	for k, e := range sr.sessions {
		if e.expiresAt.Before(now) {
			sr.logger.Infof("delete session %s due to timeout", k)
			delete(sr.sessions, k)
			removed++
		}
	}
	return removed
}

const cleanupIntervalSeconds = 10

func (sr *inMemorySessionRepository) cleanupExpired() {
	ticker := time.NewTicker(time.Second * cleanupIntervalSeconds)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			sr.removeExpired()
		case <-sr.done:
			return
		}
	}
}

func newInMemorySessionRepository(lifetime time.Duration) *inMemorySessionRepository {
	repo := &inMemorySessionRepository{
		sessions: make(map[string]memoryEntry),
		lifetime: lifetime,
		now:      time.Now,
		done:     make(chan struct{}),
		logger:   log.WithField("module", "session.memory"),
	}

	go repo.cleanupExpired()
	return repo
}
