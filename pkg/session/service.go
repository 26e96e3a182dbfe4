package session

import (
	"context"
	"sync"
	"time"

	"github.com/maximthomas/gortas-session/pkg/log"
	"github.com/maximthomas/gortas-session/pkg/metrics"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Service starts, saves and destroys sessions in the configured save handler
type Service struct {
	repo    sessionRepository
	conf    Config
	handler string
	logger  logrus.FieldLogger
}

func NewService(sc Config) (*Service, error) {
	if err := sc.validate(); err != nil {
		return nil, err
	}
	sc = sc.withDefaults()
	handler := sc.Handler
	if handler == "" {
		handler = HandlerMemory
	}
	lifetime := time.Duration(sc.Expires) * time.Second

	var repo sessionRepository
	var err error
	switch handler {
	case HandlerRedis:
		repo, err = newRedisSessionRepository(sc.SavePath, lifetime)
	case HandlerMongo:
		repo, err = newMongoSessionRepository(sc.SavePath, lifetime)
	default:
		repo = newInMemorySessionRepository(lifetime)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "error initializing %s session handler", handler)
	}
	return &Service{
		repo:    repo,
		conf:    sc,
		handler: handler,
		logger:  log.WithField("module", "session"),
	}, nil
}

func (s *Service) Config() Config {
	return s.conf
}

func (s *Service) Handler() string {
	return s.handler
}

func (s *Service) CookieName() string {
	return s.conf.CookieName
}

// Start loads the session with the given id or creates a new one.
// An id that is unknown to the store is never adopted, a fresh id is issued instead.
func (s *Service) Start(ctx context.Context, id string) (Session, error) {
	if id != "" {
		sess, err := s.repo.GetSession(ctx, id)
		metrics.ObserveOperation(s.handler, "get", ignoreNotFound(err))
		if err == nil {
			metrics.SessionsStarted.WithLabelValues(s.handler, "resumed").Inc()
			return sess, nil
		}
		if !errors.Is(err, ErrSessionNotFound) {
			return Session{}, err
		}
		s.logger.Debugf("session %s not found, starting a new one", id)
	}
	sess, err := s.repo.CreateSession(ctx, Session{Properties: make(map[string]string)})
	metrics.ObserveOperation(s.handler, "create", err)
	if err != nil {
		return Session{}, err
	}
	metrics.SessionsStarted.WithLabelValues(s.handler, "created").Inc()
	return sess, nil
}

func (s *Service) GetSession(ctx context.Context, id string) (Session, error) {
	sess, err := s.repo.GetSession(ctx, id)
	metrics.ObserveOperation(s.handler, "get", ignoreNotFound(err))
	return sess, err
}

// Save writes the session back and extends its lifetime
func (s *Service) Save(ctx context.Context, sess Session) error {
	err := s.repo.UpdateSession(ctx, sess)
	metrics.ObserveOperation(s.handler, "update", err)
	return err
}

func (s *Service) Destroy(ctx context.Context, id string) error {
	err := s.repo.DeleteSession(ctx, id)
	metrics.ObserveOperation(s.handler, "delete", ignoreNotFound(err))
	return err
}

// Regenerate moves the session data under a new id and removes the old one
func (s *Service) Regenerate(ctx context.Context, sess Session) (Session, error) {
	newSess, err := s.repo.CreateSession(ctx, Session{Properties: sess.clone().Properties})
	metrics.ObserveOperation(s.handler, "create", err)
	if err != nil {
		return sess, err
	}
	if err = s.Destroy(ctx, sess.ID); err != nil && !errors.Is(err, ErrSessionNotFound) {
		s.logger.Warnf("error removing regenerated session %s: %v", sess.ID, err)
	}
	return newSess, nil
}

func (s *Service) Close() error {
	return s.repo.Close()
}

func ignoreNotFound(err error) error {
	if errors.Is(err, ErrSessionNotFound) {
		return nil
	}
	return err
}

var (
	ssMu sync.RWMutex
	ss   *Service
)

// InitSessionService installs the process wide session service.
// Installing a config equal to the current one keeps the current service.
func InitSessionService(sc Config) error {
	if err := sc.validate(); err != nil {
		return err
	}
	ssMu.Lock()
	defer ssMu.Unlock()
	if ss != nil && ss.conf == sc.withDefaults() {
		return nil
	}
	newSs, err := NewService(sc)
	if err != nil {
		return err
	}
	old := ss
	ss = newSs
	if old != nil {
		if err := old.Close(); err != nil {
			newSs.logger.Warnf("error closing previous session handler: %v", err)
		}
	}
	return nil
}

func GetSessionService() *Service {
	ssMu.RLock()
	defer ssMu.RUnlock()
	return ss
}

func SetSessionService(newSs *Service) {
	ssMu.Lock()
	defer ssMu.Unlock()
	ss = newSs
}

// Shutdown closes the process wide session service and uninstalls it
func Shutdown() error {
	ssMu.Lock()
	defer ssMu.Unlock()
	if ss == nil {
		return nil
	}
	err := ss.Close()
	ss = nil
	return err
}
