package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/maximthomas/gortas-session/pkg/log"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const redisConnectTimeout = 5 * time.Second

type redisSessionRepository struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func newRedisSessionRepository(savePath string, ttl time.Duration) (*redisSessionRepository, error) {
	opts, err := ParseSavePath(savePath)
	if err != nil {
		return nil, err
	}
	log.WithField("module", "session.redis").Infof("connecting to redis at %s, db %d", opts.Target.Addr(), opts.DB)
	client := redis.NewClient(opts.clientOptions())

	ctx, cancel := context.WithTimeout(context.Background(), redisConnectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrapf(err, "redis %s is not reachable", opts.Target.Addr())
	}
	return &redisSessionRepository{client: client, prefix: opts.Prefix, ttl: ttl}, nil
}

func (sr *redisSessionRepository) key(id string) string {
	return sr.prefix + id
}

func (sr *redisSessionRepository) CreateSession(ctx context.Context, session Session) (Session, error) {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	session.CreatedAt = time.Now()
	data, err := json.Marshal(session)
	if err != nil {
		return session, errors.Wrap(err, "error encoding session")
	}
	ok, err := sr.client.SetNX(ctx, sr.key(session.ID), data, sr.ttl).Result()
	if err != nil {
		return session, errors.Wrap(err, "error creating session")
	}
	if !ok {
		return session, errors.Errorf("session %s already exists", session.ID)
	}
	return session, nil
}

func (sr *redisSessionRepository) DeleteSession(ctx context.Context, id string) error {
	n, err := sr.client.Del(ctx, sr.key(id)).Result()
	if err != nil {
		return errors.Wrap(err, "error deleting session")
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (sr *redisSessionRepository) GetSession(ctx context.Context, id string) (Session, error) {
	var session Session
	data, err := sr.client.Get(ctx, sr.key(id)).Bytes()
	if err == redis.Nil {
		return session, ErrSessionNotFound
	}
	if err != nil {
		return session, errors.Wrap(err, "error reading session")
	}
	if err = json.Unmarshal(data, &session); err != nil {
		return session, errors.Wrap(err, "error decoding session")
	}
	return session, nil
}

func (sr *redisSessionRepository) UpdateSession(ctx context.Context, session Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return errors.Wrap(err, "error encoding session")
	}
	ok, err := sr.client.SetXX(ctx, sr.key(session.ID), data, sr.ttl).Result()
	if err != nil {
		return errors.Wrap(err, "error updating session")
	}
	if !ok {
		return ErrSessionNotFound
	}
	return nil
}

func (sr *redisSessionRepository) Close() error {
	return sr.client.Close()
}
