package session

import (
	"context"

	"github.com/maximthomas/gortas-session/pkg/log"
	"github.com/maximthomas/gortas-session/pkg/metrics"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Bootstrap makes sure the key-value store at target is reachable, installs
// the redis save handler pointing at it and starts the session with sessionID.
// Each step runs only when the previous one succeeded.
func Bootstrap(ctx context.Context, target Target, sessionID string) (*Service, Session, error) {
	logger := log.WithField("module", "session.bootstrap")

	if err := probeStore(ctx, target); err != nil {
		metrics.BootstrapFailures.Inc()
		return nil, Session{}, err
	}

	sc := Config{Handler: HandlerRedis, SavePath: target.SavePath()}
	if err := InitSessionService(sc); err != nil {
		metrics.BootstrapFailures.Inc()
		return nil, Session{}, errors.Wrap(err, "error configuring session handler")
	}
	svc := GetSessionService()
	logger.Debugf("session handler %s, save path %s", sc.Handler, sc.SavePath)

	sess, err := svc.Start(ctx, sessionID)
	if err != nil {
		return svc, Session{}, errors.Wrap(err, "error starting session")
	}
	return svc, sess, nil
}

// probeStore opens a connection to the store and releases it right away.
// The save handler keeps its own connection pool.
func probeStore(ctx context.Context, target Target) error {
	client := redis.NewClient(&redis.Options{Addr: target.Addr()})
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, redisConnectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return errors.Wrapf(err, "error connecting to %s", target.Addr())
	}
	return nil
}
