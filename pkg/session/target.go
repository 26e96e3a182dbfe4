package session

import (
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const (
	saveScheme       = "tcp"
	DefaultKeyPrefix = "gortas:session:"
)

// DefaultTarget is the redis service name and port used by the compose setup
var DefaultTarget = Target{Host: "redis", Port: 6379}

// Target is a network address of the key-value store
type Target struct {
	Host string
	Port int
}

func (t Target) Addr() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
}

// SavePath returns the tcp://host:port path the redis handler connects to
func (t Target) SavePath() string {
	return saveScheme + "://" + t.Addr()
}

// RedisOptions holds everything encoded in a redis save path
type RedisOptions struct {
	Target      Target
	Password    string
	DB          int
	Prefix      string
	DialTimeout time.Duration
}

func (o RedisOptions) clientOptions() *redis.Options {
	return &redis.Options{
		Addr:        o.Target.Addr(),
		Password:    o.Password,
		DB:          o.DB,
		DialTimeout: o.DialTimeout,
	}
}

// ParseSavePath parses tcp://host:port[?database=N&auth=pass&prefix=p&timeout=sec]
func ParseSavePath(savePath string) (opts RedisOptions, err error) {
	u, err := url.Parse(savePath)
	if err != nil {
		return opts, errors.Wrap(ErrBadSavePath, err.Error())
	}
	if u.Scheme != saveScheme {
		return opts, errors.Wrapf(ErrBadSavePath, "unsupported scheme %q", u.Scheme)
	}
	host := u.Hostname()
	if host == "" {
		return opts, errors.Wrap(ErrBadSavePath, "host is empty")
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil || port <= 0 || port > 65535 {
		return opts, errors.Wrapf(ErrBadSavePath, "bad port %q", u.Port())
	}
	opts.Target = Target{Host: host, Port: port}
	opts.Prefix = DefaultKeyPrefix

	q := u.Query()
	if v := q.Get("database"); v != "" {
		opts.DB, err = strconv.Atoi(v)
		if err != nil || opts.DB < 0 {
			return opts, errors.Wrapf(ErrBadSavePath, "bad database %q", v)
		}
	}
	if v := q.Get("timeout"); v != "" {
		sec, err := strconv.ParseFloat(v, 64)
		if err != nil || sec < 0 {
			return opts, errors.Wrapf(ErrBadSavePath, "bad timeout %q", v)
		}
		opts.DialTimeout = time.Duration(sec * float64(time.Second))
	}
	if v := q.Get("prefix"); v != "" {
		opts.Prefix = v
	}
	opts.Password = q.Get("auth")
	return opts, nil
}
