package log

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var logger = logrus.New()

type Config struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Configure(lc Config) error {
	if lc.Level != "" {
		level, err := logrus.ParseLevel(lc.Level)
		if err != nil {
			return errors.Wrap(err, "bad log level")
		}
		logger.SetLevel(level)
	}
	switch lc.Format {
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return errors.Errorf("unknown log format %q", lc.Format)
	}
	return nil
}

func WithField(key string, value interface{}) *logrus.Entry {
	return logger.WithField(key, value)
}
