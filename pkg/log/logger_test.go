package log

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestConfigure(t *testing.T) {
	defer func() {
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&logrus.TextFormatter{})
	}()

	assert.NoError(t, Configure(Config{Level: "debug", Format: "json"}))
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)

	assert.NoError(t, Configure(Config{}))
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)

	assert.Error(t, Configure(Config{Level: "loud"}))
	assert.Error(t, Configure(Config{Format: "xml"}))
	assert.Equal(t, "session", WithField("module", "session").Data["module"])
}
