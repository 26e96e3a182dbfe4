package config

import (
	"sync"

	"github.com/maximthomas/gortas-session/pkg/log"
	"github.com/maximthomas/gortas-session/pkg/session"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type Config struct {
	Session session.Config `yaml:"session"`
	Server  Server         `yaml:"server"`
	Log     log.Config     `yaml:"log"`
}

type Server struct {
	Port int  `yaml:"port"`
	Cors Cors `yaml:"cors"`
}

type Cors struct {
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

var (
	mu     sync.RWMutex
	config Config
)

// SetDefaults registers default values, so every key can be overridden from the environment
func SetDefaults(v *viper.Viper) {
	v.SetDefault("session.handler", session.HandlerRedis)
	v.SetDefault("session.savePath", session.DefaultTarget.SavePath())
	v.SetDefault("session.expires", session.DefaultExpires)
	v.SetDefault("session.cookieName", session.DefaultCookieName)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors.allowedOrigins", []string{})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

func InitConfig() error {
	var configLogger = log.WithField("module", "config")

	var newConfig Config
	err := viper.Unmarshal(&newConfig, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		configLogger.Errorf("Fatal error config file: %s \n", err)
		return errors.Wrap(err, "error reading config")
	}
	if err = log.Configure(newConfig.Log); err != nil {
		return err
	}
	err = session.InitSessionService(newConfig.Session)
	if err != nil {
		configLogger.Errorf("error while init session service: %s \n", err)
		return err
	}

	mu.Lock()
	config = newConfig
	mu.Unlock()
	configLogger.Debugf("got configuration %+v\n", newConfig)
	return nil
}

func GetConfig() Config {
	mu.RLock()
	defer mu.RUnlock()
	return config
}

func SetConfig(newConfig Config) error {
	if err := session.InitSessionService(newConfig.Session); err != nil {
		return err
	}
	mu.Lock()
	config = newConfig
	mu.Unlock()
	return nil
}
