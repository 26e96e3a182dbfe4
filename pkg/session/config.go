package session

const (
	HandlerMemory = "memory"
	HandlerRedis  = "redis"
	HandlerMongo  = "mongo"
)

const (
	DefaultExpires    = 1440
	DefaultCookieName = "GortasSession"
)

// Config selects the session persistence backend and where it connects to
type Config struct {
	Handler    string `yaml:"handler"`
	SavePath   string `yaml:"savePath"`
	Expires    int    `yaml:"expires"`
	CookieName string `yaml:"cookieName"`
}

func (c Config) withDefaults() Config {
	if c.Expires <= 0 {
		c.Expires = DefaultExpires
	}
	if c.CookieName == "" {
		c.CookieName = DefaultCookieName
	}
	return c
}

func (c Config) validate() error {
	switch c.Handler {
	case "":
		if c.SavePath != "" {
			return ErrHandlerRequired
		}
	case HandlerMemory:
	case HandlerRedis, HandlerMongo:
		if c.SavePath == "" {
			return ErrSavePathRequired
		}
	default:
		return ErrUnknownHandler
	}
	return nil
}
