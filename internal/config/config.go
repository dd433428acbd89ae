package config

import (
	"flag"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// RequestTimeout is the fixed timeout applied to every API request.
const RequestTimeout = 10 * time.Second

const (
	defaultBaseURL = "localhost:8081"
	defaultAPIURL  = "/api"
	defaultStore   = "file"
	defaultRedis   = "localhost:6379"
	defaultLevel   = "warn"
	appDirName     = "BookmarkAdmin"
)

type Config struct {
	// Server location
	BaseURL     string `env:"BASE_URL"`
	EnableHTTPS bool   `env:"ENABLE_HTTPS"`
	APIURL      string `env:"ADMIN_API_URL"`

	// Session persistence
	SessionStore string `env:"SESSION_STORE"`
	SessionDir   string `env:"SESSION_DIR"`
	SessionDSN   string `env:"SESSION_DSN"`
	RedisAddr    string `env:"REDIS_ADDR"`

	LogLevel string `env:"LOG_LEVEL"`

	// Derived
	ServerURL string `env:"-"`
	Version   bool   `env:"-"` // show client version and exit (flag only)
}

var hostPortRe = regexp.MustCompile(`^[A-Za-z0-9\.\-]+:\d{1,5}$`)

func NewConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{}
	_ = env.Parse(cfg)

	flag.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "admin API server address (host:port)")
	flag.BoolVar(&cfg.EnableHTTPS, "https", cfg.EnableHTTPS, "use https scheme for the server address")
	flag.StringVar(&cfg.APIURL, "api-url", cfg.APIURL, "API base URL, relative to the server or absolute")
	flag.StringVar(&cfg.SessionStore, "store", cfg.SessionStore, "session storage: file|sqlite|keyring|redis|memory")
	flag.StringVar(&cfg.SessionDir, "session-dir", cfg.SessionDir, "directory for the file session store")
	flag.StringVar(&cfg.SessionDSN, "session-dsn", cfg.SessionDSN, "sqlite path or postgres DSN for the sql session store")
	flag.StringVar(&cfg.RedisAddr, "redis-addr", cfg.RedisAddr, "redis address for the redis session store")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug|info|warn|error)")
	flag.BoolVar(&cfg.Version, "version", cfg.Version, "Show client version and exit")

	flag.Parse()

	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills empty fields and derives ServerURL and APIURL.
// It is safe to call more than once.
func (c *Config) ApplyDefaults() {
	// BaseURL must be "address:port" (no scheme, no path). Otherwise use default.
	if !hostPortRe.MatchString(c.BaseURL) {
		c.BaseURL = defaultBaseURL
	}
	if c.EnableHTTPS {
		c.ServerURL = "https://" + c.BaseURL
	} else {
		c.ServerURL = "http://" + c.BaseURL
	}

	c.APIURL = ResolveAPIURL(c.ServerURL, c.APIURL)

	if c.SessionStore == "" {
		c.SessionStore = defaultStore
	}
	c.SessionStore = strings.ToLower(c.SessionStore)
	if c.SessionDir == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			dir, _ = os.UserHomeDir()
		}
		c.SessionDir = filepath.Join(dir, appDirName)
	}
	if c.SessionDSN == "" {
		c.SessionDSN = filepath.Join(c.SessionDir, "session.sqlite")
	}
	if c.RedisAddr == "" {
		c.RedisAddr = defaultRedis
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLevel
	}
}

// ResolveAPIURL returns apiURL as an absolute URL. An empty value means "/api";
// relative values are resolved against serverURL.
func ResolveAPIURL(serverURL, apiURL string) string {
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	ref, err := url.Parse(apiURL)
	if err != nil {
		ref, _ = url.Parse(defaultAPIURL)
	}
	if ref.IsAbs() {
		return strings.TrimRight(ref.String(), "/")
	}
	base, err := url.Parse(serverURL)
	if err != nil {
		return strings.TrimRight(apiURL, "/")
	}
	if !strings.HasPrefix(ref.Path, "/") {
		ref.Path = "/" + ref.Path
	}
	return strings.TrimRight(base.ResolveReference(ref).String(), "/")
}
