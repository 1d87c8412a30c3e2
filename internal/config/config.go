package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/taskpulse/taskpulse-go/pkg/logger"
)

// Config holds application configuration for both the client and the dev server.
type Config struct {
	Client    ClientConfig
	Store     StoreConfig
	Redis     RedisConfig
	Server    ServerConfig
	MongoDB   MongoDBConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
	LogLevel  string
}

type ClientConfig struct {
	APIURL         string
	APIRoot        string
	SignInPath     string
	Context        string
	RefreshBuffer  time.Duration
	HTTPTimeout    time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
}

// BaseURL joins APIURL and APIRoot.
func (c ClientConfig) BaseURL() string {
	return strings.TrimRight(c.APIURL, "/") + "/" + strings.Trim(c.APIRoot, "/")
}

type StoreConfig struct {
	Backend     string
	Path        string
	RedisPrefix string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Addr returns host:port, or "" when no host is configured.
func (r RedisConfig) Addr() string {
	if r.Host == "" {
		return ""
	}
	port := r.Port
	if port == "" {
		port = "6379"
	}
	return r.Host + ":" + port
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	APIRoot      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type JWTConfig struct {
	Secret         string
	AccessTokenTTL time.Duration
}

type RateLimitConfig struct {
	Enabled bool
	Backend string
	RPS     float64
	Burst   int
	Limit   int
	Window  time.Duration
}

var (
	ErrInvalidStoreBackend = errors.New("config: store backend must be memory, file or redis")
	ErrInvalidAPIURL       = errors.New("config: api url must be absolute http(s)")
	ErrNegativeDuration    = errors.New("config: durations must not be negative")
)

// LoadConfig loads configuration from environment variables, a .env file and an
// optional taskpulse.yaml in the user config directory.
func LoadConfig() (*Config, error) {
	return LoadConfigFrom("")
}

// LoadConfigFrom is LoadConfig with an explicit config file. An empty path falls
// back to the default search locations.
func LoadConfigFrom(file string) (*Config, error) {
	_ = godotenv.Load(".env")

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	} else {
		v.SetConfigName("taskpulse")
		v.SetConfigType("yaml")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "taskpulse"))
		}
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := &Config{
		Client: ClientConfig{
			APIURL:         v.GetString("TASKPULSE_API_URL"),
			APIRoot:        v.GetString("TASKPULSE_API_ROOT"),
			SignInPath:     v.GetString("TASKPULSE_SIGNIN_PATH"),
			Context:        v.GetString("TASKPULSE_CONTEXT"),
			RefreshBuffer:  v.GetDuration("TASKPULSE_REFRESH_BUFFER"),
			HTTPTimeout:    v.GetDuration("TASKPULSE_HTTP_TIMEOUT"),
			RateLimitRPS:   v.GetFloat64("TASKPULSE_RATE_LIMIT_RPS"),
			RateLimitBurst: v.GetInt("TASKPULSE_RATE_LIMIT_BURST"),
		},
		Store: StoreConfig{
			Backend:     strings.ToLower(v.GetString("TASKPULSE_STORE")),
			Path:        v.GetString("TASKPULSE_STORE_PATH"),
			RedisPrefix: v.GetString("TASKPULSE_STORE_REDIS_PREFIX"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Server: ServerConfig{
			Port:         v.GetString("SERVER_PORT"),
			Host:         v.GetString("SERVER_HOST"),
			Environment:  v.GetString("SERVER_ENVIRONMENT"),
			APIRoot:      v.GetString("TASKPULSE_API_ROOT"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		MongoDB: MongoDBConfig{
			URI:      v.GetString("MONGODB_URI"),
			Database: v.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(v.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		JWT: JWTConfig{
			Secret:         v.GetString("JWT_SECRET"),
			AccessTokenTTL: time.Duration(v.GetInt("JWT_ACCESS_TOKEN_TTL")) * time.Minute,
		},
		RateLimit: RateLimitConfig{
			Enabled: v.GetBool("RATE_LIMIT_ENABLED"),
			Backend: strings.ToLower(v.GetString("RATE_LIMIT_BACKEND")),
			RPS:     v.GetFloat64("RATE_LIMIT_RPS"),
			Burst:   v.GetInt("RATE_LIMIT_BURST"),
			Limit:   v.GetInt("RATE_LIMIT_LIMIT"),
			Window:  v.GetDuration("RATE_LIMIT_WINDOW"),
		},
		LogLevel: v.GetString("LOG_LEVEL"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.JWT.Secret == "" {
		logger.Debugf("JWT_SECRET is not set; the dev server will refuse to start")
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("TASKPULSE_API_URL", "http://localhost:8000")
	v.SetDefault("TASKPULSE_API_ROOT", "/api/v1")
	v.SetDefault("TASKPULSE_SIGNIN_PATH", "/signin")
	v.SetDefault("TASKPULSE_CONTEXT", "default")
	v.SetDefault("TASKPULSE_REFRESH_BUFFER", "60s")
	v.SetDefault("TASKPULSE_HTTP_TIMEOUT", "0s")
	v.SetDefault("TASKPULSE_RATE_LIMIT_RPS", 0)
	v.SetDefault("TASKPULSE_RATE_LIMIT_BURST", 1)
	v.SetDefault("TASKPULSE_STORE", "file")
	v.SetDefault("TASKPULSE_STORE_REDIS_PREFIX", "taskpulse:")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("SERVER_PORT", "8000")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_ENVIRONMENT", "development")
	v.SetDefault("MONGODB_DATABASE", "taskpulse")
	v.SetDefault("MONGODB_TIMEOUT", 10)
	v.SetDefault("JWT_ACCESS_TOKEN_TTL", 1440)
	v.SetDefault("RATE_LIMIT_ENABLED", false)
	v.SetDefault("RATE_LIMIT_BACKEND", "memory")
	v.SetDefault("RATE_LIMIT_RPS", 10)
	v.SetDefault("RATE_LIMIT_BURST", 20)
	v.SetDefault("RATE_LIMIT_LIMIT", 100)
	v.SetDefault("RATE_LIMIT_WINDOW", "1m")
	v.SetDefault("LOG_LEVEL", "info")
}

// Validate checks the values a client needs to run.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "memory", "file", "redis":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStoreBackend, c.Store.Backend)
	}
	u, err := url.Parse(c.Client.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidAPIURL, c.Client.APIURL)
	}
	if c.Client.RefreshBuffer < 0 || c.Client.HTTPTimeout < 0 {
		return ErrNegativeDuration
	}
	return nil
}
