package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Host        string
	Port        int
	Environment string

	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	SentryEnabled bool   `toml:"sentry_enabled"`

	// postgres
	PostgresHost   string `toml:"postgres_host"`
	PostgresPort   string `toml:"postgres_port"`
	PostgresDBName string `toml:"postgres_db_name"`

	// redis
	RedisHost string `toml:"redis_host"`
	RedisPort string `toml:"redis_port"`

	// prometheus metrics server
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`

	// sessions
	// session_store: "memory" for a single instance, "redis" when
	// more than one instance serves traffic
	SessionStore    string `toml:"session_store"`
	SessionTTLHours int    `toml:"session_ttl_hours"`

	LoginRateLimitAllowedPerMin int `toml:"login_rate_limit_allowed_per_min"`

	DefaultAdminUsername string `toml:"default_admin_username"`
}

type Toml struct {
	Development *Config
	Production  *Config
}

func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode config file: %w", err)
	}

	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("config section for env %s missing", env)
	}

	return cfg, nil
}

func (t *Toml) Get(env string) (*Config, error) {
	switch strings.ToLower(env) {
	case "dev", "development":
		if t.Development != nil {
			t.Development.Environment = "development"
		}
		return t.Development, nil
	case "prod", "production":
		if t.Production != nil {
			t.Production.Environment = "production"
		}
		return t.Production, nil
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// SessionStoreIsRedis tells whether sessions live in redis (shared across
// instances) or in process memory.
func (c *Config) SessionStoreIsRedis() bool {
	return strings.ToLower(c.SessionStore) == "redis"
}
