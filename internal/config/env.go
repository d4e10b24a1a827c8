package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Env holds the environment overrides read at process start.
type Env struct {
	// ToolDir is the editor tool directory; defaults to the working directory.
	ToolDir string `env:"ATELIER_TOOL_DIR"`

	// CacheDir overrides the build cache directory.
	CacheDir string `env:"ATELIER_CACHE_DIR"`

	// DBPath overrides the sqlite journal location.
	DBPath string `env:"ATELIER_DB_PATH"`

	// RedisURL selects the redis alias resolver when set.
	RedisURL string `env:"ATELIER_REDIS_URL"`

	// Addr overrides the event server listen address.
	Addr string `env:"ATELIER_ADDR"`

	// AliasTimeout bounds the alias phase of a template drop.
	AliasTimeout time.Duration `env:"ATELIER_ALIAS_TIMEOUT" envDefault:"10s"`

	LogLevel  string `env:"ATELIER_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"ATELIER_LOG_FORMAT" envDefault:"text"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadEnv parses Env from the process environment.
func LoadEnv() (*Env, error) {
	var e Env
	if err := ParseEnv(&e); err != nil {
		return nil, err
	}
	if e.AliasTimeout <= 0 {
		return nil, fmt.Errorf("parse env: ATELIER_ALIAS_TIMEOUT must be positive, got %s", e.AliasTimeout)
	}
	return &e, nil
}
