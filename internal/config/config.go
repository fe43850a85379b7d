// config - источник загрузки конфигурации web-фронтенда и CLI.
//
// Источники (по убыванию приоритета):
//  1. явный путь --config;
//  2. CONFIG_PATH;
//  3. ./local.yaml;
//  4. только ENV (cleanenv).
//
// ENV всегда накладывается поверх значений из файла.
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Драйверы хранилища токенов.
const (
	StorageMemory   = "memory"
	StorageFile     = "file"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
)

type Config struct {
	Env      string        `yaml:"env" env:"ENV" env-default:"local"`
	API      APIConfig     `yaml:"api"`
	HTTP     HTTPConfig    `yaml:"http"`
	Storage  StorageConfig `yaml:"storage"`
	Session  SessionConfig `yaml:"session"`
	Timeouts TimeoutConfig `yaml:"timeouts"`
}

// APIConfig - бекенд платформы. BaseURL склеивается с "/auth/login" как есть.
type APIConfig struct {
	BaseURL string `yaml:"base_url" env:"API_URL" env-required:"true"`
}

// Origin - scheme://host[:port] базового URL; ключ изоляции токенов в CLI.
func (a APIConfig) Origin() string {
	u, err := url.Parse(a.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return a.BaseURL
	}

	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host)
}

// HTTPConfig - публичный HTTP-сервер фронтенда.
type HTTPConfig struct {
	Host string `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"HTTP_PORT" env-default:"3000"`
	// BasePath - префикс, под которым фронтенд смонтирован (например, "/app").
	BasePath string `yaml:"base_path" env:"HTTP_BASE_PATH"`
}

func (h HTTPConfig) Addr() string { return net.JoinHostPort(h.Host, h.Port) }

// Prefix - BasePath без завершающего слэша; "" и "/" означают корень.
func (h HTTPConfig) Prefix() string {
	p := strings.TrimRight(h.BasePath, "/")
	if p != "" && !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

// StorageConfig - где хранится access-токен.
type StorageConfig struct {
	Driver      string        `yaml:"driver"       env:"STORAGE_DRIVER" env-default:"file"`
	FilePath    string        `yaml:"file_path"    env:"STORAGE_FILE_PATH"`
	RedisURL    string        `yaml:"redis_url"    env:"REDIS_URL"`
	RedisPrefix string        `yaml:"redis_prefix" env:"REDIS_PREFIX" env-default:"volley:tok:"`
	TokenTTL    time.Duration `yaml:"token_ttl"    env:"TOKEN_TTL" env-default:"0s"`
	DatabaseURL string        `yaml:"db_url"       env:"DATABASE_URL"`
}

// SessionConfig - cookie браузерной сессии (scope токена в web).
type SessionConfig struct {
	CookieName string        `yaml:"cookie_name" env:"SESSION_COOKIE" env-default:"volley_session"`
	TTL        time.Duration `yaml:"ttl"         env:"SESSION_TTL"    env-default:"720h"`
	Secure     bool          `yaml:"secure"      env:"SESSION_SECURE" env-default:"false"`
}

// TimeoutConfig - общий дедлайн входящего HTTP-запроса фронтенда.
// У AuthClient своего таймаута нет, поэтому на web-пути этот дедлайн
// ограничивает и вызов бекенда (через контекст запроса).
type TimeoutConfig struct {
	Service time.Duration `yaml:"service" env:"SERVICE" env-default:"15s"`
}

// MustLoad - паника при ошибке загрузки.
func MustLoad(path string) *Config {
	cfg, err := Load(path)

	if err != nil {
		panic(err)
	}

	return cfg
}

func Load(path string) (*Config, error) {
	cfg, err := load(path)
	if err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func load(path string) (*Config, error) {
	var cfg Config

	tryRead := func(p string) (*Config, error) {
		if p == "" {
			return nil, fmt.Errorf("empty config path")
		}

		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", p, err)
		}

		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}

		return &cfg, nil
	}

	// 1) --config
	if path != "" {
		return tryRead(path)
	}

	// 2) CONFIG_PATH
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		return tryRead(envPath)
	}

	// 3) ./local.yaml
	if _, err := os.Stat("local.yaml"); err == nil {
		if err := cleanenv.ReadConfig("local.yaml", &cfg); err != nil {
			return nil, fmt.Errorf("failed to read local.yaml: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}

		return &cfg, nil
	}

	// 4) только ENV
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
	}

	return &cfg, nil
}

// validate - проверки, которые не выражаются тегами cleanenv.
func (c *Config) validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid api.base_url %q: absolute http(s) URL expected", c.API.BaseURL)
	}

	switch c.Storage.Driver {
	case StorageMemory, StorageFile:
	case StorageRedis:
		if c.Storage.RedisURL == "" {
			return fmt.Errorf("storage.redis_url is required for driver %q", c.Storage.Driver)
		}
	case StoragePostgres:
		if c.Storage.DatabaseURL == "" {
			return fmt.Errorf("storage.db_url is required for driver %q", c.Storage.Driver)
		}
	default:
		return fmt.Errorf("unknown storage.driver %q", c.Storage.Driver)
	}

	return nil
}
